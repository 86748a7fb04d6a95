// Package metrics exposes Prometheus counters for the engagement API.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	Reactions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "engagement_reactions_total",
		Help: "Reaction toggles applied, by kind and resulting action.",
	}, []string{"kind", "action"})

	Views = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "engagement_views_total",
		Help: "View recordings, by outcome (first-view, repeat-view, self-view).",
	}, []string{"outcome"})

	FeedPages = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "engagement_feed_pages_total",
		Help: "Feed pages served, by feed variant.",
	}, []string{"feed"})

	TrendingCache = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "engagement_trending_cache_total",
		Help: "Trending cache lookups, by result (hit, miss).",
	}, []string{"result"})

	CommentPages = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "engagement_comment_pages_total",
		Help: "Comment pages served, by ordering strategy.",
	}, []string{"strategy"})
)
