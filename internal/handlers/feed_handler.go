package handlers

import (
	"context"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/roamly/backend/dto"
	"github.com/roamly/backend/internal/apperr"
	"github.com/roamly/backend/internal/cursor"
	"github.com/roamly/backend/internal/feedcache"
	"github.com/roamly/backend/internal/metrics"
	"github.com/roamly/backend/internal/middleware"
	"github.com/roamly/backend/internal/ranking"
	"github.com/roamly/backend/internal/respond"
	"github.com/roamly/backend/internal/seed"
	"github.com/roamly/backend/model"
)

const (
	defaultPageSize = 10
	maxPageSize     = 50
)

// FeedStore is the slice of the store the feed routes need.
type FeedStore interface {
	GetPost(ctx context.Context, id bson.ObjectID) (*model.FeedPost, error)
	ListPosts(ctx context.Context, f model.PostFilter, sortBy, sortOrder string, page, limit int) ([]model.FeedPost, int64, error)
	RecentPosts(ctx context.Context, hours, limit int) ([]model.FeedPost, error)
	TrendingPosts(ctx context.Context, window time.Duration, limit int) ([]model.FeedPost, error)
	ChronoFeed(ctx context.Context, f model.PostFilter, untilID bson.ObjectID, limit int) ([]model.FeedPost, *bson.ObjectID, error)
	SeededCandidates(ctx context.Context, f model.PostFilter) ([]model.FeedPost, error)
	InteractionsFor(ctx context.Context, userID bson.ObjectID, postIDs []bson.ObjectID) (map[bson.ObjectID]model.InteractionFlags, error)
}

type FeedHandler struct {
	Store          FeedStore
	Respond        *respond.Responder
	Cache          *feedcache.Cache
	TrendingWindow time.Duration
}

func pageLimit(c *fiber.Ctx) (page, limit int) {
	page = c.QueryInt("page", 1)
	if page < 1 {
		page = 1
	}
	limit = c.QueryInt("limit", defaultPageSize)
	if limit < 1 {
		limit = defaultPageSize
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}
	return page, limit
}

func filterFrom(c *fiber.Ctx) model.PostFilter {
	var f model.PostFilter
	if tags := c.Query("tags"); tags != "" {
		for _, t := range strings.Split(tags, ",") {
			if t = strings.TrimSpace(t); t != "" {
				f.Tags = append(f.Tags, t)
			}
		}
	}
	f.Location = c.Query("location")
	f.Search = c.Query("search")
	return f
}

// attachInteractions fills userInteraction on each post for an
// authenticated viewer. Anonymous requests get the posts unchanged.
func (h *FeedHandler) attachInteractions(c *fiber.Ctx, posts []model.FeedPost) error {
	uid, ok := middleware.MaybeUIDObjectID(c)
	if !ok || len(posts) == 0 {
		return nil
	}
	ids := make([]bson.ObjectID, len(posts))
	for i := range posts {
		ids[i] = posts[i].ID
	}
	flags, err := h.Store.InteractionsFor(c.Context(), uid, ids)
	if err != nil {
		return err
	}
	for i := range posts {
		if f, ok := flags[posts[i].ID]; ok {
			posts[i].UserInteraction = &f
		}
	}
	return nil
}

// GET /api/posts
func (h *FeedHandler) List(c *fiber.Ctx) error {
	page, limit := pageLimit(c)
	sortBy := c.Query("sortBy", "createdAt")
	sortOrder := c.Query("sortOrder", "desc")
	f := filterFrom(c)

	var (
		posts    []model.FeedPost
		total    int64
		seedUsed int64
		err      error
	)
	switch sortBy {
	case "trending":
		posts, err = h.Store.TrendingPosts(c.Context(), h.TrendingWindow, limit)
		total = int64(len(posts))
	case "random":
		candidates, cerr := h.Store.SeededCandidates(c.Context(), f)
		if cerr != nil {
			return h.Respond.Err(c, cerr)
		}
		seedVal := int64(c.QueryInt("seed", 0))
		if seedVal == 0 {
			seedVal = seed.NewFeedSeed()
		}
		ordered := ranking.OrderSeeded(candidates, seedVal)
		items, _ := ranking.PageOf(ordered, page, limit)
		// echo the effective seed so later pages replay this ordering
		posts, total, seedUsed = items, int64(len(ordered)), seedVal
	default:
		posts, total, err = h.Store.ListPosts(c.Context(), f, sortBy, sortOrder, page, limit)
	}
	if err != nil {
		return h.Respond.Err(c, err)
	}
	if err := h.attachInteractions(c, posts); err != nil {
		return h.Respond.Err(c, err)
	}

	metrics.FeedPages.WithLabelValues(sortBy).Inc()
	return h.Respond.OK(c, "Posts fetched", dto.ListPostsResp[model.FeedPost]{
		Posts:      posts,
		Seed:       seedUsed,
		Pagination: model.NewPage(page, limit, total),
	})
}

// GET /api/posts/recent
func (h *FeedHandler) Recent(c *fiber.Ctx) error {
	_, limit := pageLimit(c)
	hours := c.QueryInt("hours", 24)
	if hours < 1 || hours > 24*7 {
		hours = 24
	}

	posts, err := h.Store.RecentPosts(c.Context(), hours, limit)
	if err != nil {
		return h.Respond.Err(c, err)
	}
	if err := h.attachInteractions(c, posts); err != nil {
		return h.Respond.Err(c, err)
	}

	metrics.FeedPages.WithLabelValues("recent").Inc()
	return h.Respond.OK(c, "Recent posts fetched", fiber.Map{"posts": posts, "hours": hours})
}

// GET /api/posts/trending
func (h *FeedHandler) Trending(c *fiber.Ctx) error {
	_, limit := pageLimit(c)
	windowDays := int(h.TrendingWindow / (24 * time.Hour))

	posts := h.Cache.Trending(c.Context(), windowDays, limit)
	if posts != nil {
		metrics.TrendingCache.WithLabelValues("hit").Inc()
	} else {
		metrics.TrendingCache.WithLabelValues("miss").Inc()
		var err error
		posts, err = h.Store.TrendingPosts(c.Context(), h.TrendingWindow, limit)
		if err != nil {
			return h.Respond.Err(c, err)
		}
		h.Cache.SetTrending(c.Context(), windowDays, limit, posts)
	}
	// interaction flags are per-viewer, attached after the shared cache
	if err := h.attachInteractions(c, posts); err != nil {
		return h.Respond.Err(c, err)
	}

	metrics.FeedPages.WithLabelValues("trending").Inc()
	return h.Respond.OK(c, "Trending posts fetched", fiber.Map{
		"posts":      posts,
		"windowDays": windowDays,
	})
}

// GET /api/posts/infinite
func (h *FeedHandler) Infinite(c *fiber.Ctx) error {
	_, limit := pageLimit(c)
	f := filterFrom(c)

	untilID := bson.NilObjectID
	if cur := c.Query("cursor"); cur != "" {
		id, err := bson.ObjectIDFromHex(cur)
		if err != nil {
			return h.Respond.Err(c, apperr.Validation("invalid cursor"))
		}
		untilID = id
	}

	posts, next, err := h.Store.ChronoFeed(c.Context(), f, untilID, limit)
	if err != nil {
		return h.Respond.Err(c, err)
	}
	if err := h.attachInteractions(c, posts); err != nil {
		return h.Respond.Err(c, err)
	}

	var nextCursor *string
	if next != nil {
		s := next.Hex()
		nextCursor = &s
	}
	metrics.FeedPages.WithLabelValues("infinite").Inc()
	return h.Respond.OK(c, "Feed fetched", dto.InfiniteFeedResp[model.FeedPost]{
		Posts:      posts,
		NextCursor: nextCursor,
		HasMore:    nextCursor != nil,
	})
}

// GET /api/posts/infinite/seeded
//
// The cursor carries the seed, so every page of one scroll session is
// cut from the same deterministic ordering.
func (h *FeedHandler) InfiniteSeeded(c *fiber.Ctx) error {
	_, limit := pageLimit(c)
	f := filterFrom(c)

	seedVal := int64(c.QueryInt("seed", 0))
	lastID := bson.NilObjectID
	if cur := c.Query("cursor"); cur != "" {
		s, id, err := cursor.DecodeFeed(cur)
		if err != nil {
			return h.Respond.Err(c, apperr.Validation("invalid cursor"))
		}
		seedVal, lastID = s, id
	}
	if seedVal == 0 {
		seedVal = seed.NewFeedSeed()
	}

	candidates, err := h.Store.SeededCandidates(c.Context(), f)
	if err != nil {
		return h.Respond.Err(c, err)
	}
	ordered := ranking.OrderSeeded(candidates, seedVal)
	items, next := ranking.AfterCursor(ordered, lastID, limit)
	if err := h.attachInteractions(c, items); err != nil {
		return h.Respond.Err(c, err)
	}

	var nextCursor *string
	if next != nil {
		s := cursor.EncodeFeed(seedVal, *next)
		nextCursor = &s
	}
	metrics.FeedPages.WithLabelValues("seeded").Inc()
	return h.Respond.OK(c, "Feed fetched", dto.SeededFeedResp[model.FeedPost]{
		Posts:      items,
		Seed:       seedVal,
		NextCursor: nextCursor,
		HasMore:    nextCursor != nil,
	})
}

// GET /api/posts/:id
func (h *FeedHandler) Get(c *fiber.Ctx) error {
	id, err := paramObjectID(c, "id")
	if err != nil {
		return h.Respond.Err(c, err)
	}
	post, err := h.Store.GetPost(c.Context(), id)
	if err != nil {
		return h.Respond.Err(c, err)
	}
	if uid, ok := middleware.MaybeUIDObjectID(c); ok {
		flags, err := h.Store.InteractionsFor(c.Context(), uid, []bson.ObjectID{id})
		if err != nil {
			return h.Respond.Err(c, err)
		}
		if f, ok := flags[id]; ok {
			post.UserInteraction = &f
		}
	}
	return h.Respond.OK(c, "Post fetched", post)
}
