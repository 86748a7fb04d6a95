// Package ranking holds the ordering logic for post feeds and comment
// threads. Everything here is pure: repositories hand in rows, the
// rankers return them ordered and sliced, and identical inputs always
// produce identical pages.
package ranking

import (
	"sort"

	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/roamly/backend/internal/seed"
	"github.com/roamly/backend/model"
)

// TrendingScore mirrors the aggregation the trending feed sorts by.
func TrendingScore(likes, dislikes int, views int64) float64 {
	return float64(likes)*3 + float64(views)*0.1 + float64(likes-dislikes)
}

// OrderSeeded sorts candidates into the stable seeded order: ascending
// per-post sort key, id as tiebreak. The input slice is not modified.
func OrderSeeded(posts []model.FeedPost, seedVal int64) []model.FeedPost {
	ordered := make([]model.FeedPost, len(posts))
	copy(ordered, posts)

	keys := make(map[bson.ObjectID]uint64, len(ordered))
	for _, p := range ordered {
		keys[p.ID] = seed.FeedSortKey(seedVal, p.ID, p.CreatedAt)
	}
	sort.SliceStable(ordered, func(i, j int) bool {
		ki, kj := keys[ordered[i].ID], keys[ordered[j].ID]
		if ki != kj {
			return ki < kj
		}
		return ordered[i].ID.Hex() < ordered[j].ID.Hex()
	})
	return ordered
}

// PageOf slices an offset page out of an ordered list.
func PageOf(posts []model.FeedPost, page, limit int) (items []model.FeedPost, hasNext bool) {
	start := (page - 1) * limit
	if start >= len(posts) {
		return []model.FeedPost{}, false
	}
	end := start + limit
	if end > len(posts) {
		end = len(posts)
	}
	return posts[start:end], end < len(posts)
}

// AfterCursor slices the window following cursorID out of an ordered
// list, returning the cursor for the next page when more remain. An
// unknown or zero cursor starts from the top.
func AfterCursor(posts []model.FeedPost, cursorID bson.ObjectID, limit int) (items []model.FeedPost, next *bson.ObjectID) {
	start := 0
	if !cursorID.IsZero() {
		for i, p := range posts {
			if p.ID == cursorID {
				start = i + 1
				break
			}
		}
	}
	if start >= len(posts) {
		return []model.FeedPost{}, nil
	}
	end := start + limit
	if end > len(posts) {
		end = len(posts)
	}
	items = posts[start:end]
	if end < len(posts) && len(items) > 0 {
		last := items[len(items)-1].ID
		next = &last
	}
	return items, next
}
