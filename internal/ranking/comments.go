package ranking

import (
	"fmt"
	"math"
	"sort"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/roamly/backend/internal/seed"
	"github.com/roamly/backend/model"
)

// OrderType is the closed set of comment orderings.
type OrderType int

const (
	OrderSmart OrderType = iota
	OrderPopular
	OrderRecent
	OrderRandom
)

func ParseOrderType(s string) (OrderType, error) {
	switch s {
	case "", "smart":
		return OrderSmart, nil
	case "popular":
		return OrderPopular, nil
	case "recent":
		return OrderRecent, nil
	case "random":
		return OrderRandom, nil
	default:
		return 0, fmt.Errorf("unknown orderType %q", s)
	}
}

func (o OrderType) String() string {
	switch o {
	case OrderPopular:
		return "popular"
	case OrderRecent:
		return "recent"
	case OrderRandom:
		return "random"
	default:
		return "smart"
	}
}

// Strategy is the per-page flavor of smart ordering. Page 1 mixes
// popularity and freshness, page 2 leans popular, later pages lean
// chronological, all perturbed deterministically per post.
type Strategy int

const (
	StrategyMixed Strategy = iota
	StrategyPopularLeaning
	StrategyChronologicalMixed
)

func (s Strategy) String() string {
	switch s {
	case StrategyPopularLeaning:
		return "popular_leaning"
	case StrategyChronologicalMixed:
		return "chronological_mixed"
	default:
		return "mixed"
	}
}

// StrategyFor picks the strategy and seed for a (post, page) pair. The
// seed is stable per post and offset per page so every page is
// deterministic yet ordered differently.
func StrategyFor(postID bson.ObjectID, page int) (Strategy, int64) {
	postSeed := seed.ForPost(postID)
	switch {
	case page <= 1:
		return StrategyMixed, postSeed
	case page == 2:
		return StrategyPopularLeaning, postSeed + 100
	default:
		return StrategyChronologicalMixed, postSeed + int64(page)*50
	}
}

// Describe returns the human-readable ordering note for the response
// meta block.
func Describe(o OrderType, page int) string {
	switch o {
	case OrderSmart:
		if page <= 1 {
			return "Smart mix of popular and fresh comments"
		}
		if page == 2 {
			return "Popular comments with some variety"
		}
		return "Mixed chronological ordering"
	case OrderPopular:
		return "Ordered by most likes"
	case OrderRecent:
		return "Newest comments first"
	default:
		return "Random order for discovery"
	}
}

// Score blends popularity, freshness and a bounded deterministic
// perturbation: likes*2 scaled by time decay, plus a boost in [0, 0.3)
// derived from (comment id, seed). Decay floors at 0.1 so old heavily
// liked comments never vanish entirely.
func Score(c model.Comment, seedVal int64, now time.Time) float64 {
	ageHours := now.Sub(c.CreatedAt).Hours()
	if ageHours < 0 {
		ageHours = 0
	}
	decay := math.Max(0.1, 1/(1+ageHours/24))
	return float64(c.Reactions.Likes)*2*decay + seed.CommentBoost(c.ID, seedVal)
}

// SampleWindow sizes the creation-time-ordered sample the smart ranker
// works over: several pages wide, anchored one page before the target
// so scored items can migrate across page boundaries without the pager
// losing them.
func SampleWindow(page, limit int) (baseSkip, sampleSize int) {
	sampleSize = limit * 5
	if sampleSize < 100 {
		sampleSize = 100
	}
	baseSkip = (page-1)*limit - limit
	if baseSkip < 0 {
		baseSkip = 0
	}
	return baseSkip, sampleSize
}

// OrderSample orders a smart-ranking sample per the page strategy. The
// input slice is not modified.
func OrderSample(sample []model.Comment, strategy Strategy, seedVal int64, now time.Time) []model.Comment {
	ordered := make([]model.Comment, len(sample))
	copy(ordered, sample)

	switch strategy {
	case StrategyChronologicalMixed:
		// Recency with an up-to-one-hour deterministic shift per
		// comment.
		key := func(c model.Comment) float64 {
			jitter := seed.CommentJitter(c.ID, 3600000)
			return float64(c.CreatedAt.UnixMilli()) + float64(jitter)
		}
		sort.SliceStable(ordered, func(i, j int) bool {
			return key(ordered[i]) > key(ordered[j])
		})
	case StrategyPopularLeaning:
		// Score with a smaller secondary perturbation in [0, 0.03).
		key := func(c model.Comment) float64 {
			jitter := float64(seed.CommentJitter(c.ID, 100)) / 1000
			return Score(c, seedVal, now) + jitter*0.3
		}
		sort.SliceStable(ordered, func(i, j int) bool {
			return key(ordered[i]) > key(ordered[j])
		})
	default: // StrategyMixed
		sort.SliceStable(ordered, func(i, j int) bool {
			return Score(ordered[i], seedVal, now) > Score(ordered[j], seedVal, now)
		})
	}
	return ordered
}

// SlicePage cuts the requested page out of an ordered sample, adjusted
// for the sample's own offset into the full thread.
func SlicePage(ordered []model.Comment, page, limit, baseSkip int) []model.Comment {
	start := (page-1)*limit - baseSkip
	if start < 0 {
		start = 0
	}
	if start >= len(ordered) {
		return []model.Comment{}
	}
	end := start + limit
	if end > len(ordered) {
		end = len(ordered)
	}
	return ordered[start:end]
}

// OrderShuffled applies the deterministic seeded shuffle for the
// random mode: the whole thread reordered by per-comment shuffle keys,
// stable for a given (post, page).
func OrderShuffled(all []model.Comment, postID bson.ObjectID, page int) []model.Comment {
	seedVal := seed.RandomModeSeed(postID, page)
	ordered := make([]model.Comment, len(all))
	copy(ordered, all)
	sort.SliceStable(ordered, func(i, j int) bool {
		return seed.ShuffleKey(ordered[i].ID, seedVal) < seed.ShuffleKey(ordered[j].ID, seedVal)
	})
	return ordered
}
