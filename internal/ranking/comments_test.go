package ranking

import (
	"fmt"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/roamly/backend/model"
)

func makeComment(t *testing.T, suffix string, likes int, age time.Duration, now time.Time) model.Comment {
	t.Helper()
	id, err := bson.ObjectIDFromHex("65b000000000000000" + suffix)
	if err != nil {
		t.Fatalf("bad id suffix %q: %v", suffix, err)
	}
	return model.Comment{
		ID:        id,
		Reactions: model.CommentReactions{Likes: likes},
		CreatedAt: now.Add(-age),
	}
}

func TestParseOrderType(t *testing.T) {
	for s, want := range map[string]OrderType{
		"":        OrderSmart,
		"smart":   OrderSmart,
		"popular": OrderPopular,
		"recent":  OrderRecent,
		"random":  OrderRandom,
	} {
		got, err := ParseOrderType(s)
		if err != nil || got != want {
			t.Errorf("ParseOrderType(%q) = %v, %v", s, got, err)
		}
	}
	if _, err := ParseOrderType("hot"); err == nil {
		t.Error("ParseOrderType(hot) should fail")
	}
}

func TestStrategyForPages(t *testing.T) {
	postID := bson.NewObjectID()

	s1, seed1 := StrategyFor(postID, 1)
	s2, seed2 := StrategyFor(postID, 2)
	s3, _ := StrategyFor(postID, 3)
	s9, seed9 := StrategyFor(postID, 9)

	if s1 != StrategyMixed || s2 != StrategyPopularLeaning ||
		s3 != StrategyChronologicalMixed || s9 != StrategyChronologicalMixed {
		t.Fatalf("strategies = %v %v %v %v", s1, s2, s3, s9)
	}
	if seed2 != seed1+100 {
		t.Errorf("page 2 seed offset: %d vs %d", seed2, seed1)
	}
	if seed9 != seed1+9*50 {
		t.Errorf("page 9 seed offset: %d vs %d", seed9, seed1)
	}

	// Same post, same page: same outcome every time.
	for i := 0; i < 5; i++ {
		s, sv := StrategyFor(postID, 2)
		if s != s2 || sv != seed2 {
			t.Fatal("StrategyFor not deterministic")
		}
	}
}

// Two comments with equal likes: the 1-hour-old one must rank at or
// above the 48-hour-old one, since decay dominates the bounded boost.
func TestScoreTimeDecayBeatsBoost(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	fresh := makeComment(t, "0001aa", 5, time.Hour, now)
	stale := makeComment(t, "0002bb", 5, 48*time.Hour, now)

	for _, seedVal := range []int64{1, 37, 250, 999} {
		sf := Score(fresh, seedVal, now)
		ss := Score(stale, seedVal, now)
		if sf < ss {
			t.Errorf("seed %d: fresh %.4f ranked below stale %.4f", seedVal, sf, ss)
		}
	}

	ordered := OrderSample([]model.Comment{stale, fresh}, StrategyMixed, 42, now)
	if ordered[0].ID != fresh.ID {
		t.Error("mixed strategy put the stale comment first")
	}
}

func TestScoreDecayFloor(t *testing.T) {
	now := time.Now()
	ancient := makeComment(t, "0003cc", 10, 365*24*time.Hour, now)
	// decay floors at 0.1, so likes*2*0.1 = 2 is the minimum base.
	if s := Score(ancient, 0, now); s < 2 {
		t.Errorf("score %.4f below the decay floor", s)
	}
}

func TestOrderSampleDeterministic(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	var sample []model.Comment
	for i := 0; i < 40; i++ {
		sample = append(sample, makeComment(t, fmt.Sprintf("00%04x", i), i%7, time.Duration(i)*time.Hour, now))
	}

	for _, strategy := range []Strategy{StrategyMixed, StrategyPopularLeaning, StrategyChronologicalMixed} {
		a := OrderSample(sample, strategy, 123, now)
		b := OrderSample(sample, strategy, 123, now)
		for i := range a {
			if a[i].ID != b[i].ID {
				t.Fatalf("%v diverged at %d", strategy, i)
			}
		}
	}
}

func TestSampleWindow(t *testing.T) {
	tests := []struct {
		page, limit, wantSkip, wantSize int
	}{
		{1, 15, 0, 100},
		{2, 15, 0, 100},
		{3, 15, 15, 100},
		{4, 30, 60, 150},
	}
	for _, tt := range tests {
		skip, size := SampleWindow(tt.page, tt.limit)
		if skip != tt.wantSkip || size != tt.wantSize {
			t.Errorf("SampleWindow(%d,%d) = (%d,%d), want (%d,%d)",
				tt.page, tt.limit, skip, size, tt.wantSkip, tt.wantSize)
		}
	}
}

func TestSlicePageOffsets(t *testing.T) {
	now := time.Now()
	var ordered []model.Comment
	for i := 0; i < 50; i++ {
		ordered = append(ordered, makeComment(t, fmt.Sprintf("00%04x", i), 0, 0, now))
	}

	// Page 1, no base offset: first |limit| items.
	page := SlicePage(ordered, 1, 15, 0)
	if len(page) != 15 || page[0].ID != ordered[0].ID {
		t.Fatalf("page 1 slice wrong: len=%d", len(page))
	}
	// Page 3 with the sample anchored at baseSkip 15: window starts at
	// index 30-15.
	page = SlicePage(ordered, 3, 15, 15)
	if len(page) != 15 || page[0].ID != ordered[15].ID {
		t.Fatalf("page 3 slice wrong: len=%d", len(page))
	}
	// Past the end: empty, not a panic.
	if got := SlicePage(ordered, 9, 15, 0); len(got) != 0 {
		t.Fatalf("slice past end returned %d items", len(got))
	}
}

func TestOrderShuffledDeterministicPerPage(t *testing.T) {
	now := time.Now()
	postID := bson.NewObjectID()
	var all []model.Comment
	for i := 0; i < 25; i++ {
		all = append(all, makeComment(t, fmt.Sprintf("00%04x", i), 0, 0, now))
	}

	a := OrderShuffled(all, postID, 1)
	b := OrderShuffled(all, postID, 1)
	for i := range a {
		if a[i].ID != b[i].ID {
			t.Fatal("same (post, page) shuffle diverged")
		}
	}

	c := OrderShuffled(all, postID, 2)
	same := true
	for i := range a {
		if a[i].ID != c[i].ID {
			same = false
			break
		}
	}
	if same {
		t.Error("page change left the shuffle untouched")
	}
}
