package reaction

import "testing"

func TestApplyTransitions(t *testing.T) {
	tests := []struct {
		name       string
		from       State
		event      Event
		wantNext   State
		wantLikes  int
		wantDislik int
	}{
		{"none+like", StateNone, ToggleLike, StateLiked, +1, 0},
		{"none+dislike", StateNone, ToggleDislike, StateDisliked, 0, +1},
		{"liked+like toggles off", StateLiked, ToggleLike, StateNone, -1, 0},
		{"liked+dislike swaps", StateLiked, ToggleDislike, StateDisliked, -1, +1},
		{"disliked+like swaps", StateDisliked, ToggleLike, StateLiked, +1, -1},
		{"disliked+dislike toggles off", StateDisliked, ToggleDislike, StateNone, 0, -1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Apply(tt.from, tt.event)
			if got.Next != tt.wantNext {
				t.Errorf("next = %v, want %v", got.Next, tt.wantNext)
			}
			if got.LikesDelta != tt.wantLikes || got.DislikesDelta != tt.wantDislik {
				t.Errorf("deltas = (%d,%d), want (%d,%d)",
					got.LikesDelta, got.DislikesDelta, tt.wantLikes, tt.wantDislik)
			}
		})
	}
}

// Mutual exclusion: no sequence of toggles can reach a state where the
// pair reads as both liked and disliked, because the state space has no
// such point. Walk every state through every event to prove closure.
func TestMutualExclusionClosure(t *testing.T) {
	states := []State{StateNone, StateLiked, StateDisliked}
	events := []Event{ToggleLike, ToggleDislike}
	for _, s := range states {
		for _, e := range events {
			next := Apply(s, e).Next
			if next != StateNone && next != StateLiked && next != StateDisliked {
				t.Fatalf("transition from %v on %v left the state space: %v", s, e, next)
			}
		}
	}
}

// The scenario from the interaction contract: like, unlike, dislike,
// then like again, tracking the aggregate counters from zero.
func TestToggleScenarioCounters(t *testing.T) {
	likes, dislikes := 0, 0
	s := StateNone

	step := func(e Event) {
		ch := Apply(s, e)
		s = ch.Next
		likes += ch.LikesDelta
		dislikes += ch.DislikesDelta
	}

	step(ToggleLike)
	if s != StateLiked || likes != 1 || dislikes != 0 {
		t.Fatalf("after like: state=%v likes=%d dislikes=%d", s, likes, dislikes)
	}
	step(ToggleLike)
	if s != StateNone || likes != 0 || dislikes != 0 {
		t.Fatalf("after unlike: state=%v likes=%d dislikes=%d", s, likes, dislikes)
	}
	step(ToggleDislike)
	if s != StateDisliked || likes != 0 || dislikes != 1 {
		t.Fatalf("after dislike: state=%v likes=%d dislikes=%d", s, likes, dislikes)
	}
	step(ToggleLike)
	if s != StateLiked || likes != 1 || dislikes != 0 {
		t.Fatalf("after re-like: state=%v likes=%d dislikes=%d", s, likes, dislikes)
	}
}

func TestEnsureIdempotent(t *testing.T) {
	// Already liked, increment likes again: nothing changes.
	ch := Ensure(StateLiked, ToggleLike, true)
	if ch.Next != StateLiked || ch.LikesDelta != 0 || ch.DislikesDelta != 0 {
		t.Fatalf("ensure-on on liked row mutated: %+v", ch)
	}
	// Not liked, decrement likes: nothing changes.
	ch = Ensure(StateNone, ToggleLike, false)
	if ch.Next != StateNone || ch.LikesDelta != 0 {
		t.Fatalf("ensure-off on clean row mutated: %+v", ch)
	}
	// Disliked, decrement likes: the dislike stays.
	ch = Ensure(StateDisliked, ToggleLike, false)
	if ch.Next != StateDisliked || ch.LikesDelta != 0 || ch.DislikesDelta != 0 {
		t.Fatalf("ensure-off crossed reactions: %+v", ch)
	}
	// Disliked, increment likes: full swap.
	ch = Ensure(StateDisliked, ToggleLike, true)
	if ch.Next != StateLiked || ch.LikesDelta != 1 || ch.DislikesDelta != -1 {
		t.Fatalf("ensure-on from disliked: %+v", ch)
	}
}

func TestParseKindAndAction(t *testing.T) {
	if k, err := ParseKind("likes"); err != nil || k != KindLikes {
		t.Errorf("ParseKind(likes) = %v, %v", k, err)
	}
	if k, err := ParseKind("saves"); err != nil || k != KindSaves {
		t.Errorf("ParseKind(saves) = %v, %v", k, err)
	}
	if _, err := ParseKind("shares"); err == nil {
		t.Error("ParseKind(shares) should fail")
	}
	if a, err := ParseAction("decrement"); err != nil || a != ActionDecrement {
		t.Errorf("ParseAction(decrement) = %v, %v", a, err)
	}
	if _, err := ParseAction("toggle"); err == nil {
		t.Error("ParseAction(toggle) should fail")
	}
}
