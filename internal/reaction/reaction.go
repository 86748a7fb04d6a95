// Package reaction models like/dislike state as an explicit machine
// instead of scattered boolean flips. A (user, post) pair is always in
// exactly one of three states, so liked && disliked is unrepresentable
// by construction.
package reaction

import "fmt"

type State int

const (
	StateNone State = iota
	StateLiked
	StateDisliked
)

func (s State) String() string {
	switch s {
	case StateLiked:
		return "liked"
	case StateDisliked:
		return "disliked"
	default:
		return "none"
	}
}

// StateOf recovers the machine state from stored flags. Both flags set
// is corrupt data; it resolves to liked so a subsequent toggle repairs
// the row rather than wedging it.
func StateOf(liked, disliked bool) State {
	switch {
	case liked:
		return StateLiked
	case disliked:
		return StateDisliked
	default:
		return StateNone
	}
}

type Event int

const (
	ToggleLike Event = iota
	ToggleDislike
)

// Change is the outcome of one transition: the next state plus the
// deltas the counter updater must apply to the post aggregates in the
// same transaction.
type Change struct {
	Next          State
	LikesDelta    int
	DislikesDelta int
}

var transitions = map[State]map[Event]Change{
	StateNone: {
		ToggleLike:    {Next: StateLiked, LikesDelta: +1},
		ToggleDislike: {Next: StateDisliked, DislikesDelta: +1},
	},
	StateLiked: {
		ToggleLike:    {Next: StateNone, LikesDelta: -1},
		ToggleDislike: {Next: StateDisliked, LikesDelta: -1, DislikesDelta: +1},
	},
	StateDisliked: {
		ToggleLike:    {Next: StateLiked, LikesDelta: +1, DislikesDelta: -1},
		ToggleDislike: {Next: StateNone, DislikesDelta: -1},
	},
}

// Apply runs one toggle through the transition table.
func Apply(s State, e Event) Change {
	return transitions[s][e]
}

// Ensure drives the state toward "on" or "off" for the given event,
// as the increment/decrement reaction endpoint requires. Unlike Apply
// it is idempotent: asking for a state the row is already in yields a
// zero-delta change.
func Ensure(s State, e Event, on bool) Change {
	target := StateNone
	if on {
		if e == ToggleLike {
			target = StateLiked
		} else {
			target = StateDisliked
		}
	} else if e == ToggleLike && s != StateLiked {
		return Change{Next: s}
	} else if e == ToggleDislike && s != StateDisliked {
		return Change{Next: s}
	}
	if s == target {
		return Change{Next: s}
	}
	return Apply(s, e)
}

// Kind is the closed set of reaction targets accepted on the wire.
type Kind int

const (
	KindLikes Kind = iota
	KindDislikes
	KindSaves
)

func ParseKind(s string) (Kind, error) {
	switch s {
	case "likes":
		return KindLikes, nil
	case "dislikes":
		return KindDislikes, nil
	case "saves":
		return KindSaves, nil
	default:
		return 0, fmt.Errorf("unknown reaction type %q", s)
	}
}

type Action int

const (
	ActionIncrement Action = iota
	ActionDecrement
)

func ParseAction(s string) (Action, error) {
	switch s {
	case "increment":
		return ActionIncrement, nil
	case "decrement":
		return ActionDecrement, nil
	default:
		return 0, fmt.Errorf("unknown reaction action %q", s)
	}
}
