// Package seed holds the deterministic pseudo-random derivations the
// rankers share. Everything here is a pure function of its inputs so
// identical requests reproduce identical orderings.
package seed

import (
	"hash/fnv"
	"math/rand"
	"strconv"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
)

// FeedKeyRange bounds the per-post sort keys for seeded feeds.
const FeedKeyRange = 100000

// ForPost derives the stable per-post seed used by smart comment
// ordering: the low 8 hex digits of the post id, mod 1000.
func ForPost(postID bson.ObjectID) int64 {
	return int64(tailHex(postID.Hex(), 8) % 1000)
}

// NewFeedSeed generates a seed for a fresh seeded-feed session. The
// client echoes it back on subsequent pages.
func NewFeedSeed() int64 {
	return rand.Int63n(1 << 31)
}

// FeedSortKey maps (seed, post id, creation time) to a stable key in
// [0, FeedKeyRange). Sorting ascending by key yields the seeded order.
func FeedSortKey(seedVal int64, id bson.ObjectID, createdAt time.Time) uint64 {
	h := fnv.New64a()
	h.Write([]byte(strconv.FormatInt(seedVal, 10)))
	h.Write([]byte(id.Hex()))
	h.Write([]byte(strconv.FormatInt(createdAt.Unix(), 10)))
	return h.Sum64() % FeedKeyRange
}

// CommentBoost is the bounded perturbation added to smart comment
// scores: ((idNum * seed) mod 1000) / 1000 * 0.3, idNum being the low
// 8 hex digits of the comment id.
func CommentBoost(commentID bson.ObjectID, seedVal int64) float64 {
	idNum := int64(tailHex(commentID.Hex(), 8))
	n := (idNum * seedVal) % 1000
	if n < 0 {
		n += 1000
	}
	return float64(n) / 1000 * 0.3
}

// CommentJitter is the smaller secondary perturbation used by the
// popular-leaning and chronological-mixed strategies; modulus chosen
// per strategy (100 for score jitter, 3600000 for time jitter).
func CommentJitter(commentID bson.ObjectID, mod uint64) uint64 {
	return tailHex(commentID.Hex(), 4) % mod
}

// ShuffleKey orders a deterministic shuffle for the random comment
// mode. FNV over (id, seed) rather than the ad hoc string-concat
// truncation, which collapsed for seeds of 8+ digits.
func ShuffleKey(commentID bson.ObjectID, seedVal int64) uint64 {
	h := fnv.New64a()
	h.Write([]byte(commentID.Hex()))
	h.Write([]byte(strconv.FormatInt(seedVal, 10)))
	return h.Sum64()
}

// RandomModeSeed derives the per-(post, page) seed for the random
// comment mode: low 6 hex digits of the post id plus page*1000.
func RandomModeSeed(postID bson.ObjectID, page int) int64 {
	return int64(tailHex(postID.Hex(), 6)) + int64(page)*1000
}

// tailHex parses the trailing n hex digits of s. Malformed input
// cannot occur for ObjectID hex strings, but fall back to 0 anyway.
func tailHex(s string, n int) uint64 {
	if len(s) > n {
		s = s[len(s)-n:]
	}
	v, err := strconv.ParseUint(s, 16, 64)
	if err != nil {
		return 0
	}
	return v
}
