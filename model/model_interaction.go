package model

import (
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
)

// UserPostInteraction is one row per (user, post) pair, unique on that
// pair. liked and disliked are never both true; the transition table in
// internal/reaction is the only writer of those flags.
//
// viewed gates the post's aggregate view counter: it flips to true at
// most once and only that flip increments post.views. ViewCount is the
// separate per-user engagement counter and keeps growing on repeat
// views.
type UserPostInteraction struct {
	ID                bson.ObjectID `json:"id"                bson:"_id,omitempty"`
	UserID            bson.ObjectID `json:"userId"            bson:"user"`
	PostID            bson.ObjectID `json:"postId"            bson:"post"`
	Liked             bool          `json:"liked"             bson:"liked"`
	Disliked          bool          `json:"disliked"          bson:"disliked"`
	Saved             bool          `json:"saved"             bson:"saved"`
	Viewed            bool          `json:"viewed"            bson:"viewed"`
	ViewCount         int64         `json:"viewCount"         bson:"view_count"`
	FirstViewedAt     *time.Time    `json:"firstViewedAt,omitempty" bson:"first_viewed_at,omitempty"`
	LastViewAt        *time.Time    `json:"lastViewAt,omitempty"    bson:"last_view_at,omitempty"`
	TotalViewDuration int64         `json:"totalViewDuration" bson:"total_view_duration"`
	ReferralSource    string        `json:"referralSource,omitempty" bson:"referral_source,omitempty"`
	LastInteraction   time.Time     `json:"lastInteraction"   bson:"last_interaction"`
	CreatedAt         time.Time     `json:"createdAt"         bson:"created_at"`
	UpdatedAt         time.Time     `json:"updatedAt"         bson:"updated_at"`
}

// InteractionFlags is the read-side projection attached to posts and
// returned by the status endpoint.
type InteractionFlags struct {
	Liked             bool  `json:"liked"`
	Disliked          bool  `json:"disliked"`
	Saved             bool  `json:"saved"`
	Viewed            bool  `json:"viewed"`
	ViewCount         int64 `json:"viewCount"`
	TotalViewDuration int64 `json:"totalViewDuration"`
}

func (i *UserPostInteraction) Flags() InteractionFlags {
	if i == nil {
		return InteractionFlags{}
	}
	return InteractionFlags{
		Liked:             i.Liked,
		Disliked:          i.Disliked,
		Saved:             i.Saved,
		Viewed:            i.Viewed,
		ViewCount:         i.ViewCount,
		TotalViewDuration: i.TotalViewDuration,
	}
}
