package model

import (
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
)

// Comment keeps reactions.likes derived from likedBy: the count is
// always |likedBy|, updated in the same write that mutates the set.
type Comment struct {
	ID        bson.ObjectID   `json:"id"        bson:"_id,omitempty"`
	PostID    bson.ObjectID   `json:"postId"    bson:"post_id"`
	UserID    bson.ObjectID   `json:"userId"    bson:"user_id"`
	Body      string          `json:"body"      bson:"body"`
	Reactions CommentReactions `json:"reactions" bson:"reactions"`
	LikedBy   []bson.ObjectID `json:"-"         bson:"liked_by,omitempty"`
	Author    *Author         `json:"author,omitempty" bson:"author,omitempty"`
	CreatedAt time.Time       `json:"createdAt" bson:"created_at"`
	UpdatedAt time.Time       `json:"updatedAt" bson:"updated_at"`
}

type CommentReactions struct {
	Likes int `json:"likes" bson:"likes"`
}

// RankedComment is a comment prepared for a ranked page: likedBy is
// collapsed into userHasLiked and never leaves the process.
type RankedComment struct {
	Comment
	UserHasLiked bool `json:"userHasLiked"`
}

func (c Comment) Ranked(viewer bson.ObjectID) RankedComment {
	rc := RankedComment{Comment: c}
	if !viewer.IsZero() {
		for _, id := range c.LikedBy {
			if id == viewer {
				rc.UserHasLiked = true
				break
			}
		}
	}
	rc.LikedBy = nil
	return rc
}
