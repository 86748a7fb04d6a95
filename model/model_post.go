package model

import (
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
)

// Reactions are the denormalized counters kept in sync with the
// interaction rows for the post. Saves are per-user only and carry
// no aggregate count.
type Reactions struct {
	Likes    int `json:"likes"    bson:"likes"`
	Dislikes int `json:"dislikes" bson:"dislikes"`
}

type Post struct {
	ID          bson.ObjectID `json:"id"          bson:"_id,omitempty"`
	UserID      bson.ObjectID `json:"userId"      bson:"user_id"`
	Title       string        `json:"title"       bson:"title"`
	Description string        `json:"description" bson:"description"`
	Images      []string      `json:"images"      bson:"images,omitempty"`
	Videos      []string      `json:"videos"      bson:"videos,omitempty"`
	Tags        []string      `json:"tags"        bson:"tags,omitempty"`
	Location    string        `json:"location"    bson:"location,omitempty"`
	Reactions   Reactions     `json:"reactions"   bson:"reactions"`
	Views       int64         `json:"views"       bson:"views"`
	IsPinned    bool          `json:"isPinned"    bson:"is_pinned"`
	CreatedAt   time.Time     `json:"createdAt"   bson:"created_at"`
	UpdatedAt   time.Time     `json:"updatedAt"   bson:"updated_at"`
}

// Author is the slice of the users collection joined into feed rows.
type Author struct {
	ID         bson.ObjectID `json:"id"         bson:"_id"`
	UserName   string        `json:"userName"   bson:"user_name"`
	FullName   string        `json:"fullName"   bson:"full_name"`
	ProfilePic string        `json:"profilePic" bson:"profile_pic"`
}

// FeedPost is a post as feed queries return it: author joined in,
// trending score present only on trending reads, and the caller's
// own interaction attached only when authenticated.
type FeedPost struct {
	Post            `bson:",inline"`
	Author          *Author           `json:"author,omitempty"          bson:"author,omitempty"`
	TrendingScore   float64           `json:"trendingScore,omitempty"   bson:"trending_score,omitempty"`
	UserInteraction *InteractionFlags `json:"userInteraction,omitempty" bson:"-"`
}

// PostFilter narrows feed queries. The zero value matches everything.
type PostFilter struct {
	Tags     []string
	Location string
	Search   string
}

// Page is offset pagination metadata shared by list responses.
type Page struct {
	CurrentPage int   `json:"currentPage"`
	TotalPages  int   `json:"totalPages"`
	TotalItems  int64 `json:"totalItems"`
	HasNext     bool  `json:"hasNext"`
	HasPrev     bool  `json:"hasPrev"`
}

func NewPage(page, limit int, total int64) Page {
	totalPages := int((total + int64(limit) - 1) / int64(limit))
	return Page{
		CurrentPage: page,
		TotalPages:  totalPages,
		TotalItems:  total,
		HasNext:     page < totalPages,
		HasPrev:     page > 1,
	}
}
