package dto

import (
	"github.com/go-playground/validator/v10"

	"github.com/roamly/backend/model"
)

// ListPostsResp carries an offset-paginated page. Seed is set only by
// the random sort, so the client can replay the same ordering on the
// next page.
type ListPostsResp[T any] struct {
	Posts      []T        `json:"posts"`
	Seed       int64      `json:"seed,omitempty"`
	Pagination model.Page `json:"pagination"`
}

type InfiniteFeedResp[T any] struct {
	Posts      []T     `json:"posts"`
	NextCursor *string `json:"nextCursor"`
	HasMore    bool    `json:"hasMore"`
}

type SeededFeedResp[T any] struct {
	Posts      []T     `json:"posts"`
	Seed       int64   `json:"seed"`
	NextCursor *string `json:"nextCursor"`
	HasMore    bool    `json:"hasMore"`
}

var validate = validator.New()

// Validate runs the struct tags on a request body.
func Validate(v any) error {
	return validate.Struct(v)
}
