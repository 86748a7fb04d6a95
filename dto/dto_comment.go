package dto

import "github.com/roamly/backend/model"

type CreateCommentReq struct {
	PostID string `json:"postId" validate:"required,len=24,hexadecimal"`
	Text   string `json:"text" validate:"required,min=1,max=2000"`
}

type ListCommentsResp[T any] struct {
	Comments   []T          `json:"comments"`
	Pagination model.Page   `json:"pagination"`
	Meta       CommentsMeta `json:"meta"`
}

// CommentsMeta tells the client which ordering produced the page, so
// infinite-scroll UIs can keep the parameters stable across pages.
type CommentsMeta struct {
	OrderType        string `json:"orderType"`
	OrderingStrategy string `json:"orderingStrategy,omitempty"`
	Description      string `json:"description,omitempty"`
}
