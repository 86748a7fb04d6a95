package handlers

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/roamly/backend/dto"
	"github.com/roamly/backend/internal/apperr"
	"github.com/roamly/backend/internal/events"
	"github.com/roamly/backend/internal/metrics"
	"github.com/roamly/backend/internal/middleware"
	"github.com/roamly/backend/internal/ranking"
	"github.com/roamly/backend/internal/respond"
	"github.com/roamly/backend/internal/store"
	"github.com/roamly/backend/model"
)

// CommentStore is the slice of the store the comment routes need.
type CommentStore interface {
	CreateComment(ctx context.Context, postID, userID bson.ObjectID, body string) (*model.Comment, error)
	CommentsWindow(ctx context.Context, postID bson.ObjectID, skip, limit int) ([]model.Comment, error)
	CommentsByLikes(ctx context.Context, postID bson.ObjectID, skip, limit int) ([]model.Comment, error)
	AllComments(ctx context.Context, postID bson.ObjectID) ([]model.Comment, error)
	CountComments(ctx context.Context, postID bson.ObjectID) (int64, error)
	ToggleCommentLike(ctx context.Context, commentID, userID bson.ObjectID) (*store.CommentLikeResult, error)
}

type CommentHandler struct {
	Store   CommentStore
	Respond *respond.Responder
	Events  *events.Publisher
}

// POST /api/comments
func (h *CommentHandler) Create(c *fiber.Ctx) error {
	uid, err := middleware.UIDObjectID(c)
	if err != nil {
		return err
	}

	var body dto.CreateCommentReq
	if err := c.BodyParser(&body); err != nil {
		return h.Respond.Err(c, apperr.Validation("invalid request body"))
	}
	if err := dto.Validate(body); err != nil {
		return h.Respond.Err(c, apperr.Validation("postId and text (1-2000 chars) are required"))
	}
	postID, err := bson.ObjectIDFromHex(body.PostID)
	if err != nil {
		return h.Respond.Err(c, apperr.Validation("invalid post id"))
	}

	com, err := h.Store.CreateComment(c.Context(), postID, uid, body.Text)
	if err != nil {
		return h.Respond.Err(c, err)
	}

	h.Events.Publish(c.Context(), events.TypeComment, uid, postID, com.ID.Hex())
	return h.Respond.Created(c, "Comment created", com.Ranked(uid))
}

// PATCH /api/comments/:id/like
func (h *CommentHandler) ToggleLike(c *fiber.Ctx) error {
	uid, err := middleware.UIDObjectID(c)
	if err != nil {
		return err
	}
	commentID, err := paramObjectID(c, "id")
	if err != nil {
		return h.Respond.Err(c, err)
	}

	res, err := h.Store.ToggleCommentLike(c.Context(), commentID, uid)
	if err != nil {
		return h.Respond.Err(c, err)
	}

	metrics.Reactions.WithLabelValues("comment-like", "toggle").Inc()
	return h.Respond.OK(c, "Comment like updated", res)
}

// GET /api/comments/post/:postId
func (h *CommentHandler) List(c *fiber.Ctx) error {
	postID, err := paramObjectID(c, "postId")
	if err != nil {
		return h.Respond.Err(c, err)
	}
	orderType, err := ranking.ParseOrderType(c.Query("orderType"))
	if err != nil {
		return h.Respond.Err(c, apperr.Validation("orderType must be smart, popular, recent or random"))
	}
	page, limit := pageLimit(c)

	total, err := h.Store.CountComments(c.Context(), postID)
	if err != nil {
		return h.Respond.Err(c, err)
	}

	var comments []model.Comment
	meta := dto.CommentsMeta{
		OrderType:   orderType.String(),
		Description: ranking.Describe(orderType, page),
	}

	switch orderType {
	case ranking.OrderSmart:
		strategy, seedVal := ranking.StrategyFor(postID, page)
		baseSkip, sampleSize := ranking.SampleWindow(page, limit)
		sample, serr := h.Store.CommentsWindow(c.Context(), postID, baseSkip, sampleSize)
		if serr != nil {
			return h.Respond.Err(c, serr)
		}
		ordered := ranking.OrderSample(sample, strategy, seedVal, time.Now())
		comments = ranking.SlicePage(ordered, page, limit, baseSkip)
		meta.OrderingStrategy = strategy.String()
	case ranking.OrderPopular:
		comments, err = h.Store.CommentsByLikes(c.Context(), postID, (page-1)*limit, limit)
	case ranking.OrderRecent:
		comments, err = h.Store.CommentsWindow(c.Context(), postID, (page-1)*limit, limit)
	case ranking.OrderRandom:
		all, aerr := h.Store.AllComments(c.Context(), postID)
		if aerr != nil {
			return h.Respond.Err(c, aerr)
		}
		shuffled := ranking.OrderShuffled(all, postID, page)
		comments = ranking.SlicePage(shuffled, page, limit, 0)
	}
	if err != nil {
		return h.Respond.Err(c, err)
	}

	viewer, _ := middleware.MaybeUIDObjectID(c)
	ranked := make([]model.RankedComment, len(comments))
	for i, com := range comments {
		ranked[i] = com.Ranked(viewer)
	}

	metrics.CommentPages.WithLabelValues(meta.OrderType).Inc()
	return h.Respond.OK(c, "Comments fetched", dto.ListCommentsResp[model.RankedComment]{
		Comments:   ranked,
		Pagination: model.NewPage(page, limit, total),
		Meta:       meta,
	})
}
