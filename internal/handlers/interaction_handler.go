package handlers

import (
	"context"

	"github.com/gofiber/fiber/v2"
	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/roamly/backend/dto"
	"github.com/roamly/backend/internal/apperr"
	"github.com/roamly/backend/internal/cache"
	"github.com/roamly/backend/internal/events"
	"github.com/roamly/backend/internal/metrics"
	"github.com/roamly/backend/internal/middleware"
	"github.com/roamly/backend/internal/reaction"
	"github.com/roamly/backend/internal/respond"
	"github.com/roamly/backend/internal/store"
	"github.com/roamly/backend/model"
)

// InteractionStore is the slice of the store the interaction routes
// need. Handler tests stub it.
type InteractionStore interface {
	Toggle(ctx context.Context, userID, postID bson.ObjectID, event reaction.Event) (*store.ToggleResult, error)
	React(ctx context.Context, userID, postID bson.ObjectID, kind reaction.Kind, action reaction.Action) (*store.ToggleResult, error)
	RecordView(ctx context.Context, userID, postID bson.ObjectID, durationSeconds int64, source string) (*store.ViewResult, error)
	RecordViews(ctx context.Context, userID bson.ObjectID, items []store.BatchViewItem) ([]store.BatchViewOutcome, error)
	GetInteraction(ctx context.Context, userID, postID bson.ObjectID) (*model.UserPostInteraction, error)
	Analytics(ctx context.Context, postID bson.ObjectID) (*store.PostAnalytics, error)
	PostAuthor(ctx context.Context, id bson.ObjectID) (bson.ObjectID, error)
}

type InteractionHandler struct {
	Store   InteractionStore
	Respond *respond.Responder
	Events  *events.Publisher
	Dedup   *cache.TTLCache
}

func paramObjectID(c *fiber.Ctx, name string) (bson.ObjectID, error) {
	id, err := bson.ObjectIDFromHex(c.Params(name))
	if err != nil {
		return bson.NilObjectID, apperr.Validation("invalid " + name)
	}
	return id, nil
}

// POST /api/post-interactions/:postId/like
func (h *InteractionHandler) Like(c *fiber.Ctx) error {
	return h.toggle(c, reaction.ToggleLike, "like")
}

// POST /api/post-interactions/:postId/dislike
func (h *InteractionHandler) Dislike(c *fiber.Ctx) error {
	return h.toggle(c, reaction.ToggleDislike, "dislike")
}

func (h *InteractionHandler) toggle(c *fiber.Ctx, ev reaction.Event, name string) error {
	uid, err := middleware.UIDObjectID(c)
	if err != nil {
		return err
	}
	postID, err := paramObjectID(c, "postId")
	if err != nil {
		return h.Respond.Err(c, err)
	}

	res, err := h.Store.Toggle(c.Context(), uid, postID, ev)
	if err != nil {
		return h.Respond.Err(c, err)
	}

	metrics.Reactions.WithLabelValues(name, "toggle").Inc()
	h.Events.Publish(c.Context(), events.TypeReaction, uid, postID, name)
	return h.Respond.OK(c, "Reaction updated", res)
}

// POST /api/posts/:postId/reaction
func (h *InteractionHandler) React(c *fiber.Ctx) error {
	uid, err := middleware.UIDObjectID(c)
	if err != nil {
		return err
	}
	postID, err := paramObjectID(c, "postId")
	if err != nil {
		return h.Respond.Err(c, err)
	}

	var body dto.ReactionReq
	if err := c.BodyParser(&body); err != nil {
		return h.Respond.Err(c, apperr.Validation("invalid request body"))
	}
	if err := dto.Validate(body); err != nil {
		return h.Respond.Err(c, apperr.Validation("type must be likes|dislikes|saves and action increment|decrement"))
	}
	kind, err := reaction.ParseKind(body.Type)
	if err != nil {
		return h.Respond.Err(c, apperr.Validation(err.Error()))
	}
	action, err := reaction.ParseAction(body.Action)
	if err != nil {
		return h.Respond.Err(c, apperr.Validation(err.Error()))
	}

	res, err := h.Store.React(c.Context(), uid, postID, kind, action)
	if err != nil {
		return h.Respond.Err(c, err)
	}

	metrics.Reactions.WithLabelValues(body.Type, body.Action).Inc()
	h.Events.Publish(c.Context(), events.TypeReaction, uid, postID, body.Type+":"+body.Action)
	return h.Respond.OK(c, "Reaction updated", res)
}

// POST /api/post-interactions/:postId/view
func (h *InteractionHandler) RecordView(c *fiber.Ctx) error {
	uid, err := middleware.UIDObjectID(c)
	if err != nil {
		return err
	}
	postID, err := paramObjectID(c, "postId")
	if err != nil {
		return h.Respond.Err(c, err)
	}

	var body dto.ViewReq
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&body); err != nil {
			return h.Respond.Err(c, apperr.Validation("invalid request body"))
		}
		if err := dto.Validate(body); err != nil {
			return h.Respond.Err(c, apperr.Validation("viewDuration must be >= 0"))
		}
	}

	res, err := h.Store.RecordView(c.Context(), uid, postID, body.ViewDuration, body.ReferralSource)
	if err != nil {
		return h.Respond.Err(c, err)
	}

	metrics.Views.WithLabelValues(res.Reason).Inc()
	if res.ViewAdded {
		h.Events.Publish(c.Context(), events.TypeView, uid, postID, res.Reason)
	}
	return h.Respond.OK(c, "View tracked", res)
}

// POST /api/post-interactions/views/batch
//
// Pairs already reported inside the dedup window are skipped before
// they reach the store, so scroll-spam batches stay cheap.
func (h *InteractionHandler) RecordViewsBatch(c *fiber.Ctx) error {
	uid, err := middleware.UIDObjectID(c)
	if err != nil {
		return err
	}

	var body dto.BatchViewsReq
	if err := c.BodyParser(&body); err != nil {
		return h.Respond.Err(c, apperr.Validation("invalid request body"))
	}
	if err := dto.Validate(body); err != nil {
		return h.Respond.Err(c, apperr.Validation("views must list 1-50 valid post ids"))
	}

	items := make([]store.BatchViewItem, 0, len(body.Views))
	skipped := make([]store.BatchViewOutcome, 0)
	for _, v := range body.Views {
		postID, err := bson.ObjectIDFromHex(v.PostID)
		if err != nil {
			return h.Respond.Err(c, apperr.Validation("invalid post id "+v.PostID))
		}
		key := uid.Hex() + ":" + v.PostID
		if h.Dedup != nil && h.Dedup.Has(key) {
			skipped = append(skipped, store.BatchViewOutcome{PostID: v.PostID, Reason: "duplicate"})
			continue
		}
		items = append(items, store.BatchViewItem{PostID: postID, DurationSeconds: v.ViewDuration})
	}

	outcomes := skipped
	if len(items) > 0 {
		tracked, err := h.Store.RecordViews(c.Context(), uid, items)
		if err != nil {
			return h.Respond.Err(c, err)
		}
		for _, o := range tracked {
			metrics.Views.WithLabelValues(o.Reason).Inc()
			if h.Dedup != nil {
				h.Dedup.Set(uid.Hex()+":"+o.PostID, struct{}{})
			}
		}
		outcomes = append(outcomes, tracked...)
	}

	return h.Respond.OK(c, "Views tracked", fiber.Map{"results": outcomes})
}

// GET /api/post-interactions/:postId/status
func (h *InteractionHandler) Status(c *fiber.Ctx) error {
	uid, err := middleware.UIDObjectID(c)
	if err != nil {
		return err
	}
	postID, err := paramObjectID(c, "postId")
	if err != nil {
		return h.Respond.Err(c, err)
	}

	row, err := h.Store.GetInteraction(c.Context(), uid, postID)
	if err != nil {
		return h.Respond.Err(c, err)
	}
	return h.Respond.OK(c, "Interaction status", row.Flags())
}

// GET /api/posts/:postId/analytics
//
// Only the post's author may read its analytics.
func (h *InteractionHandler) Analytics(c *fiber.Ctx) error {
	uid, err := middleware.UIDObjectID(c)
	if err != nil {
		return err
	}
	postID, err := paramObjectID(c, "postId")
	if err != nil {
		return h.Respond.Err(c, err)
	}

	author, err := h.Store.PostAuthor(c.Context(), postID)
	if err != nil {
		return h.Respond.Err(c, err)
	}
	if author != uid {
		return h.Respond.Err(c, apperr.Forbidden("only the post author can view analytics"))
	}

	stats, err := h.Store.Analytics(c.Context(), postID)
	if err != nil {
		return h.Respond.Err(c, err)
	}
	rate := 0.0
	if stats.UniqueViewers > 0 {
		rate = float64(stats.TotalLikes+stats.TotalDislikes) / float64(stats.UniqueViewers)
	}
	return h.Respond.OK(c, "Post analytics", fiber.Map{
		"totalInteractions":   stats.TotalInteractions,
		"uniqueViewers":       stats.UniqueViewers,
		"totalLikes":          stats.TotalLikes,
		"totalDislikes":       stats.TotalDislikes,
		"averageViewDuration": stats.AvgViewDuration,
		"engagementRate":      rate,
	})
}
