package store

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/roamly/backend/internal/apperr"
	"github.com/roamly/backend/internal/reaction"
	"github.com/roamly/backend/model"
)

// PostCounters is the post aggregate slice returned by toggles.
type PostCounters struct {
	ID       bson.ObjectID `json:"_id"`
	Likes    int           `json:"likes"`
	Dislikes int           `json:"dislikes"`
}

// ToggleResult reports the interaction state and the post counters
// after a like/dislike mutation committed.
type ToggleResult struct {
	Liked    bool         `json:"liked"`
	Disliked bool         `json:"disliked"`
	Saved    bool         `json:"saved"`
	Post     PostCounters `json:"post"`
}

// ViewResult reports the outcome of one tracked view.
type ViewResult struct {
	ViewAdded     bool   `json:"viewAdded"`
	TotalViews    int64  `json:"totalViews"`
	UserViewCount int64  `json:"userViewCount"`
	Reason        string `json:"reason"`
}

// GetInteraction returns the row for (user, post), or nil when the
// user has never interacted with the post.
func (s *Store) GetInteraction(ctx context.Context, userID, postID bson.ObjectID) (*model.UserPostInteraction, error) {
	var row model.UserPostInteraction
	err := s.interactions.FindOne(ctx, bson.M{"user": userID, "post": postID}).Decode(&row)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, apperr.Internal("failed to load interaction", err)
	}
	return &row, nil
}

// Toggle flips the like or dislike state for (user, post) and applies
// the matching aggregate deltas to the post in the same transaction.
func (s *Store) Toggle(ctx context.Context, userID, postID bson.ObjectID, event reaction.Event) (*ToggleResult, error) {
	if err := s.requirePost(ctx, postID); err != nil {
		return nil, err
	}

	var result ToggleResult
	err := s.withTxn(ctx, func(ctx context.Context) error {
		row, err := s.GetInteraction(ctx, userID, postID)
		if err != nil {
			return err
		}
		state := reaction.StateNone
		saved := false
		if row != nil {
			state = reaction.StateOf(row.Liked, row.Disliked)
			saved = row.Saved
		}
		ch := reaction.Apply(state, event)
		counters, err := s.commitChange(ctx, userID, postID, ch)
		if err != nil {
			return err
		}
		result = ToggleResult{
			Liked:    ch.Next == reaction.StateLiked,
			Disliked: ch.Next == reaction.StateDisliked,
			Saved:    saved,
			Post:     *counters,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// React serves the typed reaction endpoint: likes/dislikes map onto
// idempotent ensure-on/ensure-off transitions, saves flip the per-user
// flag only (no aggregate counter exists for them).
func (s *Store) React(ctx context.Context, userID, postID bson.ObjectID, kind reaction.Kind, action reaction.Action) (*ToggleResult, error) {
	if err := s.requirePost(ctx, postID); err != nil {
		return nil, err
	}

	var result ToggleResult
	err := s.withTxn(ctx, func(ctx context.Context) error {
		row, err := s.GetInteraction(ctx, userID, postID)
		if err != nil {
			return err
		}
		state := reaction.StateNone
		saved := false
		if row != nil {
			state = reaction.StateOf(row.Liked, row.Disliked)
			saved = row.Saved
		}

		if kind == reaction.KindSaves {
			saved = action == reaction.ActionIncrement
			now := time.Now().UTC()
			_, err := s.interactions.UpdateOne(ctx,
				bson.M{"user": userID, "post": postID},
				bson.M{
					"$set": bson.M{
						"saved":            saved,
						"last_interaction": now,
						"updated_at":       now,
					},
					"$setOnInsert": insertDefaults(userID, postID, now),
				},
				options.UpdateOne().SetUpsert(true),
			)
			if err != nil {
				return apperr.Internal("failed to update saved state", err)
			}
			counters, err := s.postCounters(ctx, postID)
			if err != nil {
				return err
			}
			result = ToggleResult{
				Liked:    state == reaction.StateLiked,
				Disliked: state == reaction.StateDisliked,
				Saved:    saved,
				Post:     *counters,
			}
			return nil
		}

		event := reaction.ToggleLike
		if kind == reaction.KindDislikes {
			event = reaction.ToggleDislike
		}
		ch := reaction.Ensure(state, event, action == reaction.ActionIncrement)
		counters, err := s.commitChange(ctx, userID, postID, ch)
		if err != nil {
			return err
		}
		result = ToggleResult{
			Liked:    ch.Next == reaction.StateLiked,
			Disliked: ch.Next == reaction.StateDisliked,
			Saved:    saved,
			Post:     *counters,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// commitChange persists the interaction flags for a state change and
// applies the counter deltas to the post, floored at zero.
func (s *Store) commitChange(ctx context.Context, userID, postID bson.ObjectID, ch reaction.Change) (*PostCounters, error) {
	now := time.Now().UTC()
	_, err := s.interactions.UpdateOne(ctx,
		bson.M{"user": userID, "post": postID},
		bson.M{
			"$set": bson.M{
				"liked":            ch.Next == reaction.StateLiked,
				"disliked":         ch.Next == reaction.StateDisliked,
				"last_interaction": now,
				"updated_at":       now,
			},
			"$setOnInsert": insertDefaults(userID, postID, now),
		},
		options.UpdateOne().SetUpsert(true),
	)
	if err != nil {
		return nil, apperr.Internal("failed to update interaction", err)
	}

	if ch.LikesDelta == 0 && ch.DislikesDelta == 0 {
		return s.postCounters(ctx, postID)
	}

	var updated struct {
		ID        bson.ObjectID   `bson:"_id"`
		Reactions model.Reactions `bson:"reactions"`
	}
	err = s.posts.FindOneAndUpdate(ctx,
		bson.M{"_id": postID},
		bson.M{"$inc": bson.M{
			"reactions.likes":    ch.LikesDelta,
			"reactions.dislikes": ch.DislikesDelta,
		}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&updated)
	if err != nil {
		return nil, apperr.Internal("failed to update post counters", err)
	}

	// A decrement can only follow a set flag, so negatives mean the
	// aggregate had drifted; pin it back to zero.
	if updated.Reactions.Likes < 0 || updated.Reactions.Dislikes < 0 {
		fix := bson.M{}
		if updated.Reactions.Likes < 0 {
			fix["reactions.likes"] = 0
			updated.Reactions.Likes = 0
		}
		if updated.Reactions.Dislikes < 0 {
			fix["reactions.dislikes"] = 0
			updated.Reactions.Dislikes = 0
		}
		if _, err := s.posts.UpdateOne(ctx, bson.M{"_id": postID}, bson.M{"$set": fix}); err != nil {
			return nil, apperr.Internal("failed to floor post counters", err)
		}
	}

	return &PostCounters{
		ID:       updated.ID,
		Likes:    updated.Reactions.Likes,
		Dislikes: updated.Reactions.Dislikes,
	}, nil
}

// RecordView marks (user, post) as viewed and bumps post.views exactly
// once per user. Self-views never touch state. Repeat views only
// accumulate per-user engagement.
func (s *Store) RecordView(ctx context.Context, userID, postID bson.ObjectID, durationSeconds int64, source string) (*ViewResult, error) {
	var post struct {
		UserID bson.ObjectID `bson:"user_id"`
		Views  int64         `bson:"views"`
	}
	err := s.posts.FindOne(ctx, bson.M{"_id": postID},
		options.FindOne().SetProjection(bson.M{"user_id": 1, "views": 1}),
	).Decode(&post)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, apperr.NotFound("Post not found")
	}
	if err != nil {
		return nil, apperr.Internal("failed to load post", err)
	}

	if post.UserID == userID {
		return &ViewResult{ViewAdded: false, TotalViews: post.Views, Reason: "self-view"}, nil
	}

	var result ViewResult
	err = s.withTxn(ctx, func(ctx context.Context) error {
		row, err := s.GetInteraction(ctx, userID, postID)
		if err != nil {
			return err
		}
		now := time.Now().UTC()
		firstView := row == nil || !row.Viewed

		set := bson.M{
			"viewed":           true,
			"last_view_at":     now,
			"last_interaction": now,
			"updated_at":       now,
		}
		if firstView {
			set["first_viewed_at"] = now
		}
		if source != "" {
			set["referral_source"] = source
		}
		_, err = s.interactions.UpdateOne(ctx,
			bson.M{"user": userID, "post": postID},
			bson.M{
				"$set":         set,
				"$inc":         bson.M{"view_count": 1, "total_view_duration": durationSeconds},
				"$setOnInsert": insertDefaults(userID, postID, now),
			},
			options.UpdateOne().SetUpsert(true),
		)
		if err != nil {
			return apperr.Internal("failed to record view", err)
		}

		userViews := int64(1)
		if row != nil {
			userViews = row.ViewCount + 1
		}

		totalViews := post.Views
		if firstView {
			var updated struct {
				Views int64 `bson:"views"`
			}
			err = s.posts.FindOneAndUpdate(ctx,
				bson.M{"_id": postID},
				bson.M{"$inc": bson.M{"views": 1}},
				options.FindOneAndUpdate().
					SetReturnDocument(options.After).
					SetProjection(bson.M{"views": 1}),
			).Decode(&updated)
			if err != nil {
				return apperr.Internal("failed to bump post views", err)
			}
			totalViews = updated.Views
		}

		reason := "repeat-view"
		if firstView {
			reason = "first-view"
		}
		result = ViewResult{
			ViewAdded:     firstView,
			TotalViews:    totalViews,
			UserViewCount: userViews,
			Reason:        reason,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// BatchViewItem is one entry of a batched view report.
type BatchViewItem struct {
	PostID          bson.ObjectID
	DurationSeconds int64
}

// BatchViewOutcome mirrors ViewResult per post, with a skip reason for
// posts that were not tracked.
type BatchViewOutcome struct {
	PostID    string `json:"postId"`
	ViewAdded bool   `json:"viewAdded"`
	Reason    string `json:"reason"`
}

// RecordViews tracks several views in one transaction. Missing posts
// and self-views are reported, not errors.
func (s *Store) RecordViews(ctx context.Context, userID bson.ObjectID, items []BatchViewItem) ([]BatchViewOutcome, error) {
	outcomes := make([]BatchViewOutcome, 0, len(items))
	err := s.withTxn(ctx, func(ctx context.Context) error {
		outcomes = outcomes[:0]
		for _, item := range items {
			var post struct {
				UserID bson.ObjectID `bson:"user_id"`
			}
			err := s.posts.FindOne(ctx, bson.M{"_id": item.PostID},
				options.FindOne().SetProjection(bson.M{"user_id": 1}),
			).Decode(&post)
			if errors.Is(err, mongo.ErrNoDocuments) {
				outcomes = append(outcomes, BatchViewOutcome{PostID: item.PostID.Hex(), Reason: "post-not-found"})
				continue
			}
			if err != nil {
				return apperr.Internal("failed to load post", err)
			}
			if post.UserID == userID {
				outcomes = append(outcomes, BatchViewOutcome{PostID: item.PostID.Hex(), Reason: "self-view"})
				continue
			}

			row, err := s.GetInteraction(ctx, userID, item.PostID)
			if err != nil {
				return err
			}
			now := time.Now().UTC()
			firstView := row == nil || !row.Viewed

			set := bson.M{
				"viewed":           true,
				"last_view_at":     now,
				"last_interaction": now,
				"updated_at":       now,
			}
			if firstView {
				set["first_viewed_at"] = now
			}
			_, err = s.interactions.UpdateOne(ctx,
				bson.M{"user": userID, "post": item.PostID},
				bson.M{
					"$set":         set,
					"$inc":         bson.M{"view_count": 1, "total_view_duration": item.DurationSeconds},
					"$setOnInsert": insertDefaults(userID, item.PostID, now),
				},
				options.UpdateOne().SetUpsert(true),
			)
			if err != nil {
				return apperr.Internal("failed to record view", err)
			}

			reason := "repeat-view"
			if firstView {
				reason = "first-view"
				if _, err := s.posts.UpdateOne(ctx, bson.M{"_id": item.PostID}, bson.M{"$inc": bson.M{"views": 1}}); err != nil {
					return apperr.Internal("failed to bump post views", err)
				}
			}
			outcomes = append(outcomes, BatchViewOutcome{
				PostID:    item.PostID.Hex(),
				ViewAdded: firstView,
				Reason:    reason,
			})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return outcomes, nil
}

// InteractionsFor loads the caller's interaction flags for a batch of
// posts in one query.
func (s *Store) InteractionsFor(ctx context.Context, userID bson.ObjectID, postIDs []bson.ObjectID) (map[bson.ObjectID]model.InteractionFlags, error) {
	if len(postIDs) == 0 {
		return map[bson.ObjectID]model.InteractionFlags{}, nil
	}
	cur, err := s.interactions.Find(ctx, bson.M{
		"user": userID,
		"post": bson.M{"$in": postIDs},
	})
	if err != nil {
		return nil, apperr.Internal("failed to load interactions", err)
	}
	defer cur.Close(ctx)

	out := make(map[bson.ObjectID]model.InteractionFlags, len(postIDs))
	for cur.Next(ctx) {
		var row model.UserPostInteraction
		if err := cur.Decode(&row); err != nil {
			return nil, apperr.Internal("failed to decode interaction", err)
		}
		out[row.PostID] = row.Flags()
	}
	if err := cur.Err(); err != nil {
		return nil, apperr.Internal("failed to iterate interactions", err)
	}
	return out, nil
}

// PostAnalytics aggregates the interaction rows of one post.
type PostAnalytics struct {
	TotalInteractions int64   `json:"totalInteractions" bson:"totalInteractions"`
	UniqueViewers     int64   `json:"uniqueViewers"     bson:"uniqueViewers"`
	TotalLikes        int64   `json:"totalLikes"        bson:"totalLikes"`
	TotalDislikes     int64   `json:"totalDislikes"     bson:"totalDislikes"`
	AvgViewDuration   float64 `json:"averageViewDuration" bson:"avgViewDuration"`
}

func (s *Store) Analytics(ctx context.Context, postID bson.ObjectID) (*PostAnalytics, error) {
	pipe := mongo.Pipeline{
		{{Key: stageMatch, Value: bson.M{"post": postID}}},
		{{Key: stageGroup, Value: bson.M{
			"_id":               nil,
			"totalInteractions": bson.M{"$sum": 1},
			"uniqueViewers":     bson.M{"$sum": bson.M{"$cond": bson.A{"$viewed", 1, 0}}},
			"totalLikes":        bson.M{"$sum": bson.M{"$cond": bson.A{"$liked", 1, 0}}},
			"totalDislikes":     bson.M{"$sum": bson.M{"$cond": bson.A{"$disliked", 1, 0}}},
			"avgViewDuration": bson.M{"$avg": bson.M{"$cond": bson.A{
				bson.M{"$gt": bson.A{"$total_view_duration", 0}},
				"$total_view_duration",
				nil,
			}}},
		}}},
	}
	cur, err := s.interactions.Aggregate(ctx, pipe)
	if err != nil {
		return nil, apperr.Internal("failed to aggregate interactions", err)
	}
	defer cur.Close(ctx)

	var rows []PostAnalytics
	if err := cur.All(ctx, &rows); err != nil {
		return nil, apperr.Internal("failed to decode analytics", err)
	}
	if len(rows) == 0 {
		return &PostAnalytics{}, nil
	}
	return &rows[0], nil
}

func (s *Store) requirePost(ctx context.Context, postID bson.ObjectID) error {
	err := s.posts.FindOne(ctx, bson.M{"_id": postID},
		options.FindOne().SetProjection(bson.M{"_id": 1}),
	).Err()
	if errors.Is(err, mongo.ErrNoDocuments) {
		return apperr.NotFound("Post not found")
	}
	if err != nil {
		return apperr.Internal("failed to load post", err)
	}
	return nil
}

func (s *Store) postCounters(ctx context.Context, postID bson.ObjectID) (*PostCounters, error) {
	var post struct {
		ID        bson.ObjectID   `bson:"_id"`
		Reactions model.Reactions `bson:"reactions"`
	}
	err := s.posts.FindOne(ctx, bson.M{"_id": postID},
		options.FindOne().SetProjection(bson.M{"reactions": 1}),
	).Decode(&post)
	if err != nil {
		return nil, apperr.Internal("failed to load post counters", err)
	}
	return &PostCounters{ID: post.ID, Likes: post.Reactions.Likes, Dislikes: post.Reactions.Dislikes}, nil
}

// insertDefaults fills the lazily created interaction row so every
// field has a defined value from birth.
func insertDefaults(userID, postID bson.ObjectID, now time.Time) bson.M {
	return bson.M{
		"user":       userID,
		"post":       postID,
		"created_at": now,
	}
}
