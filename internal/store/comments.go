package store

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/roamly/backend/internal/apperr"
	"github.com/roamly/backend/model"
)

// CreateComment inserts a comment after confirming the post exists.
func (s *Store) CreateComment(ctx context.Context, postID, userID bson.ObjectID, body string) (*model.Comment, error) {
	if err := s.requirePost(ctx, postID); err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	comment := model.Comment{
		ID:        bson.NewObjectID(),
		PostID:    postID,
		UserID:    userID,
		Body:      strings.TrimSpace(body),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if _, err := s.comments.InsertOne(ctx, comment); err != nil {
		return nil, apperr.Internal("failed to create comment", err)
	}
	return &comment, nil
}

func (s *Store) GetComment(ctx context.Context, id bson.ObjectID) (*model.Comment, error) {
	var c model.Comment
	err := s.comments.FindOne(ctx, bson.M{"_id": id}).Decode(&c)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, apperr.NotFound("Comment not found")
	}
	if err != nil {
		return nil, apperr.Internal("failed to load comment", err)
	}
	return &c, nil
}

// CommentsWindow returns a creation-time-ordered slice of a post's
// thread: newest first, offset by skip. The smart ranker samples
// through this.
func (s *Store) CommentsWindow(ctx context.Context, postID bson.ObjectID, skip, limit int) ([]model.Comment, error) {
	return s.commentsSorted(ctx, postID,
		bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}}, skip, limit)
}

// CommentsByLikes returns a page ordered by like count, newest first
// within ties.
func (s *Store) CommentsByLikes(ctx context.Context, postID bson.ObjectID, skip, limit int) ([]model.Comment, error) {
	return s.commentsSorted(ctx, postID,
		bson.D{{Key: "reactions.likes", Value: -1}, {Key: "created_at", Value: -1}, {Key: "_id", Value: -1}}, skip, limit)
}

// AllComments loads the full thread newest first, for the seeded
// shuffle mode.
func (s *Store) AllComments(ctx context.Context, postID bson.ObjectID) ([]model.Comment, error) {
	return s.commentsSorted(ctx, postID,
		bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}}, 0, 0)
}

func (s *Store) commentsSorted(ctx context.Context, postID bson.ObjectID, sort bson.D, skip, limit int) ([]model.Comment, error) {
	pipe := mongo.Pipeline{
		{{Key: stageMatch, Value: bson.M{"post_id": postID}}},
		{{Key: stageSort, Value: sort}},
	}
	if skip > 0 {
		pipe = append(pipe, bson.D{{Key: stageSkip, Value: skip}})
	}
	if limit > 0 {
		pipe = append(pipe, bson.D{{Key: stageLimit, Value: limit}})
	}
	pipe = append(pipe,
		bson.D{{Key: stageLookup, Value: bson.M{
			"from":         "users",
			"localField":   "user_id",
			"foreignField": "_id",
			"as":           "author",
		}}},
		bson.D{{Key: stageUnwind, Value: bson.M{"path": "$author", "preserveNullAndEmptyArrays": true}}},
	)

	cur, err := s.comments.Aggregate(ctx, pipe)
	if err != nil {
		return nil, apperr.Internal("failed to load comments", err)
	}
	defer cur.Close(ctx)

	var rows []model.Comment
	if err := cur.All(ctx, &rows); err != nil {
		return nil, apperr.Internal("failed to decode comments", err)
	}
	return rows, nil
}

func (s *Store) CountComments(ctx context.Context, postID bson.ObjectID) (int64, error) {
	n, err := s.comments.CountDocuments(ctx, bson.M{"post_id": postID})
	if err != nil {
		return 0, apperr.Internal("failed to count comments", err)
	}
	return n, nil
}

// CommentLikeResult is the response slice of a comment like toggle.
type CommentLikeResult struct {
	ID           bson.ObjectID          `json:"_id"`
	Reactions    model.CommentReactions `json:"reactions"`
	UserHasLiked bool                   `json:"userHasLiked"`
}

// ToggleCommentLike adds or removes the user from likedBy and derives
// reactions.likes as |likedBy| in the same atomic update, so the count
// can never drift from the set.
func (s *Store) ToggleCommentLike(ctx context.Context, commentID, userID bson.ObjectID) (*CommentLikeResult, error) {
	likedBy := bson.M{"$ifNull": bson.A{"$liked_by", bson.A{}}}
	update := mongo.Pipeline{
		{{Key: stageSet, Value: bson.M{
			"liked_by": bson.M{"$cond": bson.A{
				bson.M{"$in": bson.A{userID, likedBy}},
				bson.M{"$setDifference": bson.A{likedBy, bson.A{userID}}},
				bson.M{"$concatArrays": bson.A{likedBy, bson.A{userID}}},
			}},
			"updated_at": "$$NOW",
		}}},
		{{Key: stageSet, Value: bson.M{
			"reactions.likes": bson.M{"$size": "$liked_by"},
		}}},
	}

	var updated model.Comment
	err := s.comments.FindOneAndUpdate(ctx,
		bson.M{"_id": commentID},
		update,
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&updated)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, apperr.NotFound("Comment not found")
	}
	if err != nil {
		return nil, apperr.Internal("failed to toggle comment like", err)
	}

	result := &CommentLikeResult{
		ID:        updated.ID,
		Reactions: updated.Reactions,
	}
	for _, id := range updated.LikedBy {
		if id == userID {
			result.UserHasLiked = true
			break
		}
	}
	return result, nil
}
