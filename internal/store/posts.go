package store

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/roamly/backend/internal/apperr"
	"github.com/roamly/backend/model"
)

// SeededCandidateCap bounds the candidate set a seeded feed is ranked
// over: the newest N posts matching the filter. Keeps the in-process
// sort bounded while the order stays exactly reproducible.
const SeededCandidateCap = 500

// BuildPostFilter translates a PostFilter into a Mongo filter
// document: tags $in, case-insensitive location, free-text search over
// title and description.
func BuildPostFilter(f model.PostFilter) bson.M {
	filter := bson.M{}
	if len(f.Tags) > 0 {
		filter["tags"] = bson.M{"$in": f.Tags}
	}
	if f.Location != "" {
		filter["location"] = bson.M{"$regex": f.Location, "$options": "i"}
	}
	if f.Search != "" {
		filter["$or"] = []bson.M{
			{"title": bson.M{"$regex": f.Search, "$options": "i"}},
			{"description": bson.M{"$regex": f.Search, "$options": "i"}},
		}
	}
	return filter
}

// sortField maps the wire sortBy values onto stored field names;
// anything unknown falls back to creation time.
func sortField(sortBy string) string {
	switch sortBy {
	case "views":
		return "views"
	case "likes":
		return "reactions.likes"
	default:
		return "created_at"
	}
}

// authorLookup joins the author projection into each post row.
func authorLookup() []bson.D {
	return []bson.D{
		{{Key: stageLookup, Value: bson.M{
			"from":         "users",
			"localField":   "user_id",
			"foreignField": "_id",
			"as":           "author",
		}}},
		{{Key: stageUnwind, Value: bson.M{"path": "$author", "preserveNullAndEmptyArrays": true}}},
	}
}

// GetPost loads one post with its author joined in.
func (s *Store) GetPost(ctx context.Context, id bson.ObjectID) (*model.FeedPost, error) {
	pipe := mongo.Pipeline{
		{{Key: stageMatch, Value: bson.M{"_id": id}}},
	}
	pipe = append(pipe, authorLookup()...)

	cur, err := s.posts.Aggregate(ctx, pipe)
	if err != nil {
		return nil, apperr.Internal("failed to load post", err)
	}
	defer cur.Close(ctx)

	var rows []model.FeedPost
	if err := cur.All(ctx, &rows); err != nil {
		return nil, apperr.Internal("failed to decode post", err)
	}
	if len(rows) == 0 {
		return nil, apperr.NotFound("Post not found")
	}
	return &rows[0], nil
}

// PostAuthor returns just the author id of a post.
func (s *Store) PostAuthor(ctx context.Context, id bson.ObjectID) (bson.ObjectID, error) {
	var post struct {
		UserID bson.ObjectID `bson:"user_id"`
	}
	err := s.posts.FindOne(ctx, bson.M{"_id": id},
		options.FindOne().SetProjection(bson.M{"user_id": 1}),
	).Decode(&post)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return bson.NilObjectID, apperr.NotFound("Post not found")
	}
	if err != nil {
		return bson.NilObjectID, apperr.Internal("failed to load post", err)
	}
	return post.UserID, nil
}

// ListPosts pages through filtered posts with an offset, returning the
// rows and the total match count.
func (s *Store) ListPosts(ctx context.Context, f model.PostFilter, sortBy, sortOrder string, page, limit int) ([]model.FeedPost, int64, error) {
	filter := BuildPostFilter(f)

	order := -1
	if sortOrder == "asc" {
		order = 1
	}

	pipe := mongo.Pipeline{
		{{Key: stageMatch, Value: filter}},
		{{Key: stageSort, Value: bson.D{
			{Key: sortField(sortBy), Value: order},
			{Key: "_id", Value: order},
		}}},
		{{Key: stageSkip, Value: (page - 1) * limit}},
		{{Key: stageLimit, Value: limit}},
	}
	pipe = append(pipe, authorLookup()...)

	cur, err := s.posts.Aggregate(ctx, pipe)
	if err != nil {
		return nil, 0, apperr.Internal("failed to list posts", err)
	}
	defer cur.Close(ctx)

	var rows []model.FeedPost
	if err := cur.All(ctx, &rows); err != nil {
		return nil, 0, apperr.Internal("failed to decode posts", err)
	}

	total, err := s.posts.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, apperr.Internal("failed to count posts", err)
	}
	return rows, total, nil
}

// RecentPosts returns posts created within the trailing hours window,
// newest first.
func (s *Store) RecentPosts(ctx context.Context, hours, limit int) ([]model.FeedPost, error) {
	since := time.Now().Add(-time.Duration(hours) * time.Hour)
	pipe := mongo.Pipeline{
		{{Key: stageMatch, Value: bson.M{"created_at": bson.M{"$gte": since}}}},
		{{Key: stageSort, Value: bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}}}},
		{{Key: stageLimit, Value: limit}},
	}
	pipe = append(pipe, authorLookup()...)

	cur, err := s.posts.Aggregate(ctx, pipe)
	if err != nil {
		return nil, apperr.Internal("failed to list recent posts", err)
	}
	defer cur.Close(ctx)

	var rows []model.FeedPost
	if err := cur.All(ctx, &rows); err != nil {
		return nil, apperr.Internal("failed to decode recent posts", err)
	}
	return rows, nil
}

// TrendingPipeline computes the trending ordering inside Mongo:
// score = likes*3 + views*0.1 + (likes - dislikes), over posts created
// within the trailing window.
func TrendingPipeline(since time.Time, limit int) mongo.Pipeline {
	return mongo.Pipeline{
		{{Key: stageMatch, Value: bson.M{"created_at": bson.M{"$gte": since}}}},
		{{Key: stageAddFields, Value: bson.M{
			"trending_score": bson.M{"$add": bson.A{
				bson.M{"$multiply": bson.A{"$reactions.likes", 3}},
				bson.M{"$multiply": bson.A{"$views", 0.1}},
				bson.M{"$subtract": bson.A{"$reactions.likes", "$reactions.dislikes"}},
			}},
		}}},
		{{Key: stageSort, Value: bson.D{
			{Key: "trending_score", Value: -1},
			{Key: "_id", Value: -1},
		}}},
		{{Key: stageLimit, Value: limit}},
	}
}

// TrendingPosts runs the trending aggregation over the trailing window.
func (s *Store) TrendingPosts(ctx context.Context, window time.Duration, limit int) ([]model.FeedPost, error) {
	pipe := TrendingPipeline(time.Now().Add(-window), limit)
	pipe = append(pipe, authorLookup()...)

	cur, err := s.posts.Aggregate(ctx, pipe)
	if err != nil {
		return nil, apperr.Internal("failed to list trending posts", err)
	}
	defer cur.Close(ctx)

	var rows []model.FeedPost
	if err := cur.All(ctx, &rows); err != nil {
		return nil, apperr.Internal("failed to decode trending posts", err)
	}
	return rows, nil
}

// ChronoFeed pages newest-first with an _id cursor: fetch limit+1 past
// the cursor, hand back the next cursor when a full page came back.
func (s *Store) ChronoFeed(ctx context.Context, f model.PostFilter, untilID bson.ObjectID, limit int) ([]model.FeedPost, *bson.ObjectID, error) {
	filter := BuildPostFilter(f)
	if !untilID.IsZero() {
		filter["_id"] = bson.M{"$lt": untilID}
	}

	pipe := mongo.Pipeline{
		{{Key: stageMatch, Value: filter}},
		{{Key: stageSort, Value: bson.D{{Key: "_id", Value: -1}}}},
		{{Key: stageLimit, Value: limit + 1}},
	}
	pipe = append(pipe, authorLookup()...)

	cur, err := s.posts.Aggregate(ctx, pipe)
	if err != nil {
		return nil, nil, apperr.Internal("failed to load feed", err)
	}
	defer cur.Close(ctx)

	var rows []model.FeedPost
	if err := cur.All(ctx, &rows); err != nil {
		return nil, nil, apperr.Internal("failed to decode feed", err)
	}

	var next *bson.ObjectID
	if len(rows) == limit+1 {
		rows = rows[:limit]
		last := rows[len(rows)-1].ID
		next = &last
	}
	return rows, next, nil
}

// SeededCandidates loads the filtered candidate set a seeded feed is
// ordered over: newest first, capped, authors joined.
func (s *Store) SeededCandidates(ctx context.Context, f model.PostFilter) ([]model.FeedPost, error) {
	pipe := mongo.Pipeline{
		{{Key: stageMatch, Value: BuildPostFilter(f)}},
		{{Key: stageSort, Value: bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}}}},
		{{Key: stageLimit, Value: SeededCandidateCap}},
	}
	pipe = append(pipe, authorLookup()...)

	cur, err := s.posts.Aggregate(ctx, pipe)
	if err != nil {
		return nil, apperr.Internal("failed to load feed candidates", err)
	}
	defer cur.Close(ctx)

	var rows []model.FeedPost
	if err := cur.All(ctx, &rows); err != nil {
		return nil, apperr.Internal("failed to decode feed candidates", err)
	}
	return rows, nil
}
