package handlers_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/roamly/backend/internal/apperr"
	"github.com/roamly/backend/internal/cache"
	"github.com/roamly/backend/internal/handlers"
	"github.com/roamly/backend/internal/middleware"
	"github.com/roamly/backend/internal/reaction"
	"github.com/roamly/backend/internal/respond"
	"github.com/roamly/backend/internal/routes"
	"github.com/roamly/backend/internal/store"
	"github.com/roamly/backend/model"
)

const testSecret = "test-secret"

func signToken(t *testing.T, uid string) string {
	t.Helper()
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"uid": uid,
		"exp": time.Now().Add(time.Hour).Unix(),
	}).SignedString([]byte(testSecret))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return tok
}

func newTestApp(t *testing.T, stub *stubStore) *fiber.App {
	t.Helper()
	responder := respond.New(zerolog.Nop(), true)
	app := fiber.New()

	dedup := cache.NewTTL(5*time.Minute, 0)
	t.Cleanup(dedup.Stop)

	routes.Register(app, routes.Deps{
		Interactions: &handlers.InteractionHandler{Store: stub, Respond: responder, Dedup: dedup},
		Feed:         &handlers.FeedHandler{Store: stub, Respond: responder, TrendingWindow: 7 * 24 * time.Hour},
		Comments:     &handlers.CommentHandler{Store: stub, Respond: responder},
		JWTSecret:    testSecret,
		ViewLimiter:  middleware.ViewRateLimit(cache.NewRateLimiter(100, time.Minute), responder),
	})
	return app
}

func doJSON(t *testing.T, app *fiber.App, method, path, token, body string) (*http.Response, map[string]any) {
	t.Helper()
	var rd io.Reader
	if body != "" {
		rd = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, rd)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	raw, _ := io.ReadAll(resp.Body)
	var decoded map[string]any
	if len(raw) > 0 {
		_ = json.Unmarshal(raw, &decoded)
	}
	return resp, decoded
}

// stubStore implements the handler store interfaces in memory with
// just enough state-machine behavior to exercise the routes.
type stubStore struct {
	posts    map[bson.ObjectID]*model.FeedPost
	comments map[bson.ObjectID][]model.Comment

	// per (user,post) reaction state, keyed user+":"+post
	liked    map[string]bool
	disliked map[string]bool
	viewed   map[string]bool
	views    map[bson.ObjectID]int64

	batchCalls [][]store.BatchViewItem
}

func newStubStore() *stubStore {
	return &stubStore{
		posts:    make(map[bson.ObjectID]*model.FeedPost),
		comments: make(map[bson.ObjectID][]model.Comment),
		liked:    make(map[string]bool),
		disliked: make(map[string]bool),
		viewed:   make(map[string]bool),
		views:    make(map[bson.ObjectID]int64),
	}
}

func (s *stubStore) addPost(id, author bson.ObjectID) {
	s.posts[id] = &model.FeedPost{Post: model.Post{ID: id, UserID: author, CreatedAt: time.Now()}}
}

func key(userID, postID bson.ObjectID) string { return userID.Hex() + ":" + postID.Hex() }

func (s *stubStore) counters(postID bson.ObjectID) store.PostCounters {
	likes, dislikes := 0, 0
	for k, on := range s.liked {
		if on && strings.HasSuffix(k, postID.Hex()) {
			likes++
		}
	}
	for k, on := range s.disliked {
		if on && strings.HasSuffix(k, postID.Hex()) {
			dislikes++
		}
	}
	return store.PostCounters{ID: postID, Likes: likes, Dislikes: dislikes}
}

func (s *stubStore) require(postID bson.ObjectID) error {
	if _, ok := s.posts[postID]; !ok {
		return apperr.NotFound("Post not found")
	}
	return nil
}

func (s *stubStore) Toggle(_ context.Context, userID, postID bson.ObjectID, event reaction.Event) (*store.ToggleResult, error) {
	if err := s.require(postID); err != nil {
		return nil, err
	}
	k := key(userID, postID)
	st := reaction.StateOf(s.liked[k], s.disliked[k])
	ch := reaction.Apply(st, event)
	s.liked[k] = ch.Next == reaction.StateLiked
	s.disliked[k] = ch.Next == reaction.StateDisliked
	return &store.ToggleResult{
		Liked:    s.liked[k],
		Disliked: s.disliked[k],
		Post:     s.counters(postID),
	}, nil
}

func (s *stubStore) React(_ context.Context, userID, postID bson.ObjectID, kind reaction.Kind, action reaction.Action) (*store.ToggleResult, error) {
	if err := s.require(postID); err != nil {
		return nil, err
	}
	k := key(userID, postID)
	on := action == reaction.ActionIncrement
	var ev reaction.Event
	switch kind {
	case reaction.KindLikes:
		ev = reaction.ToggleLike
	case reaction.KindDislikes:
		ev = reaction.ToggleDislike
	default:
		return &store.ToggleResult{Liked: s.liked[k], Disliked: s.disliked[k], Saved: on, Post: s.counters(postID)}, nil
	}
	st := reaction.StateOf(s.liked[k], s.disliked[k])
	ch := reaction.Ensure(st, ev, on)
	s.liked[k] = ch.Next == reaction.StateLiked
	s.disliked[k] = ch.Next == reaction.StateDisliked
	return &store.ToggleResult{Liked: s.liked[k], Disliked: s.disliked[k], Post: s.counters(postID)}, nil
}

func (s *stubStore) RecordView(_ context.Context, userID, postID bson.ObjectID, _ int64, _ string) (*store.ViewResult, error) {
	if err := s.require(postID); err != nil {
		return nil, err
	}
	if s.posts[postID].UserID == userID {
		return &store.ViewResult{TotalViews: s.views[postID], Reason: "self-view"}, nil
	}
	k := key(userID, postID)
	first := !s.viewed[k]
	s.viewed[k] = true
	reason := "repeat-view"
	if first {
		s.views[postID]++
		reason = "first-view"
	}
	return &store.ViewResult{ViewAdded: first, TotalViews: s.views[postID], Reason: reason}, nil
}

func (s *stubStore) RecordViews(_ context.Context, userID bson.ObjectID, items []store.BatchViewItem) ([]store.BatchViewOutcome, error) {
	s.batchCalls = append(s.batchCalls, items)
	out := make([]store.BatchViewOutcome, 0, len(items))
	for _, it := range items {
		res, err := s.RecordView(context.Background(), userID, it.PostID, it.DurationSeconds, "")
		if err != nil {
			out = append(out, store.BatchViewOutcome{PostID: it.PostID.Hex(), Reason: "post-not-found"})
			continue
		}
		out = append(out, store.BatchViewOutcome{PostID: it.PostID.Hex(), ViewAdded: res.ViewAdded, Reason: res.Reason})
	}
	return out, nil
}

func (s *stubStore) GetInteraction(_ context.Context, userID, postID bson.ObjectID) (*model.UserPostInteraction, error) {
	k := key(userID, postID)
	if !s.liked[k] && !s.disliked[k] && !s.viewed[k] {
		return nil, nil
	}
	return &model.UserPostInteraction{
		Liked:    s.liked[k],
		Disliked: s.disliked[k],
		Viewed:   s.viewed[k],
	}, nil
}

func (s *stubStore) Analytics(_ context.Context, postID bson.ObjectID) (*store.PostAnalytics, error) {
	if err := s.require(postID); err != nil {
		return nil, err
	}
	return &store.PostAnalytics{TotalInteractions: 1, UniqueViewers: s.views[postID]}, nil
}

func (s *stubStore) PostAuthor(_ context.Context, id bson.ObjectID) (bson.ObjectID, error) {
	p, ok := s.posts[id]
	if !ok {
		return bson.NilObjectID, apperr.NotFound("Post not found")
	}
	return p.UserID, nil
}

func (s *stubStore) GetPost(_ context.Context, id bson.ObjectID) (*model.FeedPost, error) {
	p, ok := s.posts[id]
	if !ok {
		return nil, apperr.NotFound("Post not found")
	}
	cp := *p
	return &cp, nil
}

func (s *stubStore) allPosts() []model.FeedPost {
	out := make([]model.FeedPost, 0, len(s.posts))
	for _, p := range s.posts {
		out = append(out, *p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID.Hex() > out[j].ID.Hex() })
	return out
}

func (s *stubStore) ListPosts(_ context.Context, _ model.PostFilter, _, _ string, page, limit int) ([]model.FeedPost, int64, error) {
	all := s.allPosts()
	start := (page - 1) * limit
	if start > len(all) {
		start = len(all)
	}
	end := start + limit
	if end > len(all) {
		end = len(all)
	}
	return all[start:end], int64(len(all)), nil
}

func (s *stubStore) RecentPosts(_ context.Context, _, limit int) ([]model.FeedPost, error) {
	all := s.allPosts()
	if len(all) > limit {
		all = all[:limit]
	}
	return all, nil
}

func (s *stubStore) TrendingPosts(_ context.Context, _ time.Duration, limit int) ([]model.FeedPost, error) {
	return s.RecentPosts(context.Background(), 0, limit)
}

func (s *stubStore) ChronoFeed(_ context.Context, _ model.PostFilter, untilID bson.ObjectID, limit int) ([]model.FeedPost, *bson.ObjectID, error) {
	all := s.allPosts()
	if untilID != bson.NilObjectID {
		for i, p := range all {
			if p.ID == untilID {
				all = all[i+1:]
				break
			}
		}
	}
	if len(all) > limit {
		next := all[limit-1].ID
		return all[:limit], &next, nil
	}
	return all, nil, nil
}

func (s *stubStore) SeededCandidates(_ context.Context, _ model.PostFilter) ([]model.FeedPost, error) {
	return s.allPosts(), nil
}

func (s *stubStore) InteractionsFor(_ context.Context, userID bson.ObjectID, postIDs []bson.ObjectID) (map[bson.ObjectID]model.InteractionFlags, error) {
	out := make(map[bson.ObjectID]model.InteractionFlags)
	for _, id := range postIDs {
		k := key(userID, id)
		if s.liked[k] || s.disliked[k] || s.viewed[k] {
			out[id] = model.InteractionFlags{Liked: s.liked[k], Disliked: s.disliked[k], Viewed: s.viewed[k]}
		}
	}
	return out, nil
}

func (s *stubStore) CreateComment(_ context.Context, postID, userID bson.ObjectID, body string) (*model.Comment, error) {
	if err := s.require(postID); err != nil {
		return nil, err
	}
	com := model.Comment{
		ID:        bson.NewObjectID(),
		PostID:    postID,
		UserID:    userID,
		Body:      body,
		CreatedAt: time.Now(),
	}
	s.comments[postID] = append(s.comments[postID], com)
	return &com, nil
}

func (s *stubStore) CommentsWindow(_ context.Context, postID bson.ObjectID, skip, limit int) ([]model.Comment, error) {
	all := append([]model.Comment(nil), s.comments[postID]...)
	sort.Slice(all, func(i, j int) bool { return all[i].CreatedAt.After(all[j].CreatedAt) })
	if skip > len(all) {
		skip = len(all)
	}
	all = all[skip:]
	if limit > 0 && len(all) > limit {
		all = all[:limit]
	}
	return all, nil
}

func (s *stubStore) CommentsByLikes(_ context.Context, postID bson.ObjectID, skip, limit int) ([]model.Comment, error) {
	all := append([]model.Comment(nil), s.comments[postID]...)
	sort.Slice(all, func(i, j int) bool { return all[i].Reactions.Likes > all[j].Reactions.Likes })
	if skip > len(all) {
		skip = len(all)
	}
	all = all[skip:]
	if limit > 0 && len(all) > limit {
		all = all[:limit]
	}
	return all, nil
}

func (s *stubStore) AllComments(_ context.Context, postID bson.ObjectID) ([]model.Comment, error) {
	return s.CommentsWindow(context.Background(), postID, 0, 0)
}

func (s *stubStore) CountComments(_ context.Context, postID bson.ObjectID) (int64, error) {
	return int64(len(s.comments[postID])), nil
}

func (s *stubStore) ToggleCommentLike(_ context.Context, commentID, userID bson.ObjectID) (*store.CommentLikeResult, error) {
	for postID, list := range s.comments {
		for i, com := range list {
			if com.ID != commentID {
				continue
			}
			has := false
			for _, id := range com.LikedBy {
				if id == userID {
					has = true
					break
				}
			}
			if has {
				kept := com.LikedBy[:0]
				for _, id := range com.LikedBy {
					if id != userID {
						kept = append(kept, id)
					}
				}
				com.LikedBy = kept
			} else {
				com.LikedBy = append(com.LikedBy, userID)
			}
			com.Reactions.Likes = len(com.LikedBy)
			s.comments[postID][i] = com
			return &store.CommentLikeResult{ID: com.ID, Reactions: com.Reactions, UserHasLiked: !has}, nil
		}
	}
	return nil, apperr.NotFound("Comment not found")
}
