package store

import (
	"reflect"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/roamly/backend/model"
)

func TestBuildPostFilter(t *testing.T) {
	tests := []struct {
		name   string
		filter model.PostFilter
		want   bson.M
	}{
		{
			name:   "empty filter matches everything",
			filter: model.PostFilter{},
			want:   bson.M{},
		},
		{
			name:   "tags use $in",
			filter: model.PostFilter{Tags: []string{"travel", "food"}},
			want:   bson.M{"tags": bson.M{"$in": []string{"travel", "food"}}},
		},
		{
			name:   "location is case-insensitive regex",
			filter: model.PostFilter{Location: "Lisbon"},
			want:   bson.M{"location": bson.M{"$regex": "Lisbon", "$options": "i"}},
		},
		{
			name:   "search spans title and description",
			filter: model.PostFilter{Search: "sunset"},
			want: bson.M{"$or": []bson.M{
				{"title": bson.M{"$regex": "sunset", "$options": "i"}},
				{"description": bson.M{"$regex": "sunset", "$options": "i"}},
			}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := BuildPostFilter(tt.filter)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("BuildPostFilter() = %#v, want %#v", got, tt.want)
			}
		})
	}
}

func TestSortFieldFallback(t *testing.T) {
	if got := sortField("views"); got != "views" {
		t.Errorf("sortField(views) = %s", got)
	}
	if got := sortField("likes"); got != "reactions.likes" {
		t.Errorf("sortField(likes) = %s", got)
	}
	for _, in := range []string{"", "createdAt", "drop table"} {
		if got := sortField(in); got != "created_at" {
			t.Errorf("sortField(%q) = %s, want created_at", in, got)
		}
	}
}

func TestTrendingPipelineShape(t *testing.T) {
	since := time.Date(2025, 8, 25, 0, 0, 0, 0, time.UTC)
	pipe := TrendingPipeline(since, 20)

	if len(pipe) != 4 {
		t.Fatalf("pipeline has %d stages, want 4", len(pipe))
	}

	match := pipe[0][0]
	if match.Key != "$match" {
		t.Errorf("stage 0 = %s, want $match", match.Key)
	}
	created := match.Value.(bson.M)["created_at"].(bson.M)
	if created["$gte"] != since {
		t.Errorf("window lower bound = %v, want %v", created["$gte"], since)
	}

	add := pipe[1][0]
	if add.Key != "$addFields" {
		t.Errorf("stage 1 = %s, want $addFields", add.Key)
	}
	score := add.Value.(bson.M)["trending_score"].(bson.M)["$add"].(bson.A)
	if len(score) != 3 {
		t.Fatalf("score has %d terms, want 3", len(score))
	}
	likesTerm := score[0].(bson.M)["$multiply"].(bson.A)
	if likesTerm[0] != "$reactions.likes" || likesTerm[1] != 3 {
		t.Errorf("likes term = %v, want $reactions.likes * 3", likesTerm)
	}
	viewsTerm := score[1].(bson.M)["$multiply"].(bson.A)
	if viewsTerm[0] != "$views" || viewsTerm[1] != 0.1 {
		t.Errorf("views term = %v, want $views * 0.1", viewsTerm)
	}
	netTerm := score[2].(bson.M)["$subtract"].(bson.A)
	if netTerm[0] != "$reactions.likes" || netTerm[1] != "$reactions.dislikes" {
		t.Errorf("net term = %v, want likes - dislikes", netTerm)
	}

	if pipe[2][0].Key != "$sort" {
		t.Errorf("stage 2 = %s, want $sort", pipe[2][0].Key)
	}
	if pipe[3][0].Key != "$limit" || pipe[3][0].Value != 20 {
		t.Errorf("stage 3 = %s %v, want $limit 20", pipe[3][0].Key, pipe[3][0].Value)
	}
}
