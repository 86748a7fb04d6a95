// Package store is the persistence layer: the interaction store, the
// counter updater that keeps post/comment aggregates in sync with it,
// and the repositories the rankers read from.
package store

import (
	"context"

	"go.mongodb.org/mongo-driver/v2/mongo"

	"github.com/roamly/backend/internal/apperr"
)

// Mongo aggregation stage keys used across the pipelines here.
const (
	stageMatch     = "$match"
	stageLookup    = "$lookup"
	stageUnwind    = "$unwind"
	stageAddFields = "$addFields"
	stageGroup     = "$group"
	stageSort      = "$sort"
	stageSkip      = "$skip"
	stageLimit     = "$limit"
	stageSet       = "$set"
)

type Store struct {
	client       *mongo.Client
	posts        *mongo.Collection
	comments     *mongo.Collection
	interactions *mongo.Collection
	users        *mongo.Collection
}

func New(client *mongo.Client, dbName string) *Store {
	db := client.Database(dbName)
	return &Store{
		client:       client,
		posts:        db.Collection("posts"),
		comments:     db.Collection("comments"),
		interactions: db.Collection("user_post_interactions"),
		users:        db.Collection("users"),
	}
}

// withTxn runs fn inside one multi-document transaction. Either the
// interaction mutation and its counter update both commit, or neither
// does.
func (s *Store) withTxn(ctx context.Context, fn func(ctx context.Context) error) error {
	sess, err := s.client.StartSession()
	if err != nil {
		return apperr.Internal("failed to start transaction", err)
	}
	defer sess.EndSession(ctx)

	_, err = sess.WithTransaction(ctx, func(ctx context.Context) (any, error) {
		return nil, fn(ctx)
	})
	return err
}
