// Package events publishes engagement events to Kafka for downstream
// consumers (analytics, notification fan-out). Publishing is
// fire-and-forget: a broker outage must never fail the user request.
// A nil *Publisher is a valid no-op, used when KAFKA_BROKERS is unset.
package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/segmentio/kafka-go"

	"go.mongodb.org/mongo-driver/v2/bson"
)

const (
	TypeReaction = "post.reaction"
	TypeView     = "post.view"
	TypeComment  = "comment.created"
)

type Event struct {
	ID     string    `json:"id"`
	Type   string    `json:"type"`
	UserID string    `json:"userId"`
	PostID string    `json:"postId"`
	Detail string    `json:"detail,omitempty"`
	At     time.Time `json:"at"`
}

type Publisher struct {
	w   *kafka.Writer
	log zerolog.Logger
}

func NewPublisher(brokers []string, topic string, log zerolog.Logger) *Publisher {
	if len(brokers) == 0 {
		return nil
	}
	w := kafka.NewWriter(kafka.WriterConfig{
		Brokers:  brokers,
		Topic:    topic,
		Balancer: &kafka.LeastBytes{},
	})
	return &Publisher{w: w, log: log}
}

func (p *Publisher) Close() error {
	if p == nil {
		return nil
	}
	return p.w.Close()
}

// Publish writes the event keyed by post id so all events for one post
// land in the same partition. Failures are logged and dropped.
func (p *Publisher) Publish(ctx context.Context, typ string, userID, postID bson.ObjectID, detail string) {
	if p == nil {
		return
	}
	ev := Event{
		ID:     uuid.NewString(),
		Type:   typ,
		UserID: userID.Hex(),
		PostID: postID.Hex(),
		Detail: detail,
		At:     time.Now().UTC(),
	}
	raw, err := json.Marshal(ev)
	if err != nil {
		return
	}
	if err := p.w.WriteMessages(ctx, kafka.Message{
		Key:   []byte(postID.Hex()),
		Value: raw,
		Time:  ev.At,
	}); err != nil {
		p.log.Warn().Err(err).Str("type", typ).Msg("event publish failed")
	}
}
