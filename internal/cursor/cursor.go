// Package cursor encodes opaque pagination cursors. Seeded feed
// cursors carry the session seed alongside the last-seen id so one
// query parameter resumes the exact ordering.
package cursor

import (
	"encoding/base64"
	"encoding/json"
	"errors"

	"go.mongodb.org/mongo-driver/v2/bson"
)

var ErrInvalid = errors.New("invalid cursor")

type feedCursor struct {
	Seed   int64  `json:"seed"`
	LastID string `json:"lastId"`
}

func EncodeFeed(seed int64, lastID bson.ObjectID) string {
	b, _ := json.Marshal(feedCursor{Seed: seed, LastID: lastID.Hex()})
	return base64.URLEncoding.EncodeToString(b)
}

func DecodeFeed(s string) (seed int64, lastID bson.ObjectID, err error) {
	raw, err := base64.URLEncoding.DecodeString(s)
	if err != nil {
		return 0, bson.NilObjectID, ErrInvalid
	}
	var c feedCursor
	if err := json.Unmarshal(raw, &c); err != nil {
		return 0, bson.NilObjectID, ErrInvalid
	}
	id, err := bson.ObjectIDFromHex(c.LastID)
	if err != nil {
		return 0, bson.NilObjectID, ErrInvalid
	}
	return c.Seed, id, nil
}
