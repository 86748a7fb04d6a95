package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"go.mongodb.org/mongo-driver/v2/bson"
)

type authClaims struct {
	UID string `json:"uid,omitempty"`
	jwt.RegisteredClaims
}

func parseUID(tokenStr, secret string) (string, error) {
	var claims authClaims
	token, err := jwt.ParseWithClaims(
		tokenStr,
		&claims,
		func(t *jwt.Token) (any, error) {
			if t.Method.Alg() != jwt.SigningMethodHS256.Alg() {
				return nil, fiber.NewError(fiber.StatusUnauthorized, "unsupported alg")
			}
			return []byte(secret), nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
	)
	if err != nil || !token.Valid {
		return "", fiber.NewError(fiber.StatusUnauthorized, "invalid token")
	}

	uid := claims.UID
	if uid == "" {
		uid = claims.Subject
	}
	if uid == "" {
		return "", fiber.NewError(fiber.StatusUnauthorized, "missing uid")
	}
	return uid, nil
}

func bearerToken(c *fiber.Ctx) string {
	auth := c.Get("Authorization")
	if auth == "" || !strings.HasPrefix(strings.ToLower(auth), "bearer ") {
		return ""
	}
	return strings.TrimSpace(auth[7:])
}

// JWTRequired rejects requests without a valid bearer token and stores
// the caller's id in Locals("user_id").
func JWTRequired(secret string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		tokenStr := bearerToken(c)
		if tokenStr == "" {
			return fiber.NewError(fiber.StatusUnauthorized, "missing token")
		}
		uid, err := parseUID(tokenStr, secret)
		if err != nil {
			return err
		}
		c.Locals("user_id", uid)
		return c.Next()
	}
}

// JWTOptional passes anonymous requests through untouched but still
// rejects malformed tokens. Feed endpoints use it so logged-in viewers
// get per-user interaction flags on the same routes.
func JWTOptional(secret string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		tokenStr := bearerToken(c)
		if tokenStr == "" {
			return c.Next()
		}
		uid, err := parseUID(tokenStr, secret)
		if err != nil {
			return err
		}
		c.Locals("user_id", uid)
		return c.Next()
	}
}

// UIDObjectID reads the authenticated user id set by the JWT middleware.
func UIDObjectID(c *fiber.Ctx) (bson.ObjectID, error) {
	uid, ok := c.Locals("user_id").(string)
	if !ok || uid == "" {
		return bson.NilObjectID, fiber.ErrUnauthorized
	}
	oid, err := bson.ObjectIDFromHex(uid)
	if err != nil {
		return bson.NilObjectID, fiber.ErrUnauthorized
	}
	return oid, nil
}

// MaybeUIDObjectID is the optional-auth variant: anonymous requests
// return NilObjectID with ok=false.
func MaybeUIDObjectID(c *fiber.Ctx) (bson.ObjectID, bool) {
	uid, ok := c.Locals("user_id").(string)
	if !ok || uid == "" {
		return bson.NilObjectID, false
	}
	oid, err := bson.ObjectIDFromHex(uid)
	if err != nil {
		return bson.NilObjectID, false
	}
	return oid, true
}
