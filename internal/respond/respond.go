// Package respond renders the service's response envelope: every body
// carries success and message, data when present, and error detail
// only in development mode.
package respond

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/roamly/backend/internal/apperr"
)

type Responder struct {
	log     zerolog.Logger
	devMode bool
}

func New(log zerolog.Logger, devMode bool) *Responder {
	return &Responder{log: log, devMode: devMode}
}

type envelope struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
}

func (r *Responder) OK(c *fiber.Ctx, message string, data any) error {
	return c.Status(fiber.StatusOK).JSON(envelope{Success: true, Message: message, Data: data})
}

func (r *Responder) Created(c *fiber.Ctx, message string, data any) error {
	return c.Status(fiber.StatusCreated).JSON(envelope{Success: true, Message: message, Data: data})
}

// Err maps a taxonomy error to its status. Internal errors are logged
// with their cause; the cause reaches the body only in development.
func (r *Responder) Err(c *fiber.Ctx, err error) error {
	status := apperr.Status(err)
	body := envelope{Success: false, Message: messageOf(err)}

	if status == fiber.StatusInternalServerError {
		r.log.Error().Err(err).Str("path", c.Path()).Msg("request failed")
		if r.devMode {
			body.Error = err.Error()
		}
	}
	return c.Status(status).JSON(body)
}

// RateLimited renders the 429 shape with its retryAfter hint.
func (r *Responder) RateLimited(c *fiber.Ctx, retryAfterSeconds int) error {
	return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
		"success":    false,
		"message":    "Too many requests. Please slow down.",
		"retryAfter": retryAfterSeconds,
	})
}

func messageOf(err error) string {
	var ae *apperr.Error
	if errors.As(err, &ae) {
		return ae.Message()
	}
	return "Internal server error"
}
