// Package routes wires the HTTP surface. Static paths are registered
// before parameterized ones so /posts/trending never matches /posts/:id.
package routes

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/roamly/backend/internal/handlers"
	"github.com/roamly/backend/internal/middleware"
)

type Deps struct {
	Interactions *handlers.InteractionHandler
	Feed         *handlers.FeedHandler
	Comments     *handlers.CommentHandler
	JWTSecret    string
	ViewLimiter  fiber.Handler
}

func Register(app *fiber.App, d Deps) {
	app.Get("/healthz", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	api := app.Group("/api")
	auth := middleware.JWTRequired(d.JWTSecret)
	optAuth := middleware.JWTOptional(d.JWTSecret)

	pi := api.Group("/post-interactions", auth)
	pi.Post("/views/batch", d.ViewLimiter, d.Interactions.RecordViewsBatch)
	pi.Post("/:postId/like", d.Interactions.Like)
	pi.Post("/:postId/dislike", d.Interactions.Dislike)
	pi.Post("/:postId/view", d.ViewLimiter, d.Interactions.RecordView)
	pi.Get("/:postId/status", d.Interactions.Status)

	posts := api.Group("/posts")
	posts.Get("/", optAuth, d.Feed.List)
	posts.Get("/recent", optAuth, d.Feed.Recent)
	posts.Get("/trending", optAuth, d.Feed.Trending)
	posts.Get("/infinite/seeded", optAuth, d.Feed.InfiniteSeeded)
	posts.Get("/infinite", optAuth, d.Feed.Infinite)
	posts.Post("/:postId/reaction", auth, d.Interactions.React)
	posts.Get("/:postId/analytics", auth, d.Interactions.Analytics)
	posts.Get("/:id", optAuth, d.Feed.Get)

	comments := api.Group("/comments")
	comments.Get("/post/:postId", optAuth, d.Comments.List)
	comments.Patch("/:id/like", auth, d.Comments.ToggleLike)
	comments.Post("/", auth, d.Comments.Create)
}
