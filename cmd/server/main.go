package main

import (
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/roamly/backend/configs"
	"github.com/roamly/backend/internal/apperr"
	"github.com/roamly/backend/internal/cache"
	"github.com/roamly/backend/internal/events"
	"github.com/roamly/backend/internal/feedcache"
	"github.com/roamly/backend/internal/handlers"
	"github.com/roamly/backend/internal/middleware"
	"github.com/roamly/backend/internal/respond"
	"github.com/roamly/backend/internal/routes"
	"github.com/roamly/backend/internal/store"
)

func main() {
	cfg := configs.Load()
	logger := cfg.NewLogger()

	if cfg.JWTSecret == "" {
		logger.Fatal().Msg("JWT_SECRET is required")
	}

	client, err := configs.ConnectMongo(cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("mongo connection failed")
	}
	defer configs.DisconnectMongo(client)

	st := store.New(client, cfg.DBName)
	responder := respond.New(logger, cfg.DevMode())

	trendingCache := feedcache.New(cfg.RedisAddr, cfg.TrendingCacheTTL, logger)
	defer trendingCache.Close()

	publisher := events.NewPublisher(cfg.KafkaBrokers, cfg.KafkaTopic, logger)
	defer publisher.Close()

	dedup := cache.NewTTL(cfg.ViewDedupWindow, time.Minute)
	defer dedup.Stop()
	limiter := cache.NewRateLimiter(cfg.ViewRateLimit, cfg.ViewRatePeriod)

	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			var fe *fiber.Error
			if errors.As(err, &fe) {
				return c.Status(fe.Code).JSON(fiber.Map{"success": false, "message": fe.Message})
			}
			return c.Status(apperr.Status(err)).JSON(fiber.Map{"success": false, "message": "Internal server error"})
		},
	})

	routes.Register(app, routes.Deps{
		Interactions: &handlers.InteractionHandler{
			Store:   st,
			Respond: responder,
			Events:  publisher,
			Dedup:   dedup,
		},
		Feed: &handlers.FeedHandler{
			Store:          st,
			Respond:        responder,
			Cache:          trendingCache,
			TrendingWindow: time.Duration(cfg.TrendingWindowDays) * 24 * time.Hour,
		},
		Comments: &handlers.CommentHandler{
			Store:   st,
			Respond: responder,
			Events:  publisher,
		},
		JWTSecret:   cfg.JWTSecret,
		ViewLimiter: middleware.ViewRateLimit(limiter, responder),
	})

	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		<-quit
		logger.Info().Msg("shutting down")
		_ = app.ShutdownWithTimeout(10 * time.Second)
	}()

	logger.Info().Str("port", cfg.Port).Msg("server starting")
	if err := app.Listen(":" + cfg.Port); err != nil {
		logger.Fatal().Err(err).Msg("server stopped")
	}
}
