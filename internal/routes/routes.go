package routes

import (
	"time"

	"github.com/civicfix/civicfix-backend/internal/config"
	"github.com/civicfix/civicfix-backend/internal/handlers"
	"github.com/civicfix/civicfix-backend/internal/middleware"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
)

func Setup(
	app *fiber.App,
	cfg *config.Config,
	reportHandler *handlers.ReportHandler,
	leaderboardHandler *handlers.LeaderboardHandler,
	healthHandler *handlers.HealthHandler,
) {
	api := app.Group("/api")

	// General API rate limiter: 60 req/min per IP
	api.Use(limiter.New(limiter.Config{
		Max:               60,
		Expiration:        1 * time.Minute,
		LimiterMiddleware: limiter.SlidingWindow{},
		KeyGenerator:      func(c *fiber.Ctx) string { return c.IP() },
	}))

	api.Get("/health", healthHandler.Check)

	api.Get("/leaderboard", leaderboardHandler.Top)

	// Submission-specific rate limit: 10 req/min per IP (stricter)
	submitLimiter := limiter.New(limiter.Config{
		Max:               10,
		Expiration:        1 * time.Minute,
		LimiterMiddleware: limiter.SlidingWindow{},
		KeyGenerator:      func(c *fiber.Ctx) string { return c.IP() },
	})
	api.Post("/reports", submitLimiter, middleware.SubmitterIdentity(cfg), reportHandler.Submit)

	// /latest must register before /:id so the literal segment wins.
	api.Get("/reports/latest", reportHandler.Latest)
	api.Get("/reports/:id", reportHandler.GetByID)

	// Admin report view: all statuses, not just approved.
	admin := api.Group("/admin", middleware.JWTProtected(cfg), middleware.AdminRequired(cfg))
	admin.Get("/reports", reportHandler.AdminLatest)
}
