package routes

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"

	"github.com/mertkaradayi/goalflow/internal/config"
	"github.com/mertkaradayi/goalflow/internal/handlers"
	"github.com/mertkaradayi/goalflow/internal/middleware"
)

func Setup(
	app *fiber.App,
	cfg *config.Config,
	authHandler *handlers.AuthHandler,
	healthHandler *handlers.HealthHandler,
	planHandler *handlers.PlanHandler,
	dailyHandler *handlers.DailyHandler,
	progressHandler *handlers.ProgressHandler,
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

	// Auth is public, with a stricter rate limit: 10 req/min per IP
	auth := api.Group("/auth")
	auth.Use(limiter.New(limiter.Config{
		Max:               10,
		Expiration:        1 * time.Minute,
		LimiterMiddleware: limiter.SlidingWindow{},
		KeyGenerator:      func(c *fiber.Ctx) string { return c.IP() },
	}))
	auth.Post("/register", authHandler.Register)
	auth.Post("/login", authHandler.Login)
	auth.Post("/refresh", authHandler.Refresh)

	// Protected routes (JWT required)
	jwt := middleware.JWTProtected(cfg)
	api.Post("/auth/logout", jwt, authHandler.Logout)
	api.Get("/auth/me", jwt, authHandler.Me)

	api.Post("/goals/dump", jwt, planHandler.DumpGoal)
	api.Get("/plans", jwt, planHandler.ListPlans)
	api.Get("/plans/current", jwt, planHandler.CurrentPlan)
	api.Post("/plans/start-fresh", jwt, planHandler.StartFresh)

	api.Get("/daily/today", jwt, dailyHandler.Today)
	api.Post("/daily/check-in", jwt, dailyHandler.CheckIn)

	api.Get("/streak", jwt, progressHandler.Streak)
	api.Get("/weekly-summary", jwt, progressHandler.WeeklySummary)
	api.Get("/progress", jwt, progressHandler.Progress)
}
