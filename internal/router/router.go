package router

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/soltixdb/casetrend/internal/config"
	"github.com/soltixdb/casetrend/internal/handlers"
	"github.com/soltixdb/casetrend/internal/logging"
	"github.com/soltixdb/casetrend/internal/middleware"
	"github.com/soltixdb/casetrend/internal/services"
)

// Setup configures all routes and middlewares
func Setup(app *fiber.App, logger *logging.Logger, dashboard *services.DashboardService,
	refresh *services.RefreshService, cfg config.Config,
) *handlers.Handler {
	h := handlers.New(logger, dashboard, refresh)

	// Global middlewares
	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,PATCH,DELETE,OPTIONS",
		AllowHeaders: "Origin,Content-Type,Accept,Authorization,X-API-Key,X-Request-ID",
	}))
	app.Use(logging.FiberMiddleware(logger, logging.DefaultMiddlewareConfig()))

	// Health check (no auth required)
	app.Get("/health", h.Health)

	// Dashboard API
	v1 := app.Group("/v1")
	v1.Get("/countries", h.ListCountries)
	v1.Get("/countries/resolve", h.ResolveCountry)
	v1.Get("/dataset", h.Dataset)
	v1.Get("/ranking", h.Ranking)

	// Sessions
	v1.Post("/sessions", h.CreateSession)
	v1.Get("/sessions/:id", h.GetSession)
	v1.Patch("/sessions/:id", h.UpdateSession)
	v1.Delete("/sessions/:id", h.DeleteSession)

	// Admin Routes (protected by API key)
	admin := app.Group("/admin", middleware.APIKeyAuth(logger, cfg.Auth))
	admin.Post("/refresh", h.TriggerRefresh)
	admin.Get("/table", h.TableInfo)

	// 404 handler
	app.Use(h.NotFound)

	return h
}

// New creates a new Fiber app with configuration
func New(logger *logging.Logger, dashboard *services.DashboardService,
	refresh *services.RefreshService, cfg config.Config,
) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:               "Casetrend Dashboard",
		DisableStartupMessage: true,
		ErrorHandler:          middleware.ErrorHandler(logger),
	})

	Setup(app, logger, dashboard, refresh, cfg)

	return app
}
