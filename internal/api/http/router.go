package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/neos-mentors/mentor-queue/internal/api/http/handlers"
	"github.com/neos-mentors/mentor-queue/internal/auth"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Tickets        *handlers.TicketsHandler
	Mentors        *handlers.MentorsHandler
	Admin          *handlers.AdminHandler
	AuthMiddleware *auth.Middleware
	Throttle       fiber.Handler
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	api := app.Group("/api")

	tickets := api.Group("/tickets")
	if cfg.Throttle != nil {
		tickets.Post("/", cfg.Throttle, cfg.Tickets.Create)
	} else {
		tickets.Post("/", cfg.Tickets.Create)
	}
	tickets.Get("/", cfg.Tickets.ListIncomplete)
	tickets.Get("/:id", cfg.Tickets.Get)
	tickets.Post("/:id/claim", cfg.Tickets.Claim)
	tickets.Post("/:id/unclaim", cfg.Tickets.Unclaim)
	tickets.Post("/:id/complete", cfg.Tickets.Complete)
	tickets.Post("/:id/cancel", cfg.Tickets.Cancel)

	admin := api.Group("/admin")
	admin.Post("/login", cfg.Admin.Login)

	protected := admin.Group("", cfg.AuthMiddleware.RequireAdmin)
	protected.Post("/mentors", cfg.Mentors.Create)
	protected.Get("/mentors", cfg.Mentors.List)
	protected.Get("/metrics", cfg.Admin.Metrics)
}
