package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/project-tracker/internal/api/http/handlers"
	"github.com/spec-kit/project-tracker/internal/auth"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Users          *handlers.UsersHandler
	Projects       *handlers.ProjectsHandler
	Tickets        *handlers.TicketsHandler
	AuthMiddleware *auth.AuthMiddleware
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	app.Post("/auth/login", cfg.Users.Login)

	protected := app.Group("", cfg.AuthMiddleware.Handle)

	protected.Get("/projects", cfg.Projects.ListProjects)
	protected.Get("/projects/:projectId", cfg.Projects.GetProject)
	protected.Get("/projects/:projectId/tickets", cfg.Tickets.ListTickets)
	protected.Post("/projects/:projectId/tickets", auth.RequireTicketEditor(), cfg.Tickets.CreateTicket)

	protected.Get("/tickets/:id", cfg.Tickets.GetTicket)
	protected.Patch("/tickets/:id", auth.RequireTicketEditor(), cfg.Tickets.UpdateTicket)
}
