package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/tutoring-portal/internal/api/http/handlers"
	"github.com/spec-kit/tutoring-portal/internal/auth"
	"github.com/spec-kit/tutoring-portal/internal/session"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health   *handlers.HealthHandler
	Tickets  *handlers.TicketsHandler
	Status   *handlers.StatusHandler
	Admin    *handlers.AdminHandler
	Tutors   *handlers.TutorsHandler
	Session  *handlers.SessionHandler
	Sessions *session.Manager
	Resolver *auth.Resolver

	OpenTicketRatePerMinute int
}

// RegisterRoutes wires HTTP routes. Probes are registered ahead of the
// session middleware so they never touch the session store.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	health := app.Group("/health")
	health.Get("/live", cfg.Health.Live)
	health.Get("/ready", cfg.Health.Ready)
	health.Get("/metrics", cfg.Health.Metrics)

	app.Use(cfg.Sessions.Middleware(), cfg.Resolver.Middleware())

	app.Get("/", cfg.Tickets.Index)
	app.Get("/status.html", cfg.Status.Status)
	app.Get("/availability.json", cfg.Status.AvailabilityFeed)
	app.Get("/open_ticket/", cfg.Tickets.OpenTicketForm)
	app.Post("/open_ticket/", openTicketLimiter(cfg.OpenTicketRatePerMinute), cfg.Tickets.OpenTicket)

	app.Get("/tickets.json", auth.RequireTutor(), cfg.Tickets.PendingFeed)
	tickets := app.Group("/tickets", auth.RequireTutor())
	tickets.Get("/", cfg.Tickets.Queue)
	tickets.Get("/close/:id", cfg.Tickets.Advance)
	tickets.Get("/reopen/:id", cfg.Tickets.Reopen)
	tickets.Post("/:id/claim", cfg.Tickets.Claim)
	tickets.Post("/:id/close", cfg.Tickets.Close)
	tickets.Post("/:id/reopen", cfg.Tickets.Reopen)
	tickets.Get("/:id/history", cfg.Tickets.History)

	admin := app.Group("/admin")
	admin.Get("/tutors/", cfg.Tutors.List)
	admin.Get("/tutors/:email", cfg.Tutors.Get)
	admin.Post("/tutors/", cfg.Tutors.Save)

	catalog := admin.Group("", auth.RequireSuperuser())
	catalog.Get("/", cfg.Admin.Overview)
	catalog.Get("/:kind/", cfg.Admin.List)
	catalog.Get("/:kind/:id", cfg.Admin.Get)
	catalog.Post("/:kind/", cfg.Admin.Save)

	app.Get("/login/", cfg.Session.Login)
	app.Get("/login/callback", cfg.Session.Callback)
	app.Get("/logout/", cfg.Session.Logout)
}
