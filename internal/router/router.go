package router

import (
	"github.com/gofiber/fiber/v2"

	"github.com/nestmatch/nestmatch-api/internal/config"
	"github.com/nestmatch/nestmatch-api/internal/handler"
	"github.com/nestmatch/nestmatch-api/internal/observability"
)

// Dependencies groups router dependencies for registration.
type Dependencies struct {
	InteractionHandler  *handler.InteractionHandler
	MessageHandler      *handler.MessageHandler
	NotificationHandler *handler.NotificationHandler
	ChatHandler         *handler.ChatHandler
	JWTMiddleware       fiber.Handler
}

// Register wires the HTTP routes into the fiber application.
func Register(app *fiber.App, cfg config.Config, deps Dependencies) {
	api := app.Group("/api/v1", func(c *fiber.Ctx) error {
		c.Set("X-Application", cfg.AppName)
		return c.Next()
	})
	api.Get("/health", handler.HealthCheck(cfg))

	app.Get("/metrics", observability.MetricsHandler())

	// Use provided JWT middleware, or a no-op if nil
	jwtMiddleware := deps.JWTMiddleware
	if jwtMiddleware == nil {
		jwtMiddleware = func(c *fiber.Ctx) error { return c.Next() }
	}

	if deps.InteractionHandler != nil {
		interactions := api.Group("/interactions", jwtMiddleware)
		deps.InteractionHandler.Register(interactions)
	}

	if deps.MessageHandler != nil {
		messages := api.Group("/messages", jwtMiddleware)
		deps.MessageHandler.Register(messages)
	}

	if deps.NotificationHandler != nil {
		notifications := api.Group("/notifications", jwtMiddleware)
		deps.NotificationHandler.Register(notifications)
	}

	// Websocket dials authenticate via a query token, not the bearer header.
	if deps.ChatHandler != nil {
		ws := app.Group("/ws")
		deps.ChatHandler.Register(ws)
	}
}
