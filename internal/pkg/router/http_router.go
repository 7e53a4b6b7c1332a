package router

import (
	"context"
	"log"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/ManuelReschke/ObservationDesk/internal/pkg/constants"
)

const healthTimeout = 2 * time.Second

type HttpRouter struct {
	healthCheck func(ctx context.Context) error
}

func (h HttpRouter) InstallRouter(app *fiber.App) {
	app.Get(constants.PublicRoute, func(c *fiber.Ctx) error {
		return c.SendString("Hello, MongoDB is connected!")
	})
	app.Get(constants.HealthRoute, h.handleHealth)
}

func NewHttpRouter(deps Dependencies) *HttpRouter {
	return &HttpRouter{healthCheck: deps.HealthCheck}
}

func (h HttpRouter) handleHealth(c *fiber.Ctx) error {
	if h.healthCheck != nil {
		ctx, cancel := context.WithTimeout(c.UserContext(), healthTimeout)
		defer cancel()
		if err := h.healthCheck(ctx); err != nil {
			log.Printf("health check failed: %v", err)
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"status": "unavailable"})
		}
	}
	return c.JSON(fiber.Map{"status": "ok"})
}
