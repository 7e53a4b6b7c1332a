package router

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/ManuelReschke/ObservationDesk/app/repository"
	"github.com/ManuelReschke/ObservationDesk/internal/pkg/dashboard"
)

type Router interface {
	InstallRouter(app *fiber.App)
}

// Dependencies are the collaborators the routes are wired to.
type Dependencies struct {
	Observations repository.ObservationRepository
	Dashboard    *dashboard.Service
	QueryTimeout time.Duration

	// HealthCheck pings the backing services; nil reports healthy.
	HealthCheck func(ctx context.Context) error

	// LimiterStorage shares rate limiter state; nil keeps it in memory.
	LimiterStorage fiber.Storage
	RateLimitMax   int
}

func InstallRouter(app *fiber.App, deps Dependencies) {
	setup(app, NewHttpRouter(deps), NewApiRouter(deps))
}

func setup(app *fiber.App, router ...Router) {
	for _, r := range router {
		r.InstallRouter(app)
	}
}
