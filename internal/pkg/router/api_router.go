package router

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"

	"github.com/ManuelReschke/ObservationDesk/app/controllers"
	"github.com/ManuelReschke/ObservationDesk/internal/pkg/constants"
)

const defaultRateLimitMax = 120

type ApiRouter struct {
	dashboard    *controllers.DashboardController
	observations *controllers.ObservationController
	limiter      limiter.Config
}

func (h ApiRouter) InstallRouter(app *fiber.App) {
	api := app.Group(constants.APIRoute, limiter.New(h.limiter))

	dashboardGroup := api.Group(constants.DashboardRoute)
	dashboardGroup.Get("/forms-by-date", h.dashboard.HandleFormsByDate)
	dashboardGroup.Get("/total-forms", h.dashboard.HandleTotalForms)
	dashboardGroup.Get("/today-forms", h.dashboard.HandleTodayForms)

	formGroup := api.Group(constants.FormRoute)
	formGroup.Get(constants.ObservationsPath, h.observations.HandleListObservations)
	formGroup.Get(constants.ObservationsPath+"/:id", h.observations.HandleGetObservation)
	formGroup.Post(constants.ObservationsPath, h.observations.HandleCreateObservation)
	formGroup.Put(constants.ObservationsPath+"/:id", h.observations.HandleUpdateObservation)
	formGroup.Delete(constants.ObservationsPath+"/:id", h.observations.HandleDeleteObservation)
}

func NewApiRouter(deps Dependencies) *ApiRouter {
	max := deps.RateLimitMax
	if max <= 0 {
		max = defaultRateLimitMax
	}

	return &ApiRouter{
		dashboard:    controllers.NewDashboardController(deps.Dashboard, deps.QueryTimeout),
		observations: controllers.NewObservationController(deps.Observations, deps.QueryTimeout),
		limiter: limiter.Config{
			Max:        max,
			Expiration: time.Minute,
			Storage:    deps.LimiterStorage,
			LimitReached: func(c *fiber.Ctx) error {
				return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{"error": "Too many requests"})
			},
		},
	}
}
