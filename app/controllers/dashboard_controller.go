package controllers

import (
	"log"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/ManuelReschke/ObservationDesk/internal/pkg/dashboard"
)

// ============================================================================
// DASHBOARD CONTROLLER
// ============================================================================

// DashboardController serves the aggregation endpoints under /api/dashboard
type DashboardController struct {
	service *dashboard.Service
	timeout time.Duration
}

// NewDashboardController creates a dashboard controller on top of the dashboard service
func NewDashboardController(service *dashboard.Service, timeout time.Duration) *DashboardController {
	return &DashboardController{service: service, timeout: timeout}
}

// HandleFormsByDate handles GET /forms-by-date?date=|startDate=&endDate=
func (dc *DashboardController) HandleFormsByDate(c *fiber.Ctx) error {
	query, err := dashboard.ParseQuery(c.Query("date"), c.Query("startDate"), c.Query("endDate"))
	if err != nil {
		return jsonError(c, fiber.StatusBadRequest, "Invalid date format. Use YYYY-MM-DD")
	}

	ctx, cancel := requestContext(c, dc.timeout)
	defer cancel()

	result, err := dc.service.FormsByDate(ctx, query)
	if err != nil {
		log.Printf("Error fetching forms by date: %v", err)
		return jsonError(c, fiber.StatusInternalServerError, "Failed to fetch forms by date")
	}
	return c.JSON(result)
}

// HandleTotalForms handles GET /total-forms?startDate=&endDate=
func (dc *DashboardController) HandleTotalForms(c *fiber.Ctx) error {
	ctx, cancel := requestContext(c, dc.timeout)
	defer cancel()

	total, err := dc.service.TotalForms(ctx, dashboard.NewDateFilter(c.Query("startDate"), c.Query("endDate")))
	if err != nil {
		log.Printf("Error counting total forms: %v", err)
		return jsonError(c, fiber.StatusInternalServerError, "Failed to fetch total forms")
	}
	return c.JSON(total)
}

// HandleTodayForms handles GET /today-forms
func (dc *DashboardController) HandleTodayForms(c *fiber.Ctx) error {
	ctx, cancel := requestContext(c, dc.timeout)
	defer cancel()

	today, err := dc.service.Today(ctx)
	if err != nil {
		log.Printf("Error fetching today's forms: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"error":   "Failed to fetch today's forms",
		})
	}
	return c.JSON(today)
}
