package controllers

import (
	"errors"
	"log"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/ManuelReschke/ObservationDesk/app/models"
	"github.com/ManuelReschke/ObservationDesk/app/repository"
)

// ============================================================================
// OBSERVATION CONTROLLER - Repository Pattern
// ============================================================================

// ObservationController handles observation CRUD requests using repository pattern
type ObservationController struct {
	observationRepo repository.ObservationRepository
	timeout         time.Duration
	now             func() time.Time
}

// NewObservationController creates a new observation controller with repository
func NewObservationController(observationRepo repository.ObservationRepository, timeout time.Duration) *ObservationController {
	return &ObservationController{
		observationRepo: observationRepo,
		timeout:         timeout,
		now:             time.Now,
	}
}

// handleStoreError maps repository errors to a JSON response
func (oc *ObservationController) handleStoreError(c *fiber.Ctx, action string, err error) error {
	if errors.Is(err, repository.ErrObservationNotFound) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"message": "Observation not found"})
	}
	log.Printf("Error trying to %s observation: %v", action, err)
	return jsonError(c, fiber.StatusInternalServerError, "Failed to "+action+" observation")
}

var errResponseHandled = errors.New("observation response already handled")

// parseInput decodes and validates the payload. On failure the 400 response is
// already written and errResponseHandled is returned.
func (oc *ObservationController) parseInput(c *fiber.Ctx) (*models.ObservationInput, error) {
	var input models.ObservationInput
	if err := c.BodyParser(&input); err != nil {
		if err := jsonError(c, fiber.StatusBadRequest, "Invalid request payload"); err != nil {
			return nil, err
		}
		return nil, errResponseHandled
	}
	if err := input.Validate(); err != nil {
		if err := jsonError(c, fiber.StatusBadRequest, validationMessage(err)); err != nil {
			return nil, err
		}
		return nil, errResponseHandled
	}
	return &input, nil
}

// HandleListObservations handles GET /observations?search=
func (oc *ObservationController) HandleListObservations(c *fiber.Ctx) error {
	ctx, cancel := requestContext(c, oc.timeout)
	defer cancel()

	observations, err := oc.observationRepo.Search(ctx, c.Query("search"))
	if err != nil {
		return oc.handleStoreError(c, "list", err)
	}
	return c.JSON(fiber.Map{"observations": observations})
}

// HandleGetObservation handles GET /observations/:id
func (oc *ObservationController) HandleGetObservation(c *fiber.Ctx) error {
	ctx, cancel := requestContext(c, oc.timeout)
	defer cancel()

	observation, err := oc.observationRepo.GetByID(ctx, c.Params("id"))
	if err != nil {
		return oc.handleStoreError(c, "load", err)
	}
	return c.JSON(fiber.Map{"observation": observation})
}

// HandleCreateObservation handles POST /observations
func (oc *ObservationController) HandleCreateObservation(c *fiber.Ctx) error {
	input, err := oc.parseInput(c)
	if err != nil {
		if errors.Is(err, errResponseHandled) {
			return nil
		}
		return err
	}

	ctx, cancel := requestContext(c, oc.timeout)
	defer cancel()

	observation := input.NewObservation(oc.now())
	if err := oc.observationRepo.Create(ctx, observation); err != nil {
		return oc.handleStoreError(c, "create", err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message":     "Observation Created",
		"observation": observation,
	})
}

// HandleUpdateObservation handles PUT /observations/:id
func (oc *ObservationController) HandleUpdateObservation(c *fiber.Ctx) error {
	input, err := oc.parseInput(c)
	if err != nil {
		if errors.Is(err, errResponseHandled) {
			return nil
		}
		return err
	}

	ctx, cancel := requestContext(c, oc.timeout)
	defer cancel()

	observation, err := oc.observationRepo.Update(ctx, c.Params("id"), input.UpdateFields(oc.now()))
	if err != nil {
		return oc.handleStoreError(c, "update", err)
	}
	return c.JSON(fiber.Map{
		"message":     "Observation updated",
		"observation": observation,
	})
}

// HandleDeleteObservation handles DELETE /observations/:id
func (oc *ObservationController) HandleDeleteObservation(c *fiber.Ctx) error {
	ctx, cancel := requestContext(c, oc.timeout)
	defer cancel()

	observation, err := oc.observationRepo.Delete(ctx, c.Params("id"))
	if err != nil {
		return oc.handleStoreError(c, "delete", err)
	}
	return c.JSON(fiber.Map{
		"message":     "Observation deleted",
		"observation": observation,
	})
}
