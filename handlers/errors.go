package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"strconv"

	"github.com/campusride/transport_portal/middleware"
	"github.com/campusride/transport_portal/reporting"
	"github.com/campusride/transport_portal/services"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// serviceError maps service errors onto the API's status codes. Unexpected
// errors are logged and answered with a generic 500.
func serviceError(c *fiber.Ctx, err error) error {
	var notAllocated *services.NotAllocatedError
	var ineligible *services.EligibilityError

	switch {
	case errors.As(err, &notAllocated):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Student is not allocated to a route",
			"details": fiber.Map{
				"student_id":        notAllocated.StudentID,
				"has_route":         notAllocated.HasRoute,
				"has_boarding_stop": notAllocated.HasBoardingStop,
			},
		})
	case errors.As(err, &ineligible):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": ineligible.Reason})
	case errors.Is(err, services.ErrStudentNotFound),
		errors.Is(err, services.ErrFeeStructureNotFound),
		errors.Is(err, services.ErrFeeRecordNotFound),
		errors.Is(err, services.ErrPaymentNotFound),
		errors.Is(err, services.ErrNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, services.ErrInvalidAmount),
		errors.Is(err, services.ErrInvalidPaymentType),
		errors.Is(err, services.ErrInvalidTerm):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	log.Printf("🔥 %s %s failed: %v", c.Method(), c.Path(), err)
	reporting.Error(err, map[string]interface{}{"method": c.Method(), "path": c.Path()})
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Internal server error"})
}

func principal(c *fiber.Ctx) (middleware.Principal, error) {
	p, ok := middleware.CurrentPrincipal(c)
	if !ok {
		return p, fiber.NewError(fiber.StatusUnauthorized, "Invalid session")
	}
	return p, nil
}

func paramUUID(c *fiber.Ctx, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Params(name))
	return id, err == nil
}

// flexString accepts a JSON string or number, for fields clients send either way.
type flexString string

func (f *flexString) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		*f = flexString(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	if _, err := strconv.ParseFloat(string(n), 64); err != nil {
		return err
	}
	*f = flexString(n.String())
	return nil
}
