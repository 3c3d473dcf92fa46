package handlers

import (
	"fmt"

	"github.com/campusride/transport_portal/database"
	"github.com/campusride/transport_portal/models"
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type UpdateProfileRequest struct {
	Mobile              *string `json:"mobile" validate:"omitempty,min=10,max=15"`
	EmergencyContact    *string `json:"emergency_contact" validate:"omitempty,min=10,max=15"`
	BoardingStopRequest *string `json:"boarding_stop_request" validate:"omitempty,max=255"`
}

func GetProfile(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return err
	}

	switch {
	case p.IsDriver():
		var driver models.Driver
		if err := database.DB.Preload("AssignedRoute.Stops", func(db *gorm.DB) *gorm.DB {
			return db.Order("sequence_order asc")
		}).First(&driver, "id = ?", p.ID).Error; err != nil {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Driver not found"})
		}
		return c.JSON(fiber.Map{"role": p.Role, "driver": driver})
	case p.IsStaff():
		var user models.User
		if err := database.DB.First(&user, "id = ?", p.ID).Error; err != nil {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "User not found"})
		}
		return c.JSON(fiber.Map{"role": p.Role, "user": user})
	}

	var student models.Student
	if err := database.DB.Preload("Quota").Preload("Route").First(&student, "id = ?", p.ID).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Student not found"})
	}
	return c.JSON(fiber.Map{"role": p.Role, "student": student})
}

// UpdateProfile edits a passenger's contact numbers. A boarding stop change
// is filed as a route grievance for the transport office instead of being
// applied.
func UpdateProfile(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	if !p.IsPassenger() {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Only passengers can edit their profile here"})
	}

	var req UpdateProfileRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse JSON"})
	}
	if err := validate.Struct(req); err != nil {
		return validationError(c, err)
	}

	var student models.Student
	if err := database.DB.First(&student, "id = ?", p.ID).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Student not found"})
	}

	updates := map[string]interface{}{}
	if req.Mobile != nil {
		updates["mobile"] = *req.Mobile
	}
	if req.EmergencyContact != nil {
		updates["emergency_contact"] = *req.EmergencyContact
	}
	if len(updates) > 0 {
		if err := database.DB.Model(&student).Updates(updates).Error; err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to update profile"})
		}
	}

	response := fiber.Map{"student": student}
	if req.BoardingStopRequest != nil && *req.BoardingStopRequest != "" {
		current := "none"
		if student.BoardingStop != nil {
			current = *student.BoardingStop
		}
		g := models.Grievance{
			StudentID:   student.ID,
			RouteID:     student.AllocatedRouteID,
			Category:    "route",
			Subject:     "Boarding stop change request",
			Description: fmt.Sprintf("Requested change of boarding stop from %s to %s.", current, *req.BoardingStopRequest),
			Priority:    "low",
			Status:      models.GrievanceOpen,
		}
		if err := database.DB.Create(&g).Error; err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to file boarding stop request"})
		}
		response["boarding_stop_request"] = g
	}
	return c.JSON(response)
}
