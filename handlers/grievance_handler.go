package handlers

import (
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/campusride/transport_portal/database"
	"github.com/campusride/transport_portal/models"
	"github.com/campusride/transport_portal/notifications"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type CreateGrievanceRequest struct {
	Category      string                 `json:"category" validate:"required,oneof=bus_delay driver_behaviour safety cleanliness route payment other"`
	Subject       string                 `json:"subject" validate:"required,max=255"`
	Description   string                 `json:"description" validate:"required,min=10"`
	Priority      string                 `json:"priority" validate:"omitempty,oneof=low medium high urgent"`
	AttachmentURL *string                `json:"attachment_url" validate:"omitempty,url"`
	Metadata      map[string]interface{} `json:"metadata"`
}

type UpdateGrievanceRequest struct {
	Status     string  `json:"status" validate:"required,oneof=open in_progress resolved closed"`
	AssignedTo *string `json:"assigned_to" validate:"omitempty,uuid"`
	Resolution *string `json:"resolution"`
}

type CreateBugReportRequest struct {
	Title         string                 `json:"title" validate:"required,max=255"`
	Description   string                 `json:"description" validate:"required"`
	Severity      string                 `json:"severity" validate:"omitempty,oneof=low medium high critical"`
	PageURL       *string                `json:"page_url" validate:"omitempty,max=500"`
	ScreenshotURL *string                `json:"screenshot_url" validate:"omitempty,url"`
	DeviceInfo    map[string]interface{} `json:"device_info"`
}

type UpdateBugReportRequest struct {
	Status string `json:"status" validate:"required,oneof=open in_progress resolved closed"`
}

func toJSON(v map[string]interface{}) datatypes.JSON {
	if len(v) == 0 {
		return nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return nil
	}
	return datatypes.JSON(b)
}

func CreateGrievance(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	var req CreateGrievanceRequest
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

	priority := req.Priority
	if priority == "" {
		priority = "medium"
	}
	g := models.Grievance{
		StudentID:     student.ID,
		RouteID:       student.AllocatedRouteID,
		Category:      req.Category,
		Subject:       req.Subject,
		Description:   req.Description,
		Priority:      priority,
		Status:        models.GrievanceOpen,
		AttachmentURL: req.AttachmentURL,
		Metadata:      toJSON(req.Metadata),
	}
	if err := database.DB.Create(&g).Error; err != nil {
		log.Printf("🔥 Failed to create grievance for %s: %v", student.ID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to submit grievance"})
	}
	return c.Status(fiber.StatusCreated).JSON(g)
}

func MyGrievances(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	var list []models.Grievance
	database.DB.Where("student_id = ?", p.ID).Order("created_at desc").Find(&list)
	return c.JSON(list)
}

func AdminListGrievances(c *fiber.Ctx) error {
	page, limit, offset := pageParams(c)

	query := database.DB.Model(&models.Grievance{})
	if status := c.Query("status"); status != "" {
		query = query.Where("status = ?", status)
	}
	if category := c.Query("category"); category != "" {
		query = query.Where("category = ?", category)
	}

	var total int64
	var list []models.Grievance
	query.Count(&total)
	query.Order("created_at desc").Offset(offset).Limit(limit).Preload("Student").Find(&list)

	return c.JSON(fiber.Map{"data": list, "meta": pageMeta(total, page, limit)})
}

// AdminUpdateGrievance moves a grievance through its workflow and tells the
// student when it is resolved or closed.
func AdminUpdateGrievance(c *fiber.Ctx) error {
	id, ok := paramUUID(c, "id")
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid grievance ID"})
	}
	var req UpdateGrievanceRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse JSON"})
	}
	if err := validate.Struct(req); err != nil {
		return validationError(c, err)
	}

	var g models.Grievance
	if err := database.DB.Preload("Student").First(&g, "id = ?", id).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Grievance not found"})
	}

	g.Status = req.Status
	if req.AssignedTo != nil {
		assignee := uuid.MustParse(*req.AssignedTo)
		g.AssignedTo = &assignee
	}
	if req.Resolution != nil {
		g.Resolution = req.Resolution
	}
	closing := req.Status == models.GrievanceResolved || req.Status == models.GrievanceClosed
	if closing && g.ResolvedAt == nil {
		now := time.Now()
		g.ResolvedAt = &now
	}
	if err := database.DB.Omit("Student").Save(&g).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to update grievance"})
	}

	if closing && g.Student != nil {
		resolution := ""
		if g.Resolution != nil {
			resolution = *g.Resolution
		}
		subject, body := notifications.GrievanceUpdatedEmail(g.Student.StudentName, g.Subject, g.Status, resolution)
		go notifications.SendEmail(g.Student.StudentName, g.Student.Email, subject, body)
		go notifications.NotifyUsers(database.DB, "Grievance "+g.Status, fmt.Sprintf("Your grievance %q is now %s.", g.Subject, g.Status), "grievance", g.StudentID)
	}
	return c.JSON(g)
}

func CreateBugReport(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	var req CreateBugReportRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse JSON"})
	}
	if err := validate.Struct(req); err != nil {
		return validationError(c, err)
	}

	severity := req.Severity
	if severity == "" {
		severity = "low"
	}
	report := models.BugReport{
		ReporterID:    p.ID,
		ReporterType:  p.Role,
		Title:         req.Title,
		Description:   req.Description,
		Severity:      severity,
		Status:        models.GrievanceOpen,
		PageURL:       req.PageURL,
		ScreenshotURL: req.ScreenshotURL,
		DeviceInfo:    toJSON(req.DeviceInfo),
	}
	if err := database.DB.Create(&report).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to submit bug report"})
	}
	return c.Status(fiber.StatusCreated).JSON(report)
}

func AdminListBugReports(c *fiber.Ctx) error {
	page, limit, offset := pageParams(c)
	query := database.DB.Model(&models.BugReport{})
	if status := c.Query("status"); status != "" {
		query = query.Where("status = ?", status)
	}
	if severity := c.Query("severity"); severity != "" {
		query = query.Where("severity = ?", severity)
	}

	var total int64
	var list []models.BugReport
	query.Count(&total)
	query.Order("created_at desc").Offset(offset).Limit(limit).Find(&list)
	return c.JSON(fiber.Map{"data": list, "meta": pageMeta(total, page, limit)})
}

func AdminUpdateBugReport(c *fiber.Ctx) error {
	id, ok := paramUUID(c, "id")
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid bug report ID"})
	}
	var req UpdateBugReportRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse JSON"})
	}
	if err := validate.Struct(req); err != nil {
		return validationError(c, err)
	}

	res := database.DB.Model(&models.BugReport{}).Where("id = ?", id).Update("status", req.Status)
	if res.Error != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to update bug report"})
	}
	if res.RowsAffected == 0 {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Bug report not found"})
	}
	return c.JSON(fiber.Map{"message": "Bug report updated successfully."})
}
