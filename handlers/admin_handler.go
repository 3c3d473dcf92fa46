package handlers

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/campusride/transport_portal/database"
	"github.com/campusride/transport_portal/identity"
	"github.com/campusride/transport_portal/models"
	"github.com/gofiber/fiber/v2"
	"golang.org/x/crypto/bcrypt"
)

type DashboardAnalyticsResponse struct {
	TotalStudents     int64                    `json:"total_students"`
	StudentsWithRoute int64                    `json:"students_with_route"`
	StudentsOverdue   int64                    `json:"students_overdue"`
	TotalRevenue      float64                  `json:"total_revenue"`
	OutstandingTotal  float64                  `json:"outstanding_total"`
	PendingPayments   int64                    `json:"pending_payments"`
	ActiveBuses       int64                    `json:"active_buses"`
	OpenGrievances    int64                    `json:"open_grievances"`
	RecentPayments    []models.SemesterPayment `json:"recent_payments"`
}

func GetDashboardAnalytics(c *fiber.Ctx) error {
	var response DashboardAnalyticsResponse

	database.DB.Model(&models.Student{}).Count(&response.TotalStudents)
	database.DB.Model(&models.Student{}).Where("allocated_route_id IS NOT NULL").Count(&response.StudentsWithRoute)
	database.DB.Model(&models.Student{}).Where("payment_status = ?", models.StudentPaymentOverdue).Count(&response.StudentsOverdue)

	database.DB.Model(&models.SemesterPayment{}).Where("payment_status = ?", models.PaymentStatusConfirmed).Select("COALESCE(SUM(amount_paid), 0)").Row().Scan(&response.TotalRevenue)
	database.DB.Model(&models.Student{}).Select("COALESCE(SUM(outstanding_amount), 0)").Row().Scan(&response.OutstandingTotal)
	database.DB.Model(&models.SemesterPayment{}).Where("payment_status = ?", models.PaymentStatusPending).Count(&response.PendingPayments)

	database.DB.Model(&models.LiveLocation{}).Where("is_online = ? AND updated_at > ?", true, time.Now().Add(-15*time.Minute)).Count(&response.ActiveBuses)
	database.DB.Model(&models.Grievance{}).Where("status IN ?", []string{models.GrievanceOpen, models.GrievanceInProgress}).Count(&response.OpenGrievances)

	database.DB.Order("created_at desc").Limit(5).Preload("Student").Find(&response.RecentPayments)

	return c.JSON(response)
}

// GenerateSemesterPaymentReport exports payments created in a date range as
// CSV. Defaults to the last month.
func GenerateSemesterPaymentReport(c *fiber.Ctx) error {
	startDateStr := c.Query("start_date", time.Now().AddDate(0, -1, 0).Format("2006-01-02"))
	endDateStr := c.Query("end_date", time.Now().Format("2006-01-02"))

	startDate, err := time.Parse("2006-01-02", startDateStr)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid start_date format. Use YYYY-MM-DD."})
	}
	endDate, err := time.Parse("2006-01-02", endDateStr)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid end_date format. Use YYYY-MM-DD."})
	}
	endDate = endDate.Add(23*time.Hour + 59*time.Minute + 59*time.Second)

	query := database.DB.Preload("Student").Where("created_at BETWEEN ? AND ?", startDate, endDate)
	if status := c.Query("status"); status != "" {
		query = query.Where("payment_status = ?", status)
	}
	var payments []models.SemesterPayment
	query.Order("created_at desc").Find(&payments)

	var receipts []models.PaymentReceipt
	ids := make([]string, 0, len(payments))
	for _, p := range payments {
		ids = append(ids, p.ID.String())
	}
	if len(ids) > 0 {
		database.DB.Where("semester_payment_id IN ?", ids).Find(&receipts)
	}
	receiptNumbers := make(map[string]string, len(receipts))
	for _, r := range receipts {
		receiptNumbers[r.SemesterPaymentID.String()] = r.ReceiptNumber
	}

	b := new(bytes.Buffer)
	w := csv.NewWriter(b)

	headers := []string{"Receipt Number", "Date", "Student Name", "Roll Number", "Academic Year", "Payment Type", "Terms", "Amount", "Method", "Status", "Transaction ID"}
	if err := w.Write(headers); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to write CSV header"})
	}

	for _, p := range payments {
		var studentName, rollNumber, txn string
		if p.Student != nil {
			studentName = p.Student.StudentName
			if p.Student.RollNumber != nil {
				rollNumber = *p.Student.RollNumber
			}
		}
		if p.TransactionID != nil {
			txn = *p.TransactionID
		}

		row := []string{
			receiptNumbers[p.ID.String()],
			p.CreatedAt.Format("2006-01-02 15:04"),
			studentName,
			rollNumber,
			p.AcademicYear,
			p.PaymentType,
			strings.Join(p.CoversTerms, ";"),
			fmt.Sprintf("%.2f", p.AmountPaid),
			p.PaymentMethod,
			p.PaymentStatus,
			txn,
		}
		if err := w.Write(row); err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to write CSV row"})
		}
	}
	w.Flush()

	c.Set("Content-Type", "text/csv")
	c.Set("Content-Disposition", fmt.Sprintf("attachment; filename=\"semester_payments_%s_to_%s.csv\"", startDate.Format("2006-01-02"), endDate.Format("2006-01-02")))

	return c.Send(b.Bytes())
}

func AdminListStudents(c *fiber.Ctx) error {
	page, limit, offset := pageParams(c)
	search := strings.TrimSpace(c.Query("search"))

	query := database.DB.Model(&models.Student{})
	if search != "" {
		searchTerm := "%" + search + "%"
		query = query.Where("student_name ILIKE ? OR email ILIKE ? OR roll_number ILIKE ?", searchTerm, searchTerm, searchTerm)
	}
	if status := c.Query("payment_status"); status != "" {
		query = query.Where("payment_status = ?", status)
	}
	if routeID := c.Query("route_id"); routeID != "" {
		query = query.Where("allocated_route_id = ?", routeID)
	}

	var total int64
	var students []models.Student
	query.Count(&total)
	query.Order("student_name asc").Offset(offset).Limit(limit).Preload("Quota").Find(&students)

	return c.JSON(fiber.Map{"data": students, "meta": pageMeta(total, page, limit)})
}

type AdminHandler struct {
	Identity *identity.Client
}

// SyncStudent refreshes a linked student's name and contact details from the
// parent application.
func (h *AdminHandler) SyncStudent(c *fiber.Ctx) error {
	id, ok := paramUUID(c, "studentId")
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid student ID"})
	}
	var student models.Student
	if err := database.DB.First(&student, "id = ?", id).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Student not found"})
	}
	if student.ExternalID == nil {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "Student is not linked to the parent application"})
	}

	parent, err := h.Identity.LookupUser(c.UserContext(), *student.ExternalID)
	if err != nil {
		if errors.Is(err, identity.ErrUnauthorized) {
			return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{"error": "Parent application rejected the service credentials"})
		}
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{"error": "Failed to reach the parent application"})
	}

	updates := map[string]interface{}{"student_name": parent.FullName}
	if parent.Email != "" {
		updates["email"] = strings.ToLower(parent.Email)
	}
	if parent.RollNumber != "" {
		updates["roll_number"] = parent.RollNumber
	}
	if parent.Department != "" {
		updates["department"] = parent.Department
	}
	if parent.Mobile != "" && student.Mobile == nil {
		updates["mobile"] = parent.Mobile
	}
	if err := database.DB.Model(&student).Updates(updates).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to update student"})
	}
	database.DB.First(&student, "id = ?", id)
	return c.JSON(student)
}

type CreateDriverRequest struct {
	Name            string  `json:"name" validate:"required"`
	Email           string  `json:"email" validate:"required,email"`
	Phone           string  `json:"phone" validate:"omitempty,min=10,max=15"`
	LicenseNumber   string  `json:"license_number" validate:"required"`
	Password        string  `json:"password" validate:"required,min=8"`
	AssignedRouteID *string `json:"assigned_route_id" validate:"omitempty,uuid"`
}

func AdminCreateDriver(c *fiber.Ctx) error {
	var req CreateDriverRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse JSON"})
	}
	if err := validate.Struct(req); err != nil {
		return validationError(c, err)
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to hash password"})
	}
	driver := models.Driver{
		Name:          req.Name,
		Email:         strings.ToLower(req.Email),
		Phone:         req.Phone,
		LicenseNumber: req.LicenseNumber,
		Password:      string(hashedPassword),
		Status:        "active",
	}
	if req.AssignedRouteID != nil {
		var route models.Route
		if err := database.DB.First(&route, "id = ?", *req.AssignedRouteID).Error; err != nil {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Route not found"})
		}
		driver.AssignedRouteID = &route.ID
	}
	if err := database.DB.Create(&driver).Error; err != nil {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "Driver with this email or license already exists"})
	}
	return c.Status(fiber.StatusCreated).JSON(driver)
}

func ToggleDriverStatus(c *fiber.Ctx) error {
	type Request struct {
		Status string `json:"status" validate:"required,oneof=active inactive suspended"`
	}
	var req Request
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse JSON"})
	}
	if err := validate.Struct(req); err != nil {
		return validationError(c, err)
	}

	res := database.DB.Model(&models.Driver{}).Where("id = ?", c.Params("driverId")).Update("status", req.Status)
	if res.Error != nil || res.RowsAffected == 0 {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Driver not found"})
	}
	return c.JSON(fiber.Map{"message": "Driver status updated successfully."})
}
