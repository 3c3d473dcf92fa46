package handlers

import (
	"log"
	"time"

	"github.com/campusride/transport_portal/middleware"
	"github.com/campusride/transport_portal/models"
	"github.com/campusride/transport_portal/services"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type SemesterPaymentHandler struct {
	Payments *services.SemesterPaymentService
	Receipts *services.ReceiptService
	// OnConfirmed runs after a payment is confirmed by staff.
	OnConfirmed func(p *models.SemesterPayment)
}

type CreateSemesterPaymentRequest struct {
	StudentID           string     `json:"studentId" validate:"required,uuid"`
	PaymentType         string     `json:"paymentType" validate:"required,oneof=term full_year outstanding custom"`
	TermNumber          flexString `json:"termNumber" validate:"omitempty,oneof=1 2 3"`
	RouteID             string     `json:"routeId" validate:"required,uuid"`
	StopName            string     `json:"stopName" validate:"required"`
	PaymentMethod       string     `json:"paymentMethod" validate:"omitempty,max=30"`
	Amount              float64    `json:"amount" validate:"gte=0"`
	PaymentStatus       string     `json:"paymentStatus" validate:"omitempty,oneof=pending confirmed"`
	TransactionID       *string    `json:"transactionId" validate:"omitempty,max=100"`
	IsEnrollmentPayment bool       `json:"isEnrollmentPayment"`
}

// resolveStudent applies the ownership rule: passengers act on themselves,
// staff on anyone.
func resolveStudent(c *fiber.Ctx, p middleware.Principal, raw string) (uuid.UUID, error) {
	if raw == "" {
		if p.IsPassenger() {
			return p.ID, nil
		}
		return uuid.Nil, c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "studentId is required"})
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "studentId must be a UUID"})
	}
	if p.IsPassenger() && id != p.ID {
		return uuid.Nil, c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "You can only view your own payments"})
	}
	if !p.IsPassenger() && !p.IsStaff() {
		return uuid.Nil, c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Forbidden"})
	}
	return id, nil
}

func (h *SemesterPaymentHandler) Get(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	studentID, err := resolveStudent(c, p, c.Query("studentId"))
	if studentID == uuid.Nil {
		return err
	}

	ctx := c.UserContext()
	switch c.Query("type", "available") {
	case "available":
		res, err := h.Payments.AvailableOptions(ctx, studentID)
		if err != nil {
			return serviceError(c, err)
		}
		return c.JSON(res)
	case "history":
		res, err := h.Payments.PaymentHistory(ctx, studentID)
		if err != nil {
			return serviceError(c, err)
		}
		return c.JSON(res)
	case "fee-structure":
		res, err := h.Payments.FeeStructure(ctx, studentID)
		if err != nil {
			return serviceError(c, err)
		}
		return c.JSON(res)
	}
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "type must be available, history or fee-structure"})
}

func (h *SemesterPaymentHandler) Create(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return err
	}

	var req CreateSemesterPaymentRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse JSON"})
	}
	if err := validate.Struct(req); err != nil {
		return validationError(c, err)
	}
	if req.PaymentType == models.PaymentTypeTerm && req.TermNumber == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "termNumber is required for term payments"})
	}

	studentID, err := resolveStudent(c, p, req.StudentID)
	if studentID == uuid.Nil {
		return err
	}
	if !p.IsStaff() && (req.PaymentStatus == models.PaymentStatusConfirmed || req.IsEnrollmentPayment) {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Only staff can record confirmed or enrollment payments"})
	}

	res, err := h.Payments.CreatePayment(c.UserContext(), services.CreatePaymentInput{
		StudentID:           studentID,
		PaymentType:         req.PaymentType,
		TermNumber:          string(req.TermNumber),
		RouteID:             uuid.MustParse(req.RouteID),
		StopName:            req.StopName,
		PaymentMethod:       req.PaymentMethod,
		Amount:              req.Amount,
		PaymentStatus:       req.PaymentStatus,
		TransactionID:       req.TransactionID,
		IsEnrollmentPayment: req.IsEnrollmentPayment,
	})
	if err != nil {
		return serviceError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(res)
}

func (h *SemesterPaymentHandler) Confirm(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	paymentID, ok := paramUUID(c, "paymentId")
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid payment ID"})
	}

	payment, err := h.Payments.ConfirmPayment(c.UserContext(), paymentID, p.ID)
	if err != nil {
		return serviceError(c, err)
	}
	log.Printf("✅ Payment %s confirmed by %s", payment.ID, p.ID)
	if h.OnConfirmed != nil {
		go h.OnConfirmed(payment)
	}
	return c.JSON(payment)
}

func (h *SemesterPaymentHandler) ListPending(c *fiber.Ctx) error {
	olderThan := c.QueryInt("older_than_hours", 0)
	payments, err := h.Payments.ListPendingPayments(c.UserContext(), time.Duration(olderThan)*time.Hour)
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(fiber.Map{"payments": payments, "count": len(payments)})
}

// Receipt returns the receipt metadata and PDF link, generating it on first use.
func (h *SemesterPaymentHandler) Receipt(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	paymentID, ok := paramUUID(c, "paymentId")
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid payment ID"})
	}

	payment, err := h.Payments.Store.FindSemesterPayment(c.UserContext(), paymentID)
	if err != nil {
		return serviceError(c, err)
	}
	if !p.IsStaff() && payment.StudentID != p.ID {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "You can only view your own receipts"})
	}

	receipt, err := h.Receipts.Receipt(c.UserContext(), paymentID)
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(receipt)
}
