package handlers

import (
	"github.com/campusride/transport_portal/database"
	"github.com/campusride/transport_portal/fees"
	"github.com/campusride/transport_portal/models"
	"github.com/campusride/transport_portal/services"
	"github.com/gofiber/fiber/v2"
)

type TicketHandler struct {
	Payments *services.SemesterPaymentService
	Tickets  *services.TicketService
}

type VerifyTicketRequest struct {
	Token string `json:"token" validate:"required"`
}

func (h *TicketHandler) MyTicket(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	payment, err := h.Payments.ActivePayment(c.UserContext(), p.ID)
	if err != nil {
		return serviceError(c, err)
	}
	token, err := h.Tickets.Issue(payment)
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(fiber.Map{
		"payment_id":    payment.ID,
		"academic_year": payment.AcademicYear,
		"coverage":      fees.GetTermDescription(payment.CoversTerms, payment.AcademicYear),
		"valid_from":    payment.ValidFrom.Format("2006-01-02"),
		"valid_until":   payment.ValidUntil.Format("2006-01-02"),
		"receipt_color": payment.ReceiptColor,
		"token":         token,
		"qr_url":        "/api/v1/tickets/" + payment.ID.String() + "/qr",
	})
}

func (h *TicketHandler) TicketQR(c *fiber.Ctx) error {
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
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "You can only view your own ticket"})
	}
	if payment.PaymentStatus != models.PaymentStatusConfirmed {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "Payment is not confirmed yet"})
	}

	token, err := h.Tickets.Issue(payment)
	if err != nil {
		return serviceError(c, err)
	}
	png, err := h.Tickets.QRCode(token)
	if err != nil {
		return serviceError(c, err)
	}
	c.Set(fiber.HeaderContentType, "image/png")
	c.Set(fiber.HeaderCacheControl, "no-store")
	return c.Send(png)
}

// VerifyTicket checks a scanned ticket against the driver's assigned route.
func (h *TicketHandler) VerifyTicket(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	var req VerifyTicketRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse JSON"})
	}
	if err := validate.Struct(req); err != nil {
		return validationError(c, err)
	}

	var driver models.Driver
	if err := database.DB.First(&driver, "id = ?", p.ID).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Driver not found"})
	}

	res, err := h.Tickets.Verify(c.UserContext(), req.Token, driver.AssignedRouteID)
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(res)
}
