package routes

import (
	"github.com/campusride/transport_portal/handlers"
	"github.com/campusride/transport_portal/middleware"
	"github.com/gofiber/fiber/v2"
)

func TicketRoutes(app *fiber.App, h *handlers.TicketHandler) {
	api := app.Group("/api/v1")

	tickets := api.Group("/tickets", middleware.Protected(), middleware.PassengerRequired())
	tickets.Get("/me", h.MyTicket)
	tickets.Get("/:paymentId/qr", h.TicketQR)

	api.Post("/driver/tickets/verify", middleware.Protected(), middleware.DriverRequired(), h.VerifyTicket)
}
