package routes

import (
	"github.com/campusride/transport_portal/handlers"
	"github.com/campusride/transport_portal/middleware"
	"github.com/gofiber/fiber/v2"
)

func SemesterPaymentRoutes(app *fiber.App, h *handlers.SemesterPaymentHandler) {
	v2 := app.Group("/api/semester-payments-v2", middleware.Protected())
	v2.Get("", h.Get)
	v2.Post("", h.Create)

	api := app.Group("/api/v1")
	api.Get("/semester-payments/:paymentId/receipt", middleware.Protected(), h.Receipt)
}
