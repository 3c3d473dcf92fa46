package routes

import (
	"github.com/campusride/transport_portal/handlers"
	"github.com/campusride/transport_portal/middleware"
	"github.com/gofiber/fiber/v2"
)

func AuthRoutes(app *fiber.App, h *handlers.AuthHandler) {
	api := app.Group("/api/v1")

	auth := api.Group("/auth")
	auth.Get("/passenger/authorize-url", h.PassengerAuthorizeURL)
	auth.Post("/passenger/callback", middleware.LoginLimiter(), h.PassengerCallback)
	auth.Post("/driver/login", middleware.LoginLimiter(), handlers.DriverLogin)
	auth.Post("/staff/login", middleware.LoginLimiter(), handlers.StaffLogin)
	auth.Post("/login", middleware.LoginLimiter(), h.UnifiedLogin)
	auth.Get("/me", middleware.Protected(), handlers.Me)
}
