package routes

import (
	"github.com/campusride/transport_portal/handlers"
	"github.com/campusride/transport_portal/middleware"
	"github.com/gofiber/fiber/v2"
)

func TrackingRoutes(app *fiber.App) {
	api := app.Group("/api/v1")

	api.Post("/driver/location", middleware.Protected(), middleware.DriverRequired(), handlers.PublishLocation)

	tracking := api.Group("/tracking")
	tracking.Get("/routes/:routeId", middleware.Protected(), handlers.GetRouteTracking)
	tracking.Get("/routes/:routeId/trail", middleware.Protected(), handlers.GetRouteTrail)

	// The socket authenticates with its first frame, not a header.
	tracking.Use("/ws", handlers.TrackingUpgrade)
	tracking.Get("/ws", handlers.ServeTrackingWs)
}
