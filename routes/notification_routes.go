package routes

import (
	"github.com/campusride/transport_portal/handlers"
	"github.com/campusride/transport_portal/middleware"
	"github.com/gofiber/fiber/v2"
)

func NotificationRoutes(app *fiber.App) {
	notifications := app.Group("/api/v1/notifications", middleware.Protected())
	notifications.Get("", handlers.GetMyNotifications)
	notifications.Post("/:id/read", handlers.MarkNotificationRead)
	notifications.Get("/push", handlers.GetPushSubscriptions)
	notifications.Put("/push", handlers.UpdatePushSubscription)
}
