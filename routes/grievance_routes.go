package routes

import (
	"github.com/campusride/transport_portal/handlers"
	"github.com/campusride/transport_portal/middleware"
	"github.com/gofiber/fiber/v2"
)

func GrievanceRoutes(app *fiber.App) {
	api := app.Group("/api/v1")

	grievances := api.Group("/grievances", middleware.Protected(), middleware.PassengerRequired())
	grievances.Post("", handlers.CreateGrievance)
	grievances.Get("/me", handlers.MyGrievances)

	api.Post("/bug-reports", middleware.Protected(), handlers.CreateBugReport)
}
