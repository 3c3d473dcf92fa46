package routes

import (
	"github.com/campusride/transport_portal/handlers"
	"github.com/campusride/transport_portal/middleware"
	"github.com/gofiber/fiber/v2"
)

func AdminRoutes(app *fiber.App, payments *handlers.SemesterPaymentHandler, h *handlers.AdminHandler) {
	api := app.Group("/api/v1")

	admin := api.Group("/admin", middleware.Protected(), middleware.StaffRequired())

	admin.Get("/dashboard", handlers.GetDashboardAnalytics)

	semesterPayments := admin.Group("/semester-payments")
	semesterPayments.Get("/pending", payments.ListPending)
	semesterPayments.Post("/:paymentId/confirm", payments.Confirm)

	reports := admin.Group("/reports")
	reports.Get("/semester-payments", handlers.GenerateSemesterPaymentReport)

	students := admin.Group("/students")
	students.Get("", handlers.AdminListStudents)
	students.Post("/:studentId/sync", h.SyncStudent)

	drivers := admin.Group("/drivers")
	drivers.Post("", handlers.AdminCreateDriver)
	drivers.Put("/:driverId/status", handlers.ToggleDriverStatus)

	grievances := admin.Group("/grievances")
	grievances.Get("", handlers.AdminListGrievances)
	grievances.Put("/:id", handlers.AdminUpdateGrievance)

	bugReports := admin.Group("/bug-reports")
	bugReports.Get("", handlers.AdminListBugReports)
	bugReports.Put("/:id", handlers.AdminUpdateBugReport)

	admin.Post("/notifications", handlers.AdminCreateNotification)
}
