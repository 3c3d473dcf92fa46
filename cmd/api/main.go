package main

import (
	"context"
	"fmt"
	"log"
	"time"

	config "github.com/campusride/transport_portal/configs"
	"github.com/campusride/transport_portal/database"
	"github.com/campusride/transport_portal/fees"
	"github.com/campusride/transport_portal/handlers"
	"github.com/campusride/transport_portal/identity"
	"github.com/campusride/transport_portal/jobs"
	"github.com/campusride/transport_portal/models"
	"github.com/campusride/transport_portal/notifications"
	"github.com/campusride/transport_portal/reporting"
	"github.com/campusride/transport_portal/routes"
	"github.com/campusride/transport_portal/services"
	"github.com/campusride/transport_portal/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/etag"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/robfig/cron/v3"
)

// paymentConfirmed tells the student by email and in-app notice once staff
// confirm a payment.
func paymentConfirmed(store services.PaymentStore) func(*models.SemesterPayment) {
	return func(p *models.SemesterPayment) {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		student, err := store.FindStudent(ctx, p.StudentID)
		if err != nil {
			log.Printf("⚠️ Confirmed payment %s has no student: %v", p.ID, err)
			return
		}
		receiptNumber := ""
		if r, err := store.FindReceipt(ctx, p.ID); err == nil {
			receiptNumber = r.ReceiptNumber
		}
		coverage := fees.GetTermDescription(p.CoversTerms, p.AcademicYear)

		subject, body := notifications.PaymentConfirmedEmail(student.StudentName, receiptNumber, coverage, p.AmountPaid)
		notifications.SendEmail(student.StudentName, student.Email, subject, body)
		notifications.NotifyUsers(database.DB,
			"Payment confirmed",
			fmt.Sprintf("Your payment of Rs. %.2f for %s has been confirmed.", p.AmountPaid, coverage),
			"payment", student.ID)
	}
}

func main() {
	reporting.Init()
	defer reporting.Flush()

	database.ConnectDB()
	database.Migrate()
	database.SeedAdmin()
	database.SeedQuotaTypes()
	notifications.InitEmailService()

	store := services.NewGormPaymentStore(database.DB)
	paymentService := services.NewSemesterPaymentService(store, config.ConfigFloat("FULL_YEAR_DISCOUNT_PERCENT", fees.DefaultFullYearDiscountPercent))
	receiptService := services.NewReceiptService(store)
	ticketSecret := config.ConfigOr("TICKET_SECRET", config.Config("JWT_SECRET"))
	ticketService := services.NewTicketService(store, ticketSecret)
	identityClient := identity.NewClient()

	timezone := config.ConfigOr("APP_TIMEZONE", "Asia/Kolkata")
	location, err := time.LoadLocation(timezone)
	if err != nil {
		log.Printf("⚠️ Unknown APP_TIMEZONE %q, using UTC: %v", timezone, err)
		location = time.UTC
	}

	c := cron.New(cron.WithLocation(location))
	c.AddFunc("0 9 * * *", jobs.SendFeeReminders)
	c.AddFunc("*/5 * * * *", jobs.MarkStaleBuses)
	c.AddFunc("@hourly", jobs.RemindPendingPayments)
	go c.Start()
	log.Println("✅ Cron jobs scheduled successfully.")

	app := fiber.New(fiber.Config{
		Prefork:       false,
		AppName:       "Transport Portal",
		CaseSensitive: true,
		ReadTimeout:   15 * time.Second,
		WriteTimeout:  60 * time.Second,
		IdleTimeout:   60 * time.Second,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}

			log.Printf("[ERROR] %v | Path: %s | Method: %s", err, c.Path(), c.Method())
			if code >= fiber.StatusInternalServerError {
				reporting.Error(err, map[string]interface{}{"method": c.Method(), "path": c.Path()})
			}
			return c.Status(code).JSON(fiber.Map{
				"status":  "error",
				"code":    code,
				"message": err.Error(),
			})
		},
	})

	app.Use(cors.New(cors.Config{
		AllowOrigins:  config.ConfigOr("FRONTEND_URL", "*"),
		AllowHeaders:  "Origin, Content-Type, Accept, Authorization, Sec-WebSocket-Key, Sec-WebSocket-Version",
		AllowMethods:  "GET, POST, PUT, PATCH, DELETE, OPTIONS",
		ExposeHeaders: "Content-Length, Content-Disposition",
		MaxAge:        86400,
	}))

	app.Use(recover.New(recover.Config{EnableStackTrace: true}))
	app.Use(compress.New(compress.Config{Level: compress.LevelDefault}))
	app.Use(etag.New())
	app.Use(logger.New(logger.Config{
		TimeFormat: "2006-01-02 15:04:05",
		TimeZone:   timezone,
		Format:     "[${time}] ${status} - ${latency} ${method} ${path}\n",
	}))

	app.Get("/", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "success",
			"message": "Welcome to the Transport Portal API",
		})
	})

	paymentHandler := &handlers.SemesterPaymentHandler{
		Payments:    paymentService,
		Receipts:    receiptService,
		OnConfirmed: paymentConfirmed(store),
	}

	routes.AuthRoutes(app, &handlers.AuthHandler{Identity: identityClient})
	routes.SemesterPaymentRoutes(app, paymentHandler)
	routes.AdminRoutes(app, paymentHandler, &handlers.AdminHandler{Identity: identityClient})
	routes.TrackingRoutes(app)
	routes.TicketRoutes(app, &handlers.TicketHandler{Payments: paymentService, Tickets: ticketService})
	routes.GrievanceRoutes(app)
	routes.NotificationRoutes(app)
	routes.ProfileRoutes(app)
	routes.UploadRoutes(app)

	go websocket.Default.Run()

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status": "ok",
		})
	})

	port := config.ConfigOr("PORT", "8080")
	log.Printf("✅ Server is running on port %s", port)
	if err := app.Listen(":" + port); err != nil {
		log.Fatalf("🔥 Server failed to start: %v", err)
	}
}
