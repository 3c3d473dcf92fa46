package database

import (
	"fmt"
	"log"

	config "github.com/campusride/transport_portal/configs"
	"github.com/campusride/transport_portal/models"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

var DB *gorm.DB

func ConnectDB() {
	var err error
	dsn := config.Config("DATABASE_URL")

	logLevel := logger.Warn
	if config.Config("DB_DEBUG") == "true" {
		logLevel = logger.Info
	}

	DB, err = gorm.Open(postgres.Open(dsn), &gorm.Config{
		PrepareStmt:                              false,
		SkipDefaultTransaction:                   true,
		DisableForeignKeyConstraintWhenMigrating: true,
		Logger:                                   logger.Default.LogMode(logLevel),
	})
	if err != nil {
		log.Fatalf("🔥 Failed to connect to database: %v", err)
	}

	fmt.Println("✅ Database connected successfully")
}

func Migrate() {
	err := DB.AutoMigrate(
		&models.User{},
		&models.QuotaType{},
		&models.Route{},
		&models.RouteStop{},
		&models.Student{},
		&models.Driver{},
		&models.SemesterFee{},
		&models.Payment{},
		&models.SemesterPayment{},
		&models.PaymentReceipt{},
		&models.BusLocation{},
		&models.LiveLocation{},
		&models.Grievance{},
		&models.BugReport{},
		&models.Notification{},
		&models.NotificationRead{},
		&models.PushSubscription{},
	)
	if err != nil {
		log.Fatalf("🔥 Failed to migrate database: %v", err)
	}
	fmt.Println("✅ Database migration successful")
}

func SeedAdmin() {
	adminEmail := config.Config("ADMIN_EMAIL")
	adminPassword := config.Config("ADMIN_PASSWORD")
	if adminEmail == "" || adminPassword == "" {
		log.Println("⚠️ ADMIN_EMAIL or ADMIN_PASSWORD not set, skipping admin seed")
		return
	}

	var count int64
	err := DB.Model(&models.User{}).Where("email = ?", adminEmail).Count(&count).Error
	if err != nil {
		log.Fatalf("🔥 Failed to check for admin user: %v", err)
	}

	if count > 0 {
		log.Println("Admin user already exists.")
		return
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(adminPassword), bcrypt.DefaultCost)
	if err != nil {
		log.Fatalf("🔥 Failed to hash admin password: %v", err)
	}

	adminUser := models.User{
		FullName: config.ConfigOr("ADMIN_FULL_NAME", "Transport Admin"),
		Email:    adminEmail,
		Password: string(hashedPassword),
		Role:     models.RoleAdmin,
		IsActive: true,
	}

	if err := DB.Create(&adminUser).Error; err != nil {
		log.Fatalf("🔥 Failed to seed admin user: %v", err)
	}

	log.Println("✅ Admin user seeded successfully")
}

// SeedQuotaTypes inserts the standard quota categories. Existing codes are
// left alone so fee edits made by staff survive restarts.
func SeedQuotaTypes() {
	quotas := []models.QuotaType{
		{Name: "Government Quota", Code: "GOVT", AnnualFeeAmount: config.ConfigFloat("GOVT_QUOTA_ANNUAL_FEE", 20000), IsGovernmentQuota: true, IsActive: true},
		{Name: "Management Quota", Code: "MGMT", AnnualFeeAmount: config.ConfigFloat("MGMT_QUOTA_ANNUAL_FEE", 25000), IsActive: true},
	}
	if err := DB.Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "code"}}, DoNothing: true}).Create(&quotas).Error; err != nil {
		log.Printf("⚠️ Failed to seed quota types: %v", err)
		return
	}
	log.Println("✅ Quota types seeded")
}
