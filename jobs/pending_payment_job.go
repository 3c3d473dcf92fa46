package jobs

import (
	"fmt"
	"log"
	"time"

	"github.com/campusride/transport_portal/database"
	"github.com/campusride/transport_portal/models"
	"github.com/campusride/transport_portal/notifications"
	"github.com/google/uuid"
)

const pendingPaymentAge = 48 * time.Hour

func RemindPendingPayments() {
	var pending int64
	database.DB.Model(&models.SemesterPayment{}).
		Where("payment_status = ? AND created_at < ?", models.PaymentStatusPending, time.Now().Add(-pendingPaymentAge)).
		Count(&pending)
	if pending == 0 {
		return
	}

	var staffIDs []uuid.UUID
	database.DB.Model(&models.User{}).
		Where("is_active = ? AND role IN ?", true, []string{models.RoleAdmin, models.RoleFinance}).
		Pluck("id", &staffIDs)
	if len(staffIDs) == 0 {
		log.Printf("⚠️ %d payments awaiting confirmation but no finance staff to notify", pending)
		return
	}

	notifications.NotifyUsers(database.DB,
		"Payments awaiting confirmation",
		fmt.Sprintf("%d semester payments have been pending for more than 48 hours.", pending),
		"payment", staffIDs...)
	log.Printf("Reminded %d staff about %d pending payments", len(staffIDs), pending)
}
