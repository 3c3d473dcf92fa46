package jobs

import (
	"log"
	"time"

	"github.com/campusride/transport_portal/database"
	"github.com/campusride/transport_portal/fees"
	"github.com/campusride/transport_portal/models"
	"github.com/campusride/transport_portal/notifications"
	"github.com/campusride/transport_portal/reporting"
	"github.com/google/uuid"
)

const reminderWindow = 7 * 24 * time.Hour

// IsReminderDay reports whether now falls in the first week of the current term.
func IsReminderDay(now time.Time) bool {
	info := fees.CurrentAcademicInfo(now)
	start, _, err := fees.TermWindow(info.CurrentTerm, info.AcademicYear)
	if err != nil {
		return false
	}
	day := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	return !day.Before(start) && day.Sub(start) < reminderWindow
}

func SendFeeReminders() {
	now := time.Now()
	if !IsReminderDay(now) {
		return
	}
	log.Println("Running job: SendFeeReminders...")

	info := fees.CurrentAcademicInfo(now)
	termLabel := fees.TermName(info.CurrentTerm) + " " + info.AcademicYear

	var students []models.Student
	err := database.DB.
		Where("outstanding_amount > 0 AND transport_status = ?", "active").
		Find(&students).Error
	if err != nil {
		log.Printf("Error loading students with outstanding fees: %v", err)
		reporting.Error(err, map[string]interface{}{"job": "SendFeeReminders"})
		return
	}
	if len(students) == 0 {
		return
	}

	ids := make([]uuid.UUID, 0, len(students))
	for _, s := range students {
		ids = append(ids, s.ID)
		subject, body := notifications.FeeReminderEmail(s.StudentName, termLabel, s.OutstandingAmount)
		go notifications.SendEmail(s.StudentName, s.Email, subject, body)
	}
	notifications.NotifyUsers(database.DB,
		"Transport fee due",
		"You have an outstanding transport fee for "+termLabel+". Please pay to keep your bus pass active.",
		"payment", ids...)

	log.Printf("✅ Sent fee reminders to %d students", len(students))
}
