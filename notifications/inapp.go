package notifications

import (
	"log"

	"github.com/campusride/transport_portal/models"
	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/gorm"
)

// NotifyUsers stores an in-app notification addressed to specific users.
func NotifyUsers(db *gorm.DB, title, message, category string, userIDs ...uuid.UUID) {
	if len(userIDs) == 0 {
		return
	}
	ids := make(pq.StringArray, 0, len(userIDs))
	for _, id := range userIDs {
		ids = append(ids, id.String())
	}
	n := models.Notification{
		Title:          title,
		Message:        message,
		Type:           "info",
		Category:       category,
		TargetAudience: models.AudienceAll,
		SpecificUsers:  ids,
		IsActive:       true,
	}
	if err := db.Create(&n).Error; err != nil {
		log.Printf("🔥 Failed to store notification %q: %v", title, err)
	}
}
