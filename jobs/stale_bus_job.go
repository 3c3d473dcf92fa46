package jobs

import (
	"log"
	"time"

	"github.com/campusride/transport_portal/database"
	"github.com/campusride/transport_portal/models"
	"github.com/campusride/transport_portal/reporting"
)

const offlineAfter = 15 * time.Minute

// MarkStaleBuses flags live locations that have not reported recently as offline.
func MarkStaleBuses() {
	cutoff := time.Now().Add(-offlineAfter)
	res := database.DB.Model(&models.LiveLocation{}).
		Where("is_online = ? AND updated_at < ?", true, cutoff).
		UpdateColumn("is_online", false)
	if res.Error != nil {
		log.Printf("Error marking stale buses: %v", res.Error)
		reporting.Error(res.Error, map[string]interface{}{"job": "MarkStaleBuses"})
		return
	}
	if res.RowsAffected > 0 {
		log.Printf("⚠️ Marked %d buses offline", res.RowsAffected)
	}
}
