package services

import (
	"time"

	"github.com/campusride/transport_portal/models"
	"github.com/google/uuid"
)

// AudienceFor maps a login portal to the notification audience it belongs to.
func AudienceFor(portal string) string {
	switch portal {
	case PortalDriver:
		return models.AudienceDrivers
	case PortalStaff:
		return models.AudienceStaff
	}
	return models.AudienceStudents
}

// NotificationVisible reports whether n should be shown to the user. Specific
// users override the audience.
func NotificationVisible(n *models.Notification, userID uuid.UUID, portal string, now time.Time) bool {
	if !n.IsActive {
		return false
	}
	if n.ExpiresAt != nil && !now.Before(*n.ExpiresAt) {
		return false
	}
	if len(n.SpecificUsers) > 0 {
		id := userID.String()
		for _, u := range n.SpecificUsers {
			if u == id {
				return true
			}
		}
		return false
	}
	return n.TargetAudience == models.AudienceAll || n.TargetAudience == AudienceFor(portal)
}
