package services

import (
	"testing"
	"time"

	"github.com/campusride/transport_portal/models"
	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
)

func TestNotificationVisible(t *testing.T) {
	now := time.Date(2025, 7, 15, 9, 0, 0, 0, time.UTC)
	me := uuid.New()
	past := now.Add(-time.Hour)
	future := now.Add(time.Hour)

	tests := []struct {
		name   string
		n      models.Notification
		portal string
		want   bool
	}{
		{"all reaches drivers", models.Notification{IsActive: true, TargetAudience: models.AudienceAll}, PortalDriver, true},
		{"students only", models.Notification{IsActive: true, TargetAudience: models.AudienceStudents}, PortalPassenger, true},
		{"students hidden from staff", models.Notification{IsActive: true, TargetAudience: models.AudienceStudents}, PortalStaff, false},
		{"inactive", models.Notification{TargetAudience: models.AudienceAll}, PortalPassenger, false},
		{"expired", models.Notification{IsActive: true, TargetAudience: models.AudienceAll, ExpiresAt: &past}, PortalPassenger, false},
		{"not yet expired", models.Notification{IsActive: true, TargetAudience: models.AudienceAll, ExpiresAt: &future}, PortalPassenger, true},
		{"specific user", models.Notification{IsActive: true, TargetAudience: models.AudienceStaff, SpecificUsers: pq.StringArray{me.String()}}, PortalPassenger, true},
		{"someone else", models.Notification{IsActive: true, TargetAudience: models.AudienceAll, SpecificUsers: pq.StringArray{uuid.NewString()}}, PortalPassenger, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NotificationVisible(&tt.n, me, tt.portal, now))
		})
	}
}
