package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/datatypes"
)

const (
	AudienceAll      = "all"
	AudienceStudents = "students"
	AudienceDrivers  = "drivers"
	AudienceStaff    = "staff"
)

type Notification struct {
	ID             uuid.UUID      `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	Title          string         `gorm:"size:255;not null" json:"title"`
	Message        string         `gorm:"type:text;not null" json:"message"`
	Type           string         `gorm:"size:20;not null;default:'info'" json:"type"`
	Category       string         `gorm:"size:30;not null;default:'general'" json:"category"`
	TargetAudience string         `gorm:"size:20;not null;default:'all'" json:"target_audience"`
	SpecificUsers  pq.StringArray `gorm:"type:text[]" json:"specific_users,omitempty"`
	Payload        datatypes.JSON `json:"payload,omitempty"`
	IsActive       bool           `gorm:"default:true" json:"is_active"`
	ExpiresAt      *time.Time     `json:"expires_at,omitempty"`
	CreatedBy      *uuid.UUID     `gorm:"type:uuid" json:"created_by,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type NotificationRead struct {
	NotificationID uuid.UUID `gorm:"type:uuid;primary_key" json:"notification_id"`
	UserID         uuid.UUID `gorm:"type:uuid;primary_key" json:"user_id"`
	ReadAt         time.Time `json:"read_at"`
}

type PushSubscription struct {
	ID       uuid.UUID      `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	UserID   uuid.UUID      `gorm:"type:uuid;not null;uniqueIndex:idx_push_user_endpoint" json:"user_id"`
	UserType string         `gorm:"size:20;not null" json:"user_type"`
	Endpoint string         `gorm:"size:500;not null;uniqueIndex:idx_push_user_endpoint" json:"endpoint"`
	Keys     datatypes.JSON `json:"keys,omitempty"`
	IsActive bool           `gorm:"default:true" json:"is_active"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
