package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

const (
	GrievanceOpen       = "open"
	GrievanceInProgress = "in_progress"
	GrievanceResolved   = "resolved"
	GrievanceClosed     = "closed"
)

type Grievance struct {
	ID            uuid.UUID      `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	StudentID     uuid.UUID      `gorm:"type:uuid;not null;index" json:"student_id"`
	RouteID       *uuid.UUID     `gorm:"type:uuid" json:"route_id,omitempty"`
	Category      string         `gorm:"size:30;not null" json:"category"`
	Subject       string         `gorm:"size:255;not null" json:"subject"`
	Description   string         `gorm:"type:text;not null" json:"description"`
	Priority      string         `gorm:"size:10;not null;default:'medium'" json:"priority"`
	Status        string         `gorm:"size:20;not null;default:'open'" json:"status"`
	AttachmentURL *string        `gorm:"size:500" json:"attachment_url,omitempty"`
	Metadata      datatypes.JSON `json:"metadata,omitempty"`
	AssignedTo    *uuid.UUID     `gorm:"type:uuid" json:"assigned_to,omitempty"`
	Resolution    *string        `gorm:"type:text" json:"resolution,omitempty"`
	ResolvedAt    *time.Time     `json:"resolved_at,omitempty"`

	Student *Student `gorm:"foreignkey:StudentID" json:"student,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type BugReport struct {
	ID            uuid.UUID      `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	ReporterID    uuid.UUID      `gorm:"type:uuid;not null" json:"reporter_id"`
	ReporterType  string         `gorm:"size:20;not null" json:"reporter_type"`
	Title         string         `gorm:"size:255;not null" json:"title"`
	Description   string         `gorm:"type:text;not null" json:"description"`
	Severity      string         `gorm:"size:10;not null;default:'low'" json:"severity"`
	Status        string         `gorm:"size:20;not null;default:'open'" json:"status"`
	PageURL       *string        `gorm:"size:500" json:"page_url,omitempty"`
	ScreenshotURL *string        `gorm:"size:500" json:"screenshot_url,omitempty"`
	DeviceInfo    datatypes.JSON `json:"device_info,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
