package models

import (
	"time"

	"github.com/google/uuid"
)

// SemesterFee is the per-stop fee table used when a student has no quota fee.
type SemesterFee struct {
	ID               uuid.UUID  `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	AllocatedRouteID uuid.UUID  `gorm:"type:uuid;not null;index:idx_semester_fee_lookup" json:"allocated_route_id"`
	StopName         string     `gorm:"size:255;not null;index:idx_semester_fee_lookup" json:"stop_name"`
	AcademicYear     string     `gorm:"size:9;not null;index:idx_semester_fee_lookup" json:"academic_year"`
	Semester         string     `gorm:"size:2;not null" json:"semester"`
	SemesterFee      float64    `gorm:"type:numeric(10,2);not null" json:"semester_fee"`
	EffectiveFrom    *time.Time `json:"effective_from,omitempty"`
	EffectiveUntil   *time.Time `json:"effective_until,omitempty"`
	IsActive         bool       `gorm:"default:true" json:"is_active"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
