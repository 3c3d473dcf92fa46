package models

import (
	"time"

	"github.com/google/uuid"
)

type Driver struct {
	ID              uuid.UUID  `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	Name            string     `gorm:"size:255;not null" json:"name"`
	Email           string     `gorm:"size:255;not null;unique" json:"email"`
	Phone           string     `gorm:"size:20" json:"phone"`
	LicenseNumber   string     `gorm:"size:50;unique" json:"license_number"`
	Password        string     `gorm:"not null" json:"-"`
	AssignedRouteID *uuid.UUID `gorm:"type:uuid" json:"assigned_route_id,omitempty"`
	Status          string     `gorm:"size:20;not null;default:'active'" json:"status"`

	AssignedRoute *Route `gorm:"foreignkey:AssignedRouteID" json:"assigned_route,omitempty"`

	LastLoginAt *time.Time `json:"last_login_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}
