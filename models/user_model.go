package models

import (
	"time"

	"github.com/google/uuid"
)

const (
	RolePassenger = "passenger"
	RoleDriver    = "driver"
	RoleAdmin     = "admin"
	RoleTransport = "transport_manager"
	RoleFinance   = "finance_admin"
)

// User is a staff account. Passengers and drivers have their own tables.
type User struct {
	ID       uuid.UUID `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	FullName string    `gorm:"size:255;not null" json:"full_name"`
	Email    string    `gorm:"size:255;not null;unique" json:"email"`
	Password string    `gorm:"not null" json:"-"`
	Role     string    `gorm:"size:30;not null;default:'transport_manager'" json:"role"`
	IsActive bool      `gorm:"default:true" json:"is_active"`

	LastLoginAt *time.Time `json:"last_login_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

func IsStaffRole(role string) bool {
	switch role {
	case RoleAdmin, RoleTransport, RoleFinance:
		return true
	}
	return false
}
