package models

import (
	"time"

	"github.com/google/uuid"
)

const (
	StudentPaymentCurrent = "current"
	StudentPaymentOverdue = "overdue"
	StudentPaymentPending = "pending"
)

type Student struct {
	ID                 uuid.UUID  `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	ExternalID         *string    `gorm:"size:100;unique" json:"external_id,omitempty"`
	StudentName        string     `gorm:"size:255;not null" json:"student_name"`
	RollNumber         *string    `gorm:"size:50;unique" json:"roll_number,omitempty"`
	Email              string     `gorm:"size:255;not null;unique" json:"email"`
	Mobile             *string    `gorm:"size:20" json:"mobile,omitempty"`
	EmergencyContact   *string    `gorm:"size:20" json:"emergency_contact,omitempty"`
	Department         *string    `gorm:"size:100" json:"department,omitempty"`
	AllocatedRouteID   *uuid.UUID `gorm:"type:uuid;index" json:"allocated_route_id,omitempty"`
	BoardingStop       *string    `gorm:"size:255" json:"boarding_stop,omitempty"`
	QuotaTypeID        *uuid.UUID `gorm:"type:uuid" json:"quota_type_id,omitempty"`
	TransportFeeAmount float64    `gorm:"type:numeric(10,2);default:0" json:"transport_fee_amount"`
	OutstandingAmount  float64    `gorm:"type:numeric(10,2);default:0" json:"outstanding_amount"`
	PaymentStatus      string     `gorm:"size:20;not null;default:'pending'" json:"payment_status"`
	TransportStatus    string     `gorm:"size:20;not null;default:'active'" json:"transport_status"`
	LastLoginAt        *time.Time `json:"last_login_at,omitempty"`

	Quota *QuotaType `gorm:"foreignkey:QuotaTypeID" json:"quota,omitempty"`
	Route *Route     `gorm:"foreignkey:AllocatedRouteID" json:"route,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// AnnualFee prefers the quota fee over the per-student amount.
func (s *Student) AnnualFee() float64 {
	if s.Quota != nil && s.Quota.AnnualFeeAmount > 0 {
		return s.Quota.AnnualFeeAmount
	}
	return s.TransportFeeAmount
}

func (s *Student) HasQuotaFee() bool {
	return s.Quota != nil && s.Quota.AnnualFeeAmount > 0
}
