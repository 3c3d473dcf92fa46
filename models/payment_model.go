package models

import (
	"time"

	"github.com/google/uuid"
)

const EnrollmentPaymentCompleted = "completed"

// Payment is the enrollment-time payment recorded before semester payments existed.
type Payment struct {
	ID            uuid.UUID  `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	StudentID     uuid.UUID  `gorm:"type:uuid;not null;index" json:"student_id"`
	RouteID       *uuid.UUID `gorm:"type:uuid" json:"route_id,omitempty"`
	Amount        float64    `gorm:"type:numeric(10,2);not null" json:"amount"`
	Currency      string     `gorm:"size:3;default:'INR'" json:"currency"`
	PaymentType   string     `gorm:"size:30;not null;default:'enrollment'" json:"payment_type"`
	PaymentMethod string     `gorm:"size:30" json:"payment_method"`
	TransactionID *string    `gorm:"size:255;unique" json:"transaction_id,omitempty"`
	Status        string     `gorm:"size:20;not null" json:"status"`
	Description   *string    `gorm:"type:text" json:"description,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
