package models

import (
	"time"

	"github.com/google/uuid"
)

type PaymentReceipt struct {
	ID                uuid.UUID `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	SemesterPaymentID uuid.UUID `gorm:"type:uuid;not null;unique" json:"semester_payment_id"`
	StudentID         uuid.UUID `gorm:"type:uuid;not null;index" json:"student_id"`
	ReceiptNumber     string    `gorm:"size:30;not null;unique" json:"receipt_number"`
	ReceiptColor      string    `gorm:"size:20" json:"receipt_color"`
	ReceiptURL        *string   `gorm:"size:500" json:"receipt_url,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
