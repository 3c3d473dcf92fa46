package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

const (
	PaymentTypeTerm        = "term"
	PaymentTypeFullYear    = "full_year"
	PaymentTypeOutstanding = "outstanding"
	PaymentTypeCustom      = "custom"

	PaymentStatusPending   = "pending"
	PaymentStatusConfirmed = "confirmed"
)

// SemesterPayment rows are never deleted; only status moves pending -> confirmed.
type SemesterPayment struct {
	ID                  uuid.UUID      `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	StudentID           uuid.UUID      `gorm:"type:uuid;not null;index" json:"student_id"`
	AllocatedRouteID    uuid.UUID      `gorm:"type:uuid;not null" json:"allocated_route_id"`
	StopName            string         `gorm:"size:255;not null" json:"stop_name"`
	AcademicYear        string         `gorm:"size:9;not null;index" json:"academic_year"`
	Semester            string         `gorm:"size:20;not null" json:"semester"`
	PaymentType         string         `gorm:"size:20;not null" json:"payment_type"`
	CoversTerms         pq.StringArray `gorm:"type:text[]" json:"covers_terms"`
	SemesterFeeID       *uuid.UUID     `gorm:"type:uuid" json:"semester_fee_id,omitempty"`
	AmountPaid          float64        `gorm:"type:numeric(10,2);not null" json:"amount_paid"`
	PaymentMethod       string         `gorm:"size:30;not null;default:'online'" json:"payment_method"`
	PaymentStatus       string         `gorm:"size:20;not null;default:'pending'" json:"payment_status"`
	TransactionID       *string        `gorm:"size:100" json:"transaction_id,omitempty"`
	ValidFrom           time.Time      `gorm:"type:date;not null" json:"valid_from"`
	ValidUntil          time.Time      `gorm:"type:date;not null" json:"valid_until"`
	ReceiptColor        string         `gorm:"size:20" json:"receipt_color"`
	IsEnrollmentPayment bool           `gorm:"default:false" json:"is_enrollment_payment"`
	ConfirmedBy         *uuid.UUID     `gorm:"type:uuid" json:"confirmed_by,omitempty"`
	ConfirmedAt         *time.Time     `json:"confirmed_at,omitempty"`

	Student *Student `gorm:"foreignkey:StudentID" json:"student,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Covers reports whether the payment satisfies the given term tag.
func (p *SemesterPayment) Covers(term string) bool {
	if p.PaymentType == PaymentTypeFullYear {
		return true
	}
	for _, t := range p.CoversTerms {
		if t == term {
			return true
		}
	}
	return len(p.CoversTerms) == 0 && p.Semester == term
}

// ActiveOn reports whether the payment is confirmed and valid on the given day.
func (p *SemesterPayment) ActiveOn(day time.Time) bool {
	if p.PaymentStatus != PaymentStatusConfirmed {
		return false
	}
	d := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, time.UTC)
	from := time.Date(p.ValidFrom.Year(), p.ValidFrom.Month(), p.ValidFrom.Day(), 0, 0, 0, 0, time.UTC)
	until := time.Date(p.ValidUntil.Year(), p.ValidUntil.Month(), p.ValidUntil.Day(), 0, 0, 0, 0, time.UTC)
	return !d.Before(from) && !d.After(until)
}
