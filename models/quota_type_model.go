package models

import (
	"time"

	"github.com/google/uuid"
)

type QuotaType struct {
	ID                uuid.UUID `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	Name              string    `gorm:"size:100;not null" json:"name"`
	Code              string    `gorm:"size:30;not null;unique" json:"code"`
	Description       *string   `gorm:"type:text" json:"description,omitempty"`
	AnnualFeeAmount   float64   `gorm:"type:numeric(10,2);not null;default:0" json:"annual_fee_amount"`
	IsGovernmentQuota bool      `gorm:"default:false" json:"is_government_quota"`
	IsActive          bool      `gorm:"default:true" json:"is_active"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
