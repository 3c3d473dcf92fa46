package models

import (
	"time"

	"github.com/google/uuid"
)

// BusLocation is the append-only GPS trail.
type BusLocation struct {
	ID         uuid.UUID `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	RouteID    uuid.UUID `gorm:"type:uuid;not null;index:idx_bus_location_route_time" json:"route_id"`
	DriverID   uuid.UUID `gorm:"type:uuid;not null" json:"driver_id"`
	Latitude   float64   `gorm:"type:numeric(10,7);not null" json:"latitude"`
	Longitude  float64   `gorm:"type:numeric(10,7);not null" json:"longitude"`
	Speed      *float64  `json:"speed,omitempty"`
	Heading    *float64  `json:"heading,omitempty"`
	Accuracy   *float64  `json:"accuracy,omitempty"`
	RecordedAt time.Time `gorm:"not null;index:idx_bus_location_route_time" json:"recorded_at"`
}

// LiveLocation holds the latest fix per route.
type LiveLocation struct {
	RouteID   uuid.UUID `gorm:"type:uuid;primary_key" json:"route_id"`
	DriverID  uuid.UUID `gorm:"type:uuid;not null" json:"driver_id"`
	Latitude  float64   `gorm:"type:numeric(10,7);not null" json:"latitude"`
	Longitude float64   `gorm:"type:numeric(10,7);not null" json:"longitude"`
	Speed     *float64  `json:"speed,omitempty"`
	Heading   *float64  `json:"heading,omitempty"`
	IsOnline  bool      `gorm:"default:true" json:"is_online"`
	UpdatedAt time.Time `json:"updated_at"`
}
