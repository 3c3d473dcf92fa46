package models

import (
	"time"

	"github.com/google/uuid"
)

type Route struct {
	ID            uuid.UUID  `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	RouteNumber   string     `gorm:"size:20;not null;unique" json:"route_number"`
	RouteName     string     `gorm:"size:255;not null" json:"route_name"`
	StartLocation string     `gorm:"size:255" json:"start_location"`
	EndLocation   string     `gorm:"size:255" json:"end_location"`
	DepartureTime string     `gorm:"size:10" json:"departure_time"`
	ArrivalTime   string     `gorm:"size:10" json:"arrival_time"`
	VehicleNumber *string    `gorm:"size:30" json:"vehicle_number,omitempty"`
	DriverID      *uuid.UUID `gorm:"type:uuid" json:"driver_id,omitempty"`
	Status        string     `gorm:"size:20;not null;default:'active'" json:"status"`

	Stops []RouteStop `gorm:"foreignkey:RouteID" json:"stops,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type RouteStop struct {
	ID            uuid.UUID `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	RouteID       uuid.UUID `gorm:"type:uuid;not null;index" json:"route_id"`
	StopName      string    `gorm:"size:255;not null" json:"stop_name"`
	StopTime      string    `gorm:"size:10" json:"stop_time"`
	SequenceOrder int       `gorm:"not null" json:"sequence_order"`
	Latitude      float64   `gorm:"type:numeric(10,7)" json:"latitude"`
	Longitude     float64   `gorm:"type:numeric(10,7)" json:"longitude"`
	IsMajorStop   bool      `gorm:"default:false" json:"is_major_stop"`
}
