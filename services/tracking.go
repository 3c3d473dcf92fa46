package services

import (
	"math"
	"time"

	"github.com/campusride/transport_portal/models"
)

const (
	DefaultBusSpeedKmh = 25.0
	StaleAfter         = 5 * time.Minute
	earthRadiusKm      = 6371.0
	// A stop counts as reached inside this radius.
	arrivalRadiusKm = 0.15
)

type StopRef struct {
	Name          string  `json:"name"`
	SequenceOrder int     `json:"sequence_order"`
	Latitude      float64 `json:"latitude"`
	Longitude     float64 `json:"longitude"`
}

type RouteProgress struct {
	NearestStop      *StopRef `json:"nearest_stop"`
	NextStop         *StopRef `json:"next_stop"`
	StopsCompleted   int      `json:"stops_completed"`
	TotalStops       int      `json:"total_stops"`
	DistanceToNextKm float64  `json:"distance_to_next_km"`
	EtaMinutes       float64  `json:"eta_minutes"`
	ProgressPercent  float64  `json:"progress_percent"`
}

// HaversineKm is the great circle distance between two points.
func HaversineKm(lat1, lng1, lat2, lng2 float64) float64 {
	rad := math.Pi / 180
	dLat := (lat2 - lat1) * rad
	dLng := (lng2 - lng1) * rad
	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1*rad)*math.Cos(lat2*rad)*math.Sin(dLng/2)*math.Sin(dLng/2)
	return 2 * earthRadiusKm * math.Asin(math.Min(1, math.Sqrt(a)))
}

// EtaMinutes is a straight line estimate. Speeds at or below zero use the
// default bus speed.
func EtaMinutes(distanceKm, speedKmh float64) float64 {
	if speedKmh <= 0 {
		speedKmh = DefaultBusSpeedKmh
	}
	return math.Round(distanceKm/speedKmh*60*10) / 10
}

// ComputeRouteProgress places a bus fix on an ordered list of stops. Stops
// must be sorted by sequence order.
func ComputeRouteProgress(stops []models.RouteStop, lat, lng float64, speedKmh *float64) RouteProgress {
	p := RouteProgress{TotalStops: len(stops)}
	if len(stops) == 0 {
		return p
	}

	nearest, best := 0, math.MaxFloat64
	for i, s := range stops {
		if d := HaversineKm(lat, lng, s.Latitude, s.Longitude); d < best {
			nearest, best = i, d
		}
	}
	p.NearestStop = stopRef(stops[nearest])

	// Past the nearest stop when it is reached, or when the bus is closer to
	// the following stop than the nearest stop is.
	next := nearest
	if best <= arrivalRadiusKm {
		next = nearest + 1
	} else if nearest+1 < len(stops) {
		following := stops[nearest+1]
		between := HaversineKm(stops[nearest].Latitude, stops[nearest].Longitude, following.Latitude, following.Longitude)
		if HaversineKm(lat, lng, following.Latitude, following.Longitude) < between {
			next = nearest + 1
		}
	}

	p.StopsCompleted = next
	p.ProgressPercent = math.Round(float64(next)/float64(len(stops))*1000) / 10
	if next >= len(stops) {
		return p
	}

	p.NextStop = stopRef(stops[next])
	p.DistanceToNextKm = math.Round(HaversineKm(lat, lng, stops[next].Latitude, stops[next].Longitude)*100) / 100
	speed := 0.0
	if speedKmh != nil {
		speed = *speedKmh
	}
	p.EtaMinutes = EtaMinutes(p.DistanceToNextKm, speed)
	return p
}

func stopRef(s models.RouteStop) *StopRef {
	return &StopRef{Name: s.StopName, SequenceOrder: s.SequenceOrder, Latitude: s.Latitude, Longitude: s.Longitude}
}

func IsStale(updatedAt, now time.Time) bool {
	return now.Sub(updatedAt) > StaleAfter
}
