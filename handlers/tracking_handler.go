package handlers

import (
	"log"
	"time"

	"github.com/campusride/transport_portal/database"
	"github.com/campusride/transport_portal/middleware"
	"github.com/campusride/transport_portal/models"
	"github.com/campusride/transport_portal/services"
	hub "github.com/campusride/transport_portal/websocket"
	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const maxTrailMinutes = 180

type LocationUpdateRequest struct {
	Latitude  float64  `json:"latitude" validate:"required,latitude"`
	Longitude float64  `json:"longitude" validate:"required,longitude"`
	Speed     *float64 `json:"speed" validate:"omitempty,gte=0,lte=200"`
	Heading   *float64 `json:"heading" validate:"omitempty,gte=0,lte=360"`
	Accuracy  *float64 `json:"accuracy" validate:"omitempty,gte=0"`
}

// PublishLocation records a GPS fix from the driver's device and pushes it to
// route subscribers.
func PublishLocation(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return err
	}

	var req LocationUpdateRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse JSON"})
	}
	if err := validate.Struct(req); err != nil {
		return validationError(c, err)
	}

	var driver models.Driver
	if err := database.DB.First(&driver, "id = ?", p.ID).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Driver not found"})
	}
	if driver.AssignedRouteID == nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "No route assigned to this driver"})
	}

	now := time.Now()
	live := models.LiveLocation{
		RouteID:   *driver.AssignedRouteID,
		DriverID:  driver.ID,
		Latitude:  req.Latitude,
		Longitude: req.Longitude,
		Speed:     req.Speed,
		Heading:   req.Heading,
		IsOnline:  true,
		UpdatedAt: now,
	}
	err = database.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&models.BusLocation{
			RouteID:    live.RouteID,
			DriverID:   driver.ID,
			Latitude:   req.Latitude,
			Longitude:  req.Longitude,
			Speed:      req.Speed,
			Heading:    req.Heading,
			Accuracy:   req.Accuracy,
			RecordedAt: now,
		}).Error; err != nil {
			return err
		}
		return tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "route_id"}},
			UpdateAll: true,
		}).Create(&live).Error
	})
	if err != nil {
		log.Printf("🔥 Failed to store location for driver %s: %v", driver.ID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to store location"})
	}

	select {
	case hub.Default.Broadcast <- frameFor(&live):
	default:
		log.Printf("⚠️ Tracking hub busy, dropped frame for route %s", live.RouteID)
	}
	return c.JSON(fiber.Map{"status": "ok", "route_id": live.RouteID, "recorded_at": now})
}

func frameFor(l *models.LiveLocation) *hub.LocationFrame {
	return &hub.LocationFrame{
		Type:      "location",
		RouteID:   l.RouteID,
		Latitude:  l.Latitude,
		Longitude: l.Longitude,
		Speed:     l.Speed,
		Heading:   l.Heading,
		IsOnline:  l.IsOnline,
		UpdatedAt: l.UpdatedAt.UTC().Format(time.RFC3339),
	}
}

func GetRouteTracking(c *fiber.Ctx) error {
	routeID, ok := paramUUID(c, "routeId")
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid route ID"})
	}

	var route models.Route
	err := database.DB.
		Preload("Stops", func(db *gorm.DB) *gorm.DB { return db.Order("sequence_order asc") }).
		First(&route, "id = ?", routeID).Error
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Route not found"})
	}

	resp := fiber.Map{"route": route, "live": nil, "progress": nil, "is_stale": true}

	var live models.LiveLocation
	if err := database.DB.First(&live, "route_id = ?", routeID).Error; err == nil {
		progress := services.ComputeRouteProgress(route.Stops, live.Latitude, live.Longitude, live.Speed)
		resp["live"] = live
		resp["progress"] = progress
		resp["is_stale"] = !live.IsOnline || services.IsStale(live.UpdatedAt, time.Now())
	}
	return c.JSON(resp)
}

func GetRouteTrail(c *fiber.Ctx) error {
	routeID, ok := paramUUID(c, "routeId")
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid route ID"})
	}
	minutes := c.QueryInt("minutes", 30)
	if minutes <= 0 || minutes > maxTrailMinutes {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "minutes must be between 1 and 180"})
	}

	var points []models.BusLocation
	err := database.DB.
		Where("route_id = ? AND recorded_at >= ?", routeID, time.Now().Add(-time.Duration(minutes)*time.Minute)).
		Order("recorded_at asc").
		Find(&points).Error
	if err != nil {
		log.Printf("🔥 Failed to load trail for route %s: %v", routeID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to load route trail"})
	}

	path := make([][2]float64, 0, len(points))
	for _, pt := range points {
		path = append(path, [2]float64{pt.Latitude, pt.Longitude})
	}
	return c.JSON(fiber.Map{"route_id": routeID, "points": points, "path": path})
}

type trackingMessage struct {
	Type    string `json:"type"`
	Token   string `json:"token,omitempty"`
	RouteID string `json:"route_id,omitempty"`
}

func TrackingUpgrade(c *fiber.Ctx) error {
	if websocket.IsWebSocketUpgrade(c) {
		return c.Next()
	}
	return fiber.ErrUpgradeRequired
}

// ServeTrackingWs expects an auth frame, then a subscribe frame, and then
// streams location frames until the client disconnects.
var ServeTrackingWs = websocket.New(func(conn *websocket.Conn) {
	defer conn.Close()

	var msg trackingMessage
	if err := conn.ReadJSON(&msg); err != nil || msg.Type != "auth" {
		conn.WriteJSON(fiber.Map{"type": "error", "error": "auth frame required"})
		return
	}
	p, err := middleware.ParseToken(msg.Token)
	if err != nil {
		conn.WriteJSON(fiber.Map{"type": "error", "error": "invalid token"})
		return
	}
	conn.WriteJSON(fiber.Map{"type": "auth_ok", "role": p.Role})

	var client *hub.Client
	defer func() {
		if client != nil {
			hub.Default.Unregister <- client
		}
	}()

	for {
		if err := conn.ReadJSON(&msg); err != nil {
			return
		}
		switch msg.Type {
		case "subscribe":
			routeID, err := uuid.Parse(msg.RouteID)
			if err != nil {
				conn.WriteJSON(fiber.Map{"type": "error", "error": "invalid route_id"})
				continue
			}
			if client != nil {
				hub.Default.Unregister <- client
			}
			// Reply before registering; afterwards only the hub writes.
			conn.WriteJSON(fiber.Map{"type": "subscribed", "route_id": routeID})
			client = &hub.Client{ID: uuid.New(), RouteID: routeID, Conn: conn}
			hub.Default.Register <- client
		case "ping":
			if client == nil {
				conn.WriteJSON(fiber.Map{"type": "pong"})
			}
		}
	}
})
