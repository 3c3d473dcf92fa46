package handlers

import (
	"encoding/json"
	"time"

	"github.com/campusride/transport_portal/database"
	"github.com/campusride/transport_portal/middleware"
	"github.com/campusride/transport_portal/models"
	"github.com/campusride/transport_portal/services"
	"github.com/gofiber/fiber/v2"
	"github.com/lib/pq"
	"gorm.io/datatypes"
	"gorm.io/gorm/clause"
)

type CreateNotificationRequest struct {
	Title          string                 `json:"title" validate:"required,max=255"`
	Message        string                 `json:"message" validate:"required"`
	Type           string                 `json:"type" validate:"omitempty,oneof=info warning success error"`
	Category       string                 `json:"category" validate:"omitempty,max=30"`
	TargetAudience string                 `json:"target_audience" validate:"omitempty,oneof=all students drivers staff"`
	SpecificUsers  []string               `json:"specific_users" validate:"omitempty,dive,uuid"`
	Payload        map[string]interface{} `json:"payload"`
	ExpiresAt      *time.Time             `json:"expires_at"`
}

type PushSubscriptionRequest struct {
	Action   string          `json:"action" validate:"required,oneof=subscribe unsubscribe"`
	Endpoint string          `json:"endpoint" validate:"required,url"`
	Keys     json.RawMessage `json:"keys"`
}

type notificationView struct {
	models.Notification
	IsRead bool `json:"is_read"`
}

func portalOf(p middleware.Principal) string {
	switch {
	case p.IsStaff():
		return services.PortalStaff
	case p.IsDriver():
		return services.PortalDriver
	}
	return services.PortalPassenger
}

func AdminCreateNotification(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	var req CreateNotificationRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse JSON"})
	}
	if err := validate.Struct(req); err != nil {
		return validationError(c, err)
	}
	if req.ExpiresAt != nil && !req.ExpiresAt.After(time.Now()) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "expires_at must be in the future"})
	}

	n := models.Notification{
		Title:          req.Title,
		Message:        req.Message,
		Type:           req.Type,
		Category:       req.Category,
		TargetAudience: req.TargetAudience,
		SpecificUsers:  pq.StringArray(req.SpecificUsers),
		Payload:        toJSON(req.Payload),
		IsActive:       true,
		ExpiresAt:      req.ExpiresAt,
		CreatedBy:      &p.ID,
	}
	if n.Type == "" {
		n.Type = "info"
	}
	if n.Category == "" {
		n.Category = "general"
	}
	if n.TargetAudience == "" {
		n.TargetAudience = models.AudienceAll
	}
	if err := database.DB.Create(&n).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to create notification"})
	}
	return c.Status(fiber.StatusCreated).JSON(n)
}

// GetMyNotifications lists the active notifications addressed to the caller,
// newest first, flagged with whether the caller has read them.
func GetMyNotifications(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	portal := portalOf(p)
	now := time.Now()

	var candidates []models.Notification
	database.DB.
		Where("is_active = ? AND (expires_at IS NULL OR expires_at > ?)", true, now).
		Where("target_audience IN ? OR ? = ANY(specific_users)", []string{models.AudienceAll, services.AudienceFor(portal)}, p.ID.String()).
		Order("created_at desc").
		Limit(c.QueryInt("limit", 50)).
		Find(&candidates)

	var readIDs []string
	database.DB.Model(&models.NotificationRead{}).Where("user_id = ?", p.ID).Pluck("notification_id", &readIDs)
	read := make(map[string]bool, len(readIDs))
	for _, id := range readIDs {
		read[id] = true
	}

	views := make([]notificationView, 0, len(candidates))
	unread := 0
	for i := range candidates {
		n := &candidates[i]
		if !services.NotificationVisible(n, p.ID, portal, now) {
			continue
		}
		v := notificationView{Notification: *n, IsRead: read[n.ID.String()]}
		if !v.IsRead {
			unread++
		}
		views = append(views, v)
	}
	return c.JSON(fiber.Map{"data": views, "unread_count": unread})
}

func MarkNotificationRead(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	id, ok := paramUUID(c, "id")
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid notification ID"})
	}

	var n models.Notification
	if err := database.DB.First(&n, "id = ?", id).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Notification not found"})
	}
	if !services.NotificationVisible(&n, p.ID, portalOf(p), time.Now()) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Notification not found"})
	}

	mark := models.NotificationRead{NotificationID: n.ID, UserID: p.ID, ReadAt: time.Now()}
	if err := database.DB.Clauses(clause.OnConflict{DoNothing: true}).Create(&mark).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to mark notification as read"})
	}
	return c.JSON(fiber.Map{"message": "Notification marked as read."})
}

// UpdatePushSubscription stores or deactivates a browser push endpoint.
// Delivery happens elsewhere.
func UpdatePushSubscription(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	var req PushSubscriptionRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse JSON"})
	}
	if err := validate.Struct(req); err != nil {
		return validationError(c, err)
	}

	if req.Action == "unsubscribe" {
		database.DB.Model(&models.PushSubscription{}).
			Where("user_id = ? AND endpoint = ?", p.ID, req.Endpoint).
			Update("is_active", false)
		return c.JSON(fiber.Map{"message": "Unsubscribed from push notifications."})
	}

	sub := models.PushSubscription{
		UserID:   p.ID,
		UserType: portalOf(p),
		Endpoint: req.Endpoint,
		Keys:     datatypes.JSON(req.Keys),
		IsActive: true,
	}
	err = database.DB.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "endpoint"}},
		DoUpdates: clause.AssignmentColumns([]string{"keys", "is_active", "updated_at"}),
	}).Create(&sub).Error
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to save push subscription"})
	}
	return c.JSON(fiber.Map{"message": "Subscribed to push notifications."})
}

func GetPushSubscriptions(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	var subs []models.PushSubscription
	database.DB.Where("user_id = ? AND is_active = ?", p.ID, true).Find(&subs)
	return c.JSON(fiber.Map{"subscribed": len(subs) > 0, "subscriptions": subs})
}
