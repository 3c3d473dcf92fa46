package handlers

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"log"
	"strings"
	"time"

	"github.com/campusride/transport_portal/database"
	"github.com/campusride/transport_portal/identity"
	"github.com/campusride/transport_portal/middleware"
	"github.com/campusride/transport_portal/models"
	"github.com/campusride/transport_portal/services"
	"github.com/gofiber/fiber/v2"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const (
	sessionTTL       = 72 * time.Hour
	oauthStateCookie = "oauth_state"
)

var errInvalidCredentials = errors.New("invalid email or password")

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
	RoleHint string `json:"role_hint" validate:"omitempty,max=30"`
}

type PassengerCallbackRequest struct {
	Code  string `json:"code" validate:"required"`
	State string `json:"state" validate:"required"`
}

type AuthHandler struct {
	Identity *identity.Client
}

func (h *AuthHandler) PassengerAuthorizeURL(c *fiber.Ctx) error {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to generate state"})
	}
	state := hex.EncodeToString(buf)
	c.Cookie(&fiber.Cookie{
		Name:     oauthStateCookie,
		Value:    state,
		HTTPOnly: true,
		SameSite: "Lax",
		Expires:  time.Now().Add(10 * time.Minute),
	})
	return c.JSON(fiber.Map{"url": h.Identity.AuthorizeURL(state), "state": state})
}

// PassengerCallback finishes the parent-app OAuth flow and links the parent
// account to a local student record.
func (h *AuthHandler) PassengerCallback(c *fiber.Ctx) error {
	var req PassengerCallbackRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse JSON"})
	}
	if err := validate.Struct(req); err != nil {
		return validationError(c, err)
	}
	cookie := c.Cookies(oauthStateCookie)
	if cookie == "" || subtle.ConstantTimeCompare([]byte(cookie), []byte(req.State)) != 1 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "OAuth state mismatch"})
	}

	tok, err := h.Identity.ExchangeCode(c.UserContext(), req.Code)
	if err != nil {
		if errors.Is(err, identity.ErrUnauthorized) {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Authorization code rejected"})
		}
		log.Printf("🔥 OAuth code exchange failed: %v", err)
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{"error": "Identity provider unavailable"})
	}
	parent, err := h.Identity.FetchUser(c.UserContext(), tok.AccessToken)
	if err != nil {
		log.Printf("🔥 OAuth userinfo failed: %v", err)
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{"error": "Identity provider unavailable"})
	}

	student, err := linkStudent(database.DB, parent)
	if err != nil {
		log.Printf("🔥 Failed to link student %s: %v", parent.Email, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to sign in"})
	}

	t, err := middleware.IssueToken(middleware.Principal{ID: student.ID, Role: models.RolePassenger, Email: student.Email}, sessionTTL)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to create token"})
	}
	c.ClearCookie(oauthStateCookie)
	return c.JSON(fiber.Map{"token": t, "role": models.RolePassenger, "user": student, "permissions": parent.Permissions})
}

// linkStudent finds the student by parent id, then by email, creating one on
// first login.
func linkStudent(db *gorm.DB, parent *identity.ParentUser) (*models.Student, error) {
	var student models.Student
	now := time.Now()
	err := db.Transaction(func(tx *gorm.DB) error {
		err := tx.Where("external_id = ?", parent.ID).First(&student).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			err = tx.Where("LOWER(email) = ?", strings.ToLower(parent.Email)).First(&student).Error
		}
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			student = models.Student{
				ExternalID:    &parent.ID,
				StudentName:   parent.FullName,
				Email:         parent.Email,
				PaymentStatus: models.StudentPaymentPending,
				LastLoginAt:   &now,
			}
			if parent.RollNumber != "" {
				student.RollNumber = &parent.RollNumber
			}
			if parent.Department != "" {
				student.Department = &parent.Department
			}
			if parent.Mobile != "" {
				student.Mobile = &parent.Mobile
			}
			return tx.Create(&student).Error
		case err != nil:
			return err
		}

		student.ExternalID = &parent.ID
		student.LastLoginAt = &now
		if parent.FullName != "" {
			student.StudentName = parent.FullName
		}
		return tx.Model(&student).Updates(map[string]interface{}{
			"external_id":   parent.ID,
			"student_name":  student.StudentName,
			"last_login_at": now,
		}).Error
	})
	return &student, err
}

func authenticateDriver(db *gorm.DB, email, password string) (*models.Driver, error) {
	var driver models.Driver
	if err := db.Where("LOWER(email) = ?", strings.ToLower(email)).First(&driver).Error; err != nil {
		return nil, errInvalidCredentials
	}
	if driver.Status != "active" {
		return nil, errInvalidCredentials
	}
	if bcrypt.CompareHashAndPassword([]byte(driver.Password), []byte(password)) != nil {
		return nil, errInvalidCredentials
	}
	now := time.Now()
	db.Model(&driver).Update("last_login_at", now)
	return &driver, nil
}

func authenticateStaff(db *gorm.DB, email, password string) (*models.User, error) {
	var user models.User
	if err := db.Where("LOWER(email) = ?", strings.ToLower(email)).First(&user).Error; err != nil {
		return nil, errInvalidCredentials
	}
	if !user.IsActive || !models.IsStaffRole(user.Role) {
		return nil, errInvalidCredentials
	}
	if bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)) != nil {
		return nil, errInvalidCredentials
	}
	now := time.Now()
	db.Model(&user).Update("last_login_at", now)
	return &user, nil
}

func parseLogin(c *fiber.Ctx) (*LoginRequest, error) {
	var req LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return nil, c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse JSON"})
	}
	if err := validate.Struct(req); err != nil {
		return nil, validationError(c, err)
	}
	return &req, nil
}

func loginAs(portal string, req *LoginRequest) (fiber.Map, error) {
	switch portal {
	case services.PortalDriver:
		d, err := authenticateDriver(database.DB, req.Email, req.Password)
		if err != nil {
			return nil, err
		}
		t, err := middleware.IssueToken(middleware.Principal{ID: d.ID, Role: models.RoleDriver, Email: d.Email}, sessionTTL)
		if err != nil {
			return nil, err
		}
		return fiber.Map{"token": t, "role": models.RoleDriver, "user": d}, nil
	case services.PortalStaff:
		u, err := authenticateStaff(database.DB, req.Email, req.Password)
		if err != nil {
			return nil, err
		}
		t, err := middleware.IssueToken(middleware.Principal{ID: u.ID, Role: u.Role, Email: u.Email}, sessionTTL)
		if err != nil {
			return nil, err
		}
		return fiber.Map{"token": t, "role": u.Role, "user": u}, nil
	}
	return nil, errInvalidCredentials
}

func DriverLogin(c *fiber.Ctx) error {
	req, err := parseLogin(c)
	if req == nil {
		return err
	}
	res, err := loginAs(services.PortalDriver, req)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid email or password"})
	}
	return c.JSON(res)
}

func StaffLogin(c *fiber.Ctx) error {
	req, err := parseLogin(c)
	if req == nil {
		return err
	}
	res, err := loginAs(services.PortalStaff, req)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid email or password"})
	}
	return c.JSON(res)
}

// UnifiedLogin tries the inferred portal first and then the others that
// accept passwords. Passengers are sent to the OAuth flow.
func (h *AuthHandler) UnifiedLogin(c *fiber.Ctx) error {
	req, err := parseLogin(c)
	if req == nil {
		return err
	}

	first := services.InferRole(req.Email, req.RoleHint)
	for _, portal := range services.FallbackPortals(first) {
		if portal == services.PortalPassenger {
			continue
		}
		if res, err := loginAs(portal, req); err == nil {
			res["portal"] = portal
			return c.JSON(res)
		}
	}

	if first == services.PortalPassenger {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error":         "Passengers sign in through the college portal",
			"authorize_url": h.Identity.AuthorizeURL(""),
		})
	}
	return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid email or password"})
}

func Me(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return err
	}

	var user interface{}
	switch {
	case p.IsPassenger():
		var s models.Student
		err = database.DB.Preload("Route").Preload("Quota").First(&s, "id = ?", p.ID).Error
		user = s
	case p.IsDriver():
		var d models.Driver
		err = database.DB.Preload("AssignedRoute").First(&d, "id = ?", p.ID).Error
		user = d
	default:
		var u models.User
		err = database.DB.First(&u, "id = ?", p.ID).Error
		user = u
	}
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "User not found"})
	}
	return c.JSON(fiber.Map{"id": p.ID, "role": p.Role, "email": p.Email, "user": user})
}
