package middleware

import (
	"time"

	config "github.com/campusride/transport_portal/configs"
	"github.com/campusride/transport_portal/models"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	jwtware "github.com/gofiber/jwt/v3"
	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
)

// Principal is the authenticated caller carried in the session token.
type Principal struct {
	ID    uuid.UUID
	Role  string
	Email string
}

func (p Principal) IsStaff() bool     { return models.IsStaffRole(p.Role) }
func (p Principal) IsDriver() bool    { return p.Role == models.RoleDriver }
func (p Principal) IsPassenger() bool { return p.Role == models.RolePassenger }

func Protected() fiber.Handler {
	return jwtware.New(jwtware.Config{
		SigningKey:   []byte(config.Config("JWT_SECRET")),
		ErrorHandler: jwtError,
	})
}

func jwtError(c *fiber.Ctx, err error) error {
	if err.Error() == "Missing or malformed JWT" {
		return c.Status(fiber.StatusBadRequest).
			JSON(fiber.Map{"status": "error", "message": "Missing or malformed JWT", "data": nil})
	}
	return c.Status(fiber.StatusUnauthorized).
		JSON(fiber.Map{"status": "error", "message": "Invalid or expired JWT", "data": nil})
}

// IssueToken signs a session token for a principal.
func IssueToken(p Principal, ttl time.Duration) (string, error) {
	claims := jwt.MapClaims{
		"user_id": p.ID.String(),
		"role":    p.Role,
		"email":   p.Email,
		"exp":     time.Now().Add(ttl).Unix(),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(config.Config("JWT_SECRET")))
}

// ParseToken validates a session token outside the HTTP middleware, for the
// websocket handshake.
func ParseToken(raw string) (Principal, error) {
	token, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return []byte(config.Config("JWT_SECRET")), nil
	})
	if err != nil {
		return Principal{}, err
	}
	return principalFromClaims(token.Claims.(jwt.MapClaims))
}

func principalFromClaims(claims jwt.MapClaims) (Principal, error) {
	rawID, _ := claims["user_id"].(string)
	id, err := uuid.Parse(rawID)
	if err != nil {
		return Principal{}, err
	}
	role, _ := claims["role"].(string)
	email, _ := claims["email"].(string)
	return Principal{ID: id, Role: role, Email: email}, nil
}

// CurrentPrincipal reads the caller set by Protected.
func CurrentPrincipal(c *fiber.Ctx) (Principal, bool) {
	token, ok := c.Locals("user").(*jwt.Token)
	if !ok {
		return Principal{}, false
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return Principal{}, false
	}
	p, err := principalFromClaims(claims)
	return p, err == nil
}

func requireRole(message string, allowed func(Principal) bool) fiber.Handler {
	return func(c *fiber.Ctx) error {
		p, ok := CurrentPrincipal(c)
		if !ok || !allowed(p) {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": message})
		}
		return c.Next()
	}
}

func StaffRequired() fiber.Handler {
	return requireRole("Forbidden: Staff access required", Principal.IsStaff)
}

func DriverRequired() fiber.Handler {
	return requireRole("Forbidden: Driver access required", Principal.IsDriver)
}

func PassengerRequired() fiber.Handler {
	return requireRole("Forbidden: Passenger access required", Principal.IsPassenger)
}

// LoginLimiter throttles credential endpoints per client IP.
func LoginLimiter() fiber.Handler {
	return limiter.New(limiter.Config{
		Max:        config.ConfigInt("LOGIN_RATE_LIMIT", 10),
		Expiration: time.Minute,
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{"error": "Too many login attempts, try again later"})
		},
	})
}
