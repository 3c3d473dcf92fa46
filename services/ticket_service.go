package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/campusride/transport_portal/models"
	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
	qrcode "github.com/skip2/go-qrcode"
)

const ticketQRSize = 320

type TicketClaims struct {
	PaymentID string `json:"pid"`
	StudentID string `json:"sid"`
	RouteID   string `json:"rid"`
	jwt.RegisteredClaims
}

type TicketVerification struct {
	Valid       bool       `json:"valid"`
	Reason      string     `json:"reason,omitempty"`
	PaymentID   string     `json:"payment_id,omitempty"`
	StudentID   string     `json:"student_id,omitempty"`
	StudentName string     `json:"student_name,omitempty"`
	RouteID     string     `json:"route_id,omitempty"`
	StopName    string     `json:"stop_name,omitempty"`
	ValidUntil  *time.Time `json:"valid_until,omitempty"`
}

// TicketService signs the QR ticket a passenger shows when boarding and checks
// it on the driver's device.
type TicketService struct {
	Store  PaymentStore
	Secret []byte
	Now    func() time.Time
}

func NewTicketService(store PaymentStore, secret string) *TicketService {
	return &TicketService{Store: store, Secret: []byte(secret), Now: time.Now}
}

// Issue signs a ticket for a confirmed payment. It expires the day after the
// payment's validity ends.
func (s *TicketService) Issue(p *models.SemesterPayment) (string, error) {
	if p.PaymentStatus != models.PaymentStatusConfirmed {
		return "", fmt.Errorf("payment %s is %s", p.ID, p.PaymentStatus)
	}
	claims := TicketClaims{
		PaymentID: p.ID.String(),
		StudentID: p.StudentID.String(),
		RouteID:   p.AllocatedRouteID.String(),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   p.StudentID.String(),
			IssuedAt:  jwt.NewNumericDate(s.Now()),
			ExpiresAt: jwt.NewNumericDate(p.ValidUntil.AddDate(0, 0, 1)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.Secret)
}

func (s *TicketService) QRCode(token string) ([]byte, error) {
	return qrcode.Encode(token, qrcode.Medium, ticketQRSize)
}

func (s *TicketService) parse(token string) (*TicketClaims, error) {
	claims := &TicketClaims{}
	_, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return s.Secret, nil
	}, jwt.WithoutClaimsValidation())
	if err != nil {
		return nil, err
	}
	return claims, nil
}

// Verify checks a scanned ticket. A nil driverRoute skips the route check.
// Only store failures are returned as errors; a bad ticket is Valid=false.
func (s *TicketService) Verify(ctx context.Context, token string, driverRoute *uuid.UUID) (*TicketVerification, error) {
	claims, err := s.parse(token)
	if err != nil {
		return &TicketVerification{Reason: "Invalid ticket signature"}, nil
	}
	now := s.Now()
	if claims.ExpiresAt != nil && now.After(claims.ExpiresAt.Time) {
		return &TicketVerification{Reason: "Ticket has expired", PaymentID: claims.PaymentID}, nil
	}

	paymentID, err := uuid.Parse(claims.PaymentID)
	if err != nil {
		return &TicketVerification{Reason: "Invalid ticket signature"}, nil
	}
	payment, err := s.Store.FindSemesterPayment(ctx, paymentID)
	if errors.Is(err, ErrNotFound) {
		return &TicketVerification{Reason: "Payment not found", PaymentID: claims.PaymentID}, nil
	}
	if err != nil {
		return nil, err
	}

	v := &TicketVerification{
		PaymentID:  payment.ID.String(),
		StudentID:  payment.StudentID.String(),
		RouteID:    payment.AllocatedRouteID.String(),
		StopName:   payment.StopName,
		ValidUntil: &payment.ValidUntil,
	}
	if payment.Student != nil {
		v.StudentName = payment.Student.StudentName
	}

	switch {
	case payment.StudentID.String() != claims.StudentID:
		v.Reason = "Ticket does not belong to this passenger"
	case payment.PaymentStatus != models.PaymentStatusConfirmed:
		v.Reason = "Payment not confirmed"
	case !payment.ActiveOn(now):
		v.Reason = "Ticket is not valid today"
	case driverRoute != nil && payment.AllocatedRouteID != *driverRoute:
		v.Reason = "Ticket is for a different route"
	default:
		v.Valid = true
	}
	return v, nil
}
