package services

import (
	"context"
	"errors"
	"time"

	"github.com/campusride/transport_portal/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// PaymentStore is the persistence the semester payment service needs. Methods
// return ErrNotFound for missing rows.
type PaymentStore interface {
	FindStudent(ctx context.Context, id uuid.UUID) (*models.Student, error)
	LockStudent(ctx context.Context, id uuid.UUID) (*models.Student, error)
	FindRoute(ctx context.Context, id uuid.UUID) (*models.Route, error)
	UpdateStudentBalance(ctx context.Context, id uuid.UUID, outstanding float64, paymentStatus string) error

	// ListSemesterPayments filters by academic year and status when given.
	ListSemesterPayments(ctx context.Context, studentID uuid.UUID, academicYear string, statuses ...string) ([]models.SemesterPayment, error)
	ListEnrollmentPayments(ctx context.Context, studentID uuid.UUID) ([]models.Payment, error)
	ListSemesterFees(ctx context.Context, routeID uuid.UUID, stopName, academicYear string) ([]models.SemesterFee, error)
	ListPendingPayments(ctx context.Context, createdBefore time.Time) ([]models.SemesterPayment, error)
	FindSemesterPayment(ctx context.Context, id uuid.UUID) (*models.SemesterPayment, error)
	CreateSemesterPayment(ctx context.Context, p *models.SemesterPayment) error
	SaveSemesterPayment(ctx context.Context, p *models.SemesterPayment) error

	FindReceipt(ctx context.Context, paymentID uuid.UUID) (*models.PaymentReceipt, error)
	ReceiptNumberExists(ctx context.Context, number string) (bool, error)
	CreateReceipt(ctx context.Context, r *models.PaymentReceipt) error
	SaveReceipt(ctx context.Context, r *models.PaymentReceipt) error

	// Transaction runs fn against a store bound to one database transaction.
	Transaction(ctx context.Context, fn func(tx PaymentStore) error) error
}

type GormPaymentStore struct {
	db *gorm.DB
}

func NewGormPaymentStore(db *gorm.DB) *GormPaymentStore {
	return &GormPaymentStore{db: db}
}

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}

func (s *GormPaymentStore) FindStudent(ctx context.Context, id uuid.UUID) (*models.Student, error) {
	var student models.Student
	err := s.db.WithContext(ctx).Preload("Quota").Preload("Route").First(&student, "id = ?", id).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &student, nil
}

func (s *GormPaymentStore) LockStudent(ctx context.Context, id uuid.UUID) (*models.Student, error) {
	var student models.Student
	err := s.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&student, "id = ?", id).Error
	if err != nil {
		return nil, notFound(err)
	}
	if student.QuotaTypeID != nil {
		var quota models.QuotaType
		if err := s.db.WithContext(ctx).First(&quota, "id = ?", *student.QuotaTypeID).Error; err == nil {
			student.Quota = &quota
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
	}
	return &student, nil
}

func (s *GormPaymentStore) FindRoute(ctx context.Context, id uuid.UUID) (*models.Route, error) {
	var route models.Route
	err := s.db.WithContext(ctx).
		Preload("Stops", func(db *gorm.DB) *gorm.DB { return db.Order("sequence_order asc") }).
		First(&route, "id = ?", id).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &route, nil
}

func (s *GormPaymentStore) UpdateStudentBalance(ctx context.Context, id uuid.UUID, outstanding float64, paymentStatus string) error {
	return s.db.WithContext(ctx).Model(&models.Student{}).Where("id = ?", id).Updates(map[string]interface{}{
		"outstanding_amount": outstanding,
		"payment_status":     paymentStatus,
	}).Error
}

func (s *GormPaymentStore) ListSemesterPayments(ctx context.Context, studentID uuid.UUID, academicYear string, statuses ...string) ([]models.SemesterPayment, error) {
	q := s.db.WithContext(ctx).Where("student_id = ?", studentID)
	if academicYear != "" {
		q = q.Where("academic_year = ?", academicYear)
	}
	if len(statuses) > 0 {
		q = q.Where("payment_status IN ?", statuses)
	}
	var payments []models.SemesterPayment
	err := q.Order("created_at asc").Find(&payments).Error
	return payments, err
}

func (s *GormPaymentStore) ListEnrollmentPayments(ctx context.Context, studentID uuid.UUID) ([]models.Payment, error) {
	var payments []models.Payment
	err := s.db.WithContext(ctx).
		Where("student_id = ? AND status = ?", studentID, models.EnrollmentPaymentCompleted).
		Order("created_at asc").
		Find(&payments).Error
	return payments, err
}

func (s *GormPaymentStore) ListSemesterFees(ctx context.Context, routeID uuid.UUID, stopName, academicYear string) ([]models.SemesterFee, error) {
	var rows []models.SemesterFee
	err := s.db.WithContext(ctx).
		Where("allocated_route_id = ? AND stop_name = ? AND academic_year = ? AND is_active = ?", routeID, stopName, academicYear, true).
		Order("semester asc").
		Find(&rows).Error
	return rows, err
}

func (s *GormPaymentStore) ListPendingPayments(ctx context.Context, createdBefore time.Time) ([]models.SemesterPayment, error) {
	var payments []models.SemesterPayment
	err := s.db.WithContext(ctx).
		Preload("Student").
		Where("payment_status = ? AND created_at < ?", models.PaymentStatusPending, createdBefore).
		Order("created_at asc").
		Find(&payments).Error
	return payments, err
}

func (s *GormPaymentStore) FindSemesterPayment(ctx context.Context, id uuid.UUID) (*models.SemesterPayment, error) {
	var p models.SemesterPayment
	if err := s.db.WithContext(ctx).Preload("Student").First(&p, "id = ?", id).Error; err != nil {
		return nil, notFound(err)
	}
	return &p, nil
}

func (s *GormPaymentStore) CreateSemesterPayment(ctx context.Context, p *models.SemesterPayment) error {
	return s.db.WithContext(ctx).Create(p).Error
}

func (s *GormPaymentStore) SaveSemesterPayment(ctx context.Context, p *models.SemesterPayment) error {
	return s.db.WithContext(ctx).Omit(clause.Associations).Save(p).Error
}

func (s *GormPaymentStore) FindReceipt(ctx context.Context, paymentID uuid.UUID) (*models.PaymentReceipt, error) {
	var r models.PaymentReceipt
	if err := s.db.WithContext(ctx).First(&r, "semester_payment_id = ?", paymentID).Error; err != nil {
		return nil, notFound(err)
	}
	return &r, nil
}

func (s *GormPaymentStore) ReceiptNumberExists(ctx context.Context, number string) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&models.PaymentReceipt{}).Where("receipt_number = ?", number).Count(&count).Error
	return count > 0, err
}

func (s *GormPaymentStore) CreateReceipt(ctx context.Context, r *models.PaymentReceipt) error {
	return s.db.WithContext(ctx).Create(r).Error
}

func (s *GormPaymentStore) SaveReceipt(ctx context.Context, r *models.PaymentReceipt) error {
	return s.db.WithContext(ctx).Save(r).Error
}

func (s *GormPaymentStore) Transaction(ctx context.Context, fn func(tx PaymentStore) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&GormPaymentStore{db: tx})
	})
}
