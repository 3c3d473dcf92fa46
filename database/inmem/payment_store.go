// Package inmem is a map backed PaymentStore for tests and local runs without Postgres.
package inmem

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/campusride/transport_portal/models"
	"github.com/campusride/transport_portal/services"
	"github.com/google/uuid"
)

type PaymentStore struct {
	// txMu serializes transactions the way the student row lock does in Postgres.
	txMu sync.Mutex
	mu   sync.Mutex

	Students     map[uuid.UUID]*models.Student
	Quotas       map[uuid.UUID]*models.QuotaType
	Routes       map[uuid.UUID]*models.Route
	SemesterFees []models.SemesterFee
	Payments     []models.SemesterPayment
	Enrollment   []models.Payment
	Receipts     []models.PaymentReceipt
}

func NewPaymentStore() *PaymentStore {
	return &PaymentStore{
		Students: make(map[uuid.UUID]*models.Student),
		Quotas:   make(map[uuid.UUID]*models.QuotaType),
		Routes:   make(map[uuid.UUID]*models.Route),
	}
}

func (s *PaymentStore) AddStudent(st models.Student) *models.Student {
	s.mu.Lock()
	defer s.mu.Unlock()
	if st.ID == uuid.Nil {
		st.ID = uuid.New()
	}
	if st.Quota != nil {
		if st.Quota.ID == uuid.Nil {
			st.Quota.ID = uuid.New()
		}
		s.Quotas[st.Quota.ID] = st.Quota
		st.QuotaTypeID = &st.Quota.ID
		st.Quota = nil
	}
	s.Students[st.ID] = &st
	return &st
}

func (s *PaymentStore) AddRoute(r models.Route) *models.Route {
	s.mu.Lock()
	defer s.mu.Unlock()
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	s.Routes[r.ID] = &r
	return &r
}

func (s *PaymentStore) AddSemesterFee(f models.SemesterFee) models.SemesterFee {
	s.mu.Lock()
	defer s.mu.Unlock()
	if f.ID == uuid.Nil {
		f.ID = uuid.New()
	}
	s.SemesterFees = append(s.SemesterFees, f)
	return f
}

func (s *PaymentStore) AddEnrollmentPayment(p models.Payment) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	s.Enrollment = append(s.Enrollment, p)
}

func (s *PaymentStore) AddSemesterPayment(p models.SemesterPayment) models.SemesterPayment {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.insertPayment(&p)
	return p
}

func (s *PaymentStore) insertPayment(p *models.SemesterPayment) {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now()
	}
	p.UpdatedAt = time.Now()
	s.Payments = append(s.Payments, *p)
}

func (s *PaymentStore) student(id uuid.UUID) (*models.Student, error) {
	st, ok := s.Students[id]
	if !ok {
		return nil, services.ErrNotFound
	}
	cp := *st
	if cp.QuotaTypeID != nil {
		if q, ok := s.Quotas[*cp.QuotaTypeID]; ok {
			qc := *q
			cp.Quota = &qc
		}
	}
	if cp.AllocatedRouteID != nil {
		if r, ok := s.Routes[*cp.AllocatedRouteID]; ok {
			rc := *r
			cp.Route = &rc
		}
	}
	return &cp, nil
}

func (s *PaymentStore) FindStudent(_ context.Context, id uuid.UUID) (*models.Student, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.student(id)
}

func (s *PaymentStore) LockStudent(ctx context.Context, id uuid.UUID) (*models.Student, error) {
	return s.FindStudent(ctx, id)
}

func (s *PaymentStore) FindRoute(_ context.Context, id uuid.UUID) (*models.Route, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.Routes[id]
	if !ok {
		return nil, services.ErrNotFound
	}
	cp := *r
	return &cp, nil
}

func (s *PaymentStore) UpdateStudentBalance(_ context.Context, id uuid.UUID, outstanding float64, paymentStatus string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.Students[id]
	if !ok {
		return services.ErrNotFound
	}
	st.OutstandingAmount = outstanding
	st.PaymentStatus = paymentStatus
	return nil
}

func (s *PaymentStore) ListSemesterPayments(_ context.Context, studentID uuid.UUID, academicYear string, statuses ...string) ([]models.SemesterPayment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.SemesterPayment
	for _, p := range s.Payments {
		if p.StudentID != studentID {
			continue
		}
		if academicYear != "" && p.AcademicYear != academicYear {
			continue
		}
		if len(statuses) > 0 && !contains(statuses, p.PaymentStatus) {
			continue
		}
		out = append(out, p)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (s *PaymentStore) ListEnrollmentPayments(_ context.Context, studentID uuid.UUID) ([]models.Payment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Payment
	for _, p := range s.Enrollment {
		if p.StudentID == studentID && p.Status == models.EnrollmentPaymentCompleted {
			out = append(out, p)
		}
	}
	return out, nil
}

func (s *PaymentStore) ListSemesterFees(_ context.Context, routeID uuid.UUID, stopName, academicYear string) ([]models.SemesterFee, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.SemesterFee
	for _, f := range s.SemesterFees {
		if f.AllocatedRouteID == routeID && f.StopName == stopName && f.AcademicYear == academicYear && f.IsActive {
			out = append(out, f)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Semester < out[j].Semester })
	return out, nil
}

func (s *PaymentStore) ListPendingPayments(_ context.Context, createdBefore time.Time) ([]models.SemesterPayment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.SemesterPayment
	for _, p := range s.Payments {
		if p.PaymentStatus == models.PaymentStatusPending && p.CreatedAt.Before(createdBefore) {
			out = append(out, p)
		}
	}
	return out, nil
}

func (s *PaymentStore) FindSemesterPayment(_ context.Context, id uuid.UUID) (*models.SemesterPayment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range s.Payments {
		if p.ID == id {
			cp := p
			if st, err := s.student(p.StudentID); err == nil {
				cp.Student = st
			}
			return &cp, nil
		}
	}
	return nil, services.ErrNotFound
}

func (s *PaymentStore) CreateSemesterPayment(_ context.Context, p *models.SemesterPayment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.insertPayment(p)
	return nil
}

func (s *PaymentStore) SaveSemesterPayment(_ context.Context, p *models.SemesterPayment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.Payments {
		if s.Payments[i].ID == p.ID {
			cp := *p
			cp.Student = nil
			cp.UpdatedAt = time.Now()
			s.Payments[i] = cp
			return nil
		}
	}
	return services.ErrNotFound
}

func (s *PaymentStore) FindReceipt(_ context.Context, paymentID uuid.UUID) (*models.PaymentReceipt, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range s.Receipts {
		if r.SemesterPaymentID == paymentID {
			cp := r
			return &cp, nil
		}
	}
	return nil, services.ErrNotFound
}

func (s *PaymentStore) ReceiptNumberExists(_ context.Context, number string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range s.Receipts {
		if r.ReceiptNumber == number {
			return true, nil
		}
	}
	return false, nil
}

func (s *PaymentStore) CreateReceipt(_ context.Context, r *models.PaymentReceipt) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	s.Receipts = append(s.Receipts, *r)
	return nil
}

func (s *PaymentStore) SaveReceipt(_ context.Context, r *models.PaymentReceipt) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.Receipts {
		if s.Receipts[i].ID == r.ID {
			s.Receipts[i] = *r
			return nil
		}
	}
	return services.ErrNotFound
}

// Transaction serializes callbacks and rolls back payments, receipts and
// balances when fn fails.
func (s *PaymentStore) Transaction(_ context.Context, fn func(tx services.PaymentStore) error) error {
	s.txMu.Lock()
	defer s.txMu.Unlock()

	s.mu.Lock()
	payments := append([]models.SemesterPayment(nil), s.Payments...)
	receipts := append([]models.PaymentReceipt(nil), s.Receipts...)
	balances := make(map[uuid.UUID]models.Student, len(s.Students))
	for id, st := range s.Students {
		balances[id] = *st
	}
	s.mu.Unlock()

	if err := fn(s); err != nil {
		s.mu.Lock()
		s.Payments = payments
		s.Receipts = receipts
		for id, st := range balances {
			cp := st
			s.Students[id] = &cp
		}
		s.mu.Unlock()
		return err
	}
	return nil
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}
