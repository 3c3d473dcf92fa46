package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math"
	"strings"
	"time"

	"github.com/campusride/transport_portal/fees"
	"github.com/campusride/transport_portal/models"
	"github.com/campusride/transport_portal/utils"
	"github.com/google/uuid"
)

type SemesterPaymentService struct {
	Store                   PaymentStore
	FullYearDiscountPercent float64
	Now                     func() time.Time
}

func NewSemesterPaymentService(store PaymentStore, discountPercent float64) *SemesterPaymentService {
	return &SemesterPaymentService{
		Store:                   store,
		FullYearDiscountPercent: discountPercent,
		Now:                     time.Now,
	}
}

type RouteInfo struct {
	ID            uuid.UUID `json:"id"`
	RouteNumber   string    `json:"route_number"`
	RouteName     string    `json:"route_name"`
	StartLocation string    `json:"start_location"`
	EndLocation   string    `json:"end_location"`
	DepartureTime string    `json:"departure_time"`
	BoardingStop  string    `json:"boarding_stop"`
}

type PaymentSummary struct {
	AnnualFee         float64 `json:"annual_fee"`
	PaidAmount        float64 `json:"paid_amount"`
	OutstandingAmount float64 `json:"outstanding_amount"`
	PaymentStatus     string  `json:"payment_status"`
	QuotaName         string  `json:"quota_name,omitempty"`
}

type AvailableOptions struct {
	StudentID             uuid.UUID                  `json:"student_id"`
	StudentName           string                     `json:"student_name"`
	AcademicYear          string                     `json:"academic_year"`
	CurrentTerm           string                     `json:"current_term"`
	FeeSource             string                     `json:"fee_source"`
	Route                 *RouteInfo                 `json:"route"`
	Options               []fees.Option              `json:"options"`
	TermStatus            map[string]fees.TermStatus `json:"term_status"`
	EnrollmentPaymentMade bool                       `json:"enrollment_payment_made"`
	PaymentSummary        PaymentSummary             `json:"payment_summary"`
}

type FeeStructure struct {
	StudentID    uuid.UUID `json:"student_id"`
	AcademicYear string    `json:"academic_year"`
	CurrentTerm  string    `json:"current_term"`
	fees.FeeSchedule
	Quota *models.QuotaType `json:"quota,omitempty"`
}

type PaymentHistory struct {
	StudentID          uuid.UUID                `json:"student_id"`
	SemesterPayments   []models.SemesterPayment `json:"semester_payments"`
	EnrollmentPayments []models.Payment         `json:"enrollment_payments"`
	TotalPaid          float64                  `json:"total_paid"`
}

type CreatePaymentInput struct {
	StudentID           uuid.UUID
	PaymentType         string
	TermNumber          string
	RouteID             uuid.UUID
	StopName            string
	PaymentMethod       string
	Amount              float64
	PaymentStatus       string
	TransactionID       *string
	IsEnrollmentPayment bool
}

type CreatePaymentResult struct {
	PaymentID     uuid.UUID `json:"payment_id"`
	Amount        float64   `json:"amount"`
	PaymentType   string    `json:"payment_type"`
	CoversTerms   []string  `json:"covers_terms"`
	ValidFrom     string    `json:"valid_from"`
	ValidUntil    string    `json:"valid_until"`
	ReceiptColor  string    `json:"receipt_color"`
	ReceiptNumber string    `json:"receipt_number"`
	PaymentStatus string    `json:"payment_status"`
	Message       string    `json:"message"`
}

// studentFees is everything loaded for one student in the current academic year.
type studentFees struct {
	student        *models.Student
	info           fees.AcademicInfo
	schedule       fees.FeeSchedule
	payments       []models.SemesterPayment
	enrollment     []models.Payment
	enrollmentPaid bool
}

func (s *SemesterPaymentService) academicInfo() fees.AcademicInfo {
	return fees.CurrentAcademicInfo(s.Now())
}

func (s *SemesterPaymentService) findAllocatedStudent(ctx context.Context, studentID uuid.UUID) (*models.Student, error) {
	student, err := s.Store.FindStudent(ctx, studentID)
	if errors.Is(err, ErrNotFound) {
		return nil, ErrStudentNotFound
	}
	if err != nil {
		return nil, err
	}
	hasRoute := student.AllocatedRouteID != nil
	hasStop := student.BoardingStop != nil && strings.TrimSpace(*student.BoardingStop) != ""
	if !hasRoute || !hasStop {
		return nil, &NotAllocatedError{StudentID: studentID.String(), HasRoute: hasRoute, HasBoardingStop: hasStop}
	}
	return student, nil
}

// resolveSchedule prefers the quota fee and falls back to the per-stop table.
func (s *SemesterPaymentService) resolveSchedule(ctx context.Context, store PaymentStore, student *models.Student, routeID uuid.UUID, stopName, academicYear string) (fees.FeeSchedule, error) {
	if student.HasQuotaFee() {
		return fees.QuotaSchedule(student.Quota.AnnualFeeAmount, student.OutstandingAmount), nil
	}

	rows, err := store.ListSemesterFees(ctx, routeID, stopName, academicYear)
	if err != nil {
		return fees.FeeSchedule{}, err
	}
	legacy := make([]fees.LegacyFee, 0, len(rows))
	for _, r := range rows {
		legacy = append(legacy, fees.LegacyFee{ID: r.ID.String(), Semester: r.Semester, Amount: r.SemesterFee})
	}
	schedule, ok := fees.LegacySchedule(legacy, s.FullYearDiscountPercent)
	if !ok {
		return fees.FeeSchedule{}, ErrFeeStructureNotFound
	}
	return schedule, nil
}

func (s *SemesterPaymentService) load(ctx context.Context, studentID uuid.UUID) (*studentFees, error) {
	student, err := s.findAllocatedStudent(ctx, studentID)
	if err != nil {
		return nil, err
	}
	info := s.academicInfo()

	schedule, err := s.resolveSchedule(ctx, s.Store, student, *student.AllocatedRouteID, *student.BoardingStop, info.AcademicYear)
	if err != nil {
		return nil, err
	}

	payments, err := s.Store.ListSemesterPayments(ctx, studentID, info.AcademicYear, models.PaymentStatusConfirmed, models.PaymentStatusPending)
	if err != nil {
		return nil, err
	}
	enrollment, err := s.Store.ListEnrollmentPayments(ctx, studentID)
	if err != nil {
		return nil, err
	}

	var enrollmentTotal float64
	for _, p := range enrollment {
		enrollmentTotal += p.Amount
	}

	return &studentFees{
		student:        student,
		info:           info,
		schedule:       schedule,
		payments:       payments,
		enrollment:     enrollment,
		enrollmentPaid: fees.EnrollmentCovers(enrollmentTotal, schedule.AnnualFee),
	}, nil
}

func toExisting(payments []models.SemesterPayment) []fees.ExistingPayment {
	out := make([]fees.ExistingPayment, 0, len(payments))
	for _, p := range payments {
		out = append(out, fees.ExistingPayment{
			ID:          p.ID.String(),
			PaymentType: p.PaymentType,
			Semester:    p.Semester,
			CoversTerms: []string(p.CoversTerms),
			Status:      p.PaymentStatus,
			Amount:      p.AmountPaid,
			ValidFrom:   p.ValidFrom.Format("2006-01-02"),
			ValidUntil:  p.ValidUntil.Format("2006-01-02"),
		})
	}
	return out
}

func (s *SemesterPaymentService) summary(sf *studentFees) PaymentSummary {
	sum := PaymentSummary{AnnualFee: sf.schedule.AnnualFee, PaymentStatus: sf.student.PaymentStatus}
	if sf.student.Quota != nil {
		sum.QuotaName = sf.student.Quota.Name
	}

	if sf.schedule.Source == fees.SourceQuota {
		sum.OutstandingAmount = math.Max(sf.student.OutstandingAmount, 0)
		sum.PaidAmount = math.Max(sf.schedule.AnnualFee-sum.OutstandingAmount, 0)
		return sum
	}

	if sf.enrollmentPaid {
		sum.PaidAmount = sf.schedule.AnnualFee
	} else {
		for _, p := range sf.payments {
			if p.PaymentStatus == models.PaymentStatusConfirmed {
				sum.PaidAmount += p.AmountPaid
			}
		}
	}
	sum.OutstandingAmount = math.Max(sf.schedule.AnnualFee-sum.PaidAmount, 0)
	return sum
}

func routeInfo(route *models.Route, boardingStop string) *RouteInfo {
	if route == nil {
		return nil
	}
	return &RouteInfo{
		ID:            route.ID,
		RouteNumber:   route.RouteNumber,
		RouteName:     route.RouteName,
		StartLocation: route.StartLocation,
		EndLocation:   route.EndLocation,
		DepartureTime: route.DepartureTime,
		BoardingStop:  boardingStop,
	}
}

// AvailableOptions builds the payment menu for a student.
func (s *SemesterPaymentService) AvailableOptions(ctx context.Context, studentID uuid.UUID) (*AvailableOptions, error) {
	sf, err := s.load(ctx, studentID)
	if err != nil {
		return nil, err
	}

	existing := toExisting(sf.payments)
	termStatus := fees.FoldTermStatus(sf.enrollmentPaid, existing)
	summary := s.summary(sf)

	var options []fees.Option
	if sf.schedule.Source == fees.SourceQuota {
		enrollment := make([]fees.EnrollmentRecord, 0, len(sf.enrollment))
		for _, e := range sf.enrollment {
			enrollment = append(enrollment, fees.EnrollmentRecord{ID: e.ID.String(), Amount: e.Amount, Status: e.Status})
		}
		options = fees.BuildQuotaOptions(fees.QuotaMenuInput{
			AcademicYear: sf.info.AcademicYear,
			CurrentTerm:  sf.info.CurrentTerm,
			AnnualFee:    sf.schedule.AnnualFee,
			Outstanding:  summary.OutstandingAmount,
			Payments:     existing,
			Enrollment:   enrollment,
		})
	} else {
		options = fees.BuildLegacyOptions(fees.LegacyMenuInput{
			AcademicYear: sf.info.AcademicYear,
			Schedule:     sf.schedule,
			TermStatus:   termStatus,
		})
	}

	return &AvailableOptions{
		StudentID:             sf.student.ID,
		StudentName:           sf.student.StudentName,
		AcademicYear:          sf.info.AcademicYear,
		CurrentTerm:           sf.info.CurrentTerm,
		FeeSource:             sf.schedule.Source,
		Route:                 routeInfo(sf.student.Route, *sf.student.BoardingStop),
		Options:               options,
		TermStatus:            termStatus,
		EnrollmentPaymentMade: sf.enrollmentPaid,
		PaymentSummary:        summary,
	}, nil
}

func (s *SemesterPaymentService) FeeStructure(ctx context.Context, studentID uuid.UUID) (*FeeStructure, error) {
	student, err := s.findAllocatedStudent(ctx, studentID)
	if err != nil {
		return nil, err
	}
	info := s.academicInfo()
	schedule, err := s.resolveSchedule(ctx, s.Store, student, *student.AllocatedRouteID, *student.BoardingStop, info.AcademicYear)
	if err != nil {
		return nil, err
	}
	return &FeeStructure{
		StudentID:    student.ID,
		AcademicYear: info.AcademicYear,
		CurrentTerm:  info.CurrentTerm,
		FeeSchedule:  schedule,
		Quota:        student.Quota,
	}, nil
}

// PaymentHistory lists every semester and enrollment payment of a student,
// across academic years.
func (s *SemesterPaymentService) PaymentHistory(ctx context.Context, studentID uuid.UUID) (*PaymentHistory, error) {
	if _, err := s.Store.FindStudent(ctx, studentID); err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrStudentNotFound
		}
		return nil, err
	}
	payments, err := s.Store.ListSemesterPayments(ctx, studentID, "")
	if err != nil {
		return nil, err
	}
	enrollment, err := s.Store.ListEnrollmentPayments(ctx, studentID)
	if err != nil {
		return nil, err
	}

	h := &PaymentHistory{
		StudentID:          studentID,
		SemesterPayments:   payments,
		EnrollmentPayments: enrollment,
	}
	for _, p := range payments {
		if p.PaymentStatus == models.PaymentStatusConfirmed {
			h.TotalPaid += p.AmountPaid
		}
	}
	for _, p := range enrollment {
		h.TotalPaid += p.Amount
	}
	return h, nil
}

func validPaymentType(t string) bool {
	switch t {
	case fees.TypeTerm, fees.TypeFullYear, fees.TypeOutstanding, fees.TypeCustom:
		return true
	}
	return false
}

// CreatePayment records a semester payment. The eligibility check, the insert
// and the balance update share one transaction that holds the student row lock.
func (s *SemesterPaymentService) CreatePayment(ctx context.Context, in CreatePaymentInput) (*CreatePaymentResult, error) {
	if !validPaymentType(in.PaymentType) {
		return nil, ErrInvalidPaymentType
	}
	if in.PaymentType == fees.TypeTerm && !fees.IsTerm(in.TermNumber) {
		return nil, ErrInvalidTerm
	}

	info := s.academicInfo()
	var result *CreatePaymentResult

	err := s.Store.Transaction(ctx, func(tx PaymentStore) error {
		student, err := tx.LockStudent(ctx, in.StudentID)
		if errors.Is(err, ErrNotFound) {
			return ErrStudentNotFound
		}
		if err != nil {
			return err
		}

		existing, err := tx.ListSemesterPayments(ctx, student.ID, info.AcademicYear, models.PaymentStatusConfirmed, models.PaymentStatusPending)
		if err != nil {
			return err
		}
		verdict := fees.ValidatePaymentEligibility(toExisting(existing), in.PaymentType, in.TermNumber)
		if !verdict.IsValid {
			return &EligibilityError{Reason: verdict.Reason}
		}

		schedule, err := s.resolveSchedule(ctx, tx, student, in.RouteID, in.StopName, info.AcademicYear)
		if err != nil {
			return err
		}

		outstanding := student.OutstandingAmount
		if schedule.Source == fees.SourceLegacy {
			outstanding = legacyOutstanding(schedule, existing)
		}

		plan, err := fees.ResolvePaymentPlan(schedule, fees.PlanRequest{
			PaymentType:     in.PaymentType,
			TermNumber:      in.TermNumber,
			RequestedAmount: in.Amount,
			IsEnrollment:    in.IsEnrollmentPayment,
		}, outstanding, info.CurrentTerm)
		switch {
		case errors.Is(err, fees.ErrBalanceSettled):
			return &EligibilityError{Reason: "No outstanding balance to pay"}
		case errors.Is(err, fees.ErrNonPositiveAmount):
			return ErrInvalidAmount
		case errors.Is(err, fees.ErrInvalidTerm):
			return ErrInvalidTerm
		case errors.Is(err, fees.ErrUnknownPaymentType):
			return ErrInvalidPaymentType
		case err != nil:
			return err
		}

		validity := fees.CalculateValidityPeriod(plan.ValidityTerms, info.AcademicYear)
		validFrom, validUntil, err := validity.Times()
		if err != nil {
			return fmt.Errorf("validity for %s: %w", info.AcademicYear, err)
		}

		var feeID *uuid.UUID
		if plan.FeeRef != "" {
			id, err := uuid.Parse(plan.FeeRef)
			if err != nil {
				return fmt.Errorf("semester fee id %q: %w", plan.FeeRef, err)
			}
			feeID = &id
		}
		if schedule.Source == fees.SourceLegacy && feeID == nil {
			return ErrFeeRecordNotFound
		}

		status := models.PaymentStatusPending
		if in.IsEnrollmentPayment || in.PaymentStatus == models.PaymentStatusConfirmed {
			status = models.PaymentStatusConfirmed
		}
		method := in.PaymentMethod
		if method == "" {
			method = "online"
		}

		payment := &models.SemesterPayment{
			StudentID:           student.ID,
			AllocatedRouteID:    in.RouteID,
			StopName:            in.StopName,
			AcademicYear:        info.AcademicYear,
			Semester:            plan.Semester,
			PaymentType:         in.PaymentType,
			CoversTerms:         plan.CoversTerms,
			SemesterFeeID:       feeID,
			AmountPaid:          plan.Amount,
			PaymentMethod:       method,
			PaymentStatus:       status,
			TransactionID:       in.TransactionID,
			ValidFrom:           validFrom,
			ValidUntil:          validUntil,
			ReceiptColor:        fees.ReceiptColor(in.PaymentType, plan.CoversTerms),
			IsEnrollmentPayment: in.IsEnrollmentPayment,
		}
		if status == models.PaymentStatusConfirmed {
			now := s.Now()
			payment.ConfirmedAt = &now
		}
		if err := tx.CreateSemesterPayment(ctx, payment); err != nil {
			return err
		}

		receiptNumber, err := utils.GenerateUniqueReceiptNumber(validFrom.Year(), func(n string) (bool, error) {
			return tx.ReceiptNumberExists(ctx, n)
		})
		if err != nil {
			return err
		}
		if err := tx.CreateReceipt(ctx, &models.PaymentReceipt{
			SemesterPaymentID: payment.ID,
			StudentID:         student.ID,
			ReceiptNumber:     receiptNumber,
			ReceiptColor:      payment.ReceiptColor,
		}); err != nil {
			return err
		}

		if schedule.Source == fees.SourceQuota {
			remaining := math.Max(student.OutstandingAmount-plan.Amount, 0)
			paymentStatus := models.StudentPaymentCurrent
			if remaining > 0 {
				paymentStatus = models.StudentPaymentOverdue
			}
			if err := tx.UpdateStudentBalance(ctx, student.ID, remaining, paymentStatus); err != nil {
				return err
			}
		}

		result = &CreatePaymentResult{
			PaymentID:     payment.ID,
			Amount:        payment.AmountPaid,
			PaymentType:   payment.PaymentType,
			CoversTerms:   plan.CoversTerms,
			ValidFrom:     validity.ValidFrom,
			ValidUntil:    validity.ValidUntil,
			ReceiptColor:  payment.ReceiptColor,
			ReceiptNumber: receiptNumber,
			PaymentStatus: status,
			Message:       fmt.Sprintf("Payment recorded for %s", fees.GetTermDescription(plan.ValidityTerms, info.AcademicYear)),
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Printf("✅ Semester payment %s recorded for student %s (%s, ₹%.2f)", result.PaymentID, in.StudentID, result.PaymentType, result.Amount)
	return result, nil
}

func legacyOutstanding(schedule fees.FeeSchedule, existing []models.SemesterPayment) float64 {
	paid := 0.0
	for _, p := range existing {
		if p.PaymentStatus == models.PaymentStatusConfirmed {
			paid += p.AmountPaid
		}
	}
	return math.Max(schedule.AnnualFee-paid, 0)
}

// ConfirmPayment moves a pending payment to confirmed. Confirming twice is a
// no-op. The payment must still pass the eligibility rules against the other
// confirmed payments of its academic year.
func (s *SemesterPaymentService) ConfirmPayment(ctx context.Context, paymentID, staffID uuid.UUID) (*models.SemesterPayment, error) {
	var confirmed *models.SemesterPayment
	err := s.Store.Transaction(ctx, func(tx PaymentStore) error {
		payment, err := tx.FindSemesterPayment(ctx, paymentID)
		if errors.Is(err, ErrNotFound) {
			return ErrPaymentNotFound
		}
		if err != nil {
			return err
		}
		if _, err := tx.LockStudent(ctx, payment.StudentID); err != nil {
			return err
		}
		if payment.PaymentStatus == models.PaymentStatusConfirmed {
			confirmed = payment
			return nil
		}

		confirmedYear, err := tx.ListSemesterPayments(ctx, payment.StudentID, payment.AcademicYear, models.PaymentStatusConfirmed)
		if err != nil {
			return err
		}
		others := make([]models.SemesterPayment, 0, len(confirmedYear))
		for _, o := range confirmedYear {
			if o.ID != payment.ID {
				others = append(others, o)
			}
		}
		verdict := fees.ValidatePaymentEligibility(toExisting(others), payment.PaymentType, payment.Semester)
		if !verdict.IsValid {
			return &EligibilityError{Reason: verdict.Reason}
		}

		now := s.Now()
		payment.PaymentStatus = models.PaymentStatusConfirmed
		payment.ConfirmedAt = &now
		payment.ConfirmedBy = &staffID
		if err := tx.SaveSemesterPayment(ctx, payment); err != nil {
			return err
		}
		confirmed = payment
		return nil
	})
	if err != nil {
		return nil, err
	}
	return confirmed, nil
}

func (s *SemesterPaymentService) ListPendingPayments(ctx context.Context, olderThan time.Duration) ([]models.SemesterPayment, error) {
	return s.Store.ListPendingPayments(ctx, s.Now().Add(-olderThan))
}

// ActivePayment returns the confirmed payment covering today, if any.
func (s *SemesterPaymentService) ActivePayment(ctx context.Context, studentID uuid.UUID) (*models.SemesterPayment, error) {
	payments, err := s.Store.ListSemesterPayments(ctx, studentID, "", models.PaymentStatusConfirmed)
	if err != nil {
		return nil, err
	}
	today := s.Now()
	for i := len(payments) - 1; i >= 0; i-- {
		if payments[i].ActiveOn(today) {
			return &payments[i], nil
		}
	}
	return nil, ErrPaymentNotFound
}
