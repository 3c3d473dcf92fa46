package services_test

import (
	"context"
	"regexp"
	"sync"
	"testing"
	"time"

	"github.com/campusride/transport_portal/database/inmem"
	"github.com/campusride/transport_portal/fees"
	"github.com/campusride/transport_portal/models"
	"github.com/campusride/transport_portal/services"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var july2025 = time.Date(2025, time.July, 15, 10, 0, 0, 0, time.UTC)

type fixture struct {
	store   *inmem.PaymentStore
	svc     *services.SemesterPaymentService
	route   *models.Route
	stop    string
	student *models.Student
}

func strPtr(s string) *string { return &s }

func newFixture(t *testing.T, quotaFee, outstanding float64) *fixture {
	t.Helper()
	store := inmem.NewPaymentStore()
	route := store.AddRoute(models.Route{RouteNumber: "R-12", RouteName: "City Centre", StartLocation: "Depot", EndLocation: "Campus"})
	stop := "Gandhi Nagar"

	st := models.Student{
		StudentName:       "Asha Kumar",
		Email:             "asha@example.edu",
		AllocatedRouteID:  &route.ID,
		BoardingStop:      strPtr(stop),
		OutstandingAmount: outstanding,
		PaymentStatus:     models.StudentPaymentPending,
	}
	if quotaFee > 0 {
		st.Quota = &models.QuotaType{Name: "Management", Code: "MGMT", AnnualFeeAmount: quotaFee}
	}
	student := store.AddStudent(st)

	svc := services.NewSemesterPaymentService(store, fees.DefaultFullYearDiscountPercent)
	svc.Now = func() time.Time { return july2025 }
	return &fixture{store: store, svc: svc, route: route, stop: stop, student: student}
}

func (f *fixture) addLegacyFees(amounts ...float64) {
	for i, a := range amounts {
		f.store.AddSemesterFee(models.SemesterFee{
			AllocatedRouteID: f.route.ID,
			StopName:         f.stop,
			AcademicYear:     "2025-26",
			Semester:         fees.AllTerms[i],
			SemesterFee:      a,
			IsActive:         true,
		})
	}
}

func (f *fixture) input(paymentType, term string) services.CreatePaymentInput {
	return services.CreatePaymentInput{
		StudentID:     f.student.ID,
		PaymentType:   paymentType,
		TermNumber:    term,
		RouteID:       f.route.ID,
		StopName:      f.stop,
		PaymentMethod: "upi",
	}
}

func TestAvailableOptions_FullyPaidQuotaStudent(t *testing.T) {
	f := newFixture(t, 20000, 0)

	res, err := f.svc.AvailableOptions(context.Background(), f.student.ID)
	require.NoError(t, err)

	assert.Equal(t, "2025-26", res.AcademicYear)
	assert.Equal(t, fees.Term1, res.CurrentTerm)
	assert.Equal(t, fees.SourceQuota, res.FeeSource)
	require.Len(t, res.Options, 1)
	full, ok := res.Options[0].(fees.FullYearOption)
	require.True(t, ok)
	assert.True(t, full.IsPaid)
	assert.Equal(t, float64(0), res.PaymentSummary.OutstandingAmount)
	assert.Equal(t, float64(20000), res.PaymentSummary.PaidAmount)
	assert.Equal(t, "Management", res.PaymentSummary.QuotaName)
	require.NotNil(t, res.Route)
	assert.Equal(t, "Gandhi Nagar", res.Route.BoardingStop)
}

func TestAvailableOptions_EnrollmentCoversYear(t *testing.T) {
	f := newFixture(t, 0, 0)
	f.addLegacyFees(6667, 6667, 6666)
	f.store.AddEnrollmentPayment(models.Payment{StudentID: f.student.ID, Amount: 18000, Status: models.EnrollmentPaymentCompleted})

	res, err := f.svc.AvailableOptions(context.Background(), f.student.ID)
	require.NoError(t, err)

	assert.True(t, res.EnrollmentPaymentMade)
	for _, term := range fees.AllTerms {
		assert.True(t, res.TermStatus[term].IsPaid, "term %s", term)
	}
	assert.Equal(t, float64(20000), res.PaymentSummary.PaidAmount)
}

func TestAvailableOptions_QuotaWithBalanceListsCustomAndOutstanding(t *testing.T) {
	f := newFixture(t, 20000, 12000)

	res, err := f.svc.AvailableOptions(context.Background(), f.student.ID)
	require.NoError(t, err)

	var kinds []fees.OptionKind
	for _, o := range res.Options {
		kinds = append(kinds, o.Kind())
	}
	assert.Equal(t, []fees.OptionKind{fees.KindCustom, fees.KindOutstanding}, kinds)
	assert.Equal(t, float64(8000), res.PaymentSummary.PaidAmount)
}

func TestAvailableOptions_Errors(t *testing.T) {
	t.Run("unknown student", func(t *testing.T) {
		f := newFixture(t, 20000, 0)
		_, err := f.svc.AvailableOptions(context.Background(), uuid.New())
		assert.ErrorIs(t, err, services.ErrStudentNotFound)
	})

	t.Run("no boarding stop", func(t *testing.T) {
		f := newFixture(t, 20000, 0)
		f.store.Students[f.student.ID].BoardingStop = nil

		_, err := f.svc.AvailableOptions(context.Background(), f.student.ID)
		var notAllocated *services.NotAllocatedError
		require.ErrorAs(t, err, &notAllocated)
		assert.True(t, notAllocated.HasRoute)
		assert.False(t, notAllocated.HasBoardingStop)
	})

	t.Run("no fee structure", func(t *testing.T) {
		f := newFixture(t, 0, 0)
		_, err := f.svc.AvailableOptions(context.Background(), f.student.ID)
		assert.ErrorIs(t, err, services.ErrFeeStructureNotFound)
	})
}

func TestCreatePayment_QuotaTermOne(t *testing.T) {
	f := newFixture(t, 20000, 20000)

	res, err := f.svc.CreatePayment(context.Background(), f.input(fees.TypeTerm, fees.Term1))
	require.NoError(t, err)

	assert.Equal(t, float64(6667), res.Amount)
	assert.Equal(t, []string{"1"}, res.CoversTerms)
	assert.Equal(t, "2025-06-01", res.ValidFrom)
	assert.Equal(t, "2025-10-07", res.ValidUntil)
	assert.Equal(t, "blue", res.ReceiptColor)
	assert.Equal(t, models.PaymentStatusPending, res.PaymentStatus)
	assert.Regexp(t, regexp.MustCompile(`^TR-2025-[A-Z2-9]{8}$`), res.ReceiptNumber)

	st := f.store.Students[f.student.ID]
	assert.Equal(t, float64(13333), st.OutstandingAmount)
	assert.Equal(t, models.StudentPaymentOverdue, st.PaymentStatus)
	require.Len(t, f.store.Receipts, 1)
	assert.Equal(t, res.PaymentID, f.store.Receipts[0].SemesterPaymentID)
}

func TestCreatePayment_CustomAmountIsClampedToBalance(t *testing.T) {
	f := newFixture(t, 20000, 3000)
	in := f.input(fees.TypeCustom, "")
	in.Amount = 5000

	res, err := f.svc.CreatePayment(context.Background(), in)
	require.NoError(t, err)

	assert.Equal(t, float64(3000), res.Amount)
	assert.Empty(t, res.CoversTerms)
	assert.Equal(t, "purple", res.ReceiptColor)
	st := f.store.Students[f.student.ID]
	assert.Equal(t, float64(0), st.OutstandingAmount)
	assert.Equal(t, models.StudentPaymentCurrent, st.PaymentStatus)
}

func TestCreatePayment_FullYearAfterConfirmedTermIsRejected(t *testing.T) {
	f := newFixture(t, 0, 0)
	f.addLegacyFees(6000, 6000, 6000)

	in := f.input(fees.TypeTerm, fees.Term1)
	in.PaymentStatus = models.PaymentStatusConfirmed
	_, err := f.svc.CreatePayment(context.Background(), in)
	require.NoError(t, err)

	_, err = f.svc.CreatePayment(context.Background(), f.input(fees.TypeFullYear, ""))
	var elig *services.EligibilityError
	require.ErrorAs(t, err, &elig)
	assert.Equal(t, "Cannot pay full year after individual term payments", elig.Reason)
	assert.Len(t, f.store.Payments, 1)
}

func TestCreatePayment_LegacyFullYearDiscount(t *testing.T) {
	f := newFixture(t, 0, 0)
	f.addLegacyFees(6000, 6000, 6000)

	res, err := f.svc.CreatePayment(context.Background(), f.input(fees.TypeFullYear, ""))
	require.NoError(t, err)
	assert.Equal(t, float64(17100), res.Amount)
	assert.Equal(t, "green", res.ReceiptColor)
	assert.Equal(t, "2025-06-01", res.ValidFrom)
	assert.Equal(t, "2026-05-31", res.ValidUntil)
	require.NotNil(t, f.store.Payments[0].SemesterFeeID)
}

func TestCreatePayment_RejectsBadInput(t *testing.T) {
	f := newFixture(t, 20000, 20000)

	_, err := f.svc.CreatePayment(context.Background(), f.input("weekly", ""))
	assert.ErrorIs(t, err, services.ErrInvalidPaymentType)

	_, err = f.svc.CreatePayment(context.Background(), f.input(fees.TypeTerm, "4"))
	assert.ErrorIs(t, err, services.ErrInvalidTerm)

	in := f.input(fees.TypeCustom, "")
	in.Amount = 0
	_, err = f.svc.CreatePayment(context.Background(), in)
	assert.ErrorIs(t, err, services.ErrInvalidAmount)
	assert.Empty(t, f.store.Payments)
	assert.Empty(t, f.store.Receipts)
}

func TestCreatePayment_ConcurrentRequestsConfirmOnce(t *testing.T) {
	f := newFixture(t, 0, 0)
	f.addLegacyFees(6000, 6000, 6000)

	const n = 8
	var wg sync.WaitGroup
	errs := make([]error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			in := f.input(fees.TypeTerm, fees.Term2)
			in.PaymentStatus = models.PaymentStatusConfirmed
			_, errs[i] = f.svc.CreatePayment(context.Background(), in)
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		var elig *services.EligibilityError
		assert.ErrorAs(t, err, &elig)
	}
	assert.Equal(t, 1, succeeded)
	assert.Len(t, f.store.Payments, 1)
}

func TestConfirmPayment(t *testing.T) {
	f := newFixture(t, 0, 0)
	f.addLegacyFees(6000, 6000, 6000)
	staff := uuid.New()

	res, err := f.svc.CreatePayment(context.Background(), f.input(fees.TypeFullYear, ""))
	require.NoError(t, err)

	confirmed, err := f.svc.ConfirmPayment(context.Background(), res.PaymentID, staff)
	require.NoError(t, err)
	assert.Equal(t, models.PaymentStatusConfirmed, confirmed.PaymentStatus)
	require.NotNil(t, confirmed.ConfirmedBy)
	assert.Equal(t, staff, *confirmed.ConfirmedBy)

	again, err := f.svc.ConfirmPayment(context.Background(), res.PaymentID, uuid.New())
	require.NoError(t, err)
	assert.Equal(t, staff, *again.ConfirmedBy)

	_, err = f.svc.ConfirmPayment(context.Background(), uuid.New(), staff)
	assert.ErrorIs(t, err, services.ErrPaymentNotFound)
}

func TestConfirmPayment_SecondFullYearIsRefused(t *testing.T) {
	f := newFixture(t, 0, 0)
	f.addLegacyFees(6000, 6000, 6000)
	staff := uuid.New()

	first, err := f.svc.CreatePayment(context.Background(), f.input(fees.TypeFullYear, ""))
	require.NoError(t, err)
	second, err := f.svc.CreatePayment(context.Background(), f.input(fees.TypeFullYear, ""))
	require.NoError(t, err)

	_, err = f.svc.ConfirmPayment(context.Background(), first.PaymentID, staff)
	require.NoError(t, err)
	_, err = f.svc.ConfirmPayment(context.Background(), second.PaymentID, staff)
	var elig *services.EligibilityError
	assert.ErrorAs(t, err, &elig)
}

func confirmedCount(store *inmem.PaymentStore) int {
	n := 0
	for _, p := range store.Payments {
		if p.PaymentStatus == models.PaymentStatusConfirmed {
			n++
		}
	}
	return n
}

func TestConfirmPayment_RechecksEligibility(t *testing.T) {
	tests := []struct {
		name       string
		first      [2]string
		second     [2]string
		wantReason string
	}{
		{
			name:       "same term twice",
			first:      [2]string{fees.TypeTerm, fees.Term1},
			second:     [2]string{fees.TypeTerm, fees.Term1},
			wantReason: "Term 1 payment already completed",
		},
		{
			name:       "full year after term",
			first:      [2]string{fees.TypeTerm, fees.Term1},
			second:     [2]string{fees.TypeFullYear, ""},
			wantReason: "Cannot pay full year after individual term payments",
		},
		{
			name:       "term after full year",
			first:      [2]string{fees.TypeFullYear, ""},
			second:     [2]string{fees.TypeTerm, fees.Term2},
			wantReason: "Full year payment already completed",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, 0, 0)
			f.addLegacyFees(6000, 6000, 6000)
			staff := uuid.New()

			first, err := f.svc.CreatePayment(context.Background(), f.input(tt.first[0], tt.first[1]))
			require.NoError(t, err)
			second, err := f.svc.CreatePayment(context.Background(), f.input(tt.second[0], tt.second[1]))
			require.NoError(t, err)

			_, err = f.svc.ConfirmPayment(context.Background(), first.PaymentID, staff)
			require.NoError(t, err)
			_, err = f.svc.ConfirmPayment(context.Background(), second.PaymentID, staff)
			var elig *services.EligibilityError
			require.ErrorAs(t, err, &elig)
			assert.Equal(t, tt.wantReason, elig.Reason)
			assert.Equal(t, 1, confirmedCount(f.store))
		})
	}
}

func TestCreatePayment_SettledQuotaStudentCannotPayMore(t *testing.T) {
	f := newFixture(t, 20000, 0)

	custom := f.input(fees.TypeCustom, "")
	custom.Amount = 5000
	_, err := f.svc.CreatePayment(context.Background(), custom)
	var elig *services.EligibilityError
	require.ErrorAs(t, err, &elig)
	assert.Equal(t, "No outstanding balance to pay", elig.Reason)

	_, err = f.svc.CreatePayment(context.Background(), f.input(fees.TypeFullYear, ""))
	require.ErrorAs(t, err, &elig)

	assert.Empty(t, f.store.Payments)
	assert.Empty(t, f.store.Receipts)
}

func TestPaymentHistoryAndActivePayment(t *testing.T) {
	f := newFixture(t, 20000, 20000)
	in := f.input(fees.TypeTerm, fees.Term1)
	in.PaymentStatus = models.PaymentStatusConfirmed
	_, err := f.svc.CreatePayment(context.Background(), in)
	require.NoError(t, err)
	f.store.AddEnrollmentPayment(models.Payment{StudentID: f.student.ID, Amount: 500, Status: models.EnrollmentPaymentCompleted})

	h, err := f.svc.PaymentHistory(context.Background(), f.student.ID)
	require.NoError(t, err)
	assert.Len(t, h.SemesterPayments, 1)
	assert.Len(t, h.EnrollmentPayments, 1)
	assert.Equal(t, float64(7167), h.TotalPaid)

	active, err := f.svc.ActivePayment(context.Background(), f.student.ID)
	require.NoError(t, err)
	assert.Equal(t, fees.TypeTerm, active.PaymentType)

	f.svc.Now = func() time.Time { return time.Date(2025, time.November, 1, 0, 0, 0, 0, time.UTC) }
	_, err = f.svc.ActivePayment(context.Background(), f.student.ID)
	assert.ErrorIs(t, err, services.ErrPaymentNotFound)
}
