package fees

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQuotaSchedule(t *testing.T) {
	s := QuotaSchedule(20000, 20000)
	assert.Equal(t, SourceQuota, s.Source)
	assert.Equal(t, 6667.0, s.TermFees[Term1])
	assert.Equal(t, 6667.0, s.TermDisplayAmount)
	assert.Equal(t, 20000.0, s.FullYearFee)

	partial := QuotaSchedule(20000, 9000)
	assert.Equal(t, 3000.0, partial.TermDisplayAmount)
	assert.Equal(t, 6667.0, partial.TermFees[Term2])
}

func TestLegacySchedule(t *testing.T) {
	rows := []LegacyFee{
		{ID: "a", Semester: "1", Amount: 5000},
		{ID: "b", Semester: "2", Amount: 5000},
		{ID: "c", Semester: "3", Amount: 6000},
		{ID: "dup", Semester: "1", Amount: 9999},
		{ID: "junk", Semester: "summer", Amount: 100},
	}
	s, ok := LegacySchedule(rows, 5)
	require.True(t, ok)
	assert.Equal(t, 16000.0, s.AnnualFee)
	assert.Equal(t, 15200.0, s.FullYearFee)
	assert.Equal(t, "a", s.FeeRefs[Term1])
	assert.Equal(t, "c", s.FeeRefFor(Term3))

	_, ok = LegacySchedule(nil, 5)
	assert.False(t, ok)
	_, ok = LegacySchedule([]LegacyFee{{Semester: "x", Amount: 1}}, 5)
	assert.False(t, ok)
}

func TestFeeRefForFallsBack(t *testing.T) {
	s, ok := LegacySchedule([]LegacyFee{{ID: "only", Semester: "2", Amount: 10}}, 0)
	require.True(t, ok)
	assert.Equal(t, "only", s.FeeRefFor(Term1))
	assert.Equal(t, "", QuotaSchedule(100, 100).FeeRefFor(Term1))
}

func TestEnrollmentCovers(t *testing.T) {
	assert.True(t, EnrollmentCovers(18000, 20000))
	assert.True(t, EnrollmentCovers(17999.5, 20000))
	assert.False(t, EnrollmentCovers(17500, 20000))
	assert.True(t, EnrollmentCovers(20000, 20000))
	assert.False(t, EnrollmentCovers(500, 0))
}

func TestFoldTermStatusEnrollment(t *testing.T) {
	got := FoldTermStatus(true, nil)
	for _, term := range AllTerms {
		assert.Equal(t, TermStatus{IsPaid: true, Status: StatusConfirmed}, got[term])
	}
}

func TestFoldTermStatus(t *testing.T) {
	payments := []ExistingPayment{
		{ID: "p1", PaymentType: TypeTerm, CoversTerms: []string{"1"}, Status: StatusConfirmed},
		{ID: "p2", PaymentType: TypeTerm, Semester: "2", Status: StatusPending},
		{ID: "p3", PaymentType: TypeCustom, Semester: "custom", Status: StatusConfirmed},
	}
	got := FoldTermStatus(false, payments)
	assert.Equal(t, TermStatus{IsPaid: true, Status: StatusConfirmed, PaymentID: "p1"}, got[Term1])
	assert.Equal(t, TermStatus{IsPaid: true, Status: StatusPending, PaymentID: "p2"}, got[Term2])
	assert.Equal(t, TermStatus{}, got[Term3])
}

func TestFoldTermStatusFullYearKeepsConfirmed(t *testing.T) {
	payments := []ExistingPayment{
		{ID: "t1", PaymentType: TypeTerm, CoversTerms: []string{"1"}, Status: StatusConfirmed},
		{ID: "fy", PaymentType: TypeFullYear, CoversTerms: AllTerms, Status: StatusPending},
		{ID: "failed", PaymentType: TypeTerm, CoversTerms: []string{"3"}, Status: "failed"},
	}
	got := FoldTermStatus(false, payments)
	assert.Equal(t, "t1", got[Term1].PaymentID)
	assert.Equal(t, StatusConfirmed, got[Term1].Status)
	assert.Equal(t, "fy", got[Term2].PaymentID)
	assert.Equal(t, StatusPending, got[Term3].Status)
}
