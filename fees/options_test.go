package fees

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func kinds(options []Option) []OptionKind {
	out := make([]OptionKind, 0, len(options))
	for _, o := range options {
		out = append(out, o.Kind())
	}
	return out
}

func TestBuildQuotaOptionsFullyPaid(t *testing.T) {
	options := BuildQuotaOptions(QuotaMenuInput{
		AcademicYear: "2025-26",
		CurrentTerm:  Term1,
		AnnualFee:    20000,
		Outstanding:  0,
		Payments: []ExistingPayment{
			{ID: "p1", PaymentType: TypeFullYear, Status: StatusConfirmed, Amount: 20000},
		},
	})
	require.Len(t, options, 1)
	full, ok := options[0].(FullYearOption)
	require.True(t, ok)
	assert.True(t, full.IsPaid)
	assert.Equal(t, "2025-06-01", full.ValidFrom)
	assert.Equal(t, "2026-05-31", full.ValidUntil)
}

func TestBuildQuotaOptionsWithBalance(t *testing.T) {
	options := BuildQuotaOptions(QuotaMenuInput{
		AcademicYear: "2025-26",
		CurrentTerm:  Term2,
		AnnualFee:    20000,
		Outstanding:  12000,
		Payments: []ExistingPayment{
			{ID: "p1", PaymentType: TypeTerm, CoversTerms: []string{"1"}, Status: StatusConfirmed, Amount: 6667},
			{ID: "p2", PaymentType: TypeCustom, Semester: TypeCustom, Status: StatusPending, Amount: 1333},
		},
		Enrollment: []EnrollmentRecord{{ID: "e1", Amount: 1000, Status: "completed"}},
	})
	assert.Equal(t, []OptionKind{KindEnrollment, KindTerm, KindCustom, KindCustom, KindOutstanding}, kinds(options))

	live := options[3].(CustomOption)
	assert.False(t, live.IsPaid)
	assert.Equal(t, 12000.0, live.MaxAmount)

	out := options[4].(OutstandingOption)
	assert.Equal(t, 12000.0, out.Amount)
	assert.False(t, out.IsPaid)
}

func TestBuildLegacyOptions(t *testing.T) {
	s, ok := LegacySchedule([]LegacyFee{
		{ID: "a", Semester: "1", Amount: 5000},
		{ID: "b", Semester: "2", Amount: 5000},
		{ID: "c", Semester: "3", Amount: 5000},
	}, 5)
	require.True(t, ok)

	fresh := BuildLegacyOptions(LegacyMenuInput{AcademicYear: "2025-26", Schedule: s, TermStatus: FoldTermStatus(false, nil)})
	require.Len(t, fresh, 4)
	full := fresh[3].(FullYearOption)
	assert.True(t, full.IsAvailable)
	assert.Equal(t, 14250.0, full.Amount)
	assert.Equal(t, 15000.0, full.OriginalAmount)

	status := FoldTermStatus(false, []ExistingPayment{{ID: "p", PaymentType: TypeTerm, CoversTerms: []string{"1"}, Status: StatusPending}})
	partial := BuildLegacyOptions(LegacyMenuInput{AcademicYear: "2025-26", Schedule: s, TermStatus: status})
	t1 := partial[0].(TermOption)
	assert.True(t, t1.IsPaid)
	assert.False(t, t1.IsAvailable)
	assert.Equal(t, StatusPending, t1.Status)
	assert.True(t, partial[1].(TermOption).IsAvailable)
	assert.False(t, partial[3].(FullYearOption).IsAvailable)
}

func TestOptionJSONCarriesPaymentType(t *testing.T) {
	options := []Option{
		TermOption{Term: "1", Amount: 10},
		FullYearOption{Amount: 30},
		OutstandingOption{Amount: 5},
		CustomOption{MaxAmount: 5},
		EnrollmentOption{Amount: 1, PaymentID: "e"},
	}
	raw, err := json.Marshal(options)
	require.NoError(t, err)

	var decoded []map[string]any
	require.NoError(t, json.Unmarshal(raw, &decoded))
	require.Len(t, decoded, 5)
	want := []string{"term", "full_year", "outstanding", "custom", "enrollment"}
	for i, d := range decoded {
		assert.Equal(t, want[i], d["payment_type"])
	}
	assert.Equal(t, "1", decoded[0]["term"])
	assert.Equal(t, 5.0, decoded[3]["max_amount"])
}
