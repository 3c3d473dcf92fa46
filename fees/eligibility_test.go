package fees

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidatePaymentEligibility(t *testing.T) {
	confirmedFull := ExistingPayment{PaymentType: TypeFullYear, CoversTerms: AllTerms, Status: StatusConfirmed}
	pendingFull := ExistingPayment{PaymentType: TypeFullYear, CoversTerms: AllTerms, Status: StatusPending}
	confirmedT1 := ExistingPayment{PaymentType: TypeTerm, CoversTerms: []string{"1"}, Semester: "1", Status: StatusConfirmed}
	pendingT2 := ExistingPayment{PaymentType: TypeTerm, CoversTerms: []string{"2"}, Semester: "2", Status: StatusPending}
	legacyT3 := ExistingPayment{PaymentType: TypeTerm, Semester: "3", Status: StatusConfirmed}

	tests := []struct {
		name        string
		existing    []ExistingPayment
		paymentType string
		term        string
		wantValid   bool
		wantReason  string
	}{
		{name: "no payments term", paymentType: TypeTerm, term: "1", wantValid: true},
		{name: "no payments full year", paymentType: TypeFullYear, wantValid: true},
		{name: "confirmed full year blocks term", existing: []ExistingPayment{confirmedFull}, paymentType: TypeTerm, term: "2", wantReason: "Full year payment already completed"},
		{name: "confirmed full year blocks custom", existing: []ExistingPayment{confirmedFull}, paymentType: TypeCustom, wantReason: "Full year payment already completed"},
		{name: "pending full year does not block", existing: []ExistingPayment{pendingFull}, paymentType: TypeTerm, term: "1", wantValid: true},
		{name: "full year after term", existing: []ExistingPayment{confirmedT1}, paymentType: TypeFullYear, wantReason: "Cannot pay full year after individual term payments"},
		{name: "full year after pending term", existing: []ExistingPayment{pendingT2}, paymentType: TypeFullYear, wantValid: true},
		{name: "repay confirmed term", existing: []ExistingPayment{confirmedT1}, paymentType: TypeTerm, term: "1", wantReason: "Term 1 payment already completed"},
		{name: "other term allowed", existing: []ExistingPayment{confirmedT1}, paymentType: TypeTerm, term: "2", wantValid: true},
		{name: "semester fallback", existing: []ExistingPayment{legacyT3}, paymentType: TypeTerm, term: "3", wantReason: "Term 3 payment already completed"},
		{name: "outstanding after term", existing: []ExistingPayment{confirmedT1}, paymentType: TypeOutstanding, wantValid: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ValidatePaymentEligibility(tt.existing, tt.paymentType, tt.term)
			assert.Equal(t, tt.wantValid, got.IsValid)
			assert.Equal(t, tt.wantReason, got.Reason)

			again := ValidatePaymentEligibility(tt.existing, tt.paymentType, tt.term)
			assert.Equal(t, got, again)
		})
	}
}

func TestConfirmedFullYearBlocksEverything(t *testing.T) {
	existing := []ExistingPayment{{PaymentType: TypeFullYear, Status: StatusConfirmed}}
	for _, pt := range []string{TypeTerm, TypeFullYear, TypeOutstanding, TypeCustom} {
		for _, term := range []string{"", "1", "2", "3"} {
			got := ValidatePaymentEligibility(existing, pt, term)
			assert.False(t, got.IsValid, pt+"/"+term)
		}
	}
}
