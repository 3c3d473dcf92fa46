package fees

import "fmt"

const (
	TypeTerm        = "term"
	TypeFullYear    = "full_year"
	TypeOutstanding = "outstanding"
	TypeCustom      = "custom"

	StatusPending   = "pending"
	StatusConfirmed = "confirmed"
)

// ExistingPayment is the slice of a stored semester payment the fee rules need.
type ExistingPayment struct {
	ID          string
	PaymentType string
	Semester    string
	CoversTerms []string
	Status      string
	Amount      float64
	ValidFrom   string
	ValidUntil  string
}

func (p ExistingPayment) covers(term string) bool {
	for _, t := range p.CoversTerms {
		if t == term {
			return true
		}
	}
	return p.Semester == term
}

type Eligibility struct {
	IsValid bool   `json:"is_valid"`
	Reason  string `json:"reason,omitempty"`
}

// ValidatePaymentEligibility guards against paying twice for the same
// coverage. Only confirmed payments block.
func ValidatePaymentEligibility(existing []ExistingPayment, paymentType, termNumber string) Eligibility {
	for _, p := range existing {
		if p.Status == StatusConfirmed && p.PaymentType == TypeFullYear {
			return Eligibility{Reason: "Full year payment already completed"}
		}
	}

	if paymentType == TypeFullYear {
		for _, p := range existing {
			if p.Status == StatusConfirmed && p.PaymentType == TypeTerm {
				return Eligibility{Reason: "Cannot pay full year after individual term payments"}
			}
		}
	}

	if paymentType == TypeTerm && termNumber != "" {
		for _, p := range existing {
			if p.Status == StatusConfirmed && p.covers(termNumber) {
				return Eligibility{Reason: fmt.Sprintf("Term %s payment already completed", termNumber)}
			}
		}
	}

	return Eligibility{IsValid: true}
}
