package fees

import (
	"errors"
	"math"
)

var (
	ErrUnknownPaymentType = errors.New("unknown payment type")
	ErrInvalidTerm        = errors.New("term number must be 1, 2 or 3")
	ErrNonPositiveAmount  = errors.New("payment amount must be greater than zero")
	ErrBalanceSettled     = errors.New("no outstanding balance to pay")
)

type PlanRequest struct {
	PaymentType     string
	TermNumber      string
	RequestedAmount float64
	IsEnrollment    bool
}

// PaymentPlan is what a payment request resolves to before it is stored.
type PaymentPlan struct {
	Amount      float64
	CoversTerms []string
	Semester    string
	// ValidityTerms drives the validity window when it differs from CoversTerms.
	ValidityTerms []string
	FeeRef        string
}

// ResolvePaymentPlan prices a request against the schedule. outstanding is the
// student's remaining balance; currentTerm anchors custom payments.
func ResolvePaymentPlan(s FeeSchedule, req PlanRequest, outstanding float64, currentTerm string) (PaymentPlan, error) {
	var plan PaymentPlan

	switch req.PaymentType {
	case TypeTerm:
		if !IsTerm(req.TermNumber) {
			return PaymentPlan{}, ErrInvalidTerm
		}
		plan = PaymentPlan{
			Amount:      s.TermFees[req.TermNumber],
			CoversTerms: []string{req.TermNumber},
			Semester:    req.TermNumber,
			FeeRef:      s.FeeRefs[req.TermNumber],
		}
	case TypeFullYear:
		if s.Source == SourceQuota && outstanding <= 0 {
			return PaymentPlan{}, ErrBalanceSettled
		}
		amount := s.FullYearFee
		if s.Source == SourceQuota && outstanding > 0 && outstanding < s.AnnualFee {
			amount = outstanding
		}
		plan = PaymentPlan{
			Amount:      amount,
			CoversTerms: append([]string(nil), AllTerms...),
			Semester:    Term1,
			FeeRef:      s.FeeRefFor(Term1),
		}
	case TypeOutstanding:
		plan = PaymentPlan{
			Amount:      outstanding,
			CoversTerms: append([]string(nil), AllTerms...),
			Semester:    TypeOutstanding,
			FeeRef:      s.FeeRefFor(currentTerm),
		}
	case TypeCustom:
		if outstanding <= 0 {
			return PaymentPlan{}, ErrBalanceSettled
		}
		amount := math.Min(req.RequestedAmount, outstanding)
		plan = PaymentPlan{
			Amount:        amount,
			CoversTerms:   []string{},
			Semester:      TypeCustom,
			ValidityTerms: []string{currentTerm},
			FeeRef:        s.FeeRefFor(currentTerm),
		}
	default:
		return PaymentPlan{}, ErrUnknownPaymentType
	}

	if req.IsEnrollment && req.RequestedAmount > 0 {
		plan.Amount = req.RequestedAmount
	}
	if plan.Amount <= 0 {
		return PaymentPlan{}, ErrNonPositiveAmount
	}
	if plan.ValidityTerms == nil {
		plan.ValidityTerms = plan.CoversTerms
	}
	return plan, nil
}

// ReceiptColor is the colour printed on the paper receipt for a payment.
func ReceiptColor(paymentType string, coversTerms []string) string {
	switch paymentType {
	case TypeFullYear:
		return "green"
	case TypeOutstanding:
		return "orange"
	case TypeCustom:
		return "purple"
	}
	if len(coversTerms) == 1 {
		switch coversTerms[0] {
		case Term1:
			return "blue"
		case Term2:
			return "yellow"
		case Term3:
			return "pink"
		}
	}
	return "white"
}
