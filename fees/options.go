package fees

import (
	"encoding/json"
	"fmt"
)

type OptionKind string

const (
	KindTerm        OptionKind = "term"
	KindFullYear    OptionKind = "full_year"
	KindOutstanding OptionKind = "outstanding"
	KindCustom      OptionKind = "custom"
	KindEnrollment  OptionKind = "enrollment"
)

// Option is one entry of the payment menu. The concrete types are TermOption,
// FullYearOption, OutstandingOption, CustomOption and EnrollmentOption; each
// marshals with a payment_type discriminator.
type Option interface {
	Kind() OptionKind
	isOption()
}

type TermOption struct {
	Term        string  `json:"term"`
	Label       string  `json:"label"`
	Amount      float64 `json:"amount"`
	IsPaid      bool    `json:"is_paid"`
	Status      string  `json:"status,omitempty"`
	IsAvailable bool    `json:"is_available"`
	PaymentID   string  `json:"payment_id,omitempty"`
	ValidFrom   string  `json:"valid_from"`
	ValidUntil  string  `json:"valid_until"`
}

type FullYearOption struct {
	Label           string  `json:"label"`
	Amount          float64 `json:"amount"`
	OriginalAmount  float64 `json:"original_amount,omitempty"`
	DiscountPercent float64 `json:"discount_percent,omitempty"`
	IsPaid          bool    `json:"is_paid"`
	Status          string  `json:"status,omitempty"`
	IsAvailable     bool    `json:"is_available"`
	PaymentID       string  `json:"payment_id,omitempty"`
	ValidFrom       string  `json:"valid_from"`
	ValidUntil      string  `json:"valid_until"`
}

type OutstandingOption struct {
	Label      string  `json:"label"`
	Amount     float64 `json:"amount"`
	IsPaid     bool    `json:"is_paid"`
	Status     string  `json:"status,omitempty"`
	PaymentID  string  `json:"payment_id,omitempty"`
	ValidFrom  string  `json:"valid_from"`
	ValidUntil string  `json:"valid_until"`
}

type CustomOption struct {
	Label     string  `json:"label"`
	Amount    float64 `json:"amount,omitempty"`
	MinAmount float64 `json:"min_amount,omitempty"`
	MaxAmount float64 `json:"max_amount,omitempty"`
	IsPaid    bool    `json:"is_paid"`
	Status    string  `json:"status,omitempty"`
	PaymentID string  `json:"payment_id,omitempty"`
}

type EnrollmentOption struct {
	Label     string  `json:"label"`
	Amount    float64 `json:"amount"`
	IsPaid    bool    `json:"is_paid"`
	Status    string  `json:"status"`
	PaymentID string  `json:"payment_id"`
}

func (TermOption) Kind() OptionKind        { return KindTerm }
func (FullYearOption) Kind() OptionKind    { return KindFullYear }
func (OutstandingOption) Kind() OptionKind { return KindOutstanding }
func (CustomOption) Kind() OptionKind      { return KindCustom }
func (EnrollmentOption) Kind() OptionKind  { return KindEnrollment }

func (TermOption) isOption()        {}
func (FullYearOption) isOption()    {}
func (OutstandingOption) isOption() {}
func (CustomOption) isOption()      {}
func (EnrollmentOption) isOption()  {}

func (o TermOption) MarshalJSON() ([]byte, error) {
	type plain TermOption
	return json.Marshal(struct {
		PaymentType OptionKind `json:"payment_type"`
		plain
	}{KindTerm, plain(o)})
}

func (o FullYearOption) MarshalJSON() ([]byte, error) {
	type plain FullYearOption
	return json.Marshal(struct {
		PaymentType OptionKind `json:"payment_type"`
		plain
	}{KindFullYear, plain(o)})
}

func (o OutstandingOption) MarshalJSON() ([]byte, error) {
	type plain OutstandingOption
	return json.Marshal(struct {
		PaymentType OptionKind `json:"payment_type"`
		plain
	}{KindOutstanding, plain(o)})
}

func (o CustomOption) MarshalJSON() ([]byte, error) {
	type plain CustomOption
	return json.Marshal(struct {
		PaymentType OptionKind `json:"payment_type"`
		plain
	}{KindCustom, plain(o)})
}

func (o EnrollmentOption) MarshalJSON() ([]byte, error) {
	type plain EnrollmentOption
	return json.Marshal(struct {
		PaymentType OptionKind `json:"payment_type"`
		plain
	}{KindEnrollment, plain(o)})
}

// EnrollmentRecord is a completed enrollment-time payment.
type EnrollmentRecord struct {
	ID     string
	Amount float64
	Status string
}

type QuotaMenuInput struct {
	AcademicYear string
	CurrentTerm  string
	AnnualFee    float64
	Outstanding  float64
	Payments     []ExistingPayment
	Enrollment   []EnrollmentRecord
}

// BuildQuotaOptions lists what a quota student has paid and what they can pay.
// A settled balance yields a single paid full year entry; otherwise each past
// payment is listed read-only, followed by a custom amount and the full
// outstanding balance.
func BuildQuotaOptions(in QuotaMenuInput) []Option {
	year := CalculateValidityPeriod(AllTerms, in.AcademicYear)
	if in.Outstanding <= 0 {
		return []Option{FullYearOption{
			Label:      "Transport fee fully paid for " + in.AcademicYear,
			Amount:     in.AnnualFee,
			IsPaid:     true,
			Status:     StatusConfirmed,
			ValidFrom:  year.ValidFrom,
			ValidUntil: year.ValidUntil,
		}}
	}

	var options []Option
	for _, e := range in.Enrollment {
		options = append(options, EnrollmentOption{
			Label:     "Enrollment payment",
			Amount:    e.Amount,
			IsPaid:    true,
			Status:    e.Status,
			PaymentID: e.ID,
		})
	}
	for _, p := range in.Payments {
		options = append(options, historicalOption(p, in.AcademicYear))
	}

	options = append(options,
		CustomOption{
			Label:     "Pay a custom amount",
			MinAmount: 1,
			MaxAmount: in.Outstanding,
		},
		OutstandingOption{
			Label:      fmt.Sprintf("Pay full outstanding (₹%.0f)", in.Outstanding),
			Amount:     in.Outstanding,
			ValidFrom:  year.ValidFrom,
			ValidUntil: year.ValidUntil,
		},
	)
	return options
}

func historicalOption(p ExistingPayment, academicYear string) Option {
	switch p.PaymentType {
	case TypeFullYear:
		return FullYearOption{
			Label:      GetTermDescription(AllTerms, academicYear),
			Amount:     p.Amount,
			IsPaid:     true,
			Status:     p.Status,
			PaymentID:  p.ID,
			ValidFrom:  p.ValidFrom,
			ValidUntil: p.ValidUntil,
		}
	case TypeOutstanding:
		return OutstandingOption{
			Label:      "Outstanding balance payment",
			Amount:     p.Amount,
			IsPaid:     true,
			Status:     p.Status,
			PaymentID:  p.ID,
			ValidFrom:  p.ValidFrom,
			ValidUntil: p.ValidUntil,
		}
	case TypeCustom:
		return CustomOption{
			Label:     "Custom payment",
			Amount:    p.Amount,
			IsPaid:    true,
			Status:    p.Status,
			PaymentID: p.ID,
		}
	}
	term := p.Semester
	if len(p.CoversTerms) > 0 {
		term = p.CoversTerms[0]
	}
	return TermOption{
		Term:       term,
		Label:      GetTermDescription(p.CoversTerms, academicYear),
		Amount:     p.Amount,
		IsPaid:     true,
		Status:     p.Status,
		PaymentID:  p.ID,
		ValidFrom:  p.ValidFrom,
		ValidUntil: p.ValidUntil,
	}
}

type LegacyMenuInput struct {
	AcademicYear string
	Schedule     FeeSchedule
	TermStatus   map[string]TermStatus
}

// BuildLegacyOptions offers each priced term plus the discounted full year.
// The full year is only available while no term is paid or pending.
func BuildLegacyOptions(in LegacyMenuInput) []Option {
	var options []Option
	anyPaid, allPaid := false, true
	for _, term := range AllTerms {
		st := in.TermStatus[term]
		if st.IsPaid {
			anyPaid = true
		} else {
			allPaid = false
		}
	}

	for _, term := range AllTerms {
		amount, ok := in.Schedule.TermFees[term]
		if !ok {
			continue
		}
		st := in.TermStatus[term]
		v := CalculateValidityPeriod([]string{term}, in.AcademicYear)
		options = append(options, TermOption{
			Term:        term,
			Label:       GetTermDescription([]string{term}, in.AcademicYear),
			Amount:      amount,
			IsPaid:      st.IsPaid,
			Status:      st.Status,
			IsAvailable: !st.IsPaid,
			PaymentID:   st.PaymentID,
			ValidFrom:   v.ValidFrom,
			ValidUntil:  v.ValidUntil,
		})
	}

	v := CalculateValidityPeriod(AllTerms, in.AcademicYear)
	full := FullYearOption{
		Label:           GetTermDescription(AllTerms, in.AcademicYear),
		Amount:          in.Schedule.FullYearFee,
		OriginalAmount:  in.Schedule.AnnualFee,
		DiscountPercent: in.Schedule.DiscountPercent,
		IsPaid:          allPaid,
		IsAvailable:     !anyPaid,
		ValidFrom:       v.ValidFrom,
		ValidUntil:      v.ValidUntil,
	}
	if allPaid {
		full.Status = in.TermStatus[Term1].Status
	}
	return append(options, full)
}
