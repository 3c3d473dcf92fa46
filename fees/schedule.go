package fees

import "math"

const (
	SourceQuota  = "quota"
	SourceLegacy = "legacy"

	DefaultFullYearDiscountPercent = 5.0

	// Enrollment payments at or above this share of the annual fee settle the year.
	enrollmentCoverageRatio = 0.9
	roundingTolerance       = 1.0
)

// FeeSchedule is the resolved price list for one student and academic year.
type FeeSchedule struct {
	Source            string             `json:"fee_source"`
	AnnualFee         float64            `json:"annual_fee"`
	TermFees          map[string]float64 `json:"term_fees"`
	TermDisplayAmount float64            `json:"term_display_amount"`
	FullYearFee       float64            `json:"full_year_fee"`
	DiscountPercent   float64            `json:"discount_percent"`
	// FeeRefs maps a term to the legacy semester_fees row id, when one exists.
	FeeRefs map[string]string `json:"-"`
}

// LegacyFee is one row of the per-stop semester fee table.
type LegacyFee struct {
	ID       string
	Semester string
	Amount   float64
}

func roundRupees(v float64) float64 {
	return math.Round(v)
}

// QuotaSchedule prices each term at a third of the annual quota fee. The
// displayed term amount follows the remaining balance when one is set.
func QuotaSchedule(annualFee, outstanding float64) FeeSchedule {
	termFee := roundRupees(annualFee / 3)
	display := termFee
	if outstanding > 0 && outstanding < annualFee {
		display = roundRupees(outstanding / 3)
	}
	return FeeSchedule{
		Source:            SourceQuota,
		AnnualFee:         annualFee,
		TermFees:          map[string]float64{Term1: termFee, Term2: termFee, Term3: termFee},
		TermDisplayAmount: display,
		FullYearFee:       annualFee,
		FeeRefs:           map[string]string{},
	}
}

// LegacySchedule builds a schedule from semester fee rows. The full year price
// is the sum of the terms less discountPercent. ok is false when no row names a
// known term.
func LegacySchedule(rows []LegacyFee, discountPercent float64) (FeeSchedule, bool) {
	s := FeeSchedule{
		Source:          SourceLegacy,
		TermFees:        map[string]float64{},
		DiscountPercent: discountPercent,
		FeeRefs:         map[string]string{},
	}
	for _, r := range rows {
		if !IsTerm(r.Semester) {
			continue
		}
		if _, seen := s.TermFees[r.Semester]; seen {
			continue
		}
		s.TermFees[r.Semester] = r.Amount
		s.FeeRefs[r.Semester] = r.ID
		s.AnnualFee += r.Amount
	}
	if len(s.TermFees) == 0 {
		return FeeSchedule{}, false
	}
	s.FullYearFee = roundRupees(s.AnnualFee * (1 - discountPercent/100))
	s.TermDisplayAmount = roundRupees(s.AnnualFee / float64(len(s.TermFees)))
	return s, true
}

// FeeRefFor returns the fee row for term, falling back to any row.
func (s FeeSchedule) FeeRefFor(term string) string {
	if ref, ok := s.FeeRefs[term]; ok {
		return ref
	}
	for _, t := range AllTerms {
		if ref, ok := s.FeeRefs[t]; ok {
			return ref
		}
	}
	return ""
}

// EnrollmentCovers reports whether enrollment payments settle the whole year.
func EnrollmentCovers(totalPaid, annualFee float64) bool {
	if annualFee <= 0 {
		return false
	}
	return totalPaid+roundingTolerance >= annualFee*enrollmentCoverageRatio
}

type TermStatus struct {
	IsPaid    bool   `json:"is_paid"`
	Status    string `json:"status,omitempty"`
	PaymentID string `json:"payment_id,omitempty"`
}

// FoldTermStatus marks which terms are already paid. Full year payments mark
// every term; term payments mark their covered terms. A confirmed mark is never
// downgraded to pending.
func FoldTermStatus(enrollmentPaid bool, payments []ExistingPayment) map[string]TermStatus {
	out := make(map[string]TermStatus, len(AllTerms))
	for _, t := range AllTerms {
		out[t] = TermStatus{}
	}
	if enrollmentPaid {
		for _, t := range AllTerms {
			out[t] = TermStatus{IsPaid: true, Status: StatusConfirmed}
		}
		return out
	}

	mark := func(term string, p ExistingPayment) {
		cur, ok := out[term]
		if !ok {
			return
		}
		if cur.Status == StatusConfirmed {
			return
		}
		out[term] = TermStatus{IsPaid: true, Status: p.Status, PaymentID: p.ID}
	}

	for _, p := range payments {
		if p.Status != StatusConfirmed && p.Status != StatusPending {
			continue
		}
		switch p.PaymentType {
		case TypeFullYear:
			for _, t := range AllTerms {
				mark(t, p)
			}
		case TypeTerm:
			if len(p.CoversTerms) > 0 {
				for _, t := range p.CoversTerms {
					mark(t, p)
				}
			} else {
				mark(p.Semester, p)
			}
		}
	}
	return out
}
