// Package fees holds the transport fee rules: academic periods, validity
// windows, payment eligibility and the payable option menu. Everything here is
// pure; callers supply the clock and the rows they loaded.
package fees

import (
	"fmt"
	"time"
)

const (
	Term1 = "1"
	Term2 = "2"
	Term3 = "3"
)

var AllTerms = []string{Term1, Term2, Term3}

type AcademicInfo struct {
	AcademicYear string `json:"academic_year"`
	CurrentTerm  string `json:"current_term"`
}

// TermForMonth maps a calendar month to its term: Jun-Sep, Oct-Jan, Feb-May.
func TermForMonth(m time.Month) string {
	switch {
	case m >= time.June && m <= time.September:
		return Term1
	case m >= time.October || m == time.January:
		return Term2
	default:
		return Term3
	}
}

// CurrentAcademicInfo resolves the academic year and term for now. The year
// rolls over on June 1.
func CurrentAcademicInfo(now time.Time) AcademicInfo {
	startYear := now.Year()
	if now.Month() < time.June {
		startYear--
	}
	return AcademicInfo{
		AcademicYear: FormatAcademicYear(startYear),
		CurrentTerm:  TermForMonth(now.Month()),
	}
}

// FormatAcademicYear renders 2025 as "2025-26".
func FormatAcademicYear(startYear int) string {
	return fmt.Sprintf("%d-%02d", startYear, (startYear+1)%100)
}

func IsTerm(tag string) bool {
	return tag == Term1 || tag == Term2 || tag == Term3
}

func TermName(term string) string {
	switch term {
	case Term1:
		return "Term 1 (June - September)"
	case Term2:
		return "Term 2 (October - January)"
	case Term3:
		return "Term 3 (February - May)"
	}
	return "Term " + term
}
