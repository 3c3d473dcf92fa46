package fees

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"
)

const dateLayout = "2006-01-02"

var ErrInvalidAcademicYear = errors.New("invalid academic year")

type ValidityPeriod struct {
	ValidFrom  string `json:"valid_from"`
	ValidUntil string `json:"valid_until"`
}

// Times parses both ends as UTC dates.
func (v ValidityPeriod) Times() (time.Time, time.Time, error) {
	from, err := time.Parse(dateLayout, v.ValidFrom)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	until, err := time.Parse(dateLayout, v.ValidUntil)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	return from, until, nil
}

// ParseAcademicYear accepts "YYYY-YY" and "YYYY-YYYY". A two digit suffix takes
// the start year's century.
func ParseAcademicYear(academicYear string) (int, int, error) {
	parts := strings.Split(strings.TrimSpace(academicYear), "-")
	if len(parts) != 2 || len(parts[0]) != 4 {
		return 0, 0, fmt.Errorf("%w: %q", ErrInvalidAcademicYear, academicYear)
	}
	start, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, 0, fmt.Errorf("%w: %q", ErrInvalidAcademicYear, academicYear)
	}
	suffix, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0, 0, fmt.Errorf("%w: %q", ErrInvalidAcademicYear, academicYear)
	}

	var end int
	switch len(parts[1]) {
	case 2:
		end = start/100*100 + suffix
		if end < start {
			end += 100
		}
	case 4:
		end = suffix
	default:
		return 0, 0, fmt.Errorf("%w: %q", ErrInvalidAcademicYear, academicYear)
	}
	return start, end, nil
}

type termWindow struct {
	from, until time.Time
}

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Each term's validity runs one week into the next term.
func termWindows(start, end int) map[string]termWindow {
	return map[string]termWindow{
		Term1: {date(start, time.June, 1), date(start, time.October, 7)},
		Term2: {date(start, time.October, 1), date(end, time.February, 7)},
		Term3: {date(end, time.February, 1), date(end, time.June, 7)},
	}
}

func fullYear(start, end int) ValidityPeriod {
	return ValidityPeriod{
		ValidFrom:  date(start, time.June, 1).Format(dateLayout),
		ValidUntil: date(end, time.May, 31).Format(dateLayout),
	}
}

// CalculateValidityPeriod returns the window a payment covering coversTerms is
// honoured for. Three terms, an empty list or an unknown tag give the full
// academic year. A malformed academic year gives an empty period.
func CalculateValidityPeriod(coversTerms []string, academicYear string) ValidityPeriod {
	start, end, err := ParseAcademicYear(academicYear)
	if err != nil {
		return ValidityPeriod{}
	}
	if len(coversTerms) == 3 || len(coversTerms) == 0 {
		return fullYear(start, end)
	}

	windows := termWindows(start, end)
	var from, until time.Time
	for i, term := range coversTerms {
		w, ok := windows[term]
		if !ok {
			return fullYear(start, end)
		}
		if i == 0 || w.from.Before(from) {
			from = w.from
		}
		if i == 0 || w.until.After(until) {
			until = w.until
		}
	}
	return ValidityPeriod{ValidFrom: from.Format(dateLayout), ValidUntil: until.Format(dateLayout)}
}

// TermWindow is the nominal (no grace) span of a term.
func TermWindow(term, academicYear string) (time.Time, time.Time, error) {
	start, end, err := ParseAcademicYear(academicYear)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	switch term {
	case Term1:
		return date(start, time.June, 1), date(start, time.September, 30), nil
	case Term2:
		return date(start, time.October, 1), date(end, time.January, 31), nil
	case Term3:
		return date(end, time.February, 1), date(end, time.May, 31), nil
	}
	return time.Time{}, time.Time{}, fmt.Errorf("unknown term %q", term)
}

func GetTermDescription(coversTerms []string, academicYear string) string {
	switch {
	case len(coversTerms) == 3:
		return "Full Academic Year " + academicYear
	case len(coversTerms) == 1 && IsTerm(coversTerms[0]):
		return TermName(coversTerms[0]) + " " + academicYear
	case len(coversTerms) > 1:
		terms := append([]string(nil), coversTerms...)
		sort.Strings(terms)
		return "Terms " + strings.Join(terms, " & ") + " " + academicYear
	}
	return "Academic Year " + academicYear
}
