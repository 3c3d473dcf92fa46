package jobs

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestIsReminderDay(t *testing.T) {
	cases := []struct {
		name string
		day  time.Time
		want bool
	}{
		{"first day of term one", time.Date(2025, time.June, 1, 9, 0, 0, 0, time.UTC), true},
		{"last day of first week", time.Date(2025, time.June, 7, 9, 0, 0, 0, time.UTC), true},
		{"second week", time.Date(2025, time.June, 8, 9, 0, 0, 0, time.UTC), false},
		{"term two start", time.Date(2025, time.October, 3, 9, 0, 0, 0, time.UTC), true},
		{"term three start", time.Date(2026, time.February, 2, 9, 0, 0, 0, time.UTC), true},
		{"mid term", time.Date(2025, time.December, 15, 9, 0, 0, 0, time.UTC), false},
		{"january is still term two", time.Date(2026, time.January, 3, 9, 0, 0, 0, time.UTC), false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, IsReminderDay(tc.day))
		})
	}
}
