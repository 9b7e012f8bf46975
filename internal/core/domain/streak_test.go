package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestConsecutiveDays(t *testing.T) {
	today := time.Date(2025, 6, 16, 9, 30, 0, 0, time.UTC)
	daysAgo := func(n int) Completion {
		return Completion{CompletedAt: today.AddDate(0, 0, -n)}
	}

	tests := []struct {
		name        string
		completions []Completion
		want        int
	}{
		{
			name:        "Single completion",
			completions: []Completion{daysAgo(0)},
			want:        1,
		},
		{
			name:        "Perfect run (Today, Yesterday, 2 days ago)",
			completions: []Completion{daysAgo(0), daysAgo(1), daysAgo(2)},
			want:        3,
		},
		{
			name:        "Gap stops the count",
			completions: []Completion{daysAgo(0), daysAgo(1), daysAgo(4), daysAgo(5)},
			want:        2,
		},
		{
			name: "Same-day duplicates count once",
			completions: []Completion{
				{CompletedAt: today},
				{CompletedAt: today.Add(-2 * time.Hour)},
				daysAgo(1),
			},
			want: 2,
		},
		{
			name: "Duplicates inside a longer run",
			completions: []Completion{
				daysAgo(0),
				daysAgo(1),
				{CompletedAt: today.AddDate(0, 0, -1).Add(-3 * time.Hour)},
				daysAgo(2),
			},
			want: 3,
		},
		{
			name: "Midnight boundary (23:59 then 00:01 next day)",
			completions: []Completion{
				{CompletedAt: time.Date(2025, 6, 17, 0, 1, 0, 0, time.UTC)},
				{CompletedAt: time.Date(2025, 6, 16, 23, 59, 0, 0, time.UTC)},
			},
			want: 2,
		},
		{
			name:        "Old history after a break is ignored",
			completions: []Completion{daysAgo(0), daysAgo(10), daysAgo(11), daysAgo(12)},
			want:        1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ConsecutiveDays(tt.completions))
		})
	}
}

func TestConsecutiveDaysNoGaps(t *testing.T) {
	// A history with no gaps always yields a streak equal to the number of
	// distinct days, however long it is.
	today := time.Date(2025, 6, 16, 12, 0, 0, 0, time.UTC)

	for _, n := range []int{1, 7, 30, 90} {
		completions := make([]Completion, 0, n)
		for i := 0; i < n; i++ {
			completions = append(completions, Completion{CompletedAt: today.AddDate(0, 0, -i)})
		}
		assert.Equal(t, n, ConsecutiveDays(completions), "run of %d days", n)
	}
}
