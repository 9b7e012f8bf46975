package domain

import "time"

// ConsecutiveDays returns the length of the run of consecutive calendar
// days ending at the most recent completion. The input must be ordered by
// CompletedAt descending and must be non-empty; callers special-case the
// empty list. Multiple completions on the same day count once.
func ConsecutiveDays(completions []Completion) int {
	streak := 1
	for i := 0; i < len(completions)-1; i++ {
		diff := calendarDay(completions[i].CompletedAt).Sub(calendarDay(completions[i+1].CompletedAt))
		switch diff {
		case 24 * time.Hour:
			streak++
		case 0:
			// same-day duplicate, neither extends nor breaks the run
		default:
			return streak
		}
	}
	return streak
}

func calendarDay(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
