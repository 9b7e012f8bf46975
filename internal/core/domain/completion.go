package domain

import (
	"time"

	"github.com/google/uuid"
)

// Completion is a single "habit done" record. The log is append-only and a
// habit may be completed more than once on the same calendar day.
type Completion struct {
	ID          string    `json:"id" db:"id"`
	HabitID     string    `json:"habit_id" db:"habit_id"`
	CompletedAt time.Time `json:"completed_at" db:"completed_at"`
}

func NewCompletion(habitID string, at time.Time) *Completion {
	return &Completion{
		ID:          uuid.New().String(),
		HabitID:     habitID,
		CompletedAt: at.UTC(),
	}
}

// CompletionRow is the habit/completion join row returned by the weekly
// period query.
type CompletionRow struct {
	HabitID     string    `db:"habit_id"`
	HabitName   string    `db:"name"`
	CompletedAt time.Time `db:"completed_at"`
}
