package domain

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

var (
	ErrHabitNameEmpty     = errors.New("habit name cannot be empty")
	ErrHabitNameTooLong   = errors.New("habit name is too long (max 100 chars)")
	ErrHabitDescTooLong   = errors.New("habit description is too long (max 500 chars)")
	ErrHabitInvalidUserID = errors.New("invalid user id")
	ErrInvalidFrequency   = errors.New("invalid frequency (must be daily or weekly)")
	ErrHabitArchived      = errors.New("cannot modify an archived habit")
)

const (
	FrequencyDaily  = "daily"
	FrequencyWeekly = "weekly"
	MaxNameLen      = 100
	MaxDescLen      = 500
)

type Habit struct {
	ID          string     `json:"id" db:"id"`
	UserID      string     `json:"user_id" db:"user_id"`
	Name        string     `json:"name" db:"name"`
	Description string     `json:"description,omitempty" db:"description"`
	Frequency   string     `json:"frequency" db:"frequency"`
	CreatedAt   time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at" db:"updated_at"`
	ArchivedAt  *time.Time `json:"archived_at,omitempty" db:"archived_at"`
}

func NewHabit(userID, name, description, frequency string) (*Habit, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, ErrHabitInvalidUserID
	}

	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrHabitNameEmpty
	}
	if len(name) > MaxNameLen {
		return nil, ErrHabitNameTooLong
	}

	description = strings.TrimSpace(description)
	if len(description) > MaxDescLen {
		return nil, ErrHabitDescTooLong
	}

	if frequency == "" {
		frequency = FrequencyDaily
	}
	switch frequency {
	case FrequencyDaily, FrequencyWeekly:
	default:
		return nil, ErrInvalidFrequency
	}

	now := time.Now().UTC()

	return &Habit{
		ID:          uuid.New().String(),
		UserID:      userID,
		Name:        name,
		Description: description,
		Frequency:   frequency,
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}

func (h *Habit) Archive() error {
	if h.ArchivedAt != nil {
		return ErrHabitArchived
	}

	now := time.Now().UTC()
	h.ArchivedAt = &now
	h.UpdatedAt = now
	return nil
}
