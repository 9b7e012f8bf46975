package domain

import (
	"context"
	"errors"
	"time"
)

var (
	ErrHabitNotFound = errors.New("habit not found")
)

type HabitRepository interface {
	// Create persists a new habit definition in the storage.
	Create(ctx context.Context, habit *Habit) error

	// GetByID retrieves a habit by its unique identifier.
	GetByID(ctx context.Context, id string) (*Habit, error)

	// ListByUserID retrieves all non-archived habits of a user.
	ListByUserID(ctx context.Context, userID string) ([]*Habit, error)

	// ListAtRisk returns habits whose most recent completion (or creation,
	// if never completed) is older than the given threshold.
	ListAtRisk(ctx context.Context, userID string, threshold time.Duration) ([]*Habit, error)

	// AddCompletion appends a completion record for a habit.
	AddCompletion(ctx context.Context, completion *Completion) error

	// ListCompletionsByHabit returns at most the 90 most recent completions
	// of a habit, most recent first.
	ListCompletionsByHabit(ctx context.Context, habitID string) ([]Completion, error)

	// ListCompletionsForPeriod returns all completions of a user's habits
	// within [start, end], joined with the habit name.
	ListCompletionsForPeriod(ctx context.Context, userID string, start, end time.Time) ([]CompletionRow, error)
}

type UserRepository interface {
	// Create persists a new user account.
	Create(ctx context.Context, user *User) error

	// GetByID retrieves a user by id, returning ErrUserNotFound when absent.
	GetByID(ctx context.Context, id string) (*User, error)
}
