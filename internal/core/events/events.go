package events

import (
	"time"

	"github.com/google/uuid"
)

// Kind tags the closed set of domain events.
type Kind string

const (
	KindHabitCompleted      Kind = "habit.completed"
	KindAchievementUnlocked Kind = "achievement.unlocked"
)

// Event is the sealed union of domain events. Events are immutable values
// created at dispatch time; the bus never persists them.
type Event interface {
	EventKind() Kind
	sealed()
}

// Base carries the fields shared by every event.
type Base struct {
	EventID   uuid.UUID `json:"event_id"`
	UserID    uuid.UUID `json:"user_id"`
	Timestamp time.Time `json:"timestamp"`
}

func (Base) sealed() {}

func NewBase(userID uuid.UUID) Base {
	return Base{
		EventID:   uuid.New(),
		UserID:    userID,
		Timestamp: time.Now().UTC(),
	}
}

type HabitCompletedEvent struct {
	Base
	HabitID       uuid.UUID `json:"habit_id"`
	CompletedDate time.Time `json:"completed_date"`
	StreakCount   int       `json:"streak_count"`
}

func (HabitCompletedEvent) EventKind() Kind { return KindHabitCompleted }

type AchievementUnlockedEvent struct {
	Base
	AchievementType string `json:"achievement_type"`
}

func (AchievementUnlockedEvent) EventKind() Kind { return KindAchievementUnlocked }
