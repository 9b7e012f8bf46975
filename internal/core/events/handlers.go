package events

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"habitflow/internal/core/domain"
)

const basePoints = 10

// milestones maps an exact streak value to the achievement it unlocks.
// Matching is by equality, not threshold: crossing 7 on the way to 8 fires
// nothing, only landing on 7 does.
var milestones = map[int]string{
	1:   "First Completion",
	7:   "1 Week Streak",
	30:  "1 Month Streak",
	100: "100 Days Streak",
}

type StreakStore interface {
	PutStreak(ctx context.Context, userID, habitID string, count int) error
}

type PointsStore interface {
	UpdatePoints(ctx context.Context, userID string, delta int) error
}

type Notifier interface {
	SendCongratulation(ctx context.Context, recipient, achievementType string) error
}

// CompletionHandlers holds the side-effect handlers wired to the bus for
// habit completions and achievement unlocks.
type CompletionHandlers struct {
	habits   domain.HabitRepository
	users    domain.UserRepository
	streaks  StreakStore
	points   PointsStore
	notifier Notifier
	log      *logrus.Entry
}

func NewCompletionHandlers(
	habits domain.HabitRepository,
	users domain.UserRepository,
	streaks StreakStore,
	points PointsStore,
	notifier Notifier,
	log *logrus.Logger,
) *CompletionHandlers {
	return &CompletionHandlers{
		habits:   habits,
		users:    users,
		streaks:  streaks,
		points:   points,
		notifier: notifier,
		log:      log.WithField("component", "completion_handlers"),
	}
}

// Subscriptions returns the static registration list for NewBus.
func (h *CompletionHandlers) Subscriptions() []Subscription {
	return []Subscription{
		Subscribe(KindHabitCompleted, "check_streaks", h.CheckStreaks),
		Subscribe(KindHabitCompleted, "award_points", h.AwardPoints),
		Subscribe(KindAchievementUnlocked, "send_notification", h.SendNotification),
	}
}

// CheckStreaks recomputes the habit's streak from its recent completion
// history, persists it when it grew, and emits an achievement event when
// the streak lands exactly on a milestone.
func (h *CompletionHandlers) CheckStreaks(ctx context.Context, ev Event, emit func(Event)) error {
	e, ok := ev.(HabitCompletedEvent)
	if !ok {
		return fmt.Errorf("check_streaks: unexpected event kind %s", ev.EventKind())
	}

	completions, err := h.habits.ListCompletionsByHabit(ctx, e.HabitID.String())
	if err != nil {
		return fmt.Errorf("fetch completions for habit %s: %w", e.HabitID, err)
	}
	if len(completions) == 0 {
		return nil
	}

	streak := domain.ConsecutiveDays(completions)
	if streak > e.StreakCount {
		if err := h.streaks.PutStreak(ctx, e.UserID.String(), e.HabitID.String(), streak); err != nil {
			return fmt.Errorf("persist streak for habit %s: %w", e.HabitID, err)
		}
	}

	if name, ok := milestones[streak]; ok {
		emit(AchievementUnlockedEvent{
			Base:            NewBase(e.UserID),
			AchievementType: name,
		})
	}
	return nil
}

// AwardPoints credits the user for the completion based on the streak count
// carried by the event.
func (h *CompletionHandlers) AwardPoints(ctx context.Context, ev Event, _ func(Event)) error {
	e, ok := ev.(HabitCompletedEvent)
	if !ok {
		return fmt.Errorf("award_points: unexpected event kind %s", ev.EventKind())
	}

	delta := PointsForStreak(e.StreakCount)
	if err := h.points.UpdatePoints(ctx, e.UserID.String(), delta); err != nil {
		return fmt.Errorf("award %d points to user %s: %w", delta, e.UserID, err)
	}
	return nil
}

// PointsForStreak is the pure tier function: base 10 points, multiplied by
// the first matching tier from the top.
func PointsForStreak(streak int) int {
	switch {
	case streak >= 100:
		return basePoints * 10
	case streak >= 30:
		return basePoints * 5
	case streak >= 7:
		return basePoints * 2
	default:
		return basePoints
	}
}

// SendNotification emails the user about an unlocked achievement. A missing
// user is logged and swallowed, it is not an error worth retrying.
func (h *CompletionHandlers) SendNotification(ctx context.Context, ev Event, _ func(Event)) error {
	e, ok := ev.(AchievementUnlockedEvent)
	if !ok {
		return fmt.Errorf("send_notification: unexpected event kind %s", ev.EventKind())
	}

	user, err := h.users.GetByID(ctx, e.UserID.String())
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			h.log.Errorf("user %s not found for notification", e.UserID)
			return nil
		}
		return fmt.Errorf("look up user %s: %w", e.UserID, err)
	}

	if err := h.notifier.SendCongratulation(ctx, user.Email, e.AchievementType); err != nil {
		return fmt.Errorf("send congratulation to %s: %w", user.Email, err)
	}
	return nil
}
