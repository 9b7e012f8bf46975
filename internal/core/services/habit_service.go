package services

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"habitflow/internal/core/domain"
	"habitflow/internal/core/events"
)

// Publisher hands an event off for background processing. Delivery is
// best-effort; callers must not assume the side effects have run when the
// call returns.
type Publisher interface {
	Publish(ev events.Event)
}

type HabitService struct {
	repo      domain.HabitRepository
	publisher Publisher
	log       *logrus.Entry
}

func NewHabitService(repo domain.HabitRepository, publisher Publisher, log *logrus.Logger) *HabitService {
	return &HabitService{
		repo:      repo,
		publisher: publisher,
		log:       log.WithField("component", "habit_service"),
	}
}

type CreateHabitInput struct {
	UserID      string
	Name        string
	Description string
	Frequency   string
}

func (s *HabitService) Create(ctx context.Context, input CreateHabitInput) (*domain.Habit, error) {
	habit, err := domain.NewHabit(input.UserID, input.Name, input.Description, input.Frequency)
	if err != nil {
		return nil, err
	}

	if err := s.repo.Create(ctx, habit); err != nil {
		return nil, err
	}

	return habit, nil
}

func (s *HabitService) ListByUserID(ctx context.Context, userID string) ([]*domain.Habit, error) {
	return s.repo.ListByUserID(ctx, userID)
}

func (s *HabitService) ListAtRisk(ctx context.Context, userID string, thresholdDays int) ([]*domain.Habit, error) {
	if thresholdDays < 1 {
		thresholdDays = 3
	}
	return s.repo.ListAtRisk(ctx, userID, time.Duration(thresholdDays)*24*time.Hour)
}

// LogCompletion appends a completion record and publishes a
// HabitCompletedEvent carrying the streak as known before this completion.
// The publish is fire-and-forget; the caller observes only the new record.
func (s *HabitService) LogCompletion(ctx context.Context, userID, habitID string) (*domain.Completion, error) {
	habit, err := s.repo.GetByID(ctx, habitID)
	if err != nil {
		return nil, err
	}
	if habit.UserID != userID {
		return nil, domain.ErrHabitNotFound
	}

	priorStreak := 0
	if previous, err := s.repo.ListCompletionsByHabit(ctx, habitID); err != nil {
		s.log.WithError(err).Warnf("could not load completion history for habit %s", habitID)
	} else if len(previous) > 0 {
		priorStreak = domain.ConsecutiveDays(previous)
	}

	completion := domain.NewCompletion(habitID, time.Now().UTC())
	if err := s.repo.AddCompletion(ctx, completion); err != nil {
		return nil, err
	}

	uid, uidErr := uuid.Parse(userID)
	hid, hidErr := uuid.Parse(habitID)
	if uidErr != nil || hidErr != nil {
		s.log.Warnf("skipping completion event for habit %s: non-uuid identifiers", habitID)
		return completion, nil
	}

	s.publisher.Publish(events.HabitCompletedEvent{
		Base:          events.NewBase(uid),
		HabitID:       hid,
		CompletedDate: completion.CompletedAt,
		StreakCount:   priorStreak,
	})

	return completion, nil
}
