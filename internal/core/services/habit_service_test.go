package services_test

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"

	"habitflow/internal/core/domain"
	"habitflow/internal/core/events"
	"habitflow/internal/core/services"
)

type MockRepo struct {
	habits        map[string]*domain.Habit
	completions   map[string][]domain.Completion
	simulateError error
}

func NewMockRepo() *MockRepo {
	return &MockRepo{
		habits:      make(map[string]*domain.Habit),
		completions: make(map[string][]domain.Completion),
	}
}

func (m *MockRepo) Create(ctx context.Context, habit *domain.Habit) error {
	if m.simulateError != nil {
		return m.simulateError
	}
	clone := *habit
	m.habits[habit.ID] = &clone
	return nil
}

func (m *MockRepo) GetByID(ctx context.Context, id string) (*domain.Habit, error) {
	if m.simulateError != nil {
		return nil, m.simulateError
	}
	h, ok := m.habits[id]
	if !ok {
		return nil, domain.ErrHabitNotFound
	}
	clone := *h
	return &clone, nil
}

func (m *MockRepo) ListByUserID(ctx context.Context, userID string) ([]*domain.Habit, error) {
	var list []*domain.Habit
	for _, h := range m.habits {
		if h.UserID == userID && h.ArchivedAt == nil {
			clone := *h
			list = append(list, &clone)
		}
	}
	return list, nil
}

func (m *MockRepo) ListAtRisk(ctx context.Context, userID string, threshold time.Duration) ([]*domain.Habit, error) {
	return nil, nil
}

func (m *MockRepo) AddCompletion(ctx context.Context, completion *domain.Completion) error {
	if m.simulateError != nil {
		return m.simulateError
	}
	m.completions[completion.HabitID] = append(m.completions[completion.HabitID], *completion)
	return nil
}

func (m *MockRepo) ListCompletionsByHabit(ctx context.Context, habitID string) ([]domain.Completion, error) {
	return m.completions[habitID], nil
}

func (m *MockRepo) ListCompletionsForPeriod(ctx context.Context, userID string, start, end time.Time) ([]domain.CompletionRow, error) {
	return nil, nil
}

type capturePublisher struct {
	published []events.Event
}

func (p *capturePublisher) Publish(ev events.Event) {
	p.published = append(p.published, ev)
}

func newTestService(repo domain.HabitRepository, pub services.Publisher) *services.HabitService {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return services.NewHabitService(repo, pub, log)
}

func TestCreateHabit(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		repo := NewMockRepo()
		svc := newTestService(repo, &capturePublisher{})

		habit, err := svc.Create(context.Background(), services.CreateHabitInput{
			UserID: uuid.NewString(),
			Name:   "Morning run",
		})

		assert.NoError(t, err)
		assert.NotNil(t, repo.habits[habit.ID])
	})

	t.Run("Validation failure never hits the repository", func(t *testing.T) {
		repo := NewMockRepo()
		svc := newTestService(repo, &capturePublisher{})

		_, err := svc.Create(context.Background(), services.CreateHabitInput{
			UserID: uuid.NewString(),
			Name:   "   ",
		})

		assert.ErrorIs(t, err, domain.ErrHabitNameEmpty)
		assert.Empty(t, repo.habits)
	})
}

func TestLogCompletion(t *testing.T) {
	userID := uuid.NewString()

	setup := func() (*MockRepo, *capturePublisher, *services.HabitService, *domain.Habit) {
		repo := NewMockRepo()
		pub := &capturePublisher{}
		svc := newTestService(repo, pub)

		habit, err := svc.Create(context.Background(), services.CreateHabitInput{
			UserID: userID,
			Name:   "Meditation",
		})
		assert.NoError(t, err)
		return repo, pub, svc, habit
	}

	t.Run("Success publishes a completion event", func(t *testing.T) {
		repo, pub, svc, habit := setup()

		completion, err := svc.LogCompletion(context.Background(), userID, habit.ID)
		assert.NoError(t, err)
		assert.Len(t, repo.completions[habit.ID], 1)

		assert.Len(t, pub.published, 1)
		ev, ok := pub.published[0].(events.HabitCompletedEvent)
		assert.True(t, ok)
		assert.Equal(t, userID, ev.UserID.String())
		assert.Equal(t, habit.ID, ev.HabitID.String())
		assert.Equal(t, completion.CompletedAt, ev.CompletedDate)
		assert.Equal(t, 0, ev.StreakCount, "first completion carries no prior streak")
	})

	t.Run("Event carries the streak before this completion", func(t *testing.T) {
		repo, pub, svc, habit := setup()

		now := time.Now().UTC()
		repo.completions[habit.ID] = []domain.Completion{
			{HabitID: habit.ID, CompletedAt: now.AddDate(0, 0, -1)},
			{HabitID: habit.ID, CompletedAt: now.AddDate(0, 0, -2)},
		}

		_, err := svc.LogCompletion(context.Background(), userID, habit.ID)
		assert.NoError(t, err)

		ev := pub.published[0].(events.HabitCompletedEvent)
		assert.Equal(t, 2, ev.StreakCount)
	})

	t.Run("Unknown habit", func(t *testing.T) {
		_, pub, svc, _ := setup()

		_, err := svc.LogCompletion(context.Background(), userID, uuid.NewString())
		assert.ErrorIs(t, err, domain.ErrHabitNotFound)
		assert.Empty(t, pub.published)
	})

	t.Run("Habit of another user", func(t *testing.T) {
		_, pub, svc, habit := setup()

		_, err := svc.LogCompletion(context.Background(), uuid.NewString(), habit.ID)
		assert.ErrorIs(t, err, domain.ErrHabitNotFound)
		assert.Empty(t, pub.published)
	})
}
