package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"habitflow/internal/core/domain"
)

// In-memory repositories backing tests and local development.

type InMemoryHabitRepository struct {
	habits      map[string]*domain.Habit
	completions map[string][]domain.Completion

	mu sync.RWMutex
}

func NewInMemoryHabitRepository() *InMemoryHabitRepository {
	return &InMemoryHabitRepository{
		habits:      make(map[string]*domain.Habit),
		completions: make(map[string][]domain.Completion),
	}
}

func (r *InMemoryHabitRepository) Create(ctx context.Context, habit *domain.Habit) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.habits[habit.ID] = habit
	return nil
}

func (r *InMemoryHabitRepository) GetByID(ctx context.Context, id string) (*domain.Habit, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	habit, ok := r.habits[id]
	if !ok {
		return nil, domain.ErrHabitNotFound
	}
	return habit, nil
}

func (r *InMemoryHabitRepository) ListByUserID(ctx context.Context, userID string) ([]*domain.Habit, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var habits []*domain.Habit
	for _, h := range r.habits {
		if h.UserID == userID && h.ArchivedAt == nil {
			habits = append(habits, h)
		}
	}
	sort.Slice(habits, func(i, j int) bool {
		return habits[i].CreatedAt.Before(habits[j].CreatedAt)
	})
	return habits, nil
}

func (r *InMemoryHabitRepository) ListAtRisk(ctx context.Context, userID string, threshold time.Duration) ([]*domain.Habit, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	cutoff := time.Now().UTC().Add(-threshold)

	var habits []*domain.Habit
	for _, h := range r.habits {
		if h.UserID != userID || h.ArchivedAt != nil {
			continue
		}

		last := h.CreatedAt
		for _, c := range r.completions[h.ID] {
			if c.CompletedAt.After(last) {
				last = c.CompletedAt
			}
		}
		if last.Before(cutoff) {
			habits = append(habits, h)
		}
	}
	sort.Slice(habits, func(i, j int) bool {
		return habits[i].CreatedAt.Before(habits[j].CreatedAt)
	})
	return habits, nil
}

func (r *InMemoryHabitRepository) AddCompletion(ctx context.Context, completion *domain.Completion) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.completions[completion.HabitID] = append(r.completions[completion.HabitID], *completion)
	return nil
}

func (r *InMemoryHabitRepository) ListCompletionsByHabit(ctx context.Context, habitID string) ([]domain.Completion, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	completions := append([]domain.Completion(nil), r.completions[habitID]...)
	sort.Slice(completions, func(i, j int) bool {
		return completions[i].CompletedAt.After(completions[j].CompletedAt)
	})
	if len(completions) > 90 {
		completions = completions[:90]
	}
	return completions, nil
}

func (r *InMemoryHabitRepository) ListCompletionsForPeriod(ctx context.Context, userID string, start, end time.Time) ([]domain.CompletionRow, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var rows []domain.CompletionRow
	for _, h := range r.habits {
		if h.UserID != userID {
			continue
		}
		for _, c := range r.completions[h.ID] {
			if c.CompletedAt.Before(start) || c.CompletedAt.After(end) {
				continue
			}
			rows = append(rows, domain.CompletionRow{
				HabitID:     h.ID,
				HabitName:   h.Name,
				CompletedAt: c.CompletedAt,
			})
		}
	}
	sort.Slice(rows, func(i, j int) bool {
		return rows[i].CompletedAt.Before(rows[j].CompletedAt)
	})
	return rows, nil
}

type InMemoryUserRepository struct {
	users map[string]*domain.User

	mu sync.RWMutex
}

func NewInMemoryUserRepository() *InMemoryUserRepository {
	return &InMemoryUserRepository{
		users: make(map[string]*domain.User),
	}
}

func (r *InMemoryUserRepository) Create(ctx context.Context, user *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, u := range r.users {
		if u.Email == user.Email {
			return domain.ErrEmailAlreadyExists
		}
	}
	r.users[user.ID] = user
	return nil
}

func (r *InMemoryUserRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	user, ok := r.users[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	return user, nil
}
