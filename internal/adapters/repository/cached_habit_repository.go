package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"habitflow/internal/core/domain"
)

const habitListTTL = 30 * time.Minute

var _ domain.HabitRepository = (*CachedHabitRepository)(nil)

// CachedHabitRepository is a read-through redis cache for the habit list,
// the hottest query of the API. Completion and streak reads always go to
// the source.
type CachedHabitRepository struct {
	next  domain.HabitRepository
	cache *redis.Client
	log   *logrus.Entry
}

func NewCachedHabitRepository(next domain.HabitRepository, cache *redis.Client, log *logrus.Logger) *CachedHabitRepository {
	return &CachedHabitRepository{
		next:  next,
		cache: cache,
		log:   log.WithField("component", "habit_cache"),
	}
}

func (r *CachedHabitRepository) cacheKey(userID string) string {
	return fmt.Sprintf("habits:%s", userID)
}

func (r *CachedHabitRepository) invalidate(ctx context.Context, userID string) {
	if err := r.cache.Del(ctx, r.cacheKey(userID)).Err(); err != nil {
		r.log.Warnf("failed to invalidate habits for user %s: %v", userID, err)
	}
}

func (r *CachedHabitRepository) ListByUserID(ctx context.Context, userID string) ([]*domain.Habit, error) {
	key := r.cacheKey(userID)

	val, err := r.cache.Get(ctx, key).Result()
	if err == nil {
		var habits []*domain.Habit
		if err := json.Unmarshal([]byte(val), &habits); err == nil {
			return habits, nil
		}

		r.log.Warnf("corrupted cache entry for user %s, cleaning up", userID)
		r.cache.Del(ctx, key)
	} else if err != redis.Nil {
		r.log.Warnf("redis read error: %v", err)
	}

	habits, err := r.next.ListByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}

	if data, err := json.Marshal(habits); err == nil {
		if setErr := r.cache.Set(ctx, key, data, habitListTTL).Err(); setErr != nil {
			r.log.Warnf("redis set error: %v", setErr)
		}
	}

	return habits, nil
}

func (r *CachedHabitRepository) Create(ctx context.Context, habit *domain.Habit) error {
	if err := r.next.Create(ctx, habit); err != nil {
		return err
	}
	r.invalidate(ctx, habit.UserID)
	return nil
}

func (r *CachedHabitRepository) GetByID(ctx context.Context, id string) (*domain.Habit, error) {
	return r.next.GetByID(ctx, id)
}

func (r *CachedHabitRepository) ListAtRisk(ctx context.Context, userID string, threshold time.Duration) ([]*domain.Habit, error) {
	return r.next.ListAtRisk(ctx, userID, threshold)
}

func (r *CachedHabitRepository) AddCompletion(ctx context.Context, completion *domain.Completion) error {
	return r.next.AddCompletion(ctx, completion)
}

func (r *CachedHabitRepository) ListCompletionsByHabit(ctx context.Context, habitID string) ([]domain.Completion, error) {
	return r.next.ListCompletionsByHabit(ctx, habitID)
}

func (r *CachedHabitRepository) ListCompletionsForPeriod(ctx context.Context, userID string, start, end time.Time) ([]domain.CompletionRow, error) {
	return r.next.ListCompletionsForPeriod(ctx, userID, start, end)
}
