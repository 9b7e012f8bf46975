package repository

import (
	"context"
	"io"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"habitflow/internal/core/domain"
)

func setupCache(t *testing.T) (*CachedHabitRepository, *InMemoryHabitRepository, *miniredis.Miniredis) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})

	log := logrus.New()
	log.SetOutput(io.Discard)

	next := NewInMemoryHabitRepository()
	return NewCachedHabitRepository(next, rdb, log), next, mr
}

func TestCachedHabitRepositoryListByUserID(t *testing.T) {
	ctx := context.Background()
	userID := uuid.NewString()

	t.Run("Miss populates the cache", func(t *testing.T) {
		cached, next, mr := setupCache(t)

		habit, err := domain.NewHabit(userID, "Running", "", domain.FrequencyDaily)
		require.NoError(t, err)
		require.NoError(t, next.Create(ctx, habit))

		habits, err := cached.ListByUserID(ctx, userID)
		assert.NoError(t, err)
		assert.Len(t, habits, 1)

		assert.True(t, mr.Exists("habits:"+userID))
	})

	t.Run("Hit skips the source", func(t *testing.T) {
		cached, next, _ := setupCache(t)

		habit, err := domain.NewHabit(userID, "Running", "", domain.FrequencyDaily)
		require.NoError(t, err)
		require.NoError(t, next.Create(ctx, habit))

		first, err := cached.ListByUserID(ctx, userID)
		require.NoError(t, err)
		require.Len(t, first, 1)

		// A write bypassing the cache is invisible until the TTL expires.
		other, err := domain.NewHabit(userID, "Reading", "", domain.FrequencyDaily)
		require.NoError(t, err)
		require.NoError(t, next.Create(ctx, other))

		second, err := cached.ListByUserID(ctx, userID)
		assert.NoError(t, err)
		assert.Len(t, second, 1)
	})

	t.Run("Create invalidates", func(t *testing.T) {
		cached, _, mr := setupCache(t)

		habit, err := domain.NewHabit(userID, "Running", "", domain.FrequencyDaily)
		require.NoError(t, err)
		require.NoError(t, cached.Create(ctx, habit))

		_, err = cached.ListByUserID(ctx, userID)
		require.NoError(t, err)
		require.True(t, mr.Exists("habits:"+userID))

		other, err := domain.NewHabit(userID, "Reading", "", domain.FrequencyDaily)
		require.NoError(t, err)
		require.NoError(t, cached.Create(ctx, other))

		assert.False(t, mr.Exists("habits:"+userID))

		habits, err := cached.ListByUserID(ctx, userID)
		assert.NoError(t, err)
		assert.Len(t, habits, 2)
	})

	t.Run("Corrupted entry falls back to the source", func(t *testing.T) {
		cached, next, mr := setupCache(t)

		habit, err := domain.NewHabit(userID, "Running", "", domain.FrequencyDaily)
		require.NoError(t, err)
		require.NoError(t, next.Create(ctx, habit))

		require.NoError(t, mr.Set("habits:"+userID, "{{not json"))

		habits, err := cached.ListByUserID(ctx, userID)
		assert.NoError(t, err)
		assert.Len(t, habits, 1)
	})
}
