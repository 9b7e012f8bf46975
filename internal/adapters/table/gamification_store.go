package table

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/policy"
	"github.com/Azure/azure-sdk-for-go/sdk/data/aztables"
	"github.com/sirupsen/logrus"
)

const pointsRowKey = "points"

// GamificationStore keeps per-user streak and point counters in Azure
// Tables. Writes are idempotent by overwrite: redelivered pipeline runs
// upsert the same keys again.
type GamificationStore struct {
	streaks *aztables.Client
	points  *aztables.Client
	log     *logrus.Entry
}

func NewGamificationStore(connStr, streaksTable, pointsTable string, log *logrus.Logger) (*GamificationStore, error) {
	opts := aztables.ClientOptions{
		ClientOptions: azcore.ClientOptions{
			Retry: policy.RetryOptions{
				MaxRetries:    3,
				TryTimeout:    time.Minute * 3,
				RetryDelay:    time.Second * 1,
				MaxRetryDelay: time.Second * 15,
				StatusCodes:   []int{408, 429, 500, 502, 503, 504},
			},
		},
	}
	svc, err := aztables.NewServiceClientFromConnectionString(connStr, &opts)
	if err != nil {
		return nil, fmt.Errorf("create table service client: %w", err)
	}
	return &GamificationStore{
		streaks: svc.NewClient(streaksTable),
		points:  svc.NewClient(pointsTable),
		log:     log.WithField("component", "gamification_store"),
	}, nil
}

// PutStreak overwrites the streak counter for (user, habit).
func (s *GamificationStore) PutStreak(ctx context.Context, userID, habitID string, count int) error {
	entity := map[string]any{
		"PartitionKey": userID,
		"RowKey":       habitID,
		"Streak":       count,
		"UpdatedAt":    time.Now().UTC().Format(time.RFC3339),
	}
	payload, err := json.Marshal(entity)
	if err != nil {
		return fmt.Errorf("marshal streak entity: %w", err)
	}

	if _, err := s.streaks.UpsertEntity(ctx, payload, &aztables.UpsertEntityOptions{
		UpdateMode: aztables.UpdateModeReplace,
	}); err != nil {
		return fmt.Errorf("put streak for user %s habit %s: %w", userID, habitID, err)
	}
	s.log.Infof("streak for user %s habit %s set to %d", userID, habitID, count)
	return nil
}

type pointsEntity struct {
	aztables.Entity
	Total int `json:"Total"`
}

const maxPointsAttempts = 8

// UpdatePoints adds delta to the user's point balance. Concurrent writers
// are serialized with an ETag-conditional replace: a conflicting increment
// surfaces as 412 and the read-modify-write is retried on fresh state.
func (s *GamificationStore) UpdatePoints(ctx context.Context, userID string, delta int) error {
	for attempt := 0; attempt < maxPointsAttempts; attempt++ {
		resp, err := s.points.GetEntity(ctx, userID, pointsRowKey, nil)
		if err != nil {
			if !isStatus(err, http.StatusNotFound) {
				return fmt.Errorf("read points for user %s: %w", userID, err)
			}

			payload, err := marshalPoints(userID, delta)
			if err != nil {
				return err
			}
			if _, err := s.points.AddEntity(ctx, payload, nil); err != nil {
				if isStatus(err, http.StatusConflict) {
					// another writer created the row first, re-read
					continue
				}
				return fmt.Errorf("create points for user %s: %w", userID, err)
			}
			s.log.Infof("points for user %s now %d (+%d)", userID, delta, delta)
			return nil
		}

		var current pointsEntity
		if err := json.Unmarshal(resp.Value, &current); err != nil {
			return fmt.Errorf("decode points for user %s: %w", userID, err)
		}
		total := current.Total + delta

		payload, err := marshalPoints(userID, total)
		if err != nil {
			return err
		}
		etag := resp.ETag
		if _, err := s.points.UpdateEntity(ctx, payload, &aztables.UpdateEntityOptions{
			IfMatch:    &etag,
			UpdateMode: aztables.UpdateModeReplace,
		}); err != nil {
			if isStatus(err, http.StatusPreconditionFailed) {
				continue
			}
			return fmt.Errorf("update points for user %s: %w", userID, err)
		}
		s.log.Infof("points for user %s now %d (+%d)", userID, total, delta)
		return nil
	}
	return fmt.Errorf("update points for user %s: gave up after %d conflicting writes", userID, maxPointsAttempts)
}

func marshalPoints(userID string, total int) ([]byte, error) {
	payload, err := json.Marshal(map[string]any{
		"PartitionKey": userID,
		"RowKey":       pointsRowKey,
		"Total":        total,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal points entity: %w", err)
	}
	return payload, nil
}

func isStatus(err error, code int) bool {
	var respErr *azcore.ResponseError
	return errors.As(err, &respErr) && respErr.StatusCode == code
}
