package http_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	adapterHTTP "habitflow/internal/adapters/handler/http"
)

type fakeTrigger struct {
	enqueued []uuid.UUID
	err      error
}

func (f *fakeTrigger) SendReportTrigger(ctx context.Context, userID uuid.UUID) error {
	if f.err != nil {
		return f.err
	}
	f.enqueued = append(f.enqueued, userID)
	return nil
}

func setupReportRouter(trigger *fakeTrigger) *gin.Engine {
	gin.SetMode(gin.TestMode)

	r := gin.New()
	adapterHTTP.NewReportHandler(trigger).RegisterRoutes(r.Group("/api/v1"))
	return r
}

func TestTriggerReportEndpoint(t *testing.T) {
	t.Run("Success: 202 Accepted", func(t *testing.T) {
		trigger := &fakeTrigger{}
		router := setupReportRouter(trigger)
		userID := uuid.New()

		req, _ := http.NewRequest("POST", "/api/v1/reports/trigger", nil)
		req.Header.Set("X-User-ID", userID.String())

		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusAccepted, w.Code)
		assert.Contains(t, w.Body.String(), `"queued"`)
		assert.Equal(t, []uuid.UUID{userID}, trigger.enqueued)
	})

	t.Run("Fail: 400 non-UUID user", func(t *testing.T) {
		router := setupReportRouter(&fakeTrigger{})

		req, _ := http.NewRequest("POST", "/api/v1/reports/trigger", nil)
		req.Header.Set("X-User-ID", "user-1")

		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("Fail: 502 queue unavailable", func(t *testing.T) {
		router := setupReportRouter(&fakeTrigger{err: errors.New("queue down")})

		req, _ := http.NewRequest("POST", "/api/v1/reports/trigger", nil)
		req.Header.Set("X-User-ID", uuid.NewString())

		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadGateway, w.Code)
	})
}
