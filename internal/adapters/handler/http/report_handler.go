package http

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// ReportTrigger enqueues a report-generation request; the queue worker
// picks it up asynchronously.
type ReportTrigger interface {
	SendReportTrigger(ctx context.Context, userID uuid.UUID) error
}

type ReportHandler struct {
	trigger ReportTrigger
}

func NewReportHandler(trigger ReportTrigger) *ReportHandler {
	return &ReportHandler{
		trigger: trigger,
	}
}

func (h *ReportHandler) RegisterRoutes(router *gin.RouterGroup) {
	reports := router.Group("/reports")
	{
		reports.POST("/trigger", h.Trigger)
	}
}

func (h *ReportHandler) Trigger(c *gin.Context) {
	raw, ok := requestUserID(c)
	if !ok {
		return
	}

	userID, err := uuid.Parse(raw)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "X-User-ID must be a valid UUID"})
		return
	}

	if err := h.trigger.SendReportTrigger(c.Request.Context(), userID); err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": "failed to enqueue report request"})
		return
	}

	c.JSON(http.StatusAccepted, gin.H{"status": "queued"})
}
