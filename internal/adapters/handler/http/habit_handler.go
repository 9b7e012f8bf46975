package http

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"habitflow/internal/core/domain"
	"habitflow/internal/core/services"
)

type HabitHandler struct {
	svc *services.HabitService
}

func NewHabitHandler(svc *services.HabitService) *HabitHandler {
	return &HabitHandler{
		svc: svc,
	}
}

type createHabitRequest struct {
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
	Frequency   string `json:"frequency"`
}

func (h *HabitHandler) RegisterRoutes(router *gin.RouterGroup) {
	habits := router.Group("/habits")
	{
		habits.POST("", h.Create)
		habits.GET("", h.List)
		habits.GET("/at-risk", h.ListAtRisk)
		habits.POST("/:id/complete", h.Complete)
	}
}

func (h *HabitHandler) Create(c *gin.Context) {
	userID, ok := requestUserID(c)
	if !ok {
		return
	}

	var req createHabitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	habit, err := h.svc.Create(c.Request.Context(), services.CreateHabitInput{
		UserID:      userID,
		Name:        req.Name,
		Description: req.Description,
		Frequency:   req.Frequency,
	})
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, habit)
}

func (h *HabitHandler) List(c *gin.Context) {
	userID, ok := requestUserID(c)
	if !ok {
		return
	}

	habits, err := h.svc.ListByUserID(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list habits"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"habits": habits})
}

func (h *HabitHandler) ListAtRisk(c *gin.Context) {
	userID, ok := requestUserID(c)
	if !ok {
		return
	}

	threshold := 3
	if raw := c.Query("threshold_days"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "threshold_days must be a positive integer"})
			return
		}
		threshold = parsed
	}

	habits, err := h.svc.ListAtRisk(c.Request.Context(), userID, threshold)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list at-risk habits"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"habits": habits})
}

// Complete logs a completion and returns immediately; streaks, points and
// achievements are computed in the background and are not reflected in the
// response.
func (h *HabitHandler) Complete(c *gin.Context) {
	userID, ok := requestUserID(c)
	if !ok {
		return
	}

	completion, err := h.svc.LogCompletion(c.Request.Context(), userID, c.Param("id"))
	if err != nil {
		if errors.Is(err, domain.ErrHabitNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "habit not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to log completion"})
		return
	}

	c.JSON(http.StatusCreated, completion)
}

// requestUserID resolves the caller's identity from the X-User-ID header.
// Authentication itself is handled upstream of this service.
func requestUserID(c *gin.Context) (string, bool) {
	userID := c.GetHeader("X-User-ID")
	if userID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing X-User-ID header"})
		return "", false
	}
	return userID, true
}
