package handlers

import (
	"context"
	"net/http"

	"bloom-planner/api/logger"
	"bloom-planner/api/middleware"
	"bloom-planner/api/models"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// PlannerStore is the typed slice of the entity store the task/event
// endpoints need.
type PlannerStore interface {
	CreateTask(ctx context.Context, task *models.Task) error
	CreateEvent(ctx context.Context, event *models.SpecialEvent) error
	UpdateTaskCompleted(ctx context.Context, id string, completed bool) error
	UpdateEventCompleted(ctx context.Context, id string, completed bool) error
}

type PlannerHandler struct {
	store PlannerStore
}

func NewPlannerHandler(store PlannerStore) *PlannerHandler {
	return &PlannerHandler{store: store}
}

type CreateTaskRequest struct {
	Title   string `json:"title" binding:"required"`
	DueDate string `json:"due_date" binding:"required"`
}

func (h *PlannerHandler) HandleCreateTask(c *gin.Context) {
	claims, ok := middleware.ClaimsFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	var req CreateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	task := &models.Task{
		ID:        uuid.NewString(),
		Title:     req.Title,
		DueDate:   req.DueDate,
		CreatedBy: claims.Email,
	}
	if err := h.store.CreateTask(c.Request.Context(), task); err != nil {
		logger.Get().Error("failed to create task", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "task": task})
}

type CreateEventRequest struct {
	Name string `json:"name" binding:"required"`
	Date string `json:"date" binding:"required"`
}

func (h *PlannerHandler) HandleCreateEvent(c *gin.Context) {
	claims, ok := middleware.ClaimsFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	var req CreateEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	event := &models.SpecialEvent{
		ID:        uuid.NewString(),
		Name:      req.Name,
		Date:      req.Date,
		CreatedBy: claims.Email,
	}
	if err := h.store.CreateEvent(c.Request.Context(), event); err != nil {
		logger.Get().Error("failed to create event", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "event": event})
}

type CompleteRequest struct {
	Completed *bool `json:"completed" binding:"required"`
}

func (h *PlannerHandler) HandleCompleteTask(c *gin.Context) {
	h.handleComplete(c, h.store.UpdateTaskCompleted)
}

func (h *PlannerHandler) HandleCompleteEvent(c *gin.Context) {
	h.handleComplete(c, h.store.UpdateEventCompleted)
}

func (h *PlannerHandler) handleComplete(c *gin.Context, update func(context.Context, string, bool) error) {
	if _, ok := middleware.ClaimsFrom(c); !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	var req CompleteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := update(c.Request.Context(), c.Param("id"), *req.Completed); err != nil {
		logger.Get().Error("failed to update completion", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}
