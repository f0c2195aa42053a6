package handlers

import (
	"context"
	"net/http"

	"bloom-planner/api/logger"
	"bloom-planner/api/middleware"
	"bloom-planner/api/models"
	"bloom-planner/api/notify"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// UserReader loads the caller's full user record.
type UserReader interface {
	GetUserByID(ctx context.Context, userID string) (*models.User, error)
}

type NotificationHandler struct {
	users   UserReader
	scanner *notify.Scanner
}

func NewNotificationHandler(users UserReader, scanner *notify.Scanner) *NotificationHandler {
	return &NotificationHandler{users: users, scanner: scanner}
}

// HandleFindDueItems runs a notification scan for the caller. A user with
// notifications disabled gets the explicit skipped marker, not an empty
// success.
func (h *NotificationHandler) HandleFindDueItems(c *gin.Context) {
	claims, ok := middleware.ClaimsFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	user, err := h.users.GetUserByID(c.Request.Context(), claims.Sub)
	if err != nil {
		logger.Get().Error("failed to load user for notification scan",
			zap.String("user_id", claims.Sub),
			zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	result, err := h.scanner.FindDueItems(c.Request.Context(), user)
	if err != nil {
		logger.Get().Error("notification scan failed",
			zap.String("user_id", claims.Sub),
			zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"skipped": result.Skipped,
		"reason":  result.Reason,
		"tasks":   result.Tasks,
		"events":  result.Events,
	})
}
