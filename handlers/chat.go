package handlers

import (
	"encoding/json"
	"net/http"

	"bloom-planner/api/logger"
	"bloom-planner/api/middleware"
	"bloom-planner/api/tracker"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Produce hands an outbound message to the broker. Injected so the handler
// does not hold the Kafka client directly.
type Produce func(topic string, message []byte) error

type ChatHandler struct {
	tracker *tracker.Tracker
	produce Produce
	topic   string
}

func NewChatHandler(t *tracker.Tracker, produce Produce, topic string) *ChatHandler {
	return &ChatHandler{tracker: t, produce: produce, topic: topic}
}

type SendMessageRequest struct {
	Message    string `json:"message" binding:"required"`
	SessionKey string `json:"session_key"`
}

// HandleSendMessage accepts a chat submission, durably records it as pending
// and hands it to the assistant pipeline. Authentication is optional here:
// anonymous submitters become the Guest author instead of being rejected.
func (h *ChatHandler) HandleSendMessage(c *gin.Context) {
	var req SendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Get().Warn("invalid chat submission", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	author := tracker.AuthorContext{SessionKey: req.SessionKey}
	if claims, ok := middleware.ClaimsFrom(c); ok {
		author.UserID = claims.Sub
		author.Name = claims.Email
	}

	record, err := h.tracker.Submit(c.Request.Context(), req.Message, author)
	if err != nil {
		logger.Get().Error("failed to submit record", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	payload, err := json.Marshal(record)
	if err == nil {
		err = h.produce(h.topic, payload)
	}
	if err != nil {
		// The record stays discoverable; only its status reflects the
		// broken hand-off.
		if failErr := h.tracker.Fail(c.Request.Context(), record.ID, err); failErr != nil {
			logger.Get().Error("failed to mark record failed",
				zap.String("record_id", record.ID),
				zap.Error(failErr))
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":     true,
		"record_id":   record.ID,
		"session_key": record.SessionKey,
		"status":      record.Status,
	})
}

// HandleGetSessionRecords returns every record of a conversation, including
// ones still mid-lifecycle. Status is the progress signal.
func (h *ChatHandler) HandleGetSessionRecords(c *gin.Context) {
	sessionKey := c.Param("sessionKey")
	if sessionKey == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "session key is required"})
		return
	}

	records, err := h.tracker.ListSession(c.Request.Context(), sessionKey)
	if err != nil {
		logger.Get().Error("failed to list session records",
			zap.String("session_key", sessionKey),
			zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "records": records})
}
