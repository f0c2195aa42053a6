package handlers

import (
	"io"
	"net/http"

	"bloom-planner/api/logger"
	"bloom-planner/api/sse"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// HandleRecordStream streams a session's assistant chunks and status
// transitions as server-sent events. The session key is the capability:
// guest conversations carry no token, so the route is mounted behind
// optional auth only.
func HandleRecordStream(c *gin.Context) {
	sessionKey := c.Param("sessionKey")
	if sessionKey == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "session key is required"})
		return
	}

	stream := sse.Register(sessionKey)
	defer sse.Unregister(sessionKey, stream)

	flusher, ok := c.Writer.(http.Flusher)
	if !ok {
		c.String(http.StatusInternalServerError, "Streaming unsupported!")
		return
	}

	c.Writer.Header().Set("Content-Type", "text/event-stream")
	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")

	logger.Get().Debug("SSE connection established",
		zap.String("session_key", sessionKey))

	c.Stream(func(w io.Writer) bool {
		select {
		case msg, ok := <-stream.Messages:
			if !ok {
				return false
			}
			c.Writer.Write([]byte("data: " + msg + "\n\n"))
			flusher.Flush()
			return true
		case <-c.Request.Context().Done():
			return false
		case <-stream.Done:
			logger.Get().Debug("SSE stream finished",
				zap.String("session_key", sessionKey))
			return false
		}
	})
}
