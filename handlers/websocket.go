package handlers

import (
	"net/http"
	"time"

	"bloom-planner/api/logger"
	"bloom-planner/api/sse"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

const writeTimeout = 10 * time.Second

// HandleRecordFeed is the WebSocket flavor of the record stream, for
// dashboard clients that prefer a duplex connection over SSE.
func HandleRecordFeed(c *gin.Context) {
	sessionKey := c.Param("sessionKey")
	if sessionKey == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "session key is required"})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logger.Get().Error("failed to upgrade connection", zap.Error(err))
		return
	}
	defer conn.Close()

	stream := sse.Register(sessionKey)
	defer sse.Unregister(sessionKey, stream)

	logger.Get().Debug("WebSocket feed established",
		zap.String("session_key", sessionKey),
		zap.String("remote", c.Request.RemoteAddr))

	// Drain reads so close frames are noticed.
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case msg, ok := <-stream.Messages:
			if !ok {
				return
			}
			conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := conn.WriteMessage(websocket.TextMessage, []byte(msg)); err != nil {
				logger.Get().Warn("failed to write to feed", zap.Error(err))
				return
			}
		case <-stream.Done:
			conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return
		case <-closed:
			return
		case <-c.Request.Context().Done():
			return
		}
	}
}
