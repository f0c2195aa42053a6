package handlers

import (
	"net/http"

	"bloom-planner/api/logger"
	"bloom-planner/api/tracker"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type InternalHandler struct {
	sweeper *tracker.Sweeper
}

func NewInternalHandler(sweeper *tracker.Sweeper) *InternalHandler {
	return &InternalHandler{sweeper: sweeper}
}

// HandleSweep runs one recovery sweep on demand, for scheduler ticks and
// operators. The periodic sweep runs regardless.
func (h *InternalHandler) HandleSweep(c *gin.Context) {
	swept, err := h.sweeper.SweepStuck(c.Request.Context())
	if err != nil {
		logger.Get().Error("on-demand sweep failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "swept": swept})
}
