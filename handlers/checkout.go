package handlers

import (
	"errors"
	"net/http"

	"bloom-planner/api/checkout"
	"bloom-planner/api/logger"
	"bloom-planner/api/middleware"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type CheckoutHandler struct {
	orchestrator *checkout.Orchestrator
}

func NewCheckoutHandler(orchestrator *checkout.Orchestrator) *CheckoutHandler {
	return &CheckoutHandler{orchestrator: orchestrator}
}

type CreateCheckoutSessionRequest struct {
	PriceID  string `json:"priceId"`
	PlanName string `json:"planName"`
}

// HandleCreateCheckoutSession builds a hosted checkout session for the
// authenticated user. Identity is checked before anything reaches the
// payment provider, and only the hosted URL leaves this handler.
func (h *CheckoutHandler) HandleCreateCheckoutSession(c *gin.Context) {
	claims, ok := middleware.ClaimsFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	var req CreateCheckoutSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Get().Warn("invalid checkout request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	url, err := h.orchestrator.CreateSession(c.Request.Context(), checkout.CreateSessionRequest{
		PriceID:   req.PriceID,
		PlanName:  req.PlanName,
		Origin:    c.GetHeader("Origin"),
		UserEmail: claims.Email,
	})
	if err != nil {
		switch {
		case errors.Is(err, checkout.ErrUnauthorized):
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		case errors.Is(err, checkout.ErrMissingPriceID):
			c.JSON(http.StatusBadRequest, gin.H{"error": checkout.ErrMissingPriceID.Error()})
		case errors.Is(err, checkout.ErrUnknownPlan):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		default:
			// Provider failures are surfaced with their message, never
			// silently retried.
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"sessionUrl": url})
}
