package handlers

import (
	"net/http"

	"bloom-planner/api/entitlement"
	"bloom-planner/api/middleware"

	"github.com/gin-gonic/gin"
)

type AccessHandler struct {
	gate *entitlement.Gate
}

func NewAccessHandler(gate *entitlement.Gate) *AccessHandler {
	return &AccessHandler{gate: gate}
}

type CheckAccessRequest struct {
	RequiredTier string `json:"required_tier" binding:"required"`
}

// HandleCheckAccess answers whether the caller may use a tier-gated
// feature. The gate never errors: the response is always a definite
// granted/denied.
func (h *AccessHandler) HandleCheckAccess(c *gin.Context) {
	claims, ok := middleware.ClaimsFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	var req CheckAccessRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result := h.gate.CheckAccess(c.Request.Context(), claims.Sub, req.RequiredTier)
	c.JSON(http.StatusOK, gin.H{
		"success":        true,
		"granted":        result.Granted,
		"effective_tier": result.EffectiveTier,
		"settled":        result.Settled,
	})
}
