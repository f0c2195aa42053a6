package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"bloom-planner/api/checkout"
	"bloom-planner/api/logger"
	"bloom-planner/api/middleware"
	"bloom-planner/api/models"

	"github.com/gin-gonic/gin"
	"github.com/stripe/stripe-go/v82"
	"go.uber.org/zap"
)

// SubscriptionUpdater applies reconciled payment events to the user record.
type SubscriptionUpdater interface {
	UpdateSubscriptionByEmail(ctx context.Context, email, plan string, status models.SubscriptionStatus) error
	UpdateSubscriptionStatusByEmail(ctx context.Context, email string, status models.SubscriptionStatus) error
	UpdateStripeIDByEmail(ctx context.Context, email, stripeID string) error
}

type WebhookHandler struct {
	users   SubscriptionUpdater
	appName string
}

func NewWebhookHandler(users SubscriptionUpdater, appName string) *WebhookHandler {
	return &WebhookHandler{users: users, appName: appName}
}

// HandleStripeWebhook reconciles asynchronously-delivered payment events
// back to the originating user via the metadata bag embedded at checkout.
// The verifier middleware has already authenticated the event signature.
func (h *WebhookHandler) HandleStripeWebhook(c *gin.Context) {
	value, exists := c.Get(middleware.StripeEventKey)
	if !exists {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing webhook event"})
		return
	}
	event, ok := value.(stripe.Event)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid webhook event"})
		return
	}

	ctx := c.Request.Context()

	switch event.Type {
	case "checkout.session.completed":
		if err := h.reconcileCheckout(ctx, event); err != nil {
			logger.Get().Error("checkout reconciliation failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}

	case "invoice.paid":
		if err := h.applyInvoiceStatus(ctx, event, models.SubscriptionStatusActive); err != nil {
			logger.Get().Error("invoice.paid handling failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}

	case "invoice.payment_failed":
		if err := h.applyInvoiceStatus(ctx, event, models.SubscriptionStatusInactive); err != nil {
			logger.Get().Error("invoice.payment_failed handling failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}

	default:
		logger.Get().Debug("unhandled webhook event type",
			zap.String("type", string(event.Type)))
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (h *WebhookHandler) reconcileCheckout(ctx context.Context, event stripe.Event) error {
	var session stripe.CheckoutSession
	if err := json.Unmarshal(event.Data.Raw, &session); err != nil {
		return err
	}

	rec, err := checkout.ReconcileMetadata(session.Metadata)
	if err != nil {
		return err
	}
	if rec.App != h.appName {
		// Another deployment's session on a shared webhook endpoint.
		logger.Get().Debug("ignoring session for other app",
			zap.String("app", rec.App))
		return nil
	}

	if err := h.users.UpdateSubscriptionByEmail(ctx, rec.UserEmail, rec.PlanName, models.SubscriptionStatusActive); err != nil {
		return err
	}
	if session.Customer != nil && session.Customer.ID != "" {
		if err := h.users.UpdateStripeIDByEmail(ctx, rec.UserEmail, session.Customer.ID); err != nil {
			return err
		}
	}

	logger.Get().Info("subscription reconciled",
		zap.String("user_email", rec.UserEmail),
		zap.String("plan_name", rec.PlanName))
	return nil
}

func (h *WebhookHandler) applyInvoiceStatus(ctx context.Context, event stripe.Event, status models.SubscriptionStatus) error {
	var invoice stripe.Invoice
	if err := json.Unmarshal(event.Data.Raw, &invoice); err != nil {
		return err
	}
	if invoice.CustomerEmail == "" {
		logger.Get().Warn("invoice event without customer email",
			zap.String("event_id", event.ID))
		return nil
	}
	return h.users.UpdateSubscriptionStatusByEmail(ctx, invoice.CustomerEmail, status)
}
