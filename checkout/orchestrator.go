package checkout

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"bloom-planner/api/entitlement"

	"github.com/stripe/stripe-go/v82"
	"go.uber.org/zap"
)

var (
	// ErrUnauthorized is returned before any provider call when the request
	// carries no authenticated identity.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrMissingPriceID is returned before any provider call when the
	// request omits the price reference.
	ErrMissingPriceID = errors.New("priceId is required")
	// ErrUnknownPlan is returned before any provider call when the plan
	// label does not name a real tier. The label is client-supplied and
	// later lands in subscription records via webhook metadata, so it is
	// rejected at the door instead of stored verbatim.
	ErrUnknownPlan = errors.New("unknown plan name")
)

// SessionCreator is the payment-provider boundary. The production
// implementation delegates to Stripe's hosted checkout.
type SessionCreator interface {
	Create(ctx context.Context, params *stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error)
}

// CreateSessionRequest carries everything needed to build one checkout
// session. Origin is the deployment the request arrived at, so the hosted
// flow redirects back to the same instance.
type CreateSessionRequest struct {
	PriceID   string
	PlanName  string
	Origin    string
	UserEmail string
}

type Orchestrator struct {
	sessions      SessionCreator
	appName       string
	defaultOrigin string
	now           func() time.Time
	log           *zap.Logger
}

func NewOrchestrator(sessions SessionCreator, appName, defaultOrigin string, log *zap.Logger) *Orchestrator {
	if log == nil {
		log = zap.NewNop()
	}
	return &Orchestrator{
		sessions:      sessions,
		appName:       appName,
		defaultOrigin: defaultOrigin,
		now:           time.Now,
		log:           log,
	}
}

// CreateSession builds a subscription-mode checkout session and returns only
// the hosted URL. Authorization and validation both fail before the provider
// is contacted. Provider errors are surfaced verbatim and never retried here:
// the idempotency key is what protects retried client requests from creating
// duplicate subscriptions.
func (o *Orchestrator) CreateSession(ctx context.Context, req CreateSessionRequest) (string, error) {
	if req.UserEmail == "" {
		return "", ErrUnauthorized
	}
	if req.PriceID == "" {
		return "", ErrMissingPriceID
	}
	if !entitlement.IsKnownTier(req.PlanName) {
		return "", fmt.Errorf("%w: %q", ErrUnknownPlan, req.PlanName)
	}

	origin := req.Origin
	if origin == "" {
		origin = o.defaultOrigin
	}
	successURL := origin + "/subscription?session_id={CHECKOUT_SESSION_ID}"
	cancelURL := origin + "/subscription?canceled=true"

	params := &stripe.CheckoutSessionParams{
		SuccessURL:    stripe.String(successURL),
		CancelURL:     stripe.String(cancelURL),
		Mode:          stripe.String(string(stripe.CheckoutSessionModeSubscription)),
		CustomerEmail: stripe.String(req.UserEmail),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				Price:    stripe.String(req.PriceID),
				Quantity: stripe.Int64(1),
			},
		},
	}
	params.Context = ctx
	params.IdempotencyKey = stripe.String(idempotencyKey(req.UserEmail, req.PriceID, o.now()))
	params.AddMetadata(MetadataKeyApp, o.appName)
	params.AddMetadata(MetadataKeyUserEmail, req.UserEmail)
	params.AddMetadata(MetadataKeyPlanName, req.PlanName)

	s, err := o.sessions.Create(ctx, params)
	if err != nil {
		o.log.Error("checkout session creation failed",
			zap.String("user_email", req.UserEmail),
			zap.String("price_id", req.PriceID),
			zap.Error(err))
		return "", fmt.Errorf("creating checkout session: %w", err)
	}

	o.log.Info("checkout session created",
		zap.String("user_email", req.UserEmail),
		zap.String("plan_name", req.PlanName))
	return s.URL, nil
}

// idempotencyKey collapses retried requests inside the same hour for one
// user and price into a single provider-side session.
func idempotencyKey(email, priceID string, now time.Time) string {
	bucket := now.UTC().Truncate(time.Hour).Unix()
	sum := sha256.Sum256([]byte(fmt.Sprintf("%s|%s|%d", email, priceID, bucket)))
	return hex.EncodeToString(sum[:])
}
