package entitlement

import (
	"context"

	"bloom-planner/api/models"

	"go.uber.org/zap"
)

// EffectiveTierAdmin is the sentinel reported for admins, who bypass tier
// ranking entirely.
const EffectiveTierAdmin = "admin"

// UserSource reads the live subscription record backing an access check.
type UserSource interface {
	GetUserByID(ctx context.Context, userID string) (*models.User, error)
}

// AccessResult is the answer to an admission-control query. Settled is false
// only while the subscription record is still being resolved; callers always
// receive a definite Granted either way.
type AccessResult struct {
	Granted       bool   `json:"granted"`
	EffectiveTier string `json:"effective_tier"`
	Settled       bool   `json:"settled"`
}

type Gate struct {
	users UserSource
	log   *zap.Logger
}

func NewGate(users UserSource, log *zap.Logger) *Gate {
	if log == nil {
		log = zap.NewNop()
	}
	return &Gate{users: users, log: log}
}

// CheckAccess resolves the user's subscription record and evaluates it
// against the required tier. A failed read is treated as denied: entitlement
// checks never propagate errors past this boundary.
func (g *Gate) CheckAccess(ctx context.Context, userID, requiredTier string) AccessResult {
	if userID == "" {
		return AccessResult{Settled: true}
	}

	user, err := g.users.GetUserByID(ctx, userID)
	if err != nil {
		g.log.Warn("entitlement check failed to read user, denying",
			zap.String("user_id", userID),
			zap.Error(err))
		return AccessResult{Settled: true}
	}

	return g.Evaluate(user, requiredTier)
}

// Evaluate applies the admission rule to an already-loaded user record.
func (g *Gate) Evaluate(user *models.User, requiredTier string) AccessResult {
	if user == nil {
		return AccessResult{Settled: true}
	}

	if user.Role == models.UserRoleAdmin {
		return AccessResult{Granted: true, EffectiveTier: EffectiveTierAdmin, Settled: true}
	}

	currentTier := user.SubscriptionPlan
	if currentTier == "" {
		currentTier = TierSeedling.String()
	}

	active := user.SubscriptionStatus == models.SubscriptionStatusActive
	return AccessResult{
		Granted:       active && Meets(currentTier, requiredTier),
		EffectiveTier: currentTier,
		Settled:       true,
	}
}
