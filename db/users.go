package db

import (
	"context"
	"database/sql"
	"fmt"

	"bloom-planner/api/models"
)

// UserStore reads user records and applies subscription changes delivered by
// payment reconciliation. Identity fields are never mutated here.
type UserStore struct {
	db *sql.DB
}

func NewUserStore(database *sql.DB) *UserStore {
	return &UserStore{db: database}
}

func (s *UserStore) GetUserByID(ctx context.Context, userID string) (*models.User, error) {
	query := `
		SELECT id, email, role, stripe_id, subscription_status, subscription_plan, notification_enabled, timezone
		FROM users
		WHERE id = $1
	`
	return s.scanUser(s.db.QueryRowContext(ctx, query, userID), userID)
}

func (s *UserStore) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	query := `
		SELECT id, email, role, stripe_id, subscription_status, subscription_plan, notification_enabled, timezone
		FROM users
		WHERE email = $1
	`
	return s.scanUser(s.db.QueryRowContext(ctx, query, email), email)
}

func (s *UserStore) scanUser(row *sql.Row, key string) (*models.User, error) {
	user := &models.User{}
	err := row.Scan(
		&user.UserID,
		&user.Email,
		&user.Role,
		&user.StripeID,
		&user.SubscriptionStatus,
		&user.SubscriptionPlan,
		&user.NotificationEnabled,
		&user.Timezone,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("user not found: %s", key)
		}
		return nil, fmt.Errorf("error getting user %s: %v", key, err)
	}
	return user, nil
}

// UpdateSubscriptionByEmail applies a reconciled payment event. Email is the
// correlation key recovered from the checkout metadata bag.
func (s *UserStore) UpdateSubscriptionByEmail(ctx context.Context, email, plan string, status models.SubscriptionStatus) error {
	query := `
		UPDATE users
		SET subscription_plan = $1, subscription_status = $2
		WHERE email = $3
	`
	_, err := s.db.ExecContext(ctx, query, plan, status, email)
	if err != nil {
		return fmt.Errorf("error updating subscription for %s: %v", email, err)
	}
	return nil
}

// UpdateSubscriptionStatusByEmail flips only the status, for invoice events
// that carry no plan change.
func (s *UserStore) UpdateSubscriptionStatusByEmail(ctx context.Context, email string, status models.SubscriptionStatus) error {
	query := `
		UPDATE users
		SET subscription_status = $1
		WHERE email = $2
	`
	_, err := s.db.ExecContext(ctx, query, status, email)
	if err != nil {
		return fmt.Errorf("error updating subscription status for %s: %v", email, err)
	}
	return nil
}

// UpdateStripeIDByEmail records the provider-side customer id on first
// successful checkout.
func (s *UserStore) UpdateStripeIDByEmail(ctx context.Context, email, stripeID string) error {
	query := `
		UPDATE users
		SET stripe_id = $1
		WHERE email = $2
	`
	_, err := s.db.ExecContext(ctx, query, stripeID, email)
	if err != nil {
		return fmt.Errorf("error updating Stripe ID for %s: %v", email, err)
	}
	return nil
}
