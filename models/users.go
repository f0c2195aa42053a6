package models

type User struct {
	UserID              string             `bson:"user_id" json:"user_id"`
	Email               string             `bson:"email" json:"email"`
	Role                UserRole           `bson:"role" json:"role"`
	StripeID            *string            `bson:"stripe_id" json:"stripe_id"`
	SubscriptionStatus  SubscriptionStatus `bson:"subscription_status" json:"subscription_status"`
	SubscriptionPlan    string             `bson:"subscription_plan" json:"subscription_plan"`
	NotificationEnabled bool               `bson:"notification_enabled" json:"notification_enabled"`
	Timezone            *string            `bson:"timezone" json:"timezone"`
}

type UserRole string

const (
	UserRoleOrdinary UserRole = "user"
	UserRoleAdmin    UserRole = "admin"
)

type SubscriptionStatus string

const (
	SubscriptionStatusActive   SubscriptionStatus = "active"
	SubscriptionStatusInactive SubscriptionStatus = "inactive"
)
