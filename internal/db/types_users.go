package db

import (
	"time"

	"github.com/google/uuid"

	"github.com/jonathan/notepolish/internal/usage"
)

// User represents a caller account
type User struct {
	ID               uuid.UUID  `json:"id"`
	Email            string     `json:"email"`
	DisplayName      string     `json:"display_name,omitempty"`
	SubscriptionTier string     `json:"subscription_tier"`
	MonthlyUsage     int        `json:"monthly_usage"`
	UsageResetAt     *time.Time `json:"usage_reset_at,omitempty"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
}

// Usage returns the quota view of the user.
func (u *User) Usage() *usage.Usage {
	return &usage.Usage{
		UserID:       u.ID,
		Tier:         u.SubscriptionTier,
		MonthlyUsage: u.MonthlyUsage,
		ResetAt:      u.UsageResetAt,
	}
}
