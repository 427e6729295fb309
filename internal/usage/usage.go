// Package usage enforces the per-caller monthly enhancement allowance.
package usage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Subscription tiers.
const (
	TierFree = "free"
	TierPro  = "pro"
)

// DefaultFreeTierLimit is the number of enhancements a free caller gets per month.
const DefaultFreeTierLimit = 5

// ErrUserNotFound is returned by a Store for an unknown caller.
var ErrUserNotFound = errors.New("user not found")

// ErrLimitExhausted is returned by Store.IncrementUsage when the counter is
// already at the requested ceiling.
var ErrLimitExhausted = errors.New("usage ceiling reached")

// Usage is a caller's current allowance state.
type Usage struct {
	UserID       uuid.UUID  `json:"user_id"`
	Tier         string     `json:"subscription_tier"`
	MonthlyUsage int        `json:"monthly_usage"`
	ResetAt      *time.Time `json:"reset_at,omitempty"`
}

// Store persists usage counters. It is owned outside the pipeline; the
// pipeline only reads, resets and increments.
type Store interface {
	GetUsage(ctx context.Context, userID uuid.UUID) (*Usage, error)
	// IncrementUsage adds one to the counter and returns the new value. When
	// ceiling is positive the increment only happens while the counter is
	// below it; otherwise ErrLimitExhausted is returned and nothing changes.
	// The check and the increment are one atomic step.
	IncrementUsage(ctx context.Context, userID uuid.UUID, ceiling int) (int, error)
	// DecrementUsage gives one unit back. The counter never goes below zero.
	DecrementUsage(ctx context.Context, userID uuid.UUID) error
	// ResetIfDue zeroes the counter and schedules the next reset when no
	// reset is stored or the stored one is not after now. It returns the
	// usage after any reset.
	ResetIfDue(ctx context.Context, userID uuid.UUID, now time.Time) (*Usage, error)
}

// NextResetAt returns 00:00 UTC on the first day of the month after now.
func NextResetAt(now time.Time) time.Time {
	n := now.UTC()
	return time.Date(n.Year(), n.Month()+1, 1, 0, 0, 0, 0, time.UTC)
}

// IsResetDue reports whether u's counter should be reset at now.
func IsResetDue(u *Usage, now time.Time) bool {
	return u.ResetAt == nil || !now.Before(*u.ResetAt)
}

// LimitReachedError is returned when a caller has used their monthly allowance.
type LimitReachedError struct {
	Limit int
	Used  int
}

func (e *LimitReachedError) Error() string {
	return fmt.Sprintf("monthly recording limit reached (%d of %d used)", e.Used, e.Limit)
}
