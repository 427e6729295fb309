package db

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/jonathan/notepolish/internal/usage"
)

const userColumns = `id, email, COALESCE(display_name, ''), subscription_tier, monthly_usage, usage_reset_at, created_at, updated_at`

func scanUser(row pgx.Row) (*User, error) {
	var u User
	err := row.Scan(&u.ID, &u.Email, &u.DisplayName, &u.SubscriptionTier,
		&u.MonthlyUsage, &u.UsageResetAt, &u.CreatedAt, &u.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, usage.ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// CreateUser inserts a user on the given tier. An empty tier means free.
func (db *DB) CreateUser(ctx context.Context, email, displayName, tier string) (*User, error) {
	if tier == "" {
		tier = usage.TierFree
	}
	var name *string
	if displayName != "" {
		name = &displayName
	}

	u, err := scanUser(db.pool.QueryRow(ctx,
		`INSERT INTO users (email, display_name, subscription_tier)
		 VALUES ($1, $2, $3)
		 RETURNING `+userColumns,
		strings.ToLower(strings.TrimSpace(email)), name, tier,
	))
	if err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	return u, nil
}

// GetUserByID returns a user, or usage.ErrUserNotFound.
func (db *DB) GetUserByID(ctx context.Context, id uuid.UUID) (*User, error) {
	u, err := scanUser(db.pool.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = $1`, id))
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return u, nil
}

// GetUserByEmail returns a user, or usage.ErrUserNotFound.
func (db *DB) GetUserByEmail(ctx context.Context, email string) (*User, error) {
	u, err := scanUser(db.pool.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE email = $1`,
		strings.ToLower(strings.TrimSpace(email))))
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return u, nil
}

// SetSubscriptionTier changes a user's tier.
func (db *DB) SetSubscriptionTier(ctx context.Context, id uuid.UUID, tier string) error {
	tag, err := db.pool.Exec(ctx,
		`UPDATE users SET subscription_tier = $2, updated_at = NOW() WHERE id = $1`, id, tier)
	if err != nil {
		return fmt.Errorf("failed to set subscription tier: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return usage.ErrUserNotFound
	}
	return nil
}

// GetUsage implements usage.Store.
func (db *DB) GetUsage(ctx context.Context, userID uuid.UUID) (*usage.Usage, error) {
	u, err := db.GetUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	return u.Usage(), nil
}

// IncrementUsage implements usage.Store. The ceiling test and the increment
// are one conditional UPDATE, so concurrent requests cannot both take the
// last enhancement.
func (db *DB) IncrementUsage(ctx context.Context, userID uuid.UUID, ceiling int) (int, error) {
	var count int
	err := db.pool.QueryRow(ctx,
		`UPDATE users SET monthly_usage = monthly_usage + 1, updated_at = NOW()
		 WHERE id = $1 AND ($2::int <= 0 OR monthly_usage < $2::int)
		 RETURNING monthly_usage`,
		userID, ceiling,
	).Scan(&count)
	if errors.Is(err, pgx.ErrNoRows) {
		return db.exhaustedOrMissing(ctx, userID)
	}
	if err != nil {
		return 0, fmt.Errorf("failed to increment usage: %w", err)
	}
	return count, nil
}

// exhaustedOrMissing explains why a conditional increment matched no row.
func (db *DB) exhaustedOrMissing(ctx context.Context, userID uuid.UUID) (int, error) {
	var count int
	err := db.pool.QueryRow(ctx, `SELECT monthly_usage FROM users WHERE id = $1`, userID).Scan(&count)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, usage.ErrUserNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("failed to read usage: %w", err)
	}
	return count, usage.ErrLimitExhausted
}

// DecrementUsage implements usage.Store.
func (db *DB) DecrementUsage(ctx context.Context, userID uuid.UUID) error {
	tag, err := db.pool.Exec(ctx,
		`UPDATE users SET monthly_usage = GREATEST(monthly_usage - 1, 0), updated_at = NOW()
		 WHERE id = $1`,
		userID,
	)
	if err != nil {
		return fmt.Errorf("failed to decrement usage: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return usage.ErrUserNotFound
	}
	return nil
}

// ResetIfDue implements usage.Store. The reset is a single conditional
// UPDATE so concurrent requests cannot reset twice.
func (db *DB) ResetIfDue(ctx context.Context, userID uuid.UUID, now time.Time) (*usage.Usage, error) {
	_, err := db.pool.Exec(ctx,
		`UPDATE users SET monthly_usage = 0, usage_reset_at = $3, updated_at = NOW()
		 WHERE id = $1 AND (usage_reset_at IS NULL OR usage_reset_at <= $2)`,
		userID, now.UTC(), usage.NextResetAt(now),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to reset usage: %w", err)
	}
	return db.GetUsage(ctx, userID)
}
