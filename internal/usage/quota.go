package usage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/jonathan/notepolish/internal/observability"
)

// Quota checks and records usage against a Store. A nil *Quota allows everything.
type Quota struct {
	Store         Store
	FreeTierLimit int
	// Now returns the current time; tests replace it.
	Now func() time.Time

	log     logrus.FieldLogger
	metrics *observability.Metrics
}

// NewQuota creates a Quota. A non-positive limit uses DefaultFreeTierLimit.
func NewQuota(store Store, freeTierLimit int, log logrus.FieldLogger, metrics *observability.Metrics) *Quota {
	if freeTierLimit <= 0 {
		freeTierLimit = DefaultFreeTierLimit
	}
	if log == nil {
		log = observability.NopLogger()
	}
	return &Quota{
		Store:         store,
		FreeTierLimit: freeTierLimit,
		Now:           time.Now,
		log:           log,
		metrics:       metrics,
	}
}

// Check applies any due monthly reset and returns *LimitReachedError when a
// free-tier caller has no enhancements left. Callers unknown to the store
// are not subject to a quota.
func (q *Quota) Check(ctx context.Context, userID uuid.UUID) (*Usage, error) {
	if q == nil || q.Store == nil {
		return nil, nil
	}

	u, err := q.Store.ResetIfDue(ctx, userID, q.now())
	if errors.Is(err, ErrUserNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load usage: %w", err)
	}

	if u.Tier != TierFree {
		return u, nil
	}

	if u.MonthlyUsage >= q.FreeTierLimit {
		q.metrics.RecordQuotaRejection(ctx)
		q.log.WithFields(logrus.Fields{
			"user_id": userID,
			"used":    u.MonthlyUsage,
			"limit":   q.FreeTierLimit,
		}).Info("monthly limit reached")
		return u, &LimitReachedError{Limit: q.FreeTierLimit, Used: u.MonthlyUsage}
	}
	return u, nil
}

// Reservation is one enhancement taken from a caller's allowance. A nil
// *Reservation holds nothing.
type Reservation struct {
	quota  *Quota
	userID uuid.UUID
}

// Reserve checks the caller's allowance and takes one enhancement from it in
// a single atomic store update, so concurrent requests cannot overrun the
// free-tier limit. Callers release the reservation when the enhancement
// fails. Unknown callers get a nil reservation and no error.
func (q *Quota) Reserve(ctx context.Context, userID uuid.UUID) (*Reservation, error) {
	u, err := q.Check(ctx, userID)
	if err != nil || u == nil {
		return nil, err
	}

	ceiling := 0
	if u.Tier == TierFree {
		ceiling = q.FreeTierLimit
	}

	_, err = q.Store.IncrementUsage(ctx, userID, ceiling)
	switch {
	case errors.Is(err, ErrLimitExhausted):
		q.metrics.RecordQuotaRejection(ctx)
		q.log.WithFields(logrus.Fields{
			"user_id": userID,
			"limit":   ceiling,
		}).Info("monthly limit reached by a concurrent request")
		return nil, &LimitReachedError{Limit: ceiling, Used: max(u.MonthlyUsage, ceiling)}
	case errors.Is(err, ErrUserNotFound):
		return nil, nil
	case err != nil:
		return nil, fmt.Errorf("failed to record usage: %w", err)
	}
	return &Reservation{quota: q, userID: userID}, nil
}

// Release returns the reserved enhancement to the caller. It is safe to call
// on a nil reservation and runs even when ctx is already cancelled.
func (r *Reservation) Release(ctx context.Context) {
	if r == nil {
		return
	}
	if err := r.quota.Store.DecrementUsage(context.WithoutCancel(ctx), r.userID); err != nil {
		r.quota.log.WithError(err).WithField("user_id", r.userID).Warn("failed to release usage")
	}
}

func (q *Quota) now() time.Time {
	if q.Now != nil {
		return q.Now()
	}
	return time.Now()
}
