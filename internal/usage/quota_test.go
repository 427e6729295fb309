package usage

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestQuota(store Store, now time.Time) *Quota {
	q := NewQuota(store, 0, nil, nil)
	q.Now = func() time.Time { return now }
	return q
}

func TestQuota_Check(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 10, 18, 9, 0, 0, 0, time.UTC)
	future := NextResetAt(now)
	past := time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name      string
		usage     Usage
		wantLimit bool
		wantUsed  int
	}{
		{"free with allowance left", Usage{Tier: TierFree, MonthlyUsage: 4, ResetAt: &future}, false, 4},
		{"free exhausted", Usage{Tier: TierFree, MonthlyUsage: 5, ResetAt: &future}, true, 5},
		{"free exhausted but reset is due", Usage{Tier: TierFree, MonthlyUsage: 5, ResetAt: &past}, false, 0},
		{"pro is unlimited", Usage{Tier: TierPro, MonthlyUsage: 500, ResetAt: &future}, false, 500},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id := uuid.New()
			store := NewMemoryStore()
			tt.usage.UserID = id
			store.Put(tt.usage)

			u, err := newTestQuota(store, now).Check(ctx, id)

			if tt.wantLimit {
				var lre *LimitReachedError
				require.True(t, errors.As(err, &lre))
				assert.Equal(t, DefaultFreeTierLimit, lre.Limit)
				assert.Equal(t, tt.wantUsed, lre.Used)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantUsed, u.MonthlyUsage)
		})
	}
}

func TestQuota_UnknownUserIsNotLimited(t *testing.T) {
	u, err := newTestQuota(NewMemoryStore(), time.Now()).Check(context.Background(), uuid.New())

	assert.NoError(t, err)
	assert.Nil(t, u)
}

func TestQuota_NilIsNoop(t *testing.T) {
	var q *Quota

	u, err := q.Check(context.Background(), uuid.New())
	assert.NoError(t, err)
	assert.Nil(t, u)

	res, err := q.Reserve(context.Background(), uuid.New())
	assert.NoError(t, err)
	assert.Nil(t, res)
	res.Release(context.Background())
}

func TestQuota_ReserveThenLimit(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 10, 18, 9, 0, 0, 0, time.UTC)
	id := uuid.New()
	store := NewMemoryStore()
	store.Put(Usage{UserID: id, Tier: TierFree})

	q := NewQuota(store, 2, nil, nil)
	q.Now = func() time.Time { return now }

	for i := 0; i < 2; i++ {
		res, err := q.Reserve(ctx, id)
		require.NoError(t, err)
		require.NotNil(t, res)
	}

	_, err := q.Reserve(ctx, id)
	var lre *LimitReachedError
	require.True(t, errors.As(err, &lre))
	assert.Equal(t, 2, lre.Limit)
	assert.Equal(t, 2, lre.Used)
}

func TestQuota_ReleaseGivesAllowanceBack(t *testing.T) {
	ctx := context.Background()
	id := uuid.New()
	store := NewMemoryStore()
	store.Put(Usage{UserID: id, Tier: TierFree, MonthlyUsage: 4})
	q := newTestQuota(store, time.Now())

	res, err := q.Reserve(ctx, id)
	require.NoError(t, err)
	res.Release(ctx)

	u, err := store.GetUsage(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, 4, u.MonthlyUsage)
}

func TestQuota_ConcurrentReservationsNeverExceedLimit(t *testing.T) {
	ctx := context.Background()
	id := uuid.New()
	store := NewMemoryStore()
	store.Put(Usage{UserID: id, Tier: TierFree})
	q := newTestQuota(store, time.Now())

	var (
		wg      sync.WaitGroup
		granted atomic.Int32
	)
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if res, err := q.Reserve(ctx, id); err == nil && res != nil {
				granted.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(DefaultFreeTierLimit), granted.Load())
	u, err := store.GetUsage(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, DefaultFreeTierLimit, u.MonthlyUsage)
}

func TestQuota_ProReservationsAreCounted(t *testing.T) {
	ctx := context.Background()
	id := uuid.New()
	store := NewMemoryStore()
	store.Put(Usage{UserID: id, Tier: TierPro, MonthlyUsage: 500})

	res, err := newTestQuota(store, time.Now()).Reserve(ctx, id)
	require.NoError(t, err)
	require.NotNil(t, res)

	u, err := store.GetUsage(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, 501, u.MonthlyUsage)
}

func TestQuota_EnrollingStoreMetersNewCallers(t *testing.T) {
	ctx := context.Background()
	q := newTestQuota(NewEnrollingMemoryStore(TierFree), time.Now())
	id := uuid.New()

	for i := 0; i < DefaultFreeTierLimit; i++ {
		_, err := q.Reserve(ctx, id)
		require.NoError(t, err)
	}

	_, err := q.Reserve(ctx, id)
	var lre *LimitReachedError
	assert.True(t, errors.As(err, &lre))
}

type failingStore struct{ MemoryStore }

func (f *failingStore) ResetIfDue(context.Context, uuid.UUID, time.Time) (*Usage, error) {
	return nil, errors.New("connection refused")
}

func TestQuota_StoreError(t *testing.T) {
	_, err := newTestQuota(&failingStore{}, time.Now()).Check(context.Background(), uuid.New())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection refused")
	var lre *LimitReachedError
	assert.False(t, errors.As(err, &lre))
}
