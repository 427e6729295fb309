package usage

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryStore is an in-process Store used by `serve` when no database is
// configured, and by tests. Counters are lost on restart.
type MemoryStore struct {
	mu    sync.Mutex
	users map[uuid.UUID]Usage
	// enrollTier, when set, registers unseen callers on first use.
	enrollTier string
}

// NewMemoryStore returns an empty MemoryStore that knows only the callers
// added with Put.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{users: make(map[uuid.UUID]Usage)}
}

// NewEnrollingMemoryStore returns a MemoryStore that registers every unseen
// caller on tier, so authenticated callers are metered without a users table.
func NewEnrollingMemoryStore(tier string) *MemoryStore {
	s := NewMemoryStore()
	s.enrollTier = tier
	return s
}

// Put creates or replaces a caller's usage record.
func (s *MemoryStore) Put(u Usage) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[u.UserID] = u
}

// lookup returns the caller's record, enrolling them if the store allows it.
// s.mu must be held.
func (s *MemoryStore) lookup(userID uuid.UUID) (Usage, bool) {
	u, ok := s.users[userID]
	if ok || s.enrollTier == "" {
		return u, ok
	}
	u = Usage{UserID: userID, Tier: s.enrollTier}
	s.users[userID] = u
	return u, true
}

// GetUsage returns a copy of the stored usage.
func (s *MemoryStore) GetUsage(_ context.Context, userID uuid.UUID) (*Usage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.lookup(userID)
	if !ok {
		return nil, ErrUserNotFound
	}
	return &u, nil
}

// IncrementUsage adds one to the caller's counter unless it is at ceiling.
func (s *MemoryStore) IncrementUsage(_ context.Context, userID uuid.UUID, ceiling int) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.lookup(userID)
	if !ok {
		return 0, ErrUserNotFound
	}
	if ceiling > 0 && u.MonthlyUsage >= ceiling {
		return u.MonthlyUsage, ErrLimitExhausted
	}
	u.MonthlyUsage++
	s.users[userID] = u
	return u.MonthlyUsage, nil
}

// DecrementUsage takes one off the caller's counter.
func (s *MemoryStore) DecrementUsage(_ context.Context, userID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.lookup(userID)
	if !ok {
		return ErrUserNotFound
	}
	if u.MonthlyUsage > 0 {
		u.MonthlyUsage--
		s.users[userID] = u
	}
	return nil
}

// ResetIfDue zeroes the counter when the reset time has passed.
func (s *MemoryStore) ResetIfDue(_ context.Context, userID uuid.UUID, now time.Time) (*Usage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.lookup(userID)
	if !ok {
		return nil, ErrUserNotFound
	}
	if IsResetDue(&u, now) {
		next := NextResetAt(now)
		u.MonthlyUsage = 0
		u.ResetAt = &next
		s.users[userID] = u
	}
	return &u, nil
}
