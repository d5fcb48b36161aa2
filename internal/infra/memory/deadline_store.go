package memory

import (
	"context"
	"sync"
	"time"
)

// DeadlineStore is an in-memory implementation of app.DeadlineStore. It loses
// records on process restart, which is exactly the degraded mode the fallback
// path accepts; it also backs unit tests.
type DeadlineStore struct {
	clock func() time.Time

	mu        sync.Mutex
	deadlines map[string]time.Time
}

func NewDeadlineStore() *DeadlineStore {
	return NewDeadlineStoreWithClock(time.Now)
}

// NewDeadlineStoreWithClock allows deterministic expiries in tests.
func NewDeadlineStoreWithClock(clock func() time.Time) *DeadlineStore {
	return &DeadlineStore{
		clock:     clock,
		deadlines: make(map[string]time.Time),
	}
}

// GetOrCreate returns the stored expiry unchanged, or fixes a new one at
// now+d. Repeated calls for the same attempt never move the deadline.
func (s *DeadlineStore) GetOrCreate(_ context.Context, quizID, studentID string, d time.Duration) (time.Time, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := attemptKey(quizID, studentID)
	if expiry, ok := s.deadlines[key]; ok {
		return expiry, nil
	}
	expiry := s.clock().Add(d)
	s.deadlines[key] = expiry
	return expiry, nil
}

// Clear removes the record; clearing an absent record is a no-op.
func (s *DeadlineStore) Clear(_ context.Context, quizID, studentID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.deadlines, attemptKey(quizID, studentID))
	return nil
}
