package app

import (
	"context"
	"log"
	"time"
)

// FallbackDeadlineStore degrades from a durable primary store to an in-memory
// one when the primary errors. Storage being unavailable costs only
// reload-survival; the attempt keeps running against the fallback expiry.
type FallbackDeadlineStore struct {
	primary  DeadlineStore
	fallback DeadlineStore
}

func NewFallbackDeadlineStore(primary, fallback DeadlineStore) *FallbackDeadlineStore {
	return &FallbackDeadlineStore{primary: primary, fallback: fallback}
}

func (s *FallbackDeadlineStore) GetOrCreate(ctx context.Context, quizID, studentID string, d time.Duration) (time.Time, error) {
	expiry, err := s.primary.GetOrCreate(ctx, quizID, studentID, d)
	if err == nil {
		return expiry, nil
	}
	log.Printf("deadline store degraded to memory for %s/%s: %v", quizID, studentID, err)
	return s.fallback.GetOrCreate(ctx, quizID, studentID, d)
}

func (s *FallbackDeadlineStore) Clear(ctx context.Context, quizID, studentID string) error {
	// Clear both: the record may live in either store depending on when the
	// primary last failed. A primary outage stays non-fatal here too.
	if err := s.primary.Clear(ctx, quizID, studentID); err != nil {
		log.Printf("clear on primary deadline store for %s/%s: %v", quizID, studentID, err)
	}
	return s.fallback.Clear(ctx, quizID, studentID)
}
