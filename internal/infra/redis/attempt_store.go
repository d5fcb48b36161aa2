package redis

import (
	"context"
	"sync"
	"time"

	"quiz-attempt-service/internal/app"
	goredis "github.com/redis/go-redis/v9"
)

// AttemptStore is a Redis-aware implementation of app.AttemptRepository.
// Notes:
//   - Attempts themselves stay in a local map: the countdown goroutine and
//     watcher channels are in-process state and cannot live in Redis.
//   - Redis holds a liveness marker per attempt, visible to operators and to
//     sibling instances (the deadline record, not this marker, is what makes
//     reloads safe).
type AttemptStore struct {
	client *goredis.Client
	ttl    time.Duration

	mu       sync.RWMutex
	attempts map[string]*app.Attempt
}

func NewAttemptStore(client *goredis.Client, ttl time.Duration) *AttemptStore {
	return &AttemptStore{
		client:   client,
		ttl:      ttl,
		attempts: make(map[string]*app.Attempt),
	}
}

func (s *AttemptStore) GetOrCreate(quizID, studentID string, create func() *app.Attempt) (*app.Attempt, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := attemptKey(quizID, studentID)
	if attempt, ok := s.attempts[key]; ok {
		return attempt, false
	}
	attempt := create()
	s.attempts[key] = attempt
	// best-effort liveness marker
	_ = s.client.Set(context.Background(), s.livenessKey(quizID, studentID), "1", s.ttl).Err()
	return attempt, true
}

func (s *AttemptStore) Get(quizID, studentID string) (*app.Attempt, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	attempt, ok := s.attempts[attemptKey(quizID, studentID)]
	return attempt, ok
}

func (s *AttemptStore) DeleteIfIdle(quizID, studentID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := attemptKey(quizID, studentID)
	attempt, ok := s.attempts[key]
	if !ok {
		return
	}
	if attempt.IsIdle() {
		attempt.Close()
		delete(s.attempts, key)
		_ = s.client.Del(context.Background(), s.livenessKey(quizID, studentID)).Err()
	}
}

func (s *AttemptStore) livenessKey(quizID, studentID string) string {
	return "quiz:attempt:" + quizID + ":" + studentID
}

func attemptKey(quizID, studentID string) string {
	return quizID + "/" + studentID
}
