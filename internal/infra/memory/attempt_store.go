package memory

import (
	"sync"

	"quiz-attempt-service/internal/app"
)

// AttemptStore is an in-memory implementation of app.AttemptRepository.
type AttemptStore struct {
	mu       sync.RWMutex
	attempts map[string]*app.Attempt
}

func NewAttemptStore() *AttemptStore {
	return &AttemptStore{
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
	}
}

func attemptKey(quizID, studentID string) string {
	return quizID + "/" + studentID
}
