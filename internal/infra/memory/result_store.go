package memory

import (
	"context"
	"sync"

	"quiz-attempt-service/internal/domain"
)

// ResultStore keeps committed attempt results in memory, for configurations
// without Postgres and for tests.
type ResultStore struct {
	mu      sync.RWMutex
	results map[string]domain.AttemptResult
}

func NewResultStore() *ResultStore {
	return &ResultStore{
		results: make(map[string]domain.AttemptResult),
	}
}

func (s *ResultStore) SaveResult(_ context.Context, quizID, studentID string, res domain.AttemptResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.results[attemptKey(quizID, studentID)] = res
	return nil
}

// GetResult returns a stored result, if the attempt committed one.
func (s *ResultStore) GetResult(quizID, studentID string) (domain.AttemptResult, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	res, ok := s.results[attemptKey(quizID, studentID)]
	return res, ok
}
