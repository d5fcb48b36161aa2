package postgres

import (
	"context"
	"fmt"

	"quiz-attempt-service/internal/domain"
	"github.com/jackc/pgx/v4/pgxpool"
)

// ResultStore records committed attempt results. A resubmission for the same
// attempt (possible only across service restarts) keeps the first result.
type ResultStore struct {
	pool *pgxpool.Pool
}

func NewResultStore(pool *pgxpool.Pool) *ResultStore {
	return &ResultStore{pool: pool}
}

func (s *ResultStore) SaveResult(ctx context.Context, quizID, studentID string, res domain.AttemptResult) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO attempt_results (quiz_id, student_id, score, max_score, percentage, grade)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (quiz_id, student_id) DO NOTHING`,
		quizID, studentID, res.Score, res.MaxScore, res.Percentage, res.Grade)
	if err != nil {
		return fmt.Errorf("save result: %w", err)
	}
	return nil
}

// GetResult fetches a stored result for review screens.
func (s *ResultStore) GetResult(ctx context.Context, quizID, studentID string) (domain.AttemptResult, error) {
	var res domain.AttemptResult
	err := s.pool.QueryRow(ctx, `
		SELECT score, max_score, percentage, grade
		FROM attempt_results WHERE quiz_id=$1 AND student_id=$2`,
		quizID, studentID).Scan(&res.Score, &res.MaxScore, &res.Percentage, &res.Grade)
	if err != nil {
		return domain.AttemptResult{}, fmt.Errorf("get result: %w", err)
	}
	return res, nil
}
