package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"quiz-attempt-service/internal/domain"
)

// Scorer posts frozen answer sheets to the remote scoring service and returns
// its grading. It implements app.Scorer.
type Scorer struct {
	baseURL string
	client  *http.Client
}

func NewScorer(baseURL string, timeout time.Duration) *Scorer {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Scorer{
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
	}
}

func (s *Scorer) Score(ctx context.Context, sheet domain.AnswerSheet) (domain.AttemptResult, error) {
	body, err := json.Marshal(sheet)
	if err != nil {
		return domain.AttemptResult{}, fmt.Errorf("marshal answer sheet: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/submitAttempt", bytes.NewReader(body))
	if err != nil {
		return domain.AttemptResult{}, fmt.Errorf("build scoring request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return domain.AttemptResult{}, fmt.Errorf("scoring request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return domain.AttemptResult{}, fmt.Errorf("scoring backend returned %d: %s", resp.StatusCode, snippet)
	}

	var result domain.AttemptResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return domain.AttemptResult{}, fmt.Errorf("decode scoring response: %w", err)
	}
	return result, nil
}
