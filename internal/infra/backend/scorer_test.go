package backend

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"quiz-attempt-service/internal/domain"
)

func TestScorerPostsSheetAndDecodesResult(t *testing.T) {
	var received domain.AnswerSheet
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/submitAttempt" || r.Method != http.MethodPost {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&received); err != nil {
			t.Errorf("decode sheet: %v", err)
		}
		_ = json.NewEncoder(w).Encode(domain.AttemptResult{Score: 2, MaxScore: 3, Percentage: 66.7, Grade: "C"})
	}))
	defer server.Close()

	scorer := NewScorer(server.URL, 5*time.Second)

	answer := "4"
	res, err := scorer.Score(context.Background(), domain.AnswerSheet{
		QuizID:    "quiz-1",
		StudentID: "s1",
		Answers:   []*string{&answer, nil, &answer},
	})
	if err != nil {
		t.Fatalf("score: %v", err)
	}
	if res.Score != 2 || res.Grade != "C" {
		t.Fatalf("unexpected result %+v", res)
	}

	if received.QuizID != "quiz-1" || received.StudentID != "s1" {
		t.Fatalf("sheet identity lost: %+v", received)
	}
	// Skipped questions cross the wire as nulls.
	if len(received.Answers) != 3 || received.Answers[1] != nil {
		t.Fatalf("expected nil marker preserved, got %+v", received.Answers)
	}
	if received.Answers[0] == nil || *received.Answers[0] != "4" {
		t.Fatalf("expected answer text preserved, got %+v", received.Answers)
	}
}

func TestScorerSurfacesBackendErrors(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "scoring engine offline", http.StatusBadGateway)
	}))
	defer server.Close()

	scorer := NewScorer(server.URL, 5*time.Second)
	if _, err := scorer.Score(context.Background(), domain.AnswerSheet{QuizID: "quiz-1"}); err == nil {
		t.Fatalf("expected error on non-200 response")
	}
}
