package app

import (
	"context"

	"quiz-attempt-service/internal/domain"
)

// LocalScorer grades answer sheets from quiz content. It stands in for the
// remote scoring backend in demos and tests.
type LocalScorer struct {
	quizzes QuizRepository
}

func NewLocalScorer(quizzes QuizRepository) *LocalScorer {
	return &LocalScorer{quizzes: quizzes}
}

func (s *LocalScorer) Score(ctx context.Context, sheet domain.AnswerSheet) (domain.AttemptResult, error) {
	quiz, err := s.quizzes.GetQuiz(ctx, sheet.QuizID)
	if err != nil {
		return domain.AttemptResult{}, err
	}

	score := 0
	for i, q := range quiz.Questions {
		if i >= len(sheet.Answers) {
			break
		}
		// Skipped answers are nil and score nothing.
		if sheet.Answers[i] != nil && *sheet.Answers[i] == q.CorrectOption {
			score++
		}
	}
	return BuildResult(score, len(quiz.Questions)), nil
}

// BuildResult derives percentage and letter grade from a raw score.
func BuildResult(score, maxScore int) domain.AttemptResult {
	percentage := 0.0
	if maxScore > 0 {
		percentage = float64(score) / float64(maxScore) * 100
	}
	return domain.AttemptResult{
		Score:      score,
		MaxScore:   maxScore,
		Percentage: percentage,
		Grade:      letterGrade(percentage),
	}
}

func letterGrade(percentage float64) string {
	switch {
	case percentage >= 90:
		return "A"
	case percentage >= 75:
		return "B"
	case percentage >= 60:
		return "C"
	case percentage >= 40:
		return "D"
	default:
		return "F"
	}
}
