package app

import (
	"context"
	"errors"
	"log"
	"time"

	"quiz-attempt-service/internal/domain"
)

// AttemptRepository abstracts how live attempts are tracked (in-memory, Redis-marked, etc).
type AttemptRepository interface {
	GetOrCreate(quizID, studentID string, create func() *Attempt) (*Attempt, bool)
	Get(quizID, studentID string) (*Attempt, bool)
	DeleteIfIdle(quizID, studentID string)
}

// QuizRepository loads quiz content (from cache/backing store).
type QuizRepository interface {
	GetQuiz(ctx context.Context, quizID string) (domain.Quiz, error)
}

// DeadlineStore persists the absolute expiry of an attempt across reloads.
// GetOrCreate must return a stored expiry unchanged; an attempt's deadline is
// computed exactly once and can never be extended by reconnecting.
type DeadlineStore interface {
	GetOrCreate(ctx context.Context, quizID, studentID string, d time.Duration) (time.Time, error)
	Clear(ctx context.Context, quizID, studentID string) error
}

// Scorer grades a frozen answer sheet. The production implementation posts to
// the scoring backend; LocalScorer grades from quiz content.
type Scorer interface {
	Score(ctx context.Context, sheet domain.AnswerSheet) (domain.AttemptResult, error)
}

// ResultSink records committed results. Persistence is best-effort and never
// blocks the attempt from reaching its terminal state.
type ResultSink interface {
	SaveResult(ctx context.Context, quizID, studentID string, res domain.AttemptResult) error
}

const defaultTimerMinutes = 10

// AttemptService contains the timed attempt use cases.
type AttemptService struct {
	attempts  AttemptRepository
	quizzes   QuizRepository
	deadlines DeadlineStore
	scorer    Scorer
	results   ResultSink
	tick      time.Duration
}

func NewAttemptService(attempts AttemptRepository, quizzes QuizRepository, deadlines DeadlineStore, scorer Scorer, results ResultSink, tick time.Duration) *AttemptService {
	if tick <= 0 {
		tick = time.Second
	}
	return &AttemptService{
		attempts:  attempts,
		quizzes:   quizzes,
		deadlines: deadlines,
		scorer:    scorer,
		results:   results,
		tick:      tick,
	}
}

// Start loads the quiz and returns the live attempt for (quizID, studentID),
// creating it on first call. The deadline is fixed on creation; reconnects
// resume against the stored expiry with whatever time is left.
func (s *AttemptService) Start(ctx context.Context, quizID, studentID string) (*Attempt, error) {
	quiz, err := s.quizzes.GetQuiz(ctx, quizID)
	if err != nil {
		return nil, err
	}
	if len(quiz.Questions) == 0 {
		return nil, domain.ErrQuizNotFound
	}

	attempt, _ := s.attempts.GetOrCreate(quizID, studentID, func() *Attempt {
		return NewAttempt(quizID, studentID, quiz)
	})

	minutes := quiz.TimerMinutes
	if minutes <= 0 {
		minutes = defaultTimerMinutes
	}
	duration := time.Duration(minutes) * time.Minute

	expiry, err := s.deadlines.GetOrCreate(ctx, quizID, studentID, duration)
	if err != nil {
		// Storage trouble degrades reload-resilience only; the attempt still runs.
		log.Printf("deadline store unavailable for %s/%s, using in-memory expiry: %v", quizID, studentID, err)
		expiry = time.Now().Add(duration)
	}

	attempt.startCountdown(expiry, s.tick, func() {
		if _, err := s.Submit(context.Background(), quizID, studentID); err != nil &&
			!errors.Is(err, domain.ErrSubmissionInFlight) && !errors.Is(err, domain.ErrAlreadySubmitted) {
			log.Printf("expiry submit failed for %s/%s: %v", quizID, studentID, err)
		}
	})
	return attempt, nil
}

// SelectAnswer records the student's option for a question.
func (s *AttemptService) SelectAnswer(_ context.Context, quizID, studentID string, index int, option string) error {
	attempt, ok := s.attempts.Get(quizID, studentID)
	if !ok {
		return domain.ErrAttemptNotFound
	}
	return attempt.SelectAnswer(index, option)
}

// Navigate moves the attempt cursor and returns the clamped index.
func (s *AttemptService) Navigate(_ context.Context, quizID, studentID string, delta int) (int, error) {
	attempt, ok := s.attempts.Get(quizID, studentID)
	if !ok {
		return 0, domain.ErrAttemptNotFound
	}
	return attempt.Navigate(delta), nil
}

// Submit grades the attempt, at most once effective. Manual submits and the
// expiry trigger race only for the guard: the first caller freezes the answer
// snapshot and runs; the rest get ErrSubmissionInFlight or
// ErrAlreadySubmitted and perform no network work. On scorer failure the
// guard is released and the deadline record is left untouched so a retry or
// reload recovers the correct remaining time.
func (s *AttemptService) Submit(ctx context.Context, quizID, studentID string) (domain.AttemptResult, error) {
	attempt, ok := s.attempts.Get(quizID, studentID)
	if !ok {
		return domain.AttemptResult{}, domain.ErrAttemptNotFound
	}

	sheet, err := attempt.beginSubmission()
	if err != nil {
		return domain.AttemptResult{}, err
	}

	res, err := s.scorer.Score(ctx, sheet)
	if err != nil {
		attempt.failSubmission()
		return domain.AttemptResult{}, err
	}

	// Clear strictly after scoring succeeded; clearing first would let a
	// reload mint a fresh deadline for an attempt that never committed.
	if err := s.deadlines.Clear(ctx, quizID, studentID); err != nil {
		log.Printf("clear deadline for %s/%s: %v", quizID, studentID, err)
	}
	attempt.commitResult(res)

	if s.results != nil {
		if err := s.results.SaveResult(ctx, quizID, studentID, res); err != nil {
			log.Printf("save result for %s/%s: %v", quizID, studentID, err)
		}
	}
	return res, nil
}

// Subscribe returns a channel of attempt events (ticks, saved answers,
// expiry, result). The caller must invoke the cancel function to avoid leaks.
func (s *AttemptService) Subscribe(_ context.Context, quizID, studentID string) (<-chan Event, func(), error) {
	attempt, ok := s.attempts.Get(quizID, studentID)
	if !ok {
		return nil, nil, domain.ErrAttemptNotFound
	}
	ch, cancel := attempt.subscribe()
	return ch, cancel, nil
}

// Release drops the attempt once its last watcher detached. The countdown is
// stopped on removal; the deadline record survives, so a later reconnect
// resumes the attempt with the original expiry.
func (s *AttemptService) Release(_ context.Context, quizID, studentID string) {
	s.attempts.DeleteIfIdle(quizID, studentID)
}
