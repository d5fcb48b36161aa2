package app

import (
	"sync"
	"time"

	"quiz-attempt-service/internal/domain"
)

// SubmissionState tracks the attempt's submission machine. Exactly one
// submission may be in flight or committed at any time.
type SubmissionState string

const (
	SubmissionIdle      SubmissionState = "idle"
	SubmissionInFlight  SubmissionState = "submitting"
	SubmissionCommitted SubmissionState = "committed"
	SubmissionFailed    SubmissionState = "failed"
)

// EventType enumerates attempt events pushed to watchers.
type EventType string

const (
	EventTick        EventType = "tick"
	EventPosition    EventType = "position"
	EventAnswerSaved EventType = "answerSaved"
	EventExpired     EventType = "expired"
	EventResult      EventType = "result"
)

// Event is a single attempt update. Fields beyond Type are set per event kind.
type Event struct {
	Type        EventType
	RemainingMS int64
	Index       int
	Option      string
	Result      *domain.AttemptResult
}

// AttemptView is a consistent snapshot for a freshly attached watcher.
// Questions are sanitized: correct options are stripped.
type AttemptView struct {
	QuizID       string
	StudentID    string
	Title        string
	Subject      string
	Questions    []ViewQuestion
	Answers      []string
	CurrentIndex int
	RemainingMS  int64
	State        SubmissionState
	Result       *domain.AttemptResult
}

// ViewQuestion is a question as shown during an active attempt.
type ViewQuestion struct {
	Text    string   `json:"text"`
	Options []string `json:"options"`
}

// Attempt is the in-memory state of one student's pass through one quiz.
// The question set is fixed at construction; answers hold one mutable slot
// per question, "" meaning unanswered.
type Attempt struct {
	quizID    string
	studentID string
	quiz      domain.Quiz
	now       func() time.Time

	mu           sync.RWMutex
	answers      []string
	currentIndex int
	submission   SubmissionState
	result       *domain.AttemptResult
	countdown    *Countdown
	subscribers  map[chan Event]struct{}
}

// NewAttempt is exported for infrastructure layers that need to seed attempts.
func NewAttempt(quizID, studentID string, quiz domain.Quiz) *Attempt {
	return newAttemptWithClock(quizID, studentID, quiz, time.Now)
}

// NewAttemptWithClock is test-only for deterministic timestamps.
func NewAttemptWithClock(quizID, studentID string, quiz domain.Quiz, now func() time.Time) *Attempt {
	return newAttemptWithClock(quizID, studentID, quiz, now)
}

func newAttemptWithClock(quizID, studentID string, quiz domain.Quiz, now func() time.Time) *Attempt {
	return &Attempt{
		quizID:      quizID,
		studentID:   studentID,
		quiz:        quiz,
		now:         now,
		answers:     make([]string, len(quiz.Questions)),
		submission:  SubmissionIdle,
		subscribers: make(map[chan Event]struct{}),
	}
}

// SelectAnswer records the option text for the question at index. Last write
// wins; selecting after a committed result is rejected. An out-of-range index
// or an option outside the question's set indicates a client bug and errors.
func (a *Attempt) SelectAnswer(index int, option string) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.submission == SubmissionCommitted {
		return domain.ErrAlreadySubmitted
	}
	if index < 0 || index >= len(a.quiz.Questions) {
		return domain.ErrQuestionIndex
	}
	valid := false
	for _, opt := range a.quiz.Questions[index].Options {
		if opt == option {
			valid = true
			break
		}
	}
	if !valid {
		return domain.ErrUnknownOption
	}

	a.answers[index] = option
	a.broadcastLocked(Event{Type: EventAnswerSaved, Index: index, Option: option})
	return nil
}

// Navigate moves the cursor by delta, clamped to the question range. The
// resulting index is returned; boundary moves are no-ops, never wraparound.
func (a *Attempt) Navigate(delta int) int {
	a.mu.Lock()
	defer a.mu.Unlock()

	next := a.currentIndex + delta
	if next < 0 {
		next = 0
	}
	if max := len(a.quiz.Questions) - 1; next > max {
		next = max
	}
	if next != a.currentIndex {
		a.currentIndex = next
		a.broadcastLocked(Event{Type: EventPosition, Index: next})
	}
	return a.currentIndex
}

// beginSubmission gates entry into the submission machine and freezes the
// answer snapshot. Callers racing an in-flight or committed submission get a
// sentinel error and must treat it as a no-op.
func (a *Attempt) beginSubmission() (domain.AnswerSheet, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	switch a.submission {
	case SubmissionInFlight:
		return domain.AnswerSheet{}, domain.ErrSubmissionInFlight
	case SubmissionCommitted:
		return domain.AnswerSheet{}, domain.ErrAlreadySubmitted
	}
	a.submission = SubmissionInFlight

	answers := make([]*string, len(a.answers))
	for i, ans := range a.answers {
		if ans == "" {
			continue // skipped questions stay nil, never defaulted
		}
		v := ans
		answers[i] = &v
	}
	return domain.AnswerSheet{
		QuizID:    a.quizID,
		StudentID: a.studentID,
		Answers:   answers,
	}, nil
}

// failSubmission releases the in-flight guard so a retry can run.
func (a *Attempt) failSubmission() {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.submission == SubmissionInFlight {
		a.submission = SubmissionFailed
	}
}

// commitResult transitions to the terminal state and stops the countdown.
func (a *Attempt) commitResult(res domain.AttemptResult) {
	a.mu.Lock()
	a.submission = SubmissionCommitted
	a.result = &res
	cd := a.countdown
	a.broadcastLocked(Event{Type: EventResult, Result: &res})
	a.mu.Unlock()

	if cd != nil {
		cd.Stop()
	}
}

// Result returns the committed result, if any.
func (a *Attempt) Result() (domain.AttemptResult, bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if a.result == nil {
		return domain.AttemptResult{}, false
	}
	return *a.result, true
}

// State reports the submission machine's current state.
func (a *Attempt) State() SubmissionState {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.submission
}

// startCountdown attaches the owned countdown, once. Reconnections reuse the
// running countdown of a live attempt.
func (a *Attempt) startCountdown(expiry time.Time, interval time.Duration, onExpire func()) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.countdown != nil {
		return
	}
	cd := NewCountdownWithClock(expiry, interval, a.now, func(remaining time.Duration) {
		a.notifyTick(remaining)
	}, func() {
		a.notifyExpired()
		onExpire()
	})
	a.countdown = cd
	cd.Start()
}

// Close releases the attempt's owned resources. Safe to call repeatedly.
func (a *Attempt) Close() {
	a.mu.Lock()
	cd := a.countdown
	a.mu.Unlock()
	if cd != nil {
		cd.Stop()
	}
}

// Remaining reports time left on the attempt's countdown clock.
func (a *Attempt) Remaining() time.Duration {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if a.countdown == nil {
		return 0
	}
	return a.countdown.Remaining()
}

// IsIdle reports whether no watcher is attached.
func (a *Attempt) IsIdle() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return len(a.subscribers) == 0
}

// View renders a snapshot for a newly attached client.
func (a *Attempt) View() AttemptView {
	a.mu.RLock()
	defer a.mu.RUnlock()

	questions := make([]ViewQuestion, len(a.quiz.Questions))
	for i, q := range a.quiz.Questions {
		options := make([]string, len(q.Options))
		copy(options, q.Options)
		questions[i] = ViewQuestion{Text: q.Text, Options: options}
	}
	answers := make([]string, len(a.answers))
	copy(answers, a.answers)

	var remaining int64
	if a.countdown != nil {
		remaining = a.countdown.Remaining().Milliseconds()
	}
	return AttemptView{
		QuizID:       a.quizID,
		StudentID:    a.studentID,
		Title:        a.quiz.Title,
		Subject:      a.quiz.Subject,
		Questions:    questions,
		Answers:      answers,
		CurrentIndex: a.currentIndex,
		RemainingMS:  remaining,
		State:        a.submission,
		Result:       a.result,
	}
}

func (a *Attempt) subscribe() (<-chan Event, func()) {
	ch := make(chan Event, 8)

	a.mu.Lock()
	a.subscribers[ch] = struct{}{}
	a.mu.Unlock()

	cancel := func() {
		a.mu.Lock()
		if _, ok := a.subscribers[ch]; ok {
			delete(a.subscribers, ch)
			close(ch)
		}
		a.mu.Unlock()
	}
	return ch, cancel
}

func (a *Attempt) notifyTick(remaining time.Duration) {
	a.mu.Lock()
	a.broadcastLocked(Event{Type: EventTick, RemainingMS: remaining.Milliseconds()})
	a.mu.Unlock()
}

func (a *Attempt) notifyExpired() {
	a.mu.Lock()
	a.broadcastLocked(Event{Type: EventExpired})
	a.mu.Unlock()
}

func (a *Attempt) broadcastLocked(ev Event) {
	for ch := range a.subscribers {
		select {
		case ch <- ev:
		default:
			// Drop the oldest pending event so slow clients never block ticks.
			select {
			case <-ch:
			default:
			}
			ch <- ev
		}
	}
}
