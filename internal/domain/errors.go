package domain

import "errors"

var (
	// ErrQuizNotFound indicates the quiz content could not be loaded.
	ErrQuizNotFound = errors.New("quiz not found")
	// ErrAttemptNotFound is returned when acting on an attempt that was never started.
	ErrAttemptNotFound = errors.New("attempt not found")
	// ErrQuestionIndex indicates an answer or cursor targets a question outside the set.
	ErrQuestionIndex = errors.New("question index out of range")
	// ErrUnknownOption indicates a selected option is not one of the question's options.
	ErrUnknownOption = errors.New("option not in question")
	// ErrSubmissionInFlight is returned when a submit races an earlier one still running.
	ErrSubmissionInFlight = errors.New("submission already in flight")
	// ErrAlreadySubmitted is returned once an attempt holds a committed result.
	ErrAlreadySubmitted = errors.New("attempt already submitted")
)
