package interview

import (
	"errors"
	"fmt"
)

var (
	// ErrNoMoreQuestions is returned by a QuestionSource that has nothing
	// left to ask. Mid-session it means implicit early termination, not a
	// failure.
	ErrNoMoreQuestions = errors.New("no more questions")

	// ErrSessionCompleted is returned when a turn is attempted against a
	// completed session.
	ErrSessionCompleted = errors.New("session already completed")

	// ErrTurnInProgress is returned when a concurrent turn is attempted
	// against the same session. A session must serialize its own turns.
	ErrTurnInProgress = errors.New("another turn is in progress for this session")

	// ErrNoActiveQuestion is returned when an answer arrives but the session
	// has no question outstanding.
	ErrNoActiveQuestion = errors.New("session has no active question")
)

// GenerationError marks a question-source failure at session start, the only
// point where no prior question exists to fall back to.
type GenerationError struct {
	Err error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("generating question: %v", e.Err)
}

func (e *GenerationError) Unwrap() error { return e.Err }
