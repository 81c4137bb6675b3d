package session

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/stemsi/exstem-attempt/internal/model"
)

var (
	// ErrUnknownQuestion is returned when an answer targets a question outside the exam.
	ErrUnknownQuestion = errors.New("question does not belong to this exam")
	// ErrInvalidOption is returned when a single-choice answer is not one of the options.
	ErrInvalidOption = errors.New("answer is not one of the question options")
)

// LoadError means the exam cannot be taken right now. The view layer leaves
// the attempt screen.
type LoadError struct {
	ExamID uuid.UUID
	Err    error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("load exam %s: %v", e.ExamID, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }

// StartError means the attempt could not be started. The state stays not_started
// and the student may retry.
type StartError struct {
	Err error
}

func (e *StartError) Error() string {
	return fmt.Sprintf("start attempt: %v", e.Err)
}

func (e *StartError) Unwrap() error { return e.Err }

// InvalidStateError is returned when an operation is not allowed in the current state.
type InvalidStateError struct {
	Op    string
	State model.AttemptStatus
}

func (e *InvalidStateError) Error() string {
	return fmt.Sprintf("%s not allowed in state %s", e.Op, e.State)
}

// SubmitError means the submission failed and the attempt went back to
// in_progress with every answer kept.
type SubmitError struct {
	AutoSubmitted bool
	Err           error
}

func (e *SubmitError) Error() string {
	if e.AutoSubmitted {
		return fmt.Sprintf("auto-submit: %v", e.Err)
	}
	return fmt.Sprintf("submit: %v", e.Err)
}

func (e *SubmitError) Unwrap() error { return e.Err }
