package model

import (
	"time"

	"github.com/google/uuid"
)

// AttemptStatus enumerates the states of an exam attempt.
type AttemptStatus string

const (
	AttemptStatusNotStarted AttemptStatus = "not_started"
	AttemptStatusInProgress AttemptStatus = "in_progress"
	AttemptStatusSubmitting AttemptStatus = "submitting"
	AttemptStatusSubmitted  AttemptStatus = "submitted"
)

// AnswerPair is one recorded (question, answer) entry as exchanged with the server.
type AnswerPair struct {
	QuestionID uuid.UUID `json:"question_id" validate:"required"`
	Answer     string    `json:"answer"`
}

// Attempt represents one student's instance of taking an exam.
type Attempt struct {
	ID            uuid.UUID     `json:"id" validate:"required"`
	ExamID        uuid.UUID     `json:"exam_id"`
	Status        AttemptStatus `json:"status" validate:"required"`
	StartedAt     time.Time     `json:"started_at" validate:"required"`
	Answers       []AnswerPair  `json:"answers,omitempty" validate:"dive"`
	AutoSubmitted bool          `json:"auto_submitted"`
	Result        *SubmitResult `json:"result,omitempty"`
}

// SubmitRequest is the payload sent to the submit endpoint.
type SubmitRequest struct {
	Answers       []AnswerPair `json:"answers"`
	AutoSubmitted bool         `json:"auto_submitted"`
}

// SubmitResult is the grading summary returned once an attempt is submitted.
type SubmitResult struct {
	Score      float64 `json:"score"`
	MaxScore   float64 `json:"max_score"`
	Percentage float64 `json:"percentage"`
	Grade      string  `json:"grade"`
}
