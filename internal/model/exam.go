package model

import (
	"time"

	"github.com/google/uuid"
)

// Exam is the immutable exam definition an attempt is taken against.
type Exam struct {
	ID              uuid.UUID  `json:"id" validate:"required"`
	Title           string     `json:"title"`
	DurationMinutes int        `json:"duration_minutes" validate:"required,min=1"`
	ScheduledStart  *time.Time `json:"scheduled_start,omitempty"`
	ScheduledEnd    *time.Time `json:"scheduled_end,omitempty"`
	Questions       []Question `json:"questions" validate:"dive"`
	Instructions    string     `json:"instructions"`
	MaxScore        float64    `json:"max_score"`
}

// DurationSeconds returns the nominal duration in seconds.
func (e *Exam) DurationSeconds() int64 {
	return int64(e.DurationMinutes) * 60
}

// FetchResult is what the fetch-for-attempt call returns. Attempt is nil when the
// student has not started the exam yet.
type FetchResult struct {
	Exam       Exam       `json:"exam"`
	Questions  []Question `json:"questions" validate:"dive"`
	Attempt    *Attempt   `json:"attempt"`
	ServerTime time.Time  `json:"server_time" validate:"required"`
}

// StartResult is what the start call returns.
type StartResult struct {
	Attempt         Attempt `json:"attempt"`
	DurationSeconds int64   `json:"duration_seconds" validate:"min=0"`
}
