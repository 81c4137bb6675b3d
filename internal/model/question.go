package model

import (
	"github.com/google/uuid"
)

type QuestionType string

const (
	QuestionTypeSingleChoice QuestionType = "SINGLE_CHOICE"
	QuestionTypeFreeResponse QuestionType = "FREE_RESPONSE"
)

// Question represents a single exam question as delivered to students (no answer key).
type Question struct {
	ID       uuid.UUID    `json:"id" validate:"required"`
	Type     QuestionType `json:"question_type" validate:"required,oneof=SINGLE_CHOICE FREE_RESPONSE"`
	Prompt   string       `json:"prompt"`
	Options  []string     `json:"options,omitempty"`
	Marks    float64      `json:"marks" validate:"min=0"`
	OrderNum int          `json:"order_num"`
}

// HasOption reports whether v is one of the question's options.
func (q *Question) HasOption(v string) bool {
	for _, o := range q.Options {
		if o == v {
			return true
		}
	}
	return false
}
