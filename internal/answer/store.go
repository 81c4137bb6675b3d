// Package answer holds the in-memory answer store of one exam attempt.
package answer

import (
	"github.com/google/uuid"
	"github.com/stemsi/exstem-attempt/internal/model"
)

// Store maps question IDs to the current answer value. It is not safe for
// concurrent use; the session engine serializes every access.
type Store struct {
	answers  map[uuid.UUID]string
	revision uint64
	frozen   bool
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{answers: make(map[uuid.UUID]string)}
}

// Set overwrites or inserts the answer for a question. An empty value removes the
// entry. It reports whether the store changed; a frozen store never changes.
func (s *Store) Set(questionID uuid.UUID, value string) bool {
	if s.frozen {
		return false
	}
	prev, ok := s.answers[questionID]
	if value == "" {
		if !ok {
			return false
		}
		delete(s.answers, questionID)
		s.revision++
		return true
	}
	if ok && prev == value {
		return false
	}
	s.answers[questionID] = value
	s.revision++
	return true
}

// Get returns the answer for a question.
func (s *Store) Get(questionID uuid.UUID) (string, bool) {
	v, ok := s.answers[questionID]
	return v, ok
}

// Len returns the number of answered questions.
func (s *Store) Len() int { return len(s.answers) }

// Revision increases on every effective mutation.
func (s *Store) Revision() uint64 { return s.revision }

// Freeze makes the store read-only. Used once the attempt is submitted.
func (s *Store) Freeze() { s.frozen = true }

// Load replaces the content with the given pairs, keeping only IDs accepted by
// known. It returns the number of discarded pairs.
func (s *Store) Load(pairs []model.AnswerPair, known func(uuid.UUID) bool) int {
	s.answers = make(map[uuid.UUID]string, len(pairs))
	dropped := 0
	for _, p := range pairs {
		if p.Answer == "" {
			continue
		}
		if !known(p.QuestionID) {
			dropped++
			continue
		}
		s.answers[p.QuestionID] = p.Answer
	}
	s.revision++
	return dropped
}

// Snapshot returns a copy of the map.
func (s *Store) Snapshot() map[uuid.UUID]string {
	out := make(map[uuid.UUID]string, len(s.answers))
	for k, v := range s.answers {
		out[k] = v
	}
	return out
}

// Pairs serializes the store following the given question order. Questions
// without an answer are skipped.
func (s *Store) Pairs(order []uuid.UUID) []model.AnswerPair {
	pairs := make([]model.AnswerPair, 0, len(s.answers))
	for _, id := range order {
		if v, ok := s.answers[id]; ok {
			pairs = append(pairs, model.AnswerPair{QuestionID: id, Answer: v})
		}
	}
	return pairs
}
