package model

// ─── Local agent request DTOs ──────────────────────────────────────────────

// HydrateRequest opens a session for an exam.
type HydrateRequest struct {
	ExamID string `json:"exam_id" binding:"required,uuid"`
}

// AnswerRequest records an answer. An empty string clears it.
type AnswerRequest struct {
	Answer *string `json:"answer" binding:"required,max=20000"`
}

// CursorRequest moves the current question index.
type CursorRequest struct {
	Index *int `json:"index" binding:"required"`
}
