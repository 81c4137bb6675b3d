package handler

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stemsi/exstem-attempt/internal/apiclient"
	"github.com/stemsi/exstem-attempt/internal/model"
	"github.com/stemsi/exstem-attempt/internal/response"
	"github.com/stemsi/exstem-attempt/internal/service"
	"github.com/stemsi/exstem-attempt/internal/session"
	"github.com/stemsi/exstem-attempt/internal/validator"
)

// SessionHandler exposes the attempt session to the exam view.
type SessionHandler struct {
	attemptService *service.AttemptService
	log            zerolog.Logger
}

// NewSessionHandler creates a new SessionHandler.
func NewSessionHandler(attemptService *service.AttemptService, log zerolog.Logger) *SessionHandler {
	return &SessionHandler{
		attemptService: attemptService,
		log:            log.With().Str("component", "session_handler").Logger(),
	}
}

// Hydrate godoc
// POST /api/v1/session/hydrate
// Loads the exam and any existing attempt.
func (h *SessionHandler) Hydrate(c *gin.Context) {
	var req model.HydrateRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}
	examID, err := uuid.Parse(req.ExamID)
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	snap, err := h.attemptService.Hydrate(c.Request.Context(), examID)
	if err != nil {
		h.fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"session": snap})
}

// Start godoc
// POST /api/v1/session/start
func (h *SessionHandler) Start(c *gin.Context) {
	snap, err := h.attemptService.Start(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	response.Success(c, http.StatusCreated, gin.H{"session": snap})
}

// SetAnswer godoc
// PUT /api/v1/session/answers/:question_id
// An empty answer clears the question.
func (h *SessionHandler) SetAnswer(c *gin.Context) {
	questionID, err := uuid.Parse(c.Param("question_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	var req model.AnswerRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	snap, err := h.attemptService.SetAnswer(questionID, *req.Answer)
	if err != nil {
		h.fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{
		"answered_count": snap.AnsweredCount,
		"answers":        snap.Answers,
	})
}

// SetCursor godoc
// PUT /api/v1/session/cursor
func (h *SessionHandler) SetCursor(c *gin.Context) {
	var req model.CursorRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	snap, err := h.attemptService.SetCursor(*req.Index)
	if err != nil {
		h.fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"current_question_index": snap.CurrentQuestionIndex})
}

// Submit godoc
// POST /api/v1/session/submit
func (h *SessionHandler) Submit(c *gin.Context) {
	result, err := h.attemptService.Submit(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"result": result})
}

// GetState godoc
// GET /api/v1/session/state
func (h *SessionHandler) GetState(c *gin.Context) {
	snap, err := h.attemptService.State()
	if err != nil {
		h.fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"session": snap})
}

// Close godoc
// POST /api/v1/session/close
// Tears the session down without submitting.
func (h *SessionHandler) Close(c *gin.Context) {
	if err := h.attemptService.Close(c.Request.Context()); err != nil {
		h.fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"status": "closed"})
}

// Events godoc
// GET /api/v1/session/events
// Server-sent events: one "snapshot" first, then every engine event by type.
func (h *SessionHandler) Events(c *gin.Context) {
	events, cancel := h.attemptService.Subscribe()
	defer cancel()

	if snap, err := h.attemptService.State(); err == nil {
		c.SSEvent("snapshot", snap)
		c.Writer.Flush()
	}

	ctx := c.Request.Context()
	c.Stream(func(w io.Writer) bool {
		select {
		case <-ctx.Done():
			return false
		case ev, ok := <-events:
			if !ok {
				return false
			}
			c.SSEvent(string(ev.Type), ev)
			return true
		}
	})
}

// fail maps session and API errors to the response envelope.
func (h *SessionHandler) fail(c *gin.Context, err error) {
	var (
		loadErr   *session.LoadError
		startErr  *session.StartError
		stateErr  *session.InvalidStateError
		submitErr *session.SubmitError
	)

	switch {
	case errors.Is(err, service.ErrNoSession):
		response.Fail(c, http.StatusConflict, response.ErrSessionNotHydrated)
	case errors.As(err, &stateErr):
		response.FailWithDetail(c, http.StatusConflict, response.ErrInvalidState, stateErr)
	case errors.Is(err, session.ErrUnknownQuestion):
		response.Fail(c, http.StatusNotFound, response.ErrUnknownQuestion)
	case errors.Is(err, session.ErrInvalidOption):
		response.Fail(c, http.StatusUnprocessableEntity, response.ErrInvalidOption)

	case errors.As(err, &loadErr), errors.As(err, &startErr):
		switch {
		case errors.Is(err, apiclient.ErrNotFound):
			response.Fail(c, http.StatusNotFound, response.ErrNotFound)
		case errors.Is(err, apiclient.ErrNotYetOpen):
			response.Fail(c, http.StatusForbidden, response.ErrExamNotOpen)
		case errors.Is(err, apiclient.ErrClosed):
			response.Fail(c, http.StatusForbidden, response.ErrExamClosed)
		case errors.Is(err, apiclient.ErrAlreadyAttempted):
			response.Fail(c, http.StatusConflict, response.ErrAlreadyAttempted)
		case errors.Is(err, apiclient.ErrUnauthorized):
			response.Fail(c, http.StatusUnauthorized, response.ErrTokenInvalid)
		case loadErr != nil:
			response.FailWithDetail(c, http.StatusBadGateway, response.ErrSessionLoad, loadErr.Err)
		default:
			response.FailWithDetail(c, http.StatusBadGateway, response.ErrStartFailed, startErr.Err)
		}

	case errors.As(err, &submitErr):
		h.log.Warn().Err(err).Msg("Submit failed")
		response.FailWithDetail(c, http.StatusBadGateway, response.ErrSubmitFailed, submitErr.Err)

	default:
		h.log.Error().Err(err).Msg("Unhandled session error")
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
	}
}
