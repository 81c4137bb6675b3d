package router

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/stemsi/exstem-attempt/internal/apiclient"
	"github.com/stemsi/exstem-attempt/internal/config"
	"github.com/stemsi/exstem-attempt/internal/handler"
	"github.com/stemsi/exstem-attempt/internal/model"
	"github.com/stemsi/exstem-attempt/internal/response"
	"github.com/stemsi/exstem-attempt/internal/service"
	"github.com/stemsi/exstem-attempt/internal/session"
	"github.com/stemsi/exstem-attempt/internal/validator"
	"github.com/stemsi/exstem-attempt/internal/websocket"
)

type idleTicker struct{ c chan time.Time }

func (t idleTicker) C() <-chan time.Time { return t.c }
func (t idleTicker) Stop()               {}

func idleTickers(time.Duration) session.Ticker { return idleTicker{c: make(chan time.Time)} }

type stubAPI struct {
	exam     model.Exam
	fetchErr error
}

func (s *stubAPI) FetchForAttempt(context.Context, uuid.UUID) (*model.FetchResult, error) {
	if s.fetchErr != nil {
		return nil, s.fetchErr
	}
	return &model.FetchResult{Exam: s.exam, ServerTime: time.Now()}, nil
}

func (s *stubAPI) StartAttempt(context.Context, uuid.UUID) (*model.StartResult, error) {
	return &model.StartResult{
		Attempt:         model.Attempt{ID: uuid.New(), Status: model.AttemptStatusInProgress, StartedAt: time.Now()},
		DurationSeconds: 1800,
	}, nil
}

func (s *stubAPI) SubmitAttempt(context.Context, uuid.UUID, uuid.UUID, model.SubmitRequest) (*model.SubmitResult, error) {
	return &model.SubmitResult{Score: 1, MaxScore: 2, Percentage: 50, Grade: "C"}, nil
}

type envelope struct {
	Data  map[string]json.RawMessage `json:"data"`
	Error *response.ErrorBody        `json:"error"`
}

type testAgent struct {
	router *gin.Engine
	api    *stubAPI
	key    string
}

func newTestAgent(t *testing.T, key string) *testAgent {
	t.Helper()
	validator.Setup()

	exam := model.Exam{
		ID:              uuid.New(),
		DurationMinutes: 30,
		Questions: []model.Question{
			{ID: uuid.New(), Type: model.QuestionTypeSingleChoice, Options: []string{"A", "B"}},
			{ID: uuid.New(), Type: model.QuestionTypeFreeResponse},
		},
	}
	api := &stubAPI{exam: exam}
	log := zerolog.Nop()

	svc := service.NewAttemptService(session.Options{API: api, Logger: log, NewTicker: idleTickers}, log)
	t.Cleanup(func() { svc.Shutdown(context.Background()) })

	cfg := &config.Config{GinMode: gin.TestMode, AgentKey: key}
	r := SetupRouter(&Handlers{
		Session:  handler.NewSessionHandler(svc, log),
		Platform: handler.NewPlatformWSHandler(websocket.NewBridge(log), log, nil),
	}, cfg)
	return &testAgent{router: r, api: api, key: key}
}

func (a *testAgent) do(t *testing.T, method, path string, body interface{}) (int, envelope) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if a.key != "" {
		req.Header.Set("X-Agent-Key", a.key)
	}
	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)

	var env envelope
	if err := json.Unmarshal(w.Body.Bytes(), &env); err != nil {
		t.Fatalf("%s %s: decode %q: %v", method, path, w.Body.String(), err)
	}
	return w.Code, env
}

func TestHealth(t *testing.T) {
	a := newTestAgent(t, "")
	if code, _ := a.do(t, http.MethodGet, "/health", nil); code != http.StatusOK {
		t.Errorf("status = %d", code)
	}
}

func TestAgentKeyRequired(t *testing.T) {
	a := newTestAgent(t, "kiosk-secret")

	tests := []struct {
		name string
		key  string
		want response.ErrCode
	}{
		{"missing", "", response.ErrTokenRequired},
		{"wrong", "guess", response.ErrTokenInvalid},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/v1/session/state", nil)
			if tt.key != "" {
				req.Header.Set("X-Agent-Key", tt.key)
			}
			w := httptest.NewRecorder()
			a.router.ServeHTTP(w, req)

			var env envelope
			_ = json.Unmarshal(w.Body.Bytes(), &env)
			if w.Code != http.StatusUnauthorized || env.Error == nil || env.Error.Code != tt.want {
				t.Errorf("got %d %+v, want 401 %s", w.Code, env.Error, tt.want)
			}
		})
	}

	if code, _ := a.do(t, http.MethodGet, "/api/v1/session/state?key=kiosk-secret", nil); code != http.StatusConflict {
		t.Errorf("query key: status = %d, want 409 (authorised, not hydrated)", code)
	}
}

func TestSessionFlow(t *testing.T) {
	a := newTestAgent(t, "")
	choice := a.api.exam.Questions[0].ID
	free := a.api.exam.Questions[1].ID

	code, env := a.do(t, http.MethodGet, "/api/v1/session/state", nil)
	if code != http.StatusConflict || env.Error.Code != response.ErrSessionNotHydrated {
		t.Fatalf("state before hydrate = %d %+v", code, env.Error)
	}

	code, env = a.do(t, http.MethodPost, "/api/v1/session/hydrate", gin.H{"exam_id": "nope"})
	if code != http.StatusBadRequest || env.Error.Code != response.ErrValidation {
		t.Errorf("bad hydrate = %d %+v", code, env.Error)
	}

	code, env = a.do(t, http.MethodPost, "/api/v1/session/hydrate", gin.H{"exam_id": a.api.exam.ID})
	if code != http.StatusOK {
		t.Fatalf("hydrate = %d %+v", code, env.Error)
	}
	var snap session.Snapshot
	_ = json.Unmarshal(env.Data["session"], &snap)
	if snap.State != model.AttemptStatusNotStarted {
		t.Errorf("state = %s, want not_started", snap.State)
	}

	code, env = a.do(t, http.MethodPut, "/api/v1/session/answers/"+choice.String(), gin.H{"answer": "A"})
	if code != http.StatusConflict || env.Error.Code != response.ErrInvalidState {
		t.Errorf("answer before start = %d %+v", code, env.Error)
	}

	if code, env = a.do(t, http.MethodPost, "/api/v1/session/start", nil); code != http.StatusCreated {
		t.Fatalf("start = %d %+v", code, env.Error)
	}

	answerTests := []struct {
		name     string
		question string
		body     interface{}
		status   int
		code     response.ErrCode
	}{
		{"invalid option", choice.String(), gin.H{"answer": "Z"}, http.StatusUnprocessableEntity, response.ErrInvalidOption},
		{"unknown question", uuid.NewString(), gin.H{"answer": "A"}, http.StatusNotFound, response.ErrUnknownQuestion},
		{"bad id", "42", gin.H{"answer": "A"}, http.StatusBadRequest, response.ErrInvalidID},
		{"missing answer", choice.String(), gin.H{}, http.StatusBadRequest, response.ErrValidation},
		{"choice", choice.String(), gin.H{"answer": "B"}, http.StatusOK, ""},
		{"free", free.String(), gin.H{"answer": "gravity"}, http.StatusOK, ""},
		{"clear", free.String(), gin.H{"answer": ""}, http.StatusOK, ""},
	}
	for _, tt := range answerTests {
		t.Run(tt.name, func(t *testing.T) {
			code, env := a.do(t, http.MethodPut, "/api/v1/session/answers/"+tt.question, tt.body)
			if code != tt.status {
				t.Fatalf("status = %d, want %d (%+v)", code, tt.status, env.Error)
			}
			if tt.code != "" && (env.Error == nil || env.Error.Code != tt.code) {
				t.Errorf("code = %+v, want %s", env.Error, tt.code)
			}
		})
	}

	code, env = a.do(t, http.MethodPut, "/api/v1/session/cursor", gin.H{"index": 7})
	if code != http.StatusOK || string(env.Data["current_question_index"]) != "1" {
		t.Errorf("cursor = %d %s", code, env.Data["current_question_index"])
	}

	code, env = a.do(t, http.MethodGet, "/api/v1/session/state", nil)
	_ = json.Unmarshal(env.Data["session"], &snap)
	if code != http.StatusOK || snap.AnsweredCount != 1 || snap.SecondsRemaining <= 0 {
		t.Errorf("state = %d %+v", code, snap)
	}

	code, env = a.do(t, http.MethodPost, "/api/v1/session/submit", nil)
	if code != http.StatusOK {
		t.Fatalf("submit = %d %+v", code, env.Error)
	}
	var result model.SubmitResult
	_ = json.Unmarshal(env.Data["result"], &result)
	if result.Grade != "C" {
		t.Errorf("result = %+v", result)
	}

	code, env = a.do(t, http.MethodPost, "/api/v1/session/submit", nil)
	if code != http.StatusConflict || env.Error.Code != response.ErrInvalidState {
		t.Errorf("second submit = %d %+v", code, env.Error)
	}

	if code, _ = a.do(t, http.MethodPost, "/api/v1/session/close", nil); code != http.StatusOK {
		t.Errorf("close = %d", code)
	}
	if code, _ = a.do(t, http.MethodGet, "/api/v1/session/state", nil); code != http.StatusConflict {
		t.Errorf("state after close = %d, want 409", code)
	}
}

func TestHydrateErrorMapping(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		code   response.ErrCode
	}{
		{"closed", &apiclient.APIError{Status: 403, Code: response.ErrExamClosed}, http.StatusForbidden, response.ErrExamClosed},
		{"not open", &apiclient.APIError{Status: 403, Code: response.ErrExamNotOpen}, http.StatusForbidden, response.ErrExamNotOpen},
		{"not found", &apiclient.APIError{Status: 404, Code: response.ErrNotFound}, http.StatusNotFound, response.ErrNotFound},
		{"upstream down", apiclient.ErrTransient, http.StatusBadGateway, response.ErrSessionLoad},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := newTestAgent(t, "")
			a.api.fetchErr = tt.err

			code, env := a.do(t, http.MethodPost, "/api/v1/session/hydrate", gin.H{"exam_id": a.api.exam.ID})
			if code != tt.status || env.Error == nil || env.Error.Code != tt.code {
				t.Errorf("got %d %+v, want %d %s", code, env.Error, tt.status, tt.code)
			}
		})
	}
}
