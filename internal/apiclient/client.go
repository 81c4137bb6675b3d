package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/stemsi/exstem-attempt/internal/model"
	"github.com/stemsi/exstem-attempt/internal/response"
	"github.com/stemsi/exstem-attempt/internal/validator"
)

// maxBodyBytes bounds how much of a response body is read.
const maxBodyBytes = 4 << 20

// envelope is the response shape shared by every exam API endpoint.
type envelope struct {
	Data  json.RawMessage     `json:"data"`
	Error *response.ErrorBody `json:"error,omitempty"`
}

// Client talks to the exam session endpoints of the remote API.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
	log     zerolog.Logger
}

// New creates a Client. A zero timeout falls back to 15 seconds.
func New(baseURL, token string, timeout time.Duration, log zerolog.Logger) *Client {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		http:    &http.Client{Timeout: timeout},
		log:     log.With().Str("component", "apiclient").Logger(),
	}
}

// FetchForAttempt loads the exam, its questions, any existing attempt and the server time.
func (c *Client) FetchForAttempt(ctx context.Context, examID uuid.UUID) (*model.FetchResult, error) {
	var out model.FetchResult
	if err := c.do(ctx, http.MethodGet, c.attemptPath(examID, ""), nil, nil, &out); err != nil {
		return nil, fmt.Errorf("fetch attempt: %w", err)
	}
	if len(out.Questions) == 0 {
		out.Questions = out.Exam.Questions
	}
	return &out, nil
}

// StartAttempt asks the server to create the attempt and record its start time.
func (c *Client) StartAttempt(ctx context.Context, examID uuid.UUID) (*model.StartResult, error) {
	var out model.StartResult
	if err := c.do(ctx, http.MethodPost, c.attemptPath(examID, "/start"), nil, nil, &out); err != nil {
		return nil, fmt.Errorf("start attempt: %w", err)
	}
	return &out, nil
}

// SubmitAttempt sends the final answers. The attempt ID is the idempotency key,
// so a retried submission is never graded twice.
func (c *Client) SubmitAttempt(ctx context.Context, examID, attemptID uuid.UUID, req model.SubmitRequest) (*model.SubmitResult, error) {
	if req.Answers == nil {
		req.Answers = []model.AnswerPair{}
	}
	headers := map[string]string{"Idempotency-Key": attemptID.String()}

	var out model.SubmitResult
	if err := c.do(ctx, http.MethodPost, c.attemptPath(examID, "/submit"), req, headers, &out); err != nil {
		return nil, fmt.Errorf("submit attempt: %w", err)
	}
	return &out, nil
}

func (c *Client) attemptPath(examID uuid.UUID, suffix string) string {
	return fmt.Sprintf("%s/api/v1/student/exams/%s/attempt%s", c.baseURL, examID, suffix)
}

func (c *Client) do(ctx context.Context, method, url string, body interface{}, headers map[string]string, out interface{}) error {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode body: %w", err)
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return err
		}
		c.log.Warn().Err(err).Str("method", method).Str("url", url).Msg("Request failed")
		return fmt.Errorf("%w: %v", ErrTransient, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return fmt.Errorf("%w: read body: %v", ErrTransient, err)
	}

	c.log.Debug().
		Str("method", method).
		Str("url", url).
		Int("status", resp.StatusCode).
		Dur("latency", time.Since(start)).
		Msg("API call")

	var env envelope
	decodeErr := json.Unmarshal(raw, &env)

	if resp.StatusCode < 200 || resp.StatusCode > 299 || env.Error != nil {
		apiErr := &APIError{Status: resp.StatusCode}
		if decodeErr == nil && env.Error != nil {
			apiErr.Code = env.Error.Code
			apiErr.Message = env.Error.Message
		}
		return apiErr
	}
	if decodeErr != nil {
		return fmt.Errorf("decode envelope: %w", decodeErr)
	}

	if err := json.Unmarshal(env.Data, out); err != nil {
		return fmt.Errorf("decode data: %w", err)
	}
	if err := validator.Struct(out); err != nil {
		return fmt.Errorf("invalid response payload: %w", err)
	}
	return nil
}
