package apiclient

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/stemsi/exstem-attempt/internal/response"
)

// Sentinel conditions reported by the exam API. Every error returned by Client
// matches at most one of them with errors.Is.
var (
	ErrNotFound         = errors.New("exam not found")
	ErrNotYetOpen       = errors.New("exam not yet open")
	ErrClosed           = errors.New("exam closed")
	ErrAlreadyAttempted = errors.New("exam already attempted")
	ErrUnauthorized     = errors.New("unauthorized")
	ErrTransient        = errors.New("transient api failure")
)

// APIError is a failed API call that carried an error envelope or a non-2xx status.
type APIError struct {
	Status  int
	Code    response.ErrCode
	Message string
}

func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("api error %d %s: %s", e.Status, e.Code, e.Message)
	}
	return fmt.Sprintf("api error %d", e.Status)
}

// Unwrap maps the error code (or, failing that, the status) to a sentinel.
func (e *APIError) Unwrap() error {
	switch e.Code {
	case response.ErrNotFound:
		return ErrNotFound
	case response.ErrExamNotOpen:
		return ErrNotYetOpen
	case response.ErrExamClosed:
		return ErrClosed
	case response.ErrAlreadyAttempted:
		return ErrAlreadyAttempted
	case response.ErrTokenRequired, response.ErrTokenInvalid:
		return ErrUnauthorized
	}

	switch {
	case e.Status >= http.StatusInternalServerError,
		e.Status == http.StatusTooManyRequests,
		e.Status == http.StatusRequestTimeout:
		return ErrTransient
	case e.Status == http.StatusNotFound:
		return ErrNotFound
	case e.Status == http.StatusUnauthorized:
		return ErrUnauthorized
	}
	return nil
}

// IsTransient reports whether err is worth retrying.
func IsTransient(err error) bool {
	return errors.Is(err, ErrTransient)
}
