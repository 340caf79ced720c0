// Package server provides the HTTP REST API for the writing coach.
package server

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/jonathan/writing-coach/internal/feedback"
	"github.com/jonathan/writing-coach/internal/scheduler"
)

// ErrSessionNotFound indicates an unknown or deleted session ID.
type ErrSessionNotFound struct {
	ID string
}

func (e *ErrSessionNotFound) Error() string {
	return fmt.Sprintf("session not found: %s", e.ID)
}

// ErrTooManySessions indicates the session store is full.
type ErrTooManySessions struct {
	Max int
}

func (e *ErrTooManySessions) Error() string {
	return fmt.Sprintf("too many open sessions (max %d)", e.Max)
}

// ErrFeedbackUnavailable indicates deep feedback is not configured.
type ErrFeedbackUnavailable struct{}

func (e *ErrFeedbackUnavailable) Error() string {
	return "deep feedback is not configured"
}

// ErrValidation indicates request validation failure
type ErrValidation struct {
	Field   string
	Message string
}

func (e *ErrValidation) Error() string {
	return fmt.Sprintf("validation error: %s - %s", e.Field, e.Message)
}

// HTTPStatus returns the appropriate HTTP status code for an error
func HTTPStatus(err error) int {
	var (
		notFound    *ErrSessionNotFound
		tooMany     *ErrTooManySessions
		unavailable *ErrFeedbackUnavailable
		validation  *ErrValidation
		feedbackErr *feedback.Error
	)
	switch {
	case errors.As(err, &notFound):
		return http.StatusNotFound
	case errors.As(err, &tooMany), errors.As(err, &unavailable):
		return http.StatusServiceUnavailable
	case errors.As(err, &validation), errors.As(err, &feedbackErr):
		return http.StatusBadRequest
	case errors.Is(err, scheduler.ErrClosed):
		return http.StatusGone
	default:
		return http.StatusInternalServerError
	}
}
