// Package common provides shared utilities and types used across the application.
package common

import (
	"context"
	"errors"
	"fmt"
)

// Epsilon guards every ratio and percentage against division by near-zero.
const Epsilon = 1e-8

// Common application errors.
var (
	// Database errors.
	ErrNotFound = errors.New("not found")

	// Pipeline input errors.
	ErrEmptyRecords     = errors.New("no daily records provided")
	ErrUnorderedRecords = errors.New("daily records must be strictly ascending by date")

	// Forecast errors.
	ErrOracleFailed    = errors.New("forecast oracle failed")
	ErrHorizonMismatch = errors.New("forecast horizon mismatch")
	ErrInvalidHorizon  = errors.New("forecast horizon must be positive")

	// Configuration errors.
	ErrMissingConfig = errors.New("missing configuration")
	ErrInvalidConfig = errors.New("invalid configuration")
)

// UserError represents an error that should be shown to the user.
type UserError struct {
	Err         error
	UserMessage string
}

func (e *UserError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.UserMessage, e.Err)
	}
	return e.UserMessage
}

func (e *UserError) Unwrap() error {
	return e.Err
}

// NewUserError creates a new user-friendly error.
func NewUserError(userMessage string, err error) error {
	return &UserError{
		UserMessage: userMessage,
		Err:         err,
	}
}

// IsRetryable determines if an error should trigger a retry.
func IsRetryable(err error) bool {
	if errors.Is(err, context.Canceled) {
		return false
	}
	if errors.Is(err, ErrRateLimit) ||
		errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	var retryableErr *RetryableError
	if errors.As(err, &retryableErr) {
		return retryableErr.Retryable
	}

	return false
}
