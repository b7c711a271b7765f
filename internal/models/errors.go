// Package models defines typed errors for better error handling and context.
package models

import (
	"errors"
	"fmt"
)

// ErrEmptyQuery is returned when a search is dispatched with a blank query.
var ErrEmptyQuery = errors.New("search query cannot be empty")

// SearchFailedError is the single error a search surfaces to its caller
type SearchFailedError struct {
	Reason string
	Err    error
}

func (e *SearchFailedError) Error() string {
	return fmt.Sprintf("search failed: %s", e.Reason)
}

func (e *SearchFailedError) Unwrap() error { return e.Err }

// NewSearchFailed wraps err as a SearchFailedError using its message as the reason
func NewSearchFailed(err error) *SearchFailedError {
	var sf *SearchFailedError
	if errors.As(err, &sf) {
		return sf
	}
	return &SearchFailedError{Reason: err.Error(), Err: err}
}

// ConfigError represents a missing or invalid provider configuration
type ConfigError struct {
	Provider string
	Field    string
	Err      error
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("invalid config for provider %s (%s): %v", e.Provider, e.Field, e.Err)
}

func (e *ConfigError) Unwrap() error { return e.Err }

// TimeoutError represents a timeout error
type TimeoutError struct {
	Operation string
	Timeout   string
	Err       error
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("timeout during %s after %s: %v", e.Operation, e.Timeout, e.Err)
}

func (e *TimeoutError) Unwrap() error { return e.Err }

// HTTPError represents an HTTP-related error
type HTTPError struct {
	StatusCode int
	URL        string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("HTTP %d for URL %s", e.StatusCode, e.URL)
}

// ContentExtractionError represents an error during content extraction
type ContentExtractionError struct {
	Step string
	Err  error
}

func (e *ContentExtractionError) Error() string {
	return fmt.Sprintf("content extraction failed at %s: %v", e.Step, e.Err)
}

func (e *ContentExtractionError) Unwrap() error { return e.Err }
