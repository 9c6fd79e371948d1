package domain

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrNotFound               = errors.New("not found")
	ErrInvalidRequest         = errors.New("invalid request")
	ErrConfiguration          = errors.New("configuration error")
	ErrTransientGeneration    = errors.New("transient generation failure")
	ErrNonRetryableGeneration = errors.New("non-retryable generation failure")
	ErrValidationFailed       = errors.New("bundle validation failed")
	ErrExhaustedRetries       = errors.New("exhausted retries")
)

// ConfigError reports a missing or unusable configuration value. It is always
// fatal for the request that hit it.
type ConfigError struct {
	Field  string
	Reason string
}

func NewConfigError(field, reason string) *ConfigError {
	return &ConfigError{Field: field, Reason: reason}
}

func (e *ConfigError) Error() string {
	if e.Field == "" {
		return "configuration: " + e.Reason
	}
	return fmt.Sprintf("configuration: %s: %s", e.Field, e.Reason)
}

func (e *ConfigError) Is(target error) bool {
	return target == ErrConfiguration
}

// GenerationError wraps a failure of the text-generation collaborator.
type GenerationError struct {
	Provider   string
	StatusCode int
	Retryable  bool
	Err        error
}

func (e *GenerationError) Error() string {
	kind := "non-retryable"
	if e.Retryable {
		kind = "transient"
	}
	if e.StatusCode > 0 {
		return fmt.Sprintf("%s: %s failure (status %d): %v", e.Provider, kind, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%s: %s failure: %v", e.Provider, kind, e.Err)
}

func (e *GenerationError) Unwrap() error {
	return e.Err
}

func (e *GenerationError) Is(target error) bool {
	if e.Retryable {
		return target == ErrTransientGeneration
	}
	return target == ErrNonRetryableGeneration
}

// CheckFailure describes one failed check of one candidate bundle.
type CheckFailure struct {
	Bundle int     `json:"bundle"`
	Check  string  `json:"check"`
	Detail string  `json:"detail"`
	Score  float64 `json:"score,omitempty"`
}

func (f CheckFailure) String() string {
	return fmt.Sprintf("bundle %d: %s: %s", f.Bundle+1, f.Check, f.Detail)
}

// ValidationError carries the failures of a single semantic attempt.
type ValidationError struct {
	Failures []CheckFailure
}

func (e *ValidationError) Error() string {
	return "validation failed: " + joinFailures(e.Failures)
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidationFailed
}

// ExhaustedRetriesError is returned once every semantic attempt failed
// validation. It unwraps to the last attempt's ValidationError.
type ExhaustedRetriesError struct {
	Attempts int
	Last     *ValidationError
}

func (e *ExhaustedRetriesError) Error() string {
	return fmt.Sprintf("exhausted %d attempts: %s", e.Attempts, joinFailures(e.Failures()))
}

// Failures returns the failed checks of the last attempt.
func (e *ExhaustedRetriesError) Failures() []CheckFailure {
	if e.Last == nil {
		return nil
	}
	return e.Last.Failures
}

func (e *ExhaustedRetriesError) Is(target error) bool {
	return target == ErrExhaustedRetries
}

func (e *ExhaustedRetriesError) Unwrap() error {
	if e.Last == nil {
		return ErrValidationFailed
	}
	return e.Last
}

func joinFailures(failures []CheckFailure) string {
	if len(failures) == 0 {
		return "no failure details"
	}
	parts := make([]string, 0, len(failures))
	for _, f := range failures {
		parts = append(parts, f.String())
	}
	return strings.Join(parts, "; ")
}
