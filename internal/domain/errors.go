// Package domain contains pure, dependency-free domain models and types
// for the evaluation engine.
package domain

import (
	"errors"
	"fmt"
)

// Common domain errors that can occur during evaluation operations.
var (
	// ErrInvalidState indicates that an Evaluation received a lifecycle
	// transition that is not legal from its current status.
	ErrInvalidState = errors.New("invalid evaluation state")

	// ErrBenchmarkNotFound indicates that a requested benchmark does not exist.
	ErrBenchmarkNotFound = errors.New("benchmark not found")

	// ErrEvaluationNotFound indicates that a requested evaluation does not exist.
	ErrEvaluationNotFound = errors.New("evaluation not found")

	// ErrInvalidConfiguration indicates that an agent configuration is
	// invalid or incomplete.
	ErrInvalidConfiguration = errors.New("invalid configuration")

	// ErrNoResults indicates that results were requested before any
	// question result was persisted.
	ErrNoResults = errors.New("no question results available")

	// ErrUnsupportedFormat indicates that an export format is not supported.
	ErrUnsupportedFormat = errors.New("unsupported export format")
)

// TransitionError describes an illegal evaluation lifecycle transition.
// It records the status the aggregate was in and the transition that was
// attempted so callers can produce a precise message.
type TransitionError struct {
	// EvaluationID identifies the evaluation the transition was applied to.
	EvaluationID string

	// From is the status the evaluation held when the transition was attempted.
	From EvaluationStatus

	// Transition names the attempted operation (e.g. "start_execution").
	Transition string
}

// Error implements the error interface for TransitionError.
func (e *TransitionError) Error() string {
	return fmt.Sprintf("evaluation %s: cannot %s from status %q",
		e.EvaluationID, e.Transition, e.From)
}

// Unwrap reports TransitionError as an ErrInvalidState so callers can use
// errors.Is without inspecting the concrete type.
func (e *TransitionError) Unwrap() error { return ErrInvalidState }

// ValidationError represents an error that occurred during validation.
// It can contain multiple validation failures.
type ValidationError struct {
	// Entity is the name of the entity that failed validation.
	Entity string

	// Errors contains the list of validation error messages.
	Errors []string
}

// Error implements the error interface for ValidationError.
func (e *ValidationError) Error() string {
	if len(e.Errors) == 1 {
		return fmt.Sprintf("validation error for %s: %s", e.Entity, e.Errors[0])
	}
	return fmt.Sprintf("validation errors for %s: %v", e.Entity, e.Errors)
}

// Unwrap reports ValidationError as an ErrInvalidConfiguration.
func (e *ValidationError) Unwrap() error { return ErrInvalidConfiguration }

// AddError adds a new error message to the validation error.
func (e *ValidationError) AddError(msg string) { e.Errors = append(e.Errors, msg) }

// HasErrors returns true if there are any validation errors.
func (e *ValidationError) HasErrors() bool { return len(e.Errors) > 0 }

// NewValidationError creates a new ValidationError for the given entity.
func NewValidationError(entity string) *ValidationError {
	return &ValidationError{
		Entity: entity,
		Errors: make([]string, 0),
	}
}
