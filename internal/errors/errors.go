// Package errors provides custom error types for domain-specific errors.
package errors

import (
	"errors"
	"fmt"
)

// Standard sentinel errors
var (
	ErrNoOpponentBid   = errors.New("no opponent bid received yet")
	ErrSessionEnded    = errors.New("session has ended")
	ErrEmptyDomain     = errors.New("outcome space is empty")
	ErrEmptyCandidates = errors.New("candidate set is empty")
	ErrConfigInvalid   = errors.New("invalid configuration")
	ErrProfileInvalid  = errors.New("invalid preference profile")
	ErrDataNotFound    = errors.New("data not found")
	ErrDatabaseError   = errors.New("database error")
	ErrPlanExhausted   = errors.New("offer plan exhausted")
)

// DomainMismatchError reports an observation that does not belong to the
// negotiation domain (unknown issue or illegal value). The offending update
// is dropped; the session continues.
type DomainMismatchError struct {
	Issue string
	Value string
}

func (e *DomainMismatchError) Error() string {
	if e.Value != "" {
		return fmt.Sprintf("domain mismatch: value %q is not legal for issue %q", e.Value, e.Issue)
	}
	return fmt.Sprintf("domain mismatch: unknown issue %q", e.Issue)
}

// NewDomainMismatchError creates a new DomainMismatchError.
func NewDomainMismatchError(issue, value string) *DomainMismatchError {
	return &DomainMismatchError{Issue: issue, Value: value}
}

// ProfileError represents an error loading or validating a preference profile.
type ProfileError struct {
	Path    string
	Message string
	Err     error
}

func (e *ProfileError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("profile error [%s]: %s: %v", e.Path, e.Message, e.Err)
	}
	return fmt.Sprintf("profile error [%s]: %s", e.Path, e.Message)
}

func (e *ProfileError) Unwrap() error {
	return e.Err
}

// NewProfileError creates a new ProfileError.
func NewProfileError(path, message string, err error) *ProfileError {
	return &ProfileError{Path: path, Message: message, Err: err}
}

// PlanError represents a failure while building or consuming an offer plan.
type PlanError struct {
	Operation string
	Message   string
	Err       error
}

func (e *PlanError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("plan error [%s]: %s: %v", e.Operation, e.Message, e.Err)
	}
	return fmt.Sprintf("plan error [%s]: %s", e.Operation, e.Message)
}

func (e *PlanError) Unwrap() error {
	return e.Err
}

// NewPlanError creates a new PlanError.
func NewPlanError(operation, message string, err error) *PlanError {
	return &PlanError{Operation: operation, Message: message, Err: err}
}

// ValidationError represents a validation error.
type ValidationError struct {
	Field   string
	Value   interface{}
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error: %s (%v): %s", e.Field, e.Value, e.Message)
}

// NewValidationError creates a new ValidationError.
func NewValidationError(field string, value interface{}, message string) *ValidationError {
	return &ValidationError{Field: field, Value: value, Message: message}
}

// Wrap wraps an error with additional context.
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// Wrapf wraps an error with formatted context.
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), err)
}

// Is reports whether any error in err's chain matches target.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target.
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}
