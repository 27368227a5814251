/*
errors.go - Centralized error types for the cashbook engine

PURPOSE:
  All error types in one place for consistency and discoverability.

ERROR CATEGORIES:
  1. Validation errors - Invalid input, surfaced synchronously, no effect
  2. Persistence errors - Store read/write failures, never fatal

  There is deliberately no "not found" error. Lookups by identifier return
  (value, false) or an empty result because books and transactions are
  only loosely coupled.

USAGE:
  if errors.Is(err, cashbook.ErrValidation) {
      // reject the command, nothing changed
  }
*/
package cashbook

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrValidation is returned when a command carries invalid input.
	// The command has no effect.
	ErrValidation = errors.New("validation failed")

	// ErrPersistence is reported when the durable store cannot be read or written.
	// In-memory state is never rolled back because of it.
	ErrPersistence = errors.New("persistence failed")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// ValidationError names the offending field.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

func invalid(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}

// PersistenceError wraps a store failure with the operation and key involved.
type PersistenceError struct {
	Op  string // "load" or "save"
	Key string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("%s %q: %v", e.Op, e.Key, e.Err)
}

func (e *PersistenceError) Unwrap() []error {
	return []error{ErrPersistence, e.Err}
}

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsValidation returns true if the error is due to invalid client input.
func IsValidation(err error) bool {
	return errors.Is(err, ErrValidation)
}

// IsPersistence returns true if the error came from the durable store.
func IsPersistence(err error) bool {
	return errors.Is(err, ErrPersistence)
}
