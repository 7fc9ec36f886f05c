/*
errors.go - Centralized error types for the ledger

PURPOSE:
  All failure kinds in one place. Every ledger operation returns either a
  plain result or one of these. Translation to transport status codes is
  the caller's job (see api/errors.go).

ERROR CATEGORIES:
  1. Not found        - ErrNotFound, PersonNotFoundError
  2. Uniqueness       - ErrDuplicateName, ErrDuplicateDate
  3. Input validation - ErrEmptyInput, ErrInvalidAmount
  4. Integrity        - ErrIntegrityViolation, PersonHasHistoryError
  5. State            - ErrInsufficientState (nothing to undo)

USAGE:
  if errors.Is(err, ledger.ErrDuplicateDate) {
      // another entry already owns this date
  }

SEE ALSO:
  - api/errors.go: Maps these errors to HTTP status codes
*/
package ledger

import (
	"errors"
	"fmt"
	"time"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrNotFound is returned when a person or entry does not exist.
	ErrNotFound = errors.New("not found")

	// ErrDuplicateName is returned when a person name is already taken.
	ErrDuplicateName = errors.New("duplicate name")

	// ErrDuplicateDate is returned when a daily entry already exists for a date.
	ErrDuplicateDate = errors.New("duplicate date")

	// ErrEmptyInput is returned for blank names and entries without eggs.
	ErrEmptyInput = errors.New("empty input")

	// ErrInvalidAmount is returned for non-positive prices and recharges.
	ErrInvalidAmount = errors.New("invalid amount")

	// ErrIntegrityViolation is returned when a delete would orphan history.
	ErrIntegrityViolation = errors.New("integrity violation")

	// ErrInsufficientState is returned when an operation needs state that is absent.
	ErrInsufficientState = errors.New("insufficient state")
)

var (
	ErrEmptyName     = fmt.Errorf("%w: name is required", ErrEmptyInput)
	ErrEmptyEntry    = fmt.Errorf("%w: total eggs must be greater than zero", ErrEmptyInput)
	ErrNoEntryToUndo = fmt.Errorf("%w: no daily entry to undo", ErrInsufficientState)
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// PersonNotFoundError names the missing person.
type PersonNotFoundError struct {
	ID PersonID
}

func (e *PersonNotFoundError) Error() string {
	return fmt.Sprintf("person not found: %d", e.ID)
}

func (e *PersonNotFoundError) Unwrap() error { return ErrNotFound }

// DuplicateNameError names the conflicting person name.
type DuplicateNameError struct {
	Name string
}

func (e *DuplicateNameError) Error() string {
	return fmt.Sprintf("person already exists: %q", e.Name)
}

func (e *DuplicateNameError) Unwrap() error { return ErrDuplicateName }

// DuplicateDateError names the date that already has an entry.
type DuplicateDateError struct {
	Date time.Time
}

func (e *DuplicateDateError) Error() string {
	return fmt.Sprintf("daily entry already exists for %s", e.Date.Format(DateLayout))
}

func (e *DuplicateDateError) Unwrap() error { return ErrDuplicateDate }

// PersonHasHistoryError is returned when deleting a person who has lines.
type PersonHasHistoryError struct {
	ID    PersonID
	Lines int
}

func (e *PersonHasHistoryError) Error() string {
	return fmt.Sprintf("person %d has %d history lines and cannot be deleted", e.ID, e.Lines)
}

func (e *PersonHasHistoryError) Unwrap() error { return ErrIntegrityViolation }

// InvalidAmountError carries the rejected value.
type InvalidAmountError struct {
	Field string
	Value string
}

func (e *InvalidAmountError) Error() string {
	return fmt.Sprintf("%s must be positive, got %s", e.Field, e.Value)
}

func (e *InvalidAmountError) Unwrap() error { return ErrInvalidAmount }

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsNotFound reports whether err means a missing person or entry.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsConflict reports uniqueness and integrity failures.
func IsConflict(err error) bool {
	return errors.Is(err, ErrDuplicateName) ||
		errors.Is(err, ErrDuplicateDate) ||
		errors.Is(err, ErrIntegrityViolation)
}

// IsClientError reports whether err is due to invalid caller input or state.
func IsClientError(err error) bool {
	return IsNotFound(err) ||
		IsConflict(err) ||
		errors.Is(err, ErrEmptyInput) ||
		errors.Is(err, ErrInvalidAmount) ||
		errors.Is(err, ErrInsufficientState)
}
