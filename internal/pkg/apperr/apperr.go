package apperr

import (
	"errors"
	"fmt"
)

// Error kinds surfaced to callers. Wrap them with the constructors below and
// test with errors.Is.
var (
	ErrNotFound           = errors.New("not found")
	ErrForbidden          = errors.New("forbidden")
	ErrValidation         = errors.New("validation failed")
	ErrStorageUnavailable = errors.New("storage unavailable")

	// ErrConflict signals a lost optimistic-concurrency race. Callers retry;
	// it is never returned from a service method.
	ErrConflict = errors.New("version conflict")
)

// NotFound reports that the named entity does not exist.
func NotFound(entity string) error {
	return fmt.Errorf("%s %w", entity, ErrNotFound)
}

// Forbidden reports a failed capability check.
func Forbidden(msg string) error {
	return fmt.Errorf("%w: %s", ErrForbidden, msg)
}

// Validation reports a rejected input.
func Validation(msg string) error {
	return fmt.Errorf("%w: %s", ErrValidation, msg)
}

// Unavailable reports a storage failure that has no underlying driver error,
// such as a write that kept losing version races.
func Unavailable(msg string) error {
	return fmt.Errorf("%w: %s", ErrStorageUnavailable, msg)
}

// Storage wraps a storage collaborator failure. Domain kinds pass through
// untouched so a NotFound from the store stays a NotFound.
func Storage(err error) error {
	if err == nil {
		return nil
	}
	if IsKnown(err) {
		return err
	}
	return &storageError{cause: err}
}

// IsKnown reports whether err already carries one of the kinds above.
func IsKnown(err error) bool {
	return errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrForbidden) ||
		errors.Is(err, ErrValidation) ||
		errors.Is(err, ErrStorageUnavailable) ||
		errors.Is(err, ErrConflict)
}

type storageError struct {
	cause error
}

func (e *storageError) Error() string {
	return ErrStorageUnavailable.Error() + ": " + e.cause.Error()
}

func (e *storageError) Unwrap() []error {
	return []error{ErrStorageUnavailable, e.cause}
}
