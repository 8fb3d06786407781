// Package apperr defines the error taxonomy shared by the service layer and
// the HTTP boundary. Errors are classified by wrapping one of the sentinel
// kinds below; callers test with errors.Is.
package apperr

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidArgument marks malformed input rejected before any mutation.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrNotFound marks a missing habit, user or notification.
	ErrNotFound = errors.New("not found")

	// ErrConflict marks a feasibility rejection. Distinct from storage conflicts.
	ErrConflict = errors.New("conflict")

	// ErrStorage marks a persistence layer failure.
	ErrStorage = errors.New("storage failure")
)

// InvalidArgumentf builds an ErrInvalidArgument with a formatted message.
func InvalidArgumentf(format string, args ...any) error {
	return wrapf(ErrInvalidArgument, format, args...)
}

// NotFoundf builds an ErrNotFound with a formatted message.
func NotFoundf(format string, args ...any) error {
	return wrapf(ErrNotFound, format, args...)
}

// Conflictf builds an ErrConflict with a formatted message.
func Conflictf(format string, args ...any) error {
	return wrapf(ErrConflict, format, args...)
}

// Storagef wraps a persistence error as ErrStorage, keeping the cause in the chain.
func Storagef(err error, format string, args ...any) error {
	msg := fmt.Sprintf(format, args...)
	return fmt.Errorf("%s: %w: %w", msg, ErrStorage, err)
}

func wrapf(kind error, format string, args ...any) error {
	msg := fmt.Sprintf(format, args...)
	return fmt.Errorf("%s: %w", msg, kind)
}
