// Package domain holds the error taxonomy shared by every wallet component.
package domain

import (
	"errors"
	"fmt"

	"github.com/amirasaad/masroofy/pkg/money"
)

// Error kinds. Callers match them with errors.Is.
var (
	// ErrInvalidAmount is returned when an amount is not a positive finite decimal.
	ErrInvalidAmount = money.ErrInvalidAmount
	// ErrMissingDescription is returned when an expense or edit carries an empty description.
	ErrMissingDescription = errors.New("description is required")
	// ErrForbidden is returned on a role or ownership violation.
	ErrForbidden = errors.New("forbidden")
	// ErrNotFound is returned when an account or transaction does not exist.
	ErrNotFound = errors.New("resource not found")
	// ErrNameTaken is returned when a display name or e-mail is already registered.
	ErrNameTaken = errors.New("name already taken")
	// ErrInsufficientFunds is returned when a debit would make a balance negative.
	ErrInsufficientFunds = errors.New("insufficient funds")
	// ErrStorageUnavailable is returned when the persistent store cannot be reached.
	ErrStorageUnavailable = errors.New("storage unavailable")
	// ErrInvalidInput is returned when a field other than an amount fails validation.
	ErrInvalidInput = errors.New("invalid input")
	// ErrUnauthorized is returned when credentials do not match.
	ErrUnauthorized = errors.New("unauthorized")
)

// Error pairs an error kind with a human-readable reason.
type Error struct {
	Kind   error
	Reason string
}

// Errorf builds an Error of the given kind.
func Errorf(kind error, format string, args ...any) *Error {
	return &Error{Kind: kind, Reason: fmt.Sprintf(format, args...)}
}

func (e *Error) Error() string {
	if e.Reason == "" {
		return e.Kind.Error()
	}
	return e.Kind.Error() + ": " + e.Reason
}

// Unwrap exposes the kind to errors.Is.
func (e *Error) Unwrap() error { return e.Kind }

// Reason returns the human-readable reason carried by err, or its message.
func Reason(err error) string {
	var de *Error
	if errors.As(err, &de) && de.Reason != "" {
		return de.Reason
	}
	return err.Error()
}

// Storage wraps a store fault. The cause is kept for logs; callers only see
// the StorageUnavailable kind.
func Storage(cause error) error {
	return &storageError{cause: cause}
}

type storageError struct{ cause error }

func (e *storageError) Error() string { return ErrStorageUnavailable.Error() + ": " + e.cause.Error() }

func (e *storageError) Is(target error) bool { return target == ErrStorageUnavailable }

func (e *storageError) Unwrap() error { return e.cause }
