package errors

import (
	"errors"
	"fmt"
)

// Error kinds surfaced by the auth client and session stores
var (
	// Login errors
	ErrValidation       = errors.New("validation error")
	ErrAuthFailure      = errors.New("authentication failed")
	ErrNetwork          = errors.New("network error")
	ErrLoginInProgress  = errors.New("login already in progress")
	ErrNotAuthenticated = errors.New("not authenticated")

	// Storage errors
	ErrStorageUnavailable = errors.New("session storage unavailable")
	ErrNotFound           = errors.New("not found")
)

// Wrapf wraps an error with context using fmt.Errorf
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf(format+": %w", append(args, err)...)
}

// Is reports whether any error in err's chain matches target
func Is(err, target error) bool {
	return errors.Is(err, target)
}
