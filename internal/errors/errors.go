package errors

import (
	"errors"
	"fmt"
)

// Storage and lookup errors shared by the Data Access Port implementations.
var (
	ErrNotFound      = errors.New("not found")
	ErrDuplicate     = errors.New("already exists")
	ErrInvalidSecret = errors.New("invalid secret")
	ErrExpired       = errors.New("expired")

	// Configuration errors
	ErrUnknownDriver      = errors.New("unknown storage driver")
	ErrUnknownTokenFormat = errors.New("unknown token format")
	ErrMissingSigningKey  = errors.New("jwt signing key is required")
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

// As finds the first error in err's chain that matches target
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}
