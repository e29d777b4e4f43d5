package models

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when a record with the requested id does not exist.
	ErrNotFound = errors.New("not found")
	// ErrUnsupportedFormat is returned for uploads with a disallowed extension.
	ErrUnsupportedFormat = errors.New("unsupported file format")
	// ErrInvalidToken covers every token failure: bad signature, malformed or expired.
	ErrInvalidToken = errors.New("token is invalid or expired")
	// ErrForbidden is returned when a valid token lacks the privileged role.
	ErrForbidden = errors.New("access is only for admin")
	// ErrConflict is returned on unique constraint violations and overlapping sweeps.
	ErrConflict = errors.New("conflict")
	// ErrStorage wraps database and filesystem failures.
	ErrStorage = errors.New("storage failure")
	// ErrInvalidProduct is returned when product fields fail validation.
	ErrInvalidProduct = errors.New("invalid product")
	// ErrInvalidCredentials is returned when username or password is wrong.
	ErrInvalidCredentials = errors.New("incorrect username or password")
)

func invalid(msg string) error {
	return fmt.Errorf("%w: %s", ErrInvalidProduct, msg)
}

// StorageError wraps err as a storage failure with the given operation name.
func StorageError(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, ErrStorage, err)
}
