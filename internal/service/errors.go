package service

import "errors"

var (
	ErrValidation      = errors.New("validation")
	ErrNotFound        = errors.New("not found")
	ErrConflict        = errors.New("conflict")
	ErrUnauthenticated = errors.New("unauthenticated")
	ErrForbidden       = errors.New("forbidden")
	ErrMFARequired     = errors.New("missing TOTP token (user has MFA enabled)")
	ErrMFAInvalid      = errors.New("invalid TOTP token")
)

// IsAuthFailure reports whether err should be answered as an authentication
// failure.
func IsAuthFailure(err error) bool {
	return errors.Is(err, ErrUnauthenticated) || errors.Is(err, ErrMFARequired) || errors.Is(err, ErrMFAInvalid)
}
