package auth

import "errors"

// Errors returned by the credential service and the authorization gateway.
// Callers classify them with errors.Is; anything else is an internal failure.
var (
	ErrInvalidInput       = errors.New("invalid input")
	ErrEmailTaken         = errors.New("email already registered")
	ErrRegistrationClosed = errors.New("registration closed")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrMissingToken       = errors.New("missing bearer token")
	ErrInvalidToken       = errors.New("invalid or expired token")
	ErrIdentityNotFound   = errors.New("identity not found")
	ErrForbidden          = errors.New("forbidden")
)
