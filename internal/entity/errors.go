package entity

import "errors"

// Store-level errors returned by every Repository implementation, independent of the engine behind it.
var (
	ErrUserNotFound   = errors.New("user not found")
	ErrDuplicateEmail = errors.New("email already exists")
)
