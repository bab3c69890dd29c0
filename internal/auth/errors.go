package auth

import "errors"

// Sentinel kinds for auth errors.
var (
	ErrInvalidToken    = errors.New("invalid token")
	ErrPasswordInvalid = errors.New("password mismatch")
)
