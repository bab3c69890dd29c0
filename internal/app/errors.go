package service

import "errors"

// Sentinel kinds for service errors.
var (
	ErrInvalidCredentials  = errors.New("invalid email or password")
	ErrAccountDisabled     = errors.New("account is deactivated")
	ErrInvalidRegistration = errors.New("invalid registration")
	ErrUserExists          = errors.New("user with this email or username already exists")
	ErrNoTexts             = errors.New("no typing texts available")
)
