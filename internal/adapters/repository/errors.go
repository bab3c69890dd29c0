package repository

import "errors"

// Sentinel kinds for store errors.
var (
	ErrNotFound      = errors.New("record not found")
	ErrConflict      = errors.New("record already exists")
	ErrInvalidLimit  = errors.New("invalid limit")
	ErrUnknownDriver = errors.New("unknown database driver")
)
