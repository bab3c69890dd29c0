package jobs

import "errors"

// Sentinel kinds for scheduler errors.
var (
	ErrSchedule = errors.New("schedule job")
	ErrShutdown = errors.New("scheduler shutdown")
)
