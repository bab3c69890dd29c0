package metrics

import (
	"errors"
)

// Sentinel kinds for metrics errors.
var (
	ErrRegisterCollector = errors.New("metrics collector registration failed")
)
