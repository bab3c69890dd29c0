package abuse

import (
	"errors"
	"fmt"
)

// Sentinel kinds for guard rejections.
var (
	ErrUserNotFound        = errors.New("user not found")
	ErrUserInactive        = fmt.Errorf("%w: account inactive", ErrUserNotFound)
	ErrRateLimited         = errors.New("too many score updates")
	ErrDuplicateSubmission = errors.New("duplicate game submission")
)
