package ledger

import "errors"

// ErrStoreFailure wraps any persistence error raised while applying an award.
var ErrStoreFailure = errors.New("score store failure")
