package repositories

import "errors"

// ErrVersionConflict is returned when a guarded write carries a stale
// deal version.
var ErrVersionConflict = errors.New("deal version conflict")
