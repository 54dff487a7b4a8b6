package storage

import "errors"

// ErrTooLarge is returned when a stream exceeds the configured size limit.
var ErrTooLarge = errors.New("file exceeds size limit")
