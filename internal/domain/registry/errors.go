package registry

import "errors"

// Sentinel kinds for registry errors.
var (
	ErrNotFound = errors.New("skill not found")
)
