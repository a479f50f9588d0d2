package distributor

import "errors"

// Sentinel kinds for distribution errors.
var (
	ErrInvalidWindow   = errors.New("period end must be after period start")
	ErrInvalidPool     = errors.New("reward pool must be a non-negative amount")
	ErrPoolCapExceeded = errors.New("reward pool exceeds the configured cap")
	ErrNotFound        = errors.New("distribution not found")
)
