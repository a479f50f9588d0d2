package config

import "errors"

// Sentinel error kinds for this package.
var (
	ErrInvalidConfig = errors.New("invalid config")
	ErrInvalidAmount = errors.New("amount must be a non-negative decimal integer")
)
