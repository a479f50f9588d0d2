package repository

import "errors"

// Sentinel kinds for persistence errors.
var (
	ErrStorage = errors.New("storage failure")
	ErrCorrupt = errors.New("corrupt collection document")
)
