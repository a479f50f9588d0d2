package bounty

import "errors"

// Sentinel kinds for bounty errors.
var (
	ErrValidation   = errors.New("invalid bounty input")
	ErrNotFound     = errors.New("bounty not found")
	ErrInvalidState = errors.New("illegal bounty state transition")
)
