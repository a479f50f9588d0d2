package usage

import "errors"

// Sentinel kinds for usage tracking errors.
var (
	ErrUnknownSkill = errors.New("unknown skill")
	ErrInvalidUser  = errors.New("missing user id")
)
