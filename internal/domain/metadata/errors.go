package metadata

import "errors"

// Sentinel kinds for metadata validation failures. All of them unwrap
// to ErrValidation so callers can branch on the taxonomy level.
var (
	ErrValidation        = errors.New("invalid skill metadata")
	ErrMissingName       = errors.New("missing name")
	ErrMissingRepository = errors.New("missing repository")
	ErrMissingWallet     = errors.New("missing creator wallet")
	ErrInvalidWallet     = errors.New("creator wallet is not a valid chain address")
	ErrInvalidRepository = errors.New("repository is not a recognized location")
)
