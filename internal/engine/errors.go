package engine

import "errors"

// Error kinds surfaced by the transaction handlers. Handlers raise these
// before any store write for the transaction; callers match with errors.Is.
var (
	ErrNotFound          = errors.New("not found")
	ErrDuplicateKey      = errors.New("duplicate key")
	ErrValidation        = errors.New("validation failed")
	ErrMissingReference  = errors.New("missing reference")
	ErrInsufficientFunds = errors.New("insufficient funds for transaction")
	ErrAlreadyRejected   = errors.New("claim has been previously rejected")
	ErrNotEligible       = errors.New("prerequisite status not met")
	ErrReferenced        = errors.New("asset is still referenced")
	ErrExpired           = errors.New("prescription expired")
)
