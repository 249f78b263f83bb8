package repositories

import "errors"

// Store-level sentinel errors. Callers translate these into user-facing
// rejections; anything else is an infrastructure failure to be retried.
var (
	ErrNotFound          = errors.New("record not found")
	ErrConflict          = errors.New("conditioned update lost the race")
	ErrInsufficientFunds = errors.New("balance below requested amount")
	ErrNoCopies          = errors.New("no copies of card available")
)
