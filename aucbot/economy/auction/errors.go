package auction

import (
	"errors"
	"fmt"
)

// User-facing rejection reasons. All of these abort before any mutation and
// are reported back to the invoking user; none are fatal.
var (
	ErrInvalidAmount     = errors.New("bid amount must be a positive number")
	ErrNotFound          = errors.New("auction not found")
	ErrSelfBid           = errors.New("you can't bid on your own auction")
	ErrAlreadyFinished   = errors.New("auction already finished")
	ErrTooLow            = errors.New("bid is too low")
	ErrTooHigh           = errors.New("bid is too high")
	ErrMissingHero       = errors.New("you have to have a hero in order to take part in auction")
	ErrInsufficientFunds = errors.New("not enough flakes")
	ErrAlreadyLeading    = errors.New("you already bid on that auction")
	ErrPriceOutOfRange   = errors.New("price is out of the allowed range")
	ErrProtectedCard     = errors.New("you can't sell your last favorite copy")

	// ErrPriceUnknown means the stored price is not a usable bid basis.
	ErrPriceUnknown = errors.New("auction price unknown")

	// ErrBidConflict means another bid or the settlement sweep won the
	// conditioned update; the caller can simply retry.
	ErrBidConflict = errors.New("another bid was placed first, try again")
)

// ThresholdError wraps ErrTooLow, ErrTooHigh or ErrPriceOutOfRange with the
// boundary that was violated. Hidden is set when a hero effect masks the
// auction's price, in which case the threshold must not be shown.
type ThresholdError struct {
	Reason    error
	Threshold int64
	Hidden    bool
}

func (e *ThresholdError) Error() string {
	if e.Hidden {
		return fmt.Sprintf("%s (threshold hidden by hero effect)", e.Reason)
	}
	return fmt.Sprintf("%s (threshold %d)", e.Reason, e.Threshold)
}

func (e *ThresholdError) Unwrap() error {
	return e.Reason
}
