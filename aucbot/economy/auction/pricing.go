package auction

import (
	"fmt"
	"math"
	"time"

	"github.com/hyeworks/aucbot/aucbot/database/models"
)

const (
	// Lifetime is how long an auction runs from its clock anchor. Soft-close
	// extensions move the anchor forward instead of tracking a deadline.
	Lifetime = 5 * time.Hour

	// bidGrowthRate is the minimum relative step between consecutive bids.
	bidGrowthRate = 0.02

	// urgencyRate scales the extra increment applied in the final hour.
	urgencyRate = 0.2

	// maxBidFactor caps a bid relative to the minimum next bid.
	maxBidFactor = 1.5

	// extensionWindow is the remaining time below which a bid pushes the
	// deadline back.
	extensionWindow = 5 * time.Minute
)

// RemainingTime returns how much of the auction's lifetime is left, clamped
// at zero.
func RemainingTime(a *models.Auction, now time.Time) time.Duration {
	remaining := Lifetime - now.Sub(a.Date)
	if remaining < 0 {
		return 0
	}
	return remaining
}

// Expired reports settlement eligibility: an auction exactly at its deadline
// is expired, never "negative time remaining".
func Expired(a *models.Auction, now time.Time) bool {
	return now.Sub(a.Date) >= Lifetime
}

// MinimumNextBid computes the threshold a new bid must exceed. In the final
// hour the threshold grows faster the closer the deadline is, so late bids
// cannot crawl up by the bare 2%.
func MinimumNextBid(a *models.Auction, now time.Time) (int64, error) {
	if a.Price <= 0 {
		return 0, ErrPriceUnknown
	}

	next := float64(a.Price) * (1 + bidGrowthRate)
	if RemainingTime(a, now) <= time.Hour {
		next += next * (1 / float64(minutesLeftInHour(a, now))) * urgencyRate
	}
	return int64(math.Floor(next)), nil
}

// MaximumAllowedBid is the cap on a single bid, derived from the minimum so
// the price can never jump more than 1.5x the required threshold.
func MaximumAllowedBid(a *models.Auction, now time.Time) (int64, error) {
	next, err := MinimumNextBid(a, now)
	if err != nil {
		return 0, err
	}
	return int64(math.Floor(float64(next) * maxBidFactor)), nil
}

// minutesLeftInHour is the minutes remaining within the current clock hour
// of the auction, always in 1..60 so it is safe as a divisor.
func minutesLeftInHour(a *models.Auction, now time.Time) int {
	elapsed := int(now.Sub(a.Date).Minutes())
	if elapsed < 0 {
		elapsed = 0
	}
	return 60 - elapsed%60
}

// FormatRemaining renders the remaining time in the largest sensible unit:
// hours above one hour, then minutes, then seconds, never below "1s".
func FormatRemaining(a *models.Auction, now time.Time) string {
	remaining := RemainingTime(a, now)

	switch {
	case remaining <= time.Second:
		return "1s"
	case remaining <= time.Minute:
		return fmt.Sprintf("%ds", int(math.Ceil(remaining.Seconds())))
	case remaining <= time.Hour:
		return fmt.Sprintf("%dm", int(math.Ceil(remaining.Minutes())))
	default:
		return fmt.Sprintf("%dh", int(math.Ceil(remaining.Hours())))
	}
}

// applyExtension grants a soft-close extension when the bid lands inside the
// extension window, measured against the pre-bid deadline. The granted
// amount shrinks with every extension already granted: +5m, +2m, then +1m.
func applyExtension(a *models.Auction, now time.Time) bool {
	if RemainingTime(a, now) > extensionWindow {
		return false
	}

	var extension time.Duration
	switch a.TimeShift {
	case 0:
		extension = 5 * time.Minute
	case 1:
		extension = 2 * time.Minute
	default:
		extension = time.Minute
	}

	a.Date = a.Date.Add(extension)
	a.TimeShift++
	return true
}
