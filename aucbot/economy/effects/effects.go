package effects

import (
	"math"

	"github.com/hyeworks/aucbot/aucbot/database/models"
)

// Passive effect ids that touch the auction house.
const (
	// EffectCloakedBid masks the holder's bids and the derived thresholds
	// from everyone but the current leader.
	EffectCloakedBid = "cloakedbid"

	// EffectAuctionCashback grants a partial flake rebate on won auctions.
	EffectAuctionCashback = "aucback"
)

// cashbackRate is the fraction of the final price returned to a winner
// holding the cashback effect.
const cashbackRate = 0.1

// Hooks is the auction engine's window into the hero/effect system. All
// methods are pure reads over the user record.
type Hooks struct{}

func NewHooks() *Hooks {
	return &Hooks{}
}

// HasHero reports whether the user holds the capability token the auction
// house requires from both sellers and bidders.
func (h *Hooks) HasHero(user *models.User) bool {
	return user != nil && user.Hero != ""
}

// BidMask reports whether bids placed by this user hide the auction's price.
func (h *Hooks) BidMask(user *models.User) bool {
	return user != nil && user.HasEffect(EffectCloakedBid)
}

// PostWinRebate computes the flakes returned to an auction winner, floored.
func (h *Hooks) PostWinRebate(user *models.User, price int64) int64 {
	if user == nil || !user.HasEffect(EffectAuctionCashback) {
		return 0
	}
	return int64(math.Floor(float64(price) * cashbackRate))
}
