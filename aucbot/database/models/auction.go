package models

import (
	"time"

	"github.com/uptrace/bun"
)

type Auction struct {
	bun.BaseModel `bun:"table:auctions,alias:a"`

	ID        int64  `bun:"id,pk,autoincrement"`
	AuctionID string `bun:"auction_id,notnull,unique"`
	CardID    int64  `bun:"card_id,notnull"`
	SellerID  string `bun:"seller_id,notnull"`

	// Price is the asking price until the first bid, then the leading bid.
	Price        int64  `bun:"price,notnull"`
	LastBidderID string `bun:"last_bidder_id"`

	// HideBid masks the price and next-bid threshold for non-leading viewers.
	HideBid bool `bun:"hide_bid,notnull,default:false"`

	// Date anchors the auction clock. Soft-close extensions move it forward,
	// TimeShift counts how many extensions have been granted.
	Date      time.Time `bun:"date,notnull"`
	TimeShift int       `bun:"time_shift,notnull,default:0"`

	Finished bool `bun:"finished,notnull,default:false"`

	CreatedAt time.Time `bun:"created_at,notnull,default:current_timestamp"`
	UpdatedAt time.Time `bun:"updated_at,notnull,default:current_timestamp"`
}

// HasBids reports whether anyone currently leads the auction.
func (a *Auction) HasBids() bool {
	return a.LastBidderID != ""
}
