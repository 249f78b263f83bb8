package models

import (
	"time"

	"github.com/uptrace/bun"
)

const TransactionStatusAuction = "auction"

// Transaction is the append-only audit record written when an auction
// settles with a winner. It is never updated after insertion.
type Transaction struct {
	bun.BaseModel `bun:"table:transactions,alias:t"`

	ID         int64  `bun:"id,pk,autoincrement"`
	AuctionID  string `bun:"auction_id,notnull"`
	Price      int64  `bun:"price,notnull"`
	SellerID   string `bun:"seller_id,notnull"`
	SellerName string `bun:"seller_name"`
	WinnerID   string `bun:"winner_id,notnull"`
	WinnerName string `bun:"winner_name"`
	CardID     int64  `bun:"card_id,notnull"`
	Status     string `bun:"status,notnull"`

	Time time.Time `bun:"time,notnull"`
}
