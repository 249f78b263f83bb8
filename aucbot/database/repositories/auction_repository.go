package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/hyeworks/aucbot/aucbot/database/models"
	"github.com/uptrace/bun"
)

// ListingParams describes the serialized create path: card out of the
// seller's inventory, fee off their balance, auction row in, all in one
// transaction.
type ListingParams struct {
	AuctionID string
	CardID    int64
	SellerID  string
	Price     int64
	Fee       int64
	Date      time.Time
}

// BidExecution carries an accepted bid into the store. PrevPrice and
// PrevBidderID are the values the processor validated against; the auction
// update is conditioned on them so two concurrent bids cannot both win.
type BidExecution struct {
	AuctionID    int64
	BidderID     string
	Amount       int64
	PrevPrice    int64
	PrevBidderID string
	HideBid      bool
	Date         time.Time
	TimeShift    int
}

// Settlement carries a sweeper decision into the store.
type Settlement struct {
	Auction    *models.Auction
	Rebate     int64
	SellerName string
	WinnerName string
	Now        time.Time
}

// ListFilter narrows the auction list query.
type ListFilter struct {
	Author    string
	NotAuthor string
	Bidder    string
	NotBidder string
	Limit     int
}

type AuctionRepository interface {
	DB() *bun.DB
	CreateListing(ctx context.Context, params ListingParams) (*models.Auction, error)
	GetByAuctionID(ctx context.Context, auctionID string) (*models.Auction, error)
	LastAssignedID(ctx context.Context) (string, error)
	List(ctx context.Context, filter ListFilter) ([]*models.Auction, error)
	OldestExpired(ctx context.Context, cutoff time.Time) (*models.Auction, error)
	ExecuteBid(ctx context.Context, exec BidExecution) error
	Settle(ctx context.Context, s Settlement) error
}

type auctionRepository struct {
	db *bun.DB
}

func NewAuctionRepository(db *bun.DB) AuctionRepository {
	return &auctionRepository{db: db}
}

func (r *auctionRepository) DB() *bun.DB {
	return r.db
}

func (r *auctionRepository) CreateListing(ctx context.Context, params ListingParams) (*models.Auction, error) {
	tx, err := r.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		return nil, fmt.Errorf("failed to start transaction: %w", err)
	}
	defer tx.Rollback()

	// Remove the card from the seller's inventory, guarded on amount.
	result, err := tx.NewUpdate().
		Model((*models.UserCard)(nil)).
		Set("amount = amount - 1").
		Set("updated_at = ?", params.Date).
		Where("user_id = ? AND card_id = ? AND amount > 0", params.SellerID, params.CardID).
		Exec(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to remove card from inventory: %w", err)
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return nil, ErrNoCopies
	}

	// Debit the listing fee, guarded on balance.
	result, err = tx.NewUpdate().
		Model((*models.User)(nil)).
		Set("balance = balance - ?", params.Fee).
		Set("updated_at = ?", params.Date).
		Where("discord_id = ? AND balance >= ?", params.SellerID, params.Fee).
		Exec(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to debit listing fee: %w", err)
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return nil, ErrInsufficientFunds
	}

	auction := &models.Auction{
		AuctionID: params.AuctionID,
		CardID:    params.CardID,
		SellerID:  params.SellerID,
		Price:     params.Price,
		Date:      params.Date,
		Finished:  false,
		CreatedAt: params.Date,
		UpdatedAt: params.Date,
	}
	if _, err := tx.NewInsert().Model(auction).Exec(ctx); err != nil {
		return nil, fmt.Errorf("failed to insert auction: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit listing: %w", err)
	}
	return auction, nil
}

func (r *auctionRepository) GetByAuctionID(ctx context.Context, auctionID string) (*models.Auction, error) {
	auction := new(models.Auction)
	err := r.db.NewSelect().
		Model(auction).
		Where("auction_id = ?", auctionID).
		Scan(ctx)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get auction: %w", err)
	}
	return auction, nil
}

// LastAssignedID returns the most recently assigned auction id, or "" when
// no auction has ever been created.
func (r *auctionRepository) LastAssignedID(ctx context.Context) (string, error) {
	var last models.Auction
	err := r.db.NewSelect().
		Model(&last).
		Column("auction_id").
		Order("id DESC").
		Limit(1).
		Scan(ctx)
	if err != nil {
		if err == sql.ErrNoRows {
			return "", nil
		}
		return "", fmt.Errorf("failed to get last auction id: %w", err)
	}
	return last.AuctionID, nil
}

func (r *auctionRepository) List(ctx context.Context, filter ListFilter) ([]*models.Auction, error) {
	var auctions []*models.Auction
	q := r.db.NewSelect().Model(&auctions).Where("finished = ?", false)
	if filter.Author != "" {
		q = q.Where("seller_id = ?", filter.Author)
	}
	if filter.NotAuthor != "" {
		q = q.Where("seller_id != ?", filter.NotAuthor)
	}
	if filter.Bidder != "" {
		q = q.Where("last_bidder_id = ?", filter.Bidder)
	}
	if filter.NotBidder != "" {
		q = q.Where("last_bidder_id != ?", filter.NotBidder)
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 200
	}
	if err := q.Order("date ASC").Limit(limit).Scan(ctx); err != nil {
		return nil, fmt.Errorf("failed to list auctions: %w", err)
	}
	return auctions, nil
}

// OldestExpired returns the single oldest unfinished auction whose clock
// anchor is older than cutoff, or ErrNotFound. The sweeper settles one
// auction per tick, so only one row is ever fetched.
func (r *auctionRepository) OldestExpired(ctx context.Context, cutoff time.Time) (*models.Auction, error) {
	auction := new(models.Auction)
	err := r.db.NewSelect().
		Model(auction).
		Where("finished = ?", false).
		Where("date < ?", cutoff).
		Order("date ASC").
		Limit(1).
		Scan(ctx)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get expired auction: %w", err)
	}
	return auction, nil
}

func (r *auctionRepository) ExecuteBid(ctx context.Context, exec BidExecution) error {
	tx, err := r.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		return fmt.Errorf("failed to start transaction: %w", err)
	}
	defer tx.Rollback()

	// Escrow: the bid leaves the bidder's balance now, guarded so a
	// concurrent spend cannot drive the balance negative.
	result, err := tx.NewUpdate().
		Model((*models.User)(nil)).
		Set("balance = balance - ?", exec.Amount).
		Set("updated_at = ?", exec.Date).
		Where("discord_id = ? AND balance >= ?", exec.BidderID, exec.Amount).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to escrow bid: %w", err)
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return ErrInsufficientFunds
	}

	// Refund the outbid leader their escrowed previous price. A refund that
	// matches no row would destroy the escrowed funds, so it aborts the bid.
	if exec.PrevBidderID != "" {
		result, err = tx.NewUpdate().
			Model((*models.User)(nil)).
			Set("balance = balance + ?", exec.PrevPrice).
			Set("updated_at = ?", exec.Date).
			Where("discord_id = ?", exec.PrevBidderID).
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("failed to refund previous bidder: %w", err)
		}
		if rows, _ := result.RowsAffected(); rows == 0 {
			return fmt.Errorf("failed to refund previous bidder %s: user not found", exec.PrevBidderID)
		}
	}

	// Conditioned on the exact state the bid was validated against. A row
	// count of zero means another bid (or settlement) got there first; the
	// rollback undoes the escrow and refund above.
	result, err = tx.NewUpdate().
		Model((*models.Auction)(nil)).
		Set("price = ?", exec.Amount).
		Set("last_bidder_id = ?", exec.BidderID).
		Set("hide_bid = ?", exec.HideBid).
		Set("time_shift = ?", exec.TimeShift).
		Set("date = ?", exec.Date).
		Set("updated_at = ?", time.Now()).
		Where("id = ?", exec.AuctionID).
		Where("finished = ?", false).
		Where("price = ?", exec.PrevPrice).
		Where("COALESCE(last_bidder_id, '') = ?", exec.PrevBidderID).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to update auction: %w", err)
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return ErrConflict
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit bid: %w", err)
	}
	return nil
}

func (r *auctionRepository) Settle(ctx context.Context, s Settlement) error {
	tx, err := r.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		return fmt.Errorf("failed to start transaction: %w", err)
	}
	defer tx.Rollback()

	auction := s.Auction
	if auction.HasBids() {
		// Card to the winner, upserting their inventory row.
		if err := upsertCard(ctx, tx, auction.LastBidderID, auction.CardID, s.Now); err != nil {
			return fmt.Errorf("failed to transfer card to winner: %w", err)
		}

		// Partial rebate back to the winner; the escrowed price to the seller.
		if s.Rebate > 0 {
			if _, err := tx.NewUpdate().
				Model((*models.User)(nil)).
				Set("balance = balance + ?", s.Rebate).
				Set("updated_at = ?", s.Now).
				Where("discord_id = ?", auction.LastBidderID).
				Exec(ctx); err != nil {
				return fmt.Errorf("failed to credit rebate: %w", err)
			}
		}
		if _, err := tx.NewUpdate().
			Model((*models.User)(nil)).
			Set("balance = balance + ?", auction.Price).
			Set("updated_at = ?", s.Now).
			Where("discord_id = ?", auction.SellerID).
			Exec(ctx); err != nil {
			return fmt.Errorf("failed to credit seller: %w", err)
		}

		record := &models.Transaction{
			AuctionID:  auction.AuctionID,
			Price:      auction.Price,
			SellerID:   auction.SellerID,
			SellerName: s.SellerName,
			WinnerID:   auction.LastBidderID,
			WinnerName: s.WinnerName,
			CardID:     auction.CardID,
			Status:     models.TransactionStatusAuction,
			Time:       s.Now,
		}
		if _, err := tx.NewInsert().Model(record).Exec(ctx); err != nil {
			return fmt.Errorf("failed to record transaction: %w", err)
		}
	} else {
		// Unsold: the card goes back to the seller, no transaction record.
		if err := upsertCard(ctx, tx, auction.SellerID, auction.CardID, s.Now); err != nil {
			return fmt.Errorf("failed to return card to seller: %w", err)
		}
	}

	// finished flips false->true exactly once; losing the race here means a
	// concurrent sweep already settled it and everything above rolls back.
	result, err := tx.NewUpdate().
		Model((*models.Auction)(nil)).
		Set("finished = ?", true).
		Set("updated_at = ?", s.Now).
		Where("id = ?", auction.ID).
		Where("finished = ?", false).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to mark auction finished: %w", err)
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return ErrConflict
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit settlement: %w", err)
	}
	return nil
}

func upsertCard(ctx context.Context, tx bun.Tx, userID string, cardID int64, now time.Time) error {
	_, err := tx.NewInsert().
		Model(&models.UserCard{
			UserID:    userID,
			CardID:    cardID,
			Amount:    1,
			Obtained:  now,
			CreatedAt: now,
			UpdatedAt: now,
		}).
		On("CONFLICT (user_id, card_id) DO UPDATE").
		Set("amount = user_cards.amount + 1").
		Set("updated_at = ?", now).
		Exec(ctx)
	return err
}
