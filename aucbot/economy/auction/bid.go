package auction

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/hyeworks/aucbot/aucbot/database/models"
	"github.com/hyeworks/aucbot/aucbot/database/repositories"
)

// BidReceipt is returned to the command layer after an accepted bid.
type BidReceipt struct {
	Auction *models.Auction
	Card    *models.Card
	Amount  int64
	Hidden  bool
}

// PlaceBid validates and applies a bid. The precondition order is fixed and
// the first failure wins; nothing is mutated on a rejection. On acceptance
// the soft-close extension is evaluated against the pre-bid deadline, then
// escrow, refund and the conditioned auction update commit atomically.
func (m *Manager) PlaceBid(ctx context.Context, auctionID string, bidderID string, amount int64) (*BidReceipt, error) {
	if amount <= 0 {
		return nil, ErrInvalidAmount
	}

	auction, err := m.repo.GetByAuctionID(ctx, auctionID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get auction: %w", err)
	}

	if auction.SellerID == bidderID {
		return nil, ErrSelfBid
	}
	if auction.Finished {
		return nil, ErrAlreadyFinished
	}

	now := m.now()
	minNext, err := MinimumNextBid(auction, now)
	if err != nil {
		return nil, err
	}
	if amount <= minNext {
		return nil, &ThresholdError{Reason: ErrTooLow, Threshold: minNext, Hidden: auction.HideBid}
	}
	maxBid, err := MaximumAllowedBid(auction, now)
	if err != nil {
		return nil, err
	}
	if amount > maxBid {
		return nil, &ThresholdError{Reason: ErrTooHigh, Threshold: maxBid, Hidden: auction.HideBid}
	}

	bidder, err := m.userRepo.GetByDiscordID(ctx, bidderID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrMissingHero
		}
		return nil, fmt.Errorf("failed to get bidder: %w", err)
	}
	if !m.hooks.HasHero(bidder) {
		return nil, ErrMissingHero
	}
	if bidder.Balance < amount {
		return nil, ErrInsufficientFunds
	}
	if auction.HasBids() && auction.LastBidderID == bidderID {
		return nil, ErrAlreadyLeading
	}

	hideBid := m.hooks.BidMask(bidder)

	prevPrice := auction.Price
	prevBidder := auction.LastBidderID

	// Extension first: eligibility is judged against the remaining time the
	// bidder actually saw, not against the post-bid state.
	extended := applyExtension(auction, now)

	err = m.repo.ExecuteBid(ctx, repositories.BidExecution{
		AuctionID:    auction.ID,
		BidderID:     bidderID,
		Amount:       amount,
		PrevPrice:    prevPrice,
		PrevBidderID: prevBidder,
		HideBid:      hideBid,
		Date:         auction.Date,
		TimeShift:    auction.TimeShift,
	})
	if err != nil {
		switch {
		case errors.Is(err, repositories.ErrInsufficientFunds):
			return nil, ErrInsufficientFunds
		case errors.Is(err, repositories.ErrConflict):
			return nil, ErrBidConflict
		}
		return nil, fmt.Errorf("failed to execute bid: %w", err)
	}

	auction.Price = amount
	auction.LastBidderID = bidderID
	auction.HideBid = hideBid

	slog.Info("Bid placed",
		slog.String("auction_id", auction.AuctionID),
		slog.String("bidder_id", bidderID),
		slog.Int64("amount", amount),
		slog.Bool("hidden", hideBid),
		slog.Bool("extended", extended))

	card, err := m.cardRepo.GetByID(ctx, auction.CardID)
	if err != nil {
		// The bid is committed; notifications degrade to a placeholder card.
		slog.Error("Failed to get card for bid notification",
			slog.Int64("card_id", auction.CardID),
			slog.String("error", err.Error()))
		card = &models.Card{ID: auction.CardID, Name: fmt.Sprintf("card_%d", auction.CardID)}
	}

	if m.notifier != nil {
		nextMin, _ := MinimumNextBid(auction, now)
		if prevBidder != "" {
			m.notifier.NotifyOutbid(ctx, prevBidder, auction, card, nextMin)
		} else {
			m.notifier.NotifyFirstBid(ctx, auction.SellerID, auction, card)
		}
	}

	return &BidReceipt{Auction: auction, Card: card, Amount: amount, Hidden: hideBid}, nil
}
