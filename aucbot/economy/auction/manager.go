package auction

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sync"
	"time"

	"github.com/hyeworks/aucbot/aucbot/database/models"
	"github.com/hyeworks/aucbot/aucbot/database/repositories"
)

const (
	// Listing price bounds relative to the card's evaluated worth.
	minPriceFactor = 0.5
	maxPriceFactor = 4.0

	// listingFeeRate is charged up front on the asking price.
	listingFeeRate = 0.1
)

// EffectHooks are the hero/forge integration points. They are pure reads
// over a user record; the auction engine never mutates effect state.
type EffectHooks interface {
	HasHero(user *models.User) bool
	BidMask(user *models.User) bool
	PostWinRebate(user *models.User, price int64) int64
}

// Valuator evaluates a card's worth, used to bound asking prices.
type Valuator interface {
	Value(ctx context.Context, card *models.Card) (int64, error)
}

type Manager struct {
	repo         repositories.AuctionRepository
	userRepo     repositories.UserRepository
	userCardRepo repositories.UserCardRepository
	cardRepo     repositories.CardRepository
	hooks        EffectHooks
	valuator     Valuator
	notifier     Notifier

	// idMu serializes the read-increment-insert sequence of listing id
	// assignment; it is the single critical section for the id space.
	idMu sync.Mutex

	now func() time.Time
}

func NewManager(
	repo repositories.AuctionRepository,
	userRepo repositories.UserRepository,
	userCardRepo repositories.UserCardRepository,
	cardRepo repositories.CardRepository,
	hooks EffectHooks,
	valuator Valuator,
	notifier Notifier,
) *Manager {
	if repo == nil {
		panic("auction repository cannot be nil")
	}
	if userRepo == nil || userCardRepo == nil || cardRepo == nil {
		panic("user, user card and card repositories cannot be nil")
	}

	return &Manager{
		repo:         repo,
		userRepo:     userRepo,
		userCardRepo: userCardRepo,
		cardRepo:     cardRepo,
		hooks:        hooks,
		valuator:     valuator,
		notifier:     notifier,
		now:          time.Now,
	}
}

// ListingQuote is everything the confirmation prompt needs to show before
// the seller commits.
type ListingQuote struct {
	Card  *models.Card
	Value int64
	Price int64
	Fee   int64
}

// PrepareListing validates a sell request and computes the quote shown in
// the confirmation prompt. askingPrice <= 0 means "use the evaluated value".
func (m *Manager) PrepareListing(ctx context.Context, sellerID string, cardID int64, askingPrice int64) (*ListingQuote, error) {
	seller, err := m.userRepo.GetByDiscordID(ctx, sellerID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrMissingHero
		}
		return nil, fmt.Errorf("failed to get seller: %w", err)
	}
	if !m.hooks.HasHero(seller) {
		return nil, ErrMissingHero
	}

	userCard, err := m.userCardRepo.GetByUserIDAndCardID(ctx, sellerID, cardID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get user card: %w", err)
	}
	if userCard.Amount <= 0 {
		return nil, ErrNotFound
	}
	if userCard.Favorite && userCard.Amount == 1 {
		return nil, ErrProtectedCard
	}

	card, err := m.cardRepo.GetByID(ctx, cardID)
	if err != nil {
		return nil, fmt.Errorf("failed to get card: %w", err)
	}

	value, err := m.valuator.Value(ctx, card)
	if err != nil {
		return nil, fmt.Errorf("failed to evaluate card: %w", err)
	}

	price := askingPrice
	if price <= 0 {
		price = value
	}

	minPrice := int64(math.Round(float64(value) * minPriceFactor))
	maxPrice := int64(math.Round(float64(value) * maxPriceFactor))
	if price < minPrice {
		return nil, &ThresholdError{Reason: ErrPriceOutOfRange, Threshold: minPrice}
	}
	if price > maxPrice {
		return nil, &ThresholdError{Reason: ErrPriceOutOfRange, Threshold: maxPrice}
	}

	fee := int64(math.Round(float64(price) * listingFeeRate))
	if seller.Balance < fee {
		return nil, ErrInsufficientFunds
	}

	return &ListingQuote{Card: card, Value: value, Price: price, Fee: fee}, nil
}

// ListAuction commits a confirmed listing: id assignment, card removal, fee
// debit and auction insert, serialized under the id mutex so concurrent
// listings can never share an id. Preconditions are re-validated because the
// confirmation gate leaves a window in which the seller's state may change.
func (m *Manager) ListAuction(ctx context.Context, sellerID string, cardID int64, askingPrice int64) (*models.Auction, error) {
	quote, err := m.PrepareListing(ctx, sellerID, cardID, askingPrice)
	if err != nil {
		return nil, err
	}

	m.idMu.Lock()
	defer m.idMu.Unlock()

	last, err := m.repo.LastAssignedID(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get last auction id: %w", err)
	}
	auctionID := nextAuctionID(last)

	auction, err := m.repo.CreateListing(ctx, repositories.ListingParams{
		AuctionID: auctionID,
		CardID:    cardID,
		SellerID:  sellerID,
		Price:     quote.Price,
		Fee:       quote.Fee,
		Date:      m.now(),
	})
	if err != nil {
		switch {
		case errors.Is(err, repositories.ErrNoCopies):
			return nil, ErrNotFound
		case errors.Is(err, repositories.ErrInsufficientFunds):
			return nil, ErrInsufficientFunds
		}
		return nil, fmt.Errorf("failed to create listing: %w", err)
	}

	slog.Info("Auction created",
		slog.String("auction_id", auction.AuctionID),
		slog.String("seller_id", sellerID),
		slog.Int64("card_id", cardID),
		slog.Int64("price", quote.Price),
		slog.Int64("fee", quote.Fee))

	return auction, nil
}

func (m *Manager) GetByAuctionID(ctx context.Context, auctionID string) (*models.Auction, error) {
	auction, err := m.repo.GetByAuctionID(ctx, auctionID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get auction: %w", err)
	}
	return auction, nil
}

// List returns unfinished auctions, oldest first, optionally scoped to or
// away from a user as seller or bidder.
func (m *Manager) List(ctx context.Context, filter repositories.ListFilter) ([]*models.Auction, error) {
	auctions, err := m.repo.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list auctions: %w", err)
	}
	return auctions, nil
}
