package auction

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/hyeworks/aucbot/aucbot/database/models"
	"github.com/hyeworks/aucbot/aucbot/database/repositories"
	"github.com/hyeworks/aucbot/aucbot/logger"
	"golang.org/x/sync/semaphore"
)

const (
	// DefaultSweepInterval is how often the sweeper looks for an expired
	// auction to settle.
	DefaultSweepInterval = 5 * time.Second

	sweepTimeout = 30 * time.Second
)

// Sweeper settles expired auctions: one auction per tick, oldest first. The
// one-per-tick throttle keeps settlement ordering deterministic at the cost
// of a backlog draining one per interval under heavy expiry bursts; that is
// a known scaling limit, not an accident.
type Sweeper struct {
	repo     repositories.AuctionRepository
	userRepo repositories.UserRepository
	cardRepo repositories.CardRepository
	hooks    EffectHooks
	notifier Notifier

	interval time.Duration

	// sem guarantees a tick never overlaps a still-running predecessor; a
	// tick that cannot acquire it is skipped, not queued.
	sem *semaphore.Weighted

	shutdown chan struct{}
	now      func() time.Time
}

func NewSweeper(
	repo repositories.AuctionRepository,
	userRepo repositories.UserRepository,
	cardRepo repositories.CardRepository,
	hooks EffectHooks,
	notifier Notifier,
	interval time.Duration,
) *Sweeper {
	if interval <= 0 {
		interval = DefaultSweepInterval
	}
	return &Sweeper{
		repo:     repo,
		userRepo: userRepo,
		cardRepo: cardRepo,
		hooks:    hooks,
		notifier: notifier,
		interval: interval,
		sem:      semaphore.NewWeighted(1),
		shutdown: make(chan struct{}),
		now:      time.Now,
	}
}

// Start runs the sweep loop until Shutdown. A failed tick only logs; the
// auction stays unfinished and the next interval retries it.
func (s *Sweeper) Start() {
	go func() {
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				if !s.sem.TryAcquire(1) {
					slog.Debug("Sweep tick skipped, previous tick still running")
					continue
				}

				ctx, cancel := context.WithTimeout(context.Background(), sweepTimeout)
				if err := s.SweepOnce(ctx); err != nil {
					slog.Error("Auction sweep failed",
						slog.String("error", err.Error()))
				}
				cancel()
				s.sem.Release(1)
			case <-s.shutdown:
				return
			}
		}
	}()
}

func (s *Sweeper) Shutdown() {
	close(s.shutdown)
}

// SweepOnce settles the single oldest expired auction, if any.
func (s *Sweeper) SweepOnce(ctx context.Context) error {
	now := s.now()

	auction, err := s.repo.OldestExpired(ctx, now.Add(-Lifetime))
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil
		}
		return fmt.Errorf("failed to find expired auction: %w", err)
	}

	seller, err := s.userRepo.GetByDiscordID(ctx, auction.SellerID)
	if err != nil {
		return fmt.Errorf("failed to get seller: %w", err)
	}

	settlement := repositories.Settlement{
		Auction:    auction,
		SellerName: seller.Username,
		Now:        now,
	}

	var winner *models.User
	if auction.HasBids() {
		winner, err = s.userRepo.GetByDiscordID(ctx, auction.LastBidderID)
		if err != nil {
			return fmt.Errorf("failed to get winner: %w", err)
		}
		settlement.WinnerName = winner.Username
		settlement.Rebate = s.hooks.PostWinRebate(winner, auction.Price)
	}

	if err := s.repo.Settle(ctx, settlement); err != nil {
		if errors.Is(err, repositories.ErrConflict) {
			// Something else finished it first; nothing left to do.
			return nil
		}
		return fmt.Errorf("failed to settle auction %s: %w", auction.AuctionID, err)
	}

	card, err := s.cardRepo.GetByID(ctx, auction.CardID)
	if err != nil {
		slog.Error("Failed to get card for settlement notification",
			slog.Int64("card_id", auction.CardID),
			slog.String("error", err.Error()))
		card = &models.Card{ID: auction.CardID, Name: fmt.Sprintf("card_%d", auction.CardID)}
	}

	if s.notifier != nil {
		if winner != nil {
			s.notifier.NotifyWinner(ctx, auction.LastBidderID, auction, card, settlement.Rebate)
			s.notifier.NotifySold(ctx, auction.SellerID, auction, card)
		} else {
			s.notifier.NotifyReturned(ctx, auction.SellerID, auction, card)
		}
	}

	logger.LogSweep(auction.AuctionID, winner != nil, nil)
	return nil
}
