package auction

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/peterldowns/testy/assert"
	"github.com/peterldowns/testy/check"
	"github.com/hyeworks/aucbot/aucbot/database/models"
	"github.com/hyeworks/aucbot/aucbot/database/repositories"
)

type bidFixture struct {
	repo     *fakeAuctionRepo
	userRepo *fakeUserRepo
	notifier *recordingNotifier
	manager  *Manager
}

func newBidFixture(t *testing.T, users ...*models.User) *bidFixture {
	t.Helper()

	repo := newFakeAuctionRepo()
	userRepo := newFakeUserRepo(users...)
	cardRepo := newFakeCardRepo(&models.Card{ID: 7, Name: "hoot_taeyeon", Level: 3, ColID: "gg"})
	notifier := &recordingNotifier{}

	m := NewManager(repo, userRepo, newFakeUserCardRepo(), cardRepo, fakeHooks{}, fixedValuator{value: 1000}, notifier)
	m.now = func() time.Time { return testBase }

	return &bidFixture{repo: repo, userRepo: userRepo, notifier: notifier, manager: m}
}

func heroUser(id string, balance int64, effects ...string) *models.User {
	return &models.User{DiscordID: id, Username: id, Balance: balance, Hero: "h1", Effects: effects}
}

func TestPlaceBidRejections(t *testing.T) {
	f := newBidFixture(t,
		heroUser("seller", 0),
		heroUser("rich", 1_000_000),
		heroUser("poor", 10),
		&models.User{DiscordID: "heroless", Username: "heroless", Balance: 1_000_000},
	)
	f.repo.add(auctionAged(time.Hour, 1000))
	f.repo.byAuctionID["start"].SellerID = "seller"
	f.repo.byAuctionID["start"].CardID = 7

	finished := auctionAged(time.Hour, 1000)
	finished.AuctionID = "staru"
	finished.SellerID = "seller"
	finished.Finished = true
	f.repo.add(finished)

	ctx := context.Background()

	tests := []struct {
		name      string
		auctionID string
		bidderID  string
		amount    int64
		wantErr   error
	}{
		{"zero amount", "start", "rich", 0, ErrInvalidAmount},
		{"negative amount", "start", "rich", -5, ErrInvalidAmount},
		{"unknown auction", "nope", "rich", 1100, ErrNotFound},
		{"seller bidding on own auction", "start", "seller", 1100, ErrSelfBid},
		{"finished auction", "staru", "rich", 1100, ErrAlreadyFinished},
		{"bid equal to the threshold", "start", "rich", 1020, ErrTooLow},
		{"bid above the cap", "start", "rich", 1531, ErrTooHigh},
		{"bidder without a hero", "start", "heroless", 1100, ErrMissingHero},
		{"unknown bidder", "start", "ghost", 1100, ErrMissingHero},
		{"bidder cannot cover the bid", "start", "poor", 1100, ErrInsufficientFunds},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.manager.PlaceBid(ctx, tt.auctionID, tt.bidderID, tt.amount)
			check.True(t, errors.Is(err, tt.wantErr))
		})
	}

	// Nothing may have reached the store.
	check.Equal(t, 0, len(f.repo.bids))
	check.Equal(t, 0, len(f.notifier.calls))
}

func TestPlaceBidThresholdMasking(t *testing.T) {
	f := newBidFixture(t, heroUser("seller", 0), heroUser("rich", 1_000_000))
	a := auctionAged(time.Hour, 1000)
	a.SellerID = "seller"
	a.HideBid = true
	f.repo.add(a)

	_, err := f.manager.PlaceBid(context.Background(), "start", "rich", 1020)

	var thresholdErr *ThresholdError
	assert.True(t, errors.As(err, &thresholdErr))
	check.True(t, errors.Is(err, ErrTooLow))
	check.Equal(t, int64(1020), thresholdErr.Threshold)
	check.True(t, thresholdErr.Hidden)
}

func TestPlaceBidFirstBid(t *testing.T) {
	f := newBidFixture(t, heroUser("seller", 0), heroUser("rich", 1_000_000))
	a := auctionAged(time.Hour, 1000)
	a.SellerID = "seller"
	a.CardID = 7
	f.repo.add(a)

	receipt, err := f.manager.PlaceBid(context.Background(), "start", "rich", 1200)
	assert.NoError(t, err)

	check.Equal(t, int64(1200), receipt.Amount)
	check.False(t, receipt.Hidden)
	check.Equal(t, "rich", receipt.Auction.LastBidderID)
	check.Equal(t, "hoot_taeyeon", receipt.Card.Name)

	assert.Equal(t, 1, len(f.repo.bids))
	exec := f.repo.bids[0]
	check.Equal(t, int64(1000), exec.PrevPrice)
	check.Equal(t, "", exec.PrevBidderID)
	check.Equal(t, int64(1200), exec.Amount)
	check.False(t, exec.HideBid)

	// The seller hears about the first bid.
	assert.Equal(t, 1, len(f.notifier.calls))
	check.Equal(t, "firstbid", f.notifier.calls[0].kind)
	check.Equal(t, "seller", f.notifier.calls[0].userID)
}

func TestPlaceBidOutbidsPreviousLeader(t *testing.T) {
	f := newBidFixture(t, heroUser("seller", 0), heroUser("rich", 1_000_000), heroUser("prev", 0))
	a := auctionAged(time.Hour, 1200)
	a.SellerID = "seller"
	a.CardID = 7
	a.LastBidderID = "prev"
	f.repo.add(a)

	_, err := f.manager.PlaceBid(context.Background(), "start", "rich", 1300)
	assert.NoError(t, err)

	assert.Equal(t, 1, len(f.repo.bids))
	exec := f.repo.bids[0]
	check.Equal(t, int64(1200), exec.PrevPrice)
	check.Equal(t, "prev", exec.PrevBidderID)

	// The outbid leader is told the new threshold, not the seller.
	assert.Equal(t, 1, len(f.notifier.calls))
	check.Equal(t, "outbid", f.notifier.calls[0].kind)
	check.Equal(t, "prev", f.notifier.calls[0].userID)
	check.Equal(t, int64(1326), f.notifier.calls[0].amount) // floor(1300 * 1.02)
}

func TestPlaceBidLeaderCannotRaiseOwnBid(t *testing.T) {
	f := newBidFixture(t, heroUser("seller", 0), heroUser("rich", 1_000_000))
	a := auctionAged(time.Hour, 1200)
	a.SellerID = "seller"
	a.LastBidderID = "rich"
	f.repo.add(a)

	_, err := f.manager.PlaceBid(context.Background(), "start", "rich", 1300)
	check.True(t, errors.Is(err, ErrAlreadyLeading))
}

func TestPlaceBidCloakedBidder(t *testing.T) {
	f := newBidFixture(t, heroUser("seller", 0), heroUser("sneaky", 1_000_000, "cloakedbid"))
	a := auctionAged(time.Hour, 1000)
	a.SellerID = "seller"
	a.CardID = 7
	f.repo.add(a)

	receipt, err := f.manager.PlaceBid(context.Background(), "start", "sneaky", 1200)
	assert.NoError(t, err)

	check.True(t, receipt.Hidden)
	assert.Equal(t, 1, len(f.repo.bids))
	check.True(t, f.repo.bids[0].HideBid)
}

func TestPlaceBidSoftCloseExtension(t *testing.T) {
	f := newBidFixture(t, heroUser("seller", 0), heroUser("rich", 1_000_000))
	a := auctionAged(Lifetime-4*time.Minute, 1000)
	a.SellerID = "seller"
	a.CardID = 7
	origDate := a.Date
	f.repo.add(a)

	_, err := f.manager.PlaceBid(context.Background(), "start", "rich", 1400)
	assert.NoError(t, err)

	assert.Equal(t, 1, len(f.repo.bids))
	exec := f.repo.bids[0]
	check.Equal(t, origDate.Add(5*time.Minute), exec.Date)
	check.Equal(t, 1, exec.TimeShift)
}

func TestPlaceBidAcceptsBoundaryAmounts(t *testing.T) {
	// At one hour in and a price of 1000 the window is (1020, 1530].
	tests := []struct {
		name   string
		amount int64
	}{
		{"just above the threshold", 1021},
		{"exactly at the cap", 1530},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newBidFixture(t, heroUser("seller", 0), heroUser("rich", 1_000_000))
			a := auctionAged(time.Hour, 1000)
			a.SellerID = "seller"
			a.CardID = 7
			f.repo.add(a)

			receipt, err := f.manager.PlaceBid(context.Background(), "start", "rich", tt.amount)
			assert.NoError(t, err)
			check.Equal(t, tt.amount, receipt.Amount)
		})
	}
}

func TestPlaceBidAbortsWhenRefundFails(t *testing.T) {
	f := newBidFixture(t, heroUser("seller", 0), heroUser("rich", 1_000_000))
	a := auctionAged(time.Hour, 1200)
	a.SellerID = "seller"
	a.LastBidderID = "prev"
	f.repo.add(a)

	// The store rejects a bid whose outbid-refund matches no user row; the
	// failure must surface and nothing may be announced.
	f.repo.execErr = errors.New("failed to refund previous bidder prev: user not found")

	_, err := f.manager.PlaceBid(context.Background(), "start", "rich", 1300)
	check.Error(t, err)
	check.False(t, errors.Is(err, ErrBidConflict))
	check.Equal(t, 0, len(f.notifier.calls))
}

func TestPlaceBidConcurrentConflict(t *testing.T) {
	f := newBidFixture(t, heroUser("seller", 0), heroUser("rich", 1_000_000))
	a := auctionAged(time.Hour, 1000)
	a.SellerID = "seller"
	f.repo.add(a)
	f.repo.execErr = repositories.ErrConflict

	_, err := f.manager.PlaceBid(context.Background(), "start", "rich", 1200)
	check.True(t, errors.Is(err, ErrBidConflict))
	check.Equal(t, 0, len(f.notifier.calls))
}
