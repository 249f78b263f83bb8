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

type listingFixture struct {
	repo         *fakeAuctionRepo
	userRepo     *fakeUserRepo
	userCardRepo *fakeUserCardRepo
	manager      *Manager
}

func newListingFixture(t *testing.T, value int64, users []*models.User, cards []*models.UserCard) *listingFixture {
	t.Helper()

	repo := newFakeAuctionRepo()
	userRepo := newFakeUserRepo(users...)
	userCardRepo := newFakeUserCardRepo(cards...)
	cardRepo := newFakeCardRepo(&models.Card{ID: 7, Name: "hoot_taeyeon", Level: 3, ColID: "gg"})

	m := NewManager(repo, userRepo, userCardRepo, cardRepo, fakeHooks{}, fixedValuator{value: value}, &recordingNotifier{})
	m.now = func() time.Time { return testBase }

	return &listingFixture{repo: repo, userRepo: userRepo, userCardRepo: userCardRepo, manager: m}
}

func TestPrepareListingSuccess(t *testing.T) {
	f := newListingFixture(t, 1000,
		[]*models.User{heroUser("seller", 5000)},
		[]*models.UserCard{{UserID: "seller", CardID: 7, Amount: 2}},
	)

	quote, err := f.manager.PrepareListing(context.Background(), "seller", 7, 0)
	assert.NoError(t, err)

	check.Equal(t, int64(1000), quote.Value)
	check.Equal(t, int64(1000), quote.Price) // asking price defaults to value
	check.Equal(t, int64(100), quote.Fee)
	check.Equal(t, "hoot_taeyeon", quote.Card.Name)
}

func TestPrepareListingRejections(t *testing.T) {
	users := []*models.User{
		heroUser("seller", 5000),
		heroUser("broke", 10),
		{DiscordID: "heroless", Username: "heroless", Balance: 5000},
	}
	cards := []*models.UserCard{
		{UserID: "seller", CardID: 7, Amount: 2},
		{UserID: "broke", CardID: 7, Amount: 2},
		{UserID: "heroless", CardID: 7, Amount: 2},
	}

	tests := []struct {
		name     string
		sellerID string
		cardID   int64
		price    int64
		wantErr  error
	}{
		{"seller without a hero", "heroless", 7, 0, ErrMissingHero},
		{"unknown seller", "ghost", 7, 0, ErrMissingHero},
		{"card not owned", "seller", 99, 0, ErrNotFound},
		{"price below half of value", "seller", 7, 499, ErrPriceOutOfRange},
		{"price above four times value", "seller", 7, 4001, ErrPriceOutOfRange},
		{"seller cannot cover the fee", "broke", 7, 0, ErrInsufficientFunds},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newListingFixture(t, 1000, users, cards)
			_, err := f.manager.PrepareListing(context.Background(), tt.sellerID, tt.cardID, tt.price)
			check.True(t, errors.Is(err, tt.wantErr))
		})
	}
}

func TestPrepareListingPriceBounds(t *testing.T) {
	f := newListingFixture(t, 1000,
		[]*models.User{heroUser("seller", 5000)},
		[]*models.UserCard{{UserID: "seller", CardID: 7, Amount: 2}},
	)
	ctx := context.Background()

	// Both bounds are inclusive.
	quote, err := f.manager.PrepareListing(ctx, "seller", 7, 500)
	assert.NoError(t, err)
	check.Equal(t, int64(500), quote.Price)
	check.Equal(t, int64(50), quote.Fee)

	quote, err = f.manager.PrepareListing(ctx, "seller", 7, 4000)
	assert.NoError(t, err)
	check.Equal(t, int64(4000), quote.Price)

	_, err = f.manager.PrepareListing(ctx, "seller", 7, 499)
	var thresholdErr *ThresholdError
	assert.True(t, errors.As(err, &thresholdErr))
	check.Equal(t, int64(500), thresholdErr.Threshold)

	_, err = f.manager.PrepareListing(ctx, "seller", 7, 4001)
	assert.True(t, errors.As(err, &thresholdErr))
	check.Equal(t, int64(4000), thresholdErr.Threshold)
}

func TestPrepareListingProtectsLastFavoriteCopy(t *testing.T) {
	f := newListingFixture(t, 1000,
		[]*models.User{heroUser("seller", 5000)},
		[]*models.UserCard{{UserID: "seller", CardID: 7, Amount: 1, Favorite: true}},
	)

	_, err := f.manager.PrepareListing(context.Background(), "seller", 7, 0)
	check.True(t, errors.Is(err, ErrProtectedCard))

	// A spare copy lifts the protection.
	f.userCardRepo.rows["seller"][7].Amount = 2
	_, err = f.manager.PrepareListing(context.Background(), "seller", 7, 0)
	check.NoError(t, err)
}

func TestListAuctionCreatesListing(t *testing.T) {
	f := newListingFixture(t, 1000,
		[]*models.User{heroUser("seller", 5000)},
		[]*models.UserCard{{UserID: "seller", CardID: 7, Amount: 2}},
	)

	auction, err := f.manager.ListAuction(context.Background(), "seller", 7, 1200)
	assert.NoError(t, err)

	check.Equal(t, "start", auction.AuctionID)
	check.Equal(t, int64(1200), auction.Price)
	check.False(t, auction.Finished)

	assert.Equal(t, 1, len(f.repo.listings))
	params := f.repo.listings[0]
	check.Equal(t, "seller", params.SellerID)
	check.Equal(t, int64(7), params.CardID)
	check.Equal(t, int64(1200), params.Price)
	check.Equal(t, int64(120), params.Fee)
	check.Equal(t, testBase, params.Date)
}

func TestListAuctionMapsListingErrors(t *testing.T) {
	tests := []struct {
		name      string
		createErr error
		wantErr   error
	}{
		{"last copy gone before commit", repositories.ErrNoCopies, ErrNotFound},
		{"balance gone before commit", repositories.ErrInsufficientFunds, ErrInsufficientFunds},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newListingFixture(t, 1000,
				[]*models.User{heroUser("seller", 5000)},
				[]*models.UserCard{{UserID: "seller", CardID: 7, Amount: 2}},
			)
			f.repo.createErr = tt.createErr

			_, err := f.manager.ListAuction(context.Background(), "seller", 7, 0)
			check.True(t, errors.Is(err, tt.wantErr))
		})
	}
}
