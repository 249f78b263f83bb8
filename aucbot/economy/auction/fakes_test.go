package auction

import (
	"context"
	"time"

	"github.com/hyeworks/aucbot/aucbot/database/models"
	"github.com/hyeworks/aucbot/aucbot/database/repositories"
	"github.com/uptrace/bun"
)

type fakeAuctionRepo struct {
	byAuctionID map[string]*models.Auction
	lastID      string
	nextPK      int64

	listings []repositories.ListingParams
	bids     []repositories.BidExecution
	settled  []repositories.Settlement

	createErr error
	execErr   error
	settleErr error
}

func newFakeAuctionRepo() *fakeAuctionRepo {
	return &fakeAuctionRepo{
		byAuctionID: make(map[string]*models.Auction),
		nextPK:      1,
	}
}

func (r *fakeAuctionRepo) add(a *models.Auction) *models.Auction {
	if a.ID == 0 {
		a.ID = r.nextPK
		r.nextPK++
	}
	r.byAuctionID[a.AuctionID] = a
	r.lastID = a.AuctionID
	return a
}

func (r *fakeAuctionRepo) DB() *bun.DB { return nil }

func (r *fakeAuctionRepo) CreateListing(_ context.Context, params repositories.ListingParams) (*models.Auction, error) {
	if r.createErr != nil {
		return nil, r.createErr
	}
	r.listings = append(r.listings, params)
	return r.add(&models.Auction{
		AuctionID: params.AuctionID,
		CardID:    params.CardID,
		SellerID:  params.SellerID,
		Price:     params.Price,
		Date:      params.Date,
	}), nil
}

func (r *fakeAuctionRepo) GetByAuctionID(_ context.Context, auctionID string) (*models.Auction, error) {
	a, ok := r.byAuctionID[auctionID]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	cp := *a
	return &cp, nil
}

func (r *fakeAuctionRepo) LastAssignedID(_ context.Context) (string, error) {
	return r.lastID, nil
}

func (r *fakeAuctionRepo) List(_ context.Context, filter repositories.ListFilter) ([]*models.Auction, error) {
	var out []*models.Auction
	for _, a := range r.byAuctionID {
		if a.Finished {
			continue
		}
		if filter.Author != "" && a.SellerID != filter.Author {
			continue
		}
		if filter.Bidder != "" && a.LastBidderID != filter.Bidder {
			continue
		}
		out = append(out, a)
	}
	return out, nil
}

func (r *fakeAuctionRepo) OldestExpired(_ context.Context, cutoff time.Time) (*models.Auction, error) {
	var oldest *models.Auction
	for _, a := range r.byAuctionID {
		if a.Finished || !a.Date.Before(cutoff) {
			continue
		}
		if oldest == nil || a.Date.Before(oldest.Date) {
			oldest = a
		}
	}
	if oldest == nil {
		return nil, repositories.ErrNotFound
	}
	cp := *oldest
	return &cp, nil
}

func (r *fakeAuctionRepo) ExecuteBid(_ context.Context, exec repositories.BidExecution) error {
	if r.execErr != nil {
		return r.execErr
	}
	r.bids = append(r.bids, exec)
	for _, a := range r.byAuctionID {
		if a.ID == exec.AuctionID {
			a.Price = exec.Amount
			a.LastBidderID = exec.BidderID
			a.HideBid = exec.HideBid
			a.Date = exec.Date
			a.TimeShift = exec.TimeShift
			break
		}
	}
	return nil
}

func (r *fakeAuctionRepo) Settle(_ context.Context, s repositories.Settlement) error {
	if r.settleErr != nil {
		return r.settleErr
	}
	r.settled = append(r.settled, s)
	if a, ok := r.byAuctionID[s.Auction.AuctionID]; ok {
		a.Finished = true
	}
	return nil
}

type fakeUserRepo struct {
	users map[string]*models.User
}

func newFakeUserRepo(users ...*models.User) *fakeUserRepo {
	byID := make(map[string]*models.User, len(users))
	for _, u := range users {
		byID[u.DiscordID] = u
	}
	return &fakeUserRepo{users: byID}
}

func (r *fakeUserRepo) GetByDiscordID(_ context.Context, discordID string) (*models.User, error) {
	u, ok := r.users[discordID]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	return u, nil
}

func (r *fakeUserRepo) AdjustBalance(_ context.Context, discordID string, delta int64) error {
	u, ok := r.users[discordID]
	if !ok {
		return repositories.ErrNotFound
	}
	u.Balance += delta
	return nil
}

type fakeUserCardRepo struct {
	rows map[string]map[int64]*models.UserCard
}

func newFakeUserCardRepo(rows ...*models.UserCard) *fakeUserCardRepo {
	r := &fakeUserCardRepo{rows: make(map[string]map[int64]*models.UserCard)}
	for _, uc := range rows {
		if r.rows[uc.UserID] == nil {
			r.rows[uc.UserID] = make(map[int64]*models.UserCard)
		}
		r.rows[uc.UserID][uc.CardID] = uc
	}
	return r
}

func (r *fakeUserCardRepo) GetByUserIDAndCardID(_ context.Context, userID string, cardID int64) (*models.UserCard, error) {
	if uc, ok := r.rows[userID][cardID]; ok {
		return uc, nil
	}
	return nil, repositories.ErrNotFound
}

func (r *fakeUserCardRepo) GetAllByUserID(_ context.Context, userID string) ([]*models.UserCard, error) {
	var out []*models.UserCard
	for _, uc := range r.rows[userID] {
		if uc.Amount > 0 {
			out = append(out, uc)
		}
	}
	return out, nil
}

func (r *fakeUserCardRepo) CleanupZeroAmountCards(_ context.Context) error { return nil }

type fakeCardRepo struct {
	cards  map[int64]*models.Card
	getErr error
}

func newFakeCardRepo(cards ...*models.Card) *fakeCardRepo {
	byID := make(map[int64]*models.Card, len(cards))
	for _, c := range cards {
		byID[c.ID] = c
	}
	return &fakeCardRepo{cards: byID}
}

func (r *fakeCardRepo) GetByID(_ context.Context, id int64) (*models.Card, error) {
	if r.getErr != nil {
		return nil, r.getErr
	}
	c, ok := r.cards[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	return c, nil
}

func (r *fakeCardRepo) GetByIDs(_ context.Context, ids []int64) (map[int64]*models.Card, error) {
	out := make(map[int64]*models.Card)
	for _, id := range ids {
		if c, ok := r.cards[id]; ok {
			out[id] = c
		}
	}
	return out, nil
}

func (r *fakeCardRepo) CountCopies(_ context.Context, _ int64) (int64, error) {
	return 100, nil
}

type fakeHooks struct {
	maskAll bool
	rebate  int64
}

func (h fakeHooks) HasHero(u *models.User) bool { return u != nil && u.Hero != "" }

func (h fakeHooks) BidMask(u *models.User) bool {
	return h.maskAll || (u != nil && u.HasEffect("cloakedbid"))
}

func (h fakeHooks) PostWinRebate(_ *models.User, _ int64) int64 { return h.rebate }

type fixedValuator struct {
	value int64
	err   error
}

func (v fixedValuator) Value(_ context.Context, _ *models.Card) (int64, error) {
	return v.value, v.err
}

type notifierCall struct {
	kind   string
	userID string
	amount int64
}

type recordingNotifier struct {
	calls []notifierCall
}

func (n *recordingNotifier) NotifyOutbid(_ context.Context, userID string, _ *models.Auction, _ *models.Card, nextMin int64) {
	n.calls = append(n.calls, notifierCall{kind: "outbid", userID: userID, amount: nextMin})
}

func (n *recordingNotifier) NotifyFirstBid(_ context.Context, sellerID string, _ *models.Auction, _ *models.Card) {
	n.calls = append(n.calls, notifierCall{kind: "firstbid", userID: sellerID})
}

func (n *recordingNotifier) NotifyWinner(_ context.Context, userID string, _ *models.Auction, _ *models.Card, rebate int64) {
	n.calls = append(n.calls, notifierCall{kind: "winner", userID: userID, amount: rebate})
}

func (n *recordingNotifier) NotifySold(_ context.Context, sellerID string, _ *models.Auction, _ *models.Card) {
	n.calls = append(n.calls, notifierCall{kind: "sold", userID: sellerID})
}

func (n *recordingNotifier) NotifyReturned(_ context.Context, sellerID string, _ *models.Auction, _ *models.Card) {
	n.calls = append(n.calls, notifierCall{kind: "returned", userID: sellerID})
}
