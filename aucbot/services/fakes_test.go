package services

import (
	"context"

	"github.com/hyeworks/aucbot/aucbot/database/models"
	"github.com/hyeworks/aucbot/aucbot/database/repositories"
)

type fakeCardRepo struct {
	cards map[int64]*models.Card

	copies     int64
	copiesErr  error
	countCalls int
}

func newFakeCardRepo(cards ...*models.Card) *fakeCardRepo {
	r := &fakeCardRepo{cards: make(map[int64]*models.Card)}
	for _, c := range cards {
		r.cards[c.ID] = c
	}
	return r
}

func (r *fakeCardRepo) GetByID(_ context.Context, id int64) (*models.Card, error) {
	if c, ok := r.cards[id]; ok {
		return c, nil
	}
	return nil, repositories.ErrNotFound
}

func (r *fakeCardRepo) GetByIDs(_ context.Context, ids []int64) (map[int64]*models.Card, error) {
	out := make(map[int64]*models.Card, len(ids))
	for _, id := range ids {
		if c, ok := r.cards[id]; ok {
			out[id] = c
		}
	}
	return out, nil
}

func (r *fakeCardRepo) CountCopies(_ context.Context, _ int64) (int64, error) {
	r.countCalls++
	if r.copiesErr != nil {
		return 0, r.copiesErr
	}
	return r.copies, nil
}

type fakeUserCardRepo struct {
	rows map[string][]*models.UserCard
}

func newFakeUserCardRepo(rows ...*models.UserCard) *fakeUserCardRepo {
	r := &fakeUserCardRepo{rows: make(map[string][]*models.UserCard)}
	for _, uc := range rows {
		r.rows[uc.UserID] = append(r.rows[uc.UserID], uc)
	}
	return r
}

func (r *fakeUserCardRepo) GetByUserIDAndCardID(_ context.Context, userID string, cardID int64) (*models.UserCard, error) {
	for _, uc := range r.rows[userID] {
		if uc.CardID == cardID {
			return uc, nil
		}
	}
	return nil, repositories.ErrNotFound
}

func (r *fakeUserCardRepo) GetAllByUserID(_ context.Context, userID string) ([]*models.UserCard, error) {
	return r.rows[userID], nil
}

func (r *fakeUserCardRepo) CleanupZeroAmountCards(_ context.Context) error { return nil }
