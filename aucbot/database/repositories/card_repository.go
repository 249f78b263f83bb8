package repositories

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hyeworks/aucbot/aucbot/database/models"
	"github.com/uptrace/bun"
)

type CardRepository interface {
	GetByID(ctx context.Context, id int64) (*models.Card, error)
	GetByIDs(ctx context.Context, ids []int64) (map[int64]*models.Card, error)
	CountCopies(ctx context.Context, cardID int64) (int64, error)
}

type cardRepository struct {
	db *bun.DB
}

func NewCardRepository(db *bun.DB) CardRepository {
	return &cardRepository{db: db}
}

func (r *cardRepository) GetByID(ctx context.Context, id int64) (*models.Card, error) {
	card := new(models.Card)
	err := r.db.NewSelect().
		Model(card).
		Where("id = ?", id).
		Scan(ctx)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get card: %w", err)
	}
	return card, nil
}

func (r *cardRepository) GetByIDs(ctx context.Context, ids []int64) (map[int64]*models.Card, error) {
	if len(ids) == 0 {
		return map[int64]*models.Card{}, nil
	}

	var cards []*models.Card
	err := r.db.NewSelect().
		Model(&cards).
		Where("id IN (?)", bun.In(ids)).
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get cards: %w", err)
	}

	byID := make(map[int64]*models.Card, len(cards))
	for _, c := range cards {
		byID[c.ID] = c
	}
	return byID, nil
}

// CountCopies returns how many copies of a card are in circulation, used by
// the valuation service's scarcity factor.
func (r *cardRepository) CountCopies(ctx context.Context, cardID int64) (int64, error) {
	var total int64
	err := r.db.NewSelect().
		Model((*models.UserCard)(nil)).
		ColumnExpr("COALESCE(SUM(amount), 0)").
		Where("card_id = ?", cardID).
		Scan(ctx, &total)
	if err != nil {
		return 0, fmt.Errorf("failed to count copies: %w", err)
	}
	return total, nil
}
