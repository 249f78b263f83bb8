package repositories

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hyeworks/aucbot/aucbot/database/models"
	"github.com/uptrace/bun"
)

type UserCardRepository interface {
	GetByUserIDAndCardID(ctx context.Context, userID string, cardID int64) (*models.UserCard, error)
	GetAllByUserID(ctx context.Context, userID string) ([]*models.UserCard, error)
	CleanupZeroAmountCards(ctx context.Context) error
}

type userCardRepository struct {
	db *bun.DB
}

func NewUserCardRepository(db *bun.DB) UserCardRepository {
	return &userCardRepository{db: db}
}

func (r *userCardRepository) GetByUserIDAndCardID(ctx context.Context, userID string, cardID int64) (*models.UserCard, error) {
	userCard := new(models.UserCard)
	err := r.db.NewSelect().
		Model(userCard).
		Where("user_id = ? AND card_id = ?", userID, cardID).
		Scan(ctx)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get user card: %w", err)
	}
	return userCard, nil
}

func (r *userCardRepository) GetAllByUserID(ctx context.Context, userID string) ([]*models.UserCard, error) {
	var cards []*models.UserCard
	err := r.db.NewSelect().
		Model(&cards).
		Where("user_id = ? AND amount > 0", userID).
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get user cards: %w", err)
	}
	return cards, nil
}

func (r *userCardRepository) CleanupZeroAmountCards(ctx context.Context) error {
	_, err := r.db.NewDelete().
		Model((*models.UserCard)(nil)).
		Where("amount <= 0").
		Where("favorite = ?", false).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to cleanup zero amount cards: %w", err)
	}
	return nil
}
