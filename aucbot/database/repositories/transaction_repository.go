package repositories

import (
	"context"
	"fmt"

	"github.com/hyeworks/aucbot/aucbot/database/models"
	"github.com/uptrace/bun"
)

type TransactionRepository interface {
	Create(ctx context.Context, transaction *models.Transaction) error
	GetRecentByUser(ctx context.Context, discordID string, limit int) ([]*models.Transaction, error)
}

type transactionRepository struct {
	db *bun.DB
}

func NewTransactionRepository(db *bun.DB) TransactionRepository {
	return &transactionRepository{db: db}
}

func (r *transactionRepository) Create(ctx context.Context, transaction *models.Transaction) error {
	_, err := r.db.NewInsert().Model(transaction).Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to create transaction: %w", err)
	}
	return nil
}

func (r *transactionRepository) GetRecentByUser(ctx context.Context, discordID string, limit int) ([]*models.Transaction, error) {
	if limit <= 0 {
		limit = 25
	}

	var transactions []*models.Transaction
	err := r.db.NewSelect().
		Model(&transactions).
		Where("seller_id = ? OR winner_id = ?", discordID, discordID).
		Order("time DESC").
		Limit(limit).
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get transactions: %w", err)
	}
	return transactions, nil
}
