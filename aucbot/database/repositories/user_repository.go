package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/hyeworks/aucbot/aucbot/database/models"
	"github.com/uptrace/bun"
)

type UserRepository interface {
	GetByDiscordID(ctx context.Context, discordID string) (*models.User, error)
	AdjustBalance(ctx context.Context, discordID string, delta int64) error
}

type userRepository struct {
	db *bun.DB
}

func NewUserRepository(db *bun.DB) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) GetByDiscordID(ctx context.Context, discordID string) (*models.User, error) {
	user := new(models.User)
	err := r.db.NewSelect().
		Model(user).
		Where("discord_id = ?", discordID).
		Scan(ctx)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return user, nil
}

// AdjustBalance applies delta as a single atomic increment. Read-modify-write
// would lose updates when a user is bidding and being outbid at the same time.
func (r *userRepository) AdjustBalance(ctx context.Context, discordID string, delta int64) error {
	result, err := r.db.NewUpdate().
		Model((*models.User)(nil)).
		Set("balance = balance + ?", delta).
		Set("updated_at = ?", time.Now()).
		Where("discord_id = ?", discordID).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to adjust balance: %w", err)
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return ErrNotFound
	}
	return nil
}
