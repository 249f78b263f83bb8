package services

import (
	"context"
	"errors"
	"testing"

	"github.com/peterldowns/testy/assert"
	"github.com/peterldowns/testy/check"
	"github.com/hyeworks/aucbot/aucbot/database/models"
)

func newSearchFixture() *CardSearchService {
	cardRepo := newFakeCardRepo(
		&models.Card{ID: 1, Name: "hoot_taeyeon", Level: 3, ColID: "gg"},
		&models.Card{ID: 2, Name: "gee_taeyeon", Level: 2, ColID: "gg"},
		&models.Card{ID: 3, Name: "fancy_momo", Level: 4, ColID: "tw"},
	)
	userCardRepo := newFakeUserCardRepo(
		&models.UserCard{UserID: "u1", CardID: 1, Amount: 1},
		&models.UserCard{UserID: "u1", CardID: 2, Amount: 3},
		&models.UserCard{UserID: "u1", CardID: 3, Amount: 1},
	)
	return NewCardSearchService(cardRepo, userCardRepo)
}

func TestFindOwnedCard(t *testing.T) {
	svc := newSearchFixture()
	ctx := context.Background()

	tests := []struct {
		name       string
		query      string
		wantCardID int64
	}{
		{"exact name", "hoot taeyeon", 1},
		{"underscores in the stored name", "fancy momo", 3},
		{"partial query", "momo", 3},
		{"case and whitespace insensitive", "  Fancy MOMO ", 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			card, userCard, err := svc.FindOwnedCard(ctx, "u1", tt.query)
			assert.NoError(t, err)
			check.Equal(t, tt.wantCardID, card.ID)
			check.Equal(t, tt.wantCardID, userCard.CardID)
		})
	}
}

func TestFindOwnedCardNoMatch(t *testing.T) {
	svc := newSearchFixture()

	_, _, err := svc.FindOwnedCard(context.Background(), "u1", "zzzzzz")
	check.True(t, errors.Is(err, ErrNoCardMatch))
}

func TestFindOwnedCardEmptyInventory(t *testing.T) {
	svc := newSearchFixture()

	_, _, err := svc.FindOwnedCard(context.Background(), "nobody", "taeyeon")
	check.True(t, errors.Is(err, ErrNoCardMatch))
}
