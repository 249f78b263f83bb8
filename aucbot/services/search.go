package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/hyeworks/aucbot/aucbot/database/models"
	"github.com/hyeworks/aucbot/aucbot/database/repositories"
	"github.com/sahilm/fuzzy"
)

// ErrNoCardMatch is returned when a query matches none of the user's cards.
var ErrNoCardMatch = errors.New("no cards found that match your request")

// CardSearchService resolves free-text sell queries against a user's
// inventory.
type CardSearchService struct {
	cardRepo     repositories.CardRepository
	userCardRepo repositories.UserCardRepository
}

func NewCardSearchService(cardRepo repositories.CardRepository, userCardRepo repositories.UserCardRepository) *CardSearchService {
	return &CardSearchService{cardRepo: cardRepo, userCardRepo: userCardRepo}
}

// FindOwnedCard fuzzy-matches query against the names of cards the user
// owns and returns the best match together with the inventory row.
func (s *CardSearchService) FindOwnedCard(ctx context.Context, userID string, query string) (*models.Card, *models.UserCard, error) {
	owned, err := s.userCardRepo.GetAllByUserID(ctx, userID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get user cards: %w", err)
	}
	if len(owned) == 0 {
		return nil, nil, ErrNoCardMatch
	}

	ids := make([]int64, 0, len(owned))
	for _, uc := range owned {
		ids = append(ids, uc.CardID)
	}

	cards, err := s.cardRepo.GetByIDs(ctx, ids)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get cards: %w", err)
	}

	// Stable candidate order so equal-rank matches resolve the same way
	// every time.
	sort.Slice(owned, func(i, j int) bool { return owned[i].CardID < owned[j].CardID })

	names := make([]string, 0, len(owned))
	candidates := make([]*models.UserCard, 0, len(owned))
	for _, uc := range owned {
		card, ok := cards[uc.CardID]
		if !ok {
			continue
		}
		names = append(names, searchableName(card))
		candidates = append(candidates, uc)
	}

	matches := fuzzy.Find(normalizeQuery(query), names)
	if len(matches) == 0 {
		return nil, nil, ErrNoCardMatch
	}

	best := candidates[matches[0].Index]
	return cards[best.CardID], best, nil
}

func searchableName(card *models.Card) string {
	return strings.ToLower(strings.ReplaceAll(card.Name, "_", " "))
}

func normalizeQuery(query string) string {
	return strings.ToLower(strings.TrimSpace(query))
}
