package services

import (
	"context"
	"fmt"
	"math"

	lru "github.com/hashicorp/golang-lru"
	"github.com/hyeworks/aucbot/aucbot/database/models"
	"github.com/hyeworks/aucbot/aucbot/database/repositories"
)

const (
	minCardValue = 500
	maxCardValue = 1_000_000

	initialBaseValue = 1000
	levelMultiplier  = 1.5

	// scarcityWeight controls how strongly low circulation inflates value.
	scarcityWeight = 100.0

	valueCacheSize = 1024
)

// CardValueService evaluates a card's worth from its level and how many
// copies are in circulation. Values are cached; scarcity drifts slowly
// enough that a stale value is acceptable for listing bounds.
type CardValueService struct {
	cardRepo repositories.CardRepository
	cache    *lru.Cache
}

func NewCardValueService(cardRepo repositories.CardRepository) (*CardValueService, error) {
	cache, err := lru.New(valueCacheSize)
	if err != nil {
		return nil, fmt.Errorf("failed to create value cache: %w", err)
	}
	return &CardValueService{cardRepo: cardRepo, cache: cache}, nil
}

func (s *CardValueService) Value(ctx context.Context, card *models.Card) (int64, error) {
	if card == nil {
		return 0, fmt.Errorf("card is nil")
	}

	if cached, ok := s.cache.Get(card.ID); ok {
		return cached.(int64), nil
	}

	copies, err := s.cardRepo.CountCopies(ctx, card.ID)
	if err != nil {
		return 0, fmt.Errorf("failed to count copies: %w", err)
	}

	value := computeValue(card.Level, copies)
	s.cache.Add(card.ID, value)
	return value, nil
}

// Invalidate drops a cached value, used after bulk inventory changes.
func (s *CardValueService) Invalidate(cardID int64) {
	s.cache.Remove(cardID)
}

func computeValue(level int, copies int64) int64 {
	if level < 1 {
		level = 1
	}

	base := initialBaseValue * math.Pow(levelMultiplier, float64(level-1))

	scarcity := 2.0
	if copies > 0 {
		scarcity = 1 + scarcityWeight/(scarcityWeight+float64(copies))
	}

	value := int64(math.Floor(base * scarcity))
	if value < minCardValue {
		return minCardValue
	}
	if value > maxCardValue {
		return maxCardValue
	}
	return value
}
