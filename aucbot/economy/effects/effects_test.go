package effects

import (
	"testing"

	"github.com/peterldowns/testy/check"
	"github.com/hyeworks/aucbot/aucbot/database/models"
)

func TestHasHero(t *testing.T) {
	h := NewHooks()

	check.False(t, h.HasHero(nil))
	check.False(t, h.HasHero(&models.User{DiscordID: "u1"}))
	check.True(t, h.HasHero(&models.User{DiscordID: "u1", Hero: "aria"}))
}

func TestBidMask(t *testing.T) {
	h := NewHooks()

	check.False(t, h.BidMask(nil))
	check.False(t, h.BidMask(&models.User{DiscordID: "u1"}))
	check.False(t, h.BidMask(&models.User{DiscordID: "u1", Effects: []string{"aucback"}}))
	check.True(t, h.BidMask(&models.User{DiscordID: "u1", Effects: []string{EffectCloakedBid}}))
}

func TestPostWinRebate(t *testing.T) {
	h := NewHooks()
	holder := &models.User{DiscordID: "u1", Effects: []string{EffectAuctionCashback}}

	tests := []struct {
		name  string
		user  *models.User
		price int64
		want  int64
	}{
		{"nil user", nil, 1000, 0},
		{"no effect", &models.User{DiscordID: "u1"}, 1000, 0},
		{"round amount", holder, 1000, 100},
		{"fraction floors", holder, 1015, 101},
		{"zero price", holder, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			check.Equal(t, tt.want, h.PostWinRebate(tt.user, tt.price))
		})
	}
}
