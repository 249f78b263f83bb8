package auction

import (
	"testing"

	"github.com/peterldowns/testy/check"
	"github.com/hyeworks/aucbot/aucbot/database/models"
)

func TestCardDisplayName(t *testing.T) {
	tests := []struct {
		name string
		card *models.Card
		want string
	}{
		{"nil card", nil, "unknown card"},
		{
			"leveled card",
			&models.Card{Name: "hoot_taeyeon", Level: 3, ColID: "gg"},
			"★★★ Hoot Taeyeon [GG]",
		},
		{
			"level outside star range",
			&models.Card{Name: "fancy_momo", Level: 0, ColID: "tw"},
			"Fancy Momo [TW]",
		},
		{
			"no collection",
			&models.Card{Name: "solo", Level: 0},
			"Solo",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			check.Equal(t, tt.want, CardDisplayName(tt.card))
		})
	}
}

func TestDisplayPrice(t *testing.T) {
	open := &models.Auction{Price: 1200, LastBidderID: "leader"}
	hidden := &models.Auction{Price: 1200, LastBidderID: "leader", HideBid: true}

	check.Equal(t, "1200", DisplayPrice(open, "anyone"))
	check.Equal(t, "1200", DisplayPrice(hidden, "leader"))
	check.Equal(t, "???", DisplayPrice(hidden, "someone_else"))
	check.Equal(t, "???", DisplayPrice(hidden, ""))
}
