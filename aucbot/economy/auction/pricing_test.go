package auction

import (
	"errors"
	"testing"
	"time"

	"github.com/peterldowns/testy/assert"
	"github.com/peterldowns/testy/check"
	"github.com/hyeworks/aucbot/aucbot/database/models"
)

var testBase = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func auctionAged(age time.Duration, price int64) *models.Auction {
	return &models.Auction{
		AuctionID: "start",
		Price:     price,
		Date:      testBase.Add(-age),
	}
}

func TestMinimumNextBid(t *testing.T) {
	tests := []struct {
		name  string
		age   time.Duration
		price int64
		want  int64
	}{
		{
			name:  "plain growth outside the final hour",
			age:   time.Hour,
			price: 1000,
			want:  1020,
		},
		{
			name:  "rounding is a floor",
			age:   time.Hour,
			price: 999,
			want:  1018, // 999 * 1.02 = 1018.98
		},
		{
			name:  "urgency at exactly one hour left",
			age:   4 * time.Hour,
			price: 1000,
			want:  1023, // 1020 + 1020 * (1/60) * 0.2
		},
		{
			name:  "urgency with thirty minutes left",
			age:   4*time.Hour + 30*time.Minute,
			price: 1000,
			want:  1026, // 1020 + 1020 * (1/30) * 0.2
		},
		{
			name:  "urgency peaks in the final minute",
			age:   4*time.Hour + 59*time.Minute,
			price: 1000,
			want:  1224, // 1020 + 1020 * 0.2
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := MinimumNextBid(auctionAged(tt.age, tt.price), testBase)
			assert.NoError(t, err)
			check.Equal(t, tt.want, got)
		})
	}
}

func TestMinimumNextBidUnknownPrice(t *testing.T) {
	_, err := MinimumNextBid(auctionAged(time.Hour, 0), testBase)
	check.Error(t, err)
	check.True(t, errors.Is(err, ErrPriceUnknown))
}

func TestMaximumAllowedBid(t *testing.T) {
	// min is 1020, so the cap is floor(1020 * 1.5).
	got, err := MaximumAllowedBid(auctionAged(time.Hour, 1000), testBase)
	assert.NoError(t, err)
	check.Equal(t, int64(1530), got)
}

func TestRemainingTimeClampsAtZero(t *testing.T) {
	check.Equal(t, time.Duration(0), RemainingTime(auctionAged(6*time.Hour, 1000), testBase))
	check.Equal(t, 2*time.Hour, RemainingTime(auctionAged(3*time.Hour, 1000), testBase))
}

func TestExpired(t *testing.T) {
	check.False(t, Expired(auctionAged(Lifetime-time.Second, 1000), testBase))
	// An auction exactly at its deadline is already settleable.
	check.True(t, Expired(auctionAged(Lifetime, 1000), testBase))
	check.True(t, Expired(auctionAged(Lifetime+time.Hour, 1000), testBase))
}

func TestFormatRemaining(t *testing.T) {
	tests := []struct {
		name string
		age  time.Duration
		want string
	}{
		{"already past the deadline", Lifetime + time.Minute, "1s"},
		{"seconds floor at one", Lifetime, "1s"},
		{"thirty seconds", Lifetime - 30*time.Second, "30s"},
		{"five minutes", Lifetime - 5*time.Minute, "5m"},
		{"partial minutes round up", Lifetime - (4*time.Minute + 10*time.Second), "5m"},
		{"full hours", Lifetime - 4*time.Hour, "4h"},
		{"partial hours round up", Lifetime - (3*time.Hour + 30*time.Minute), "4h"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			check.Equal(t, tt.want, FormatRemaining(auctionAged(tt.age, 1000), testBase))
		})
	}
}

func TestApplyExtension(t *testing.T) {
	t.Run("outside the window nothing changes", func(t *testing.T) {
		a := auctionAged(Lifetime-6*time.Minute, 1000)
		origDate := a.Date

		check.False(t, applyExtension(a, testBase))
		check.Equal(t, origDate, a.Date)
		check.Equal(t, 0, a.TimeShift)
	})

	t.Run("extensions shrink with each grant", func(t *testing.T) {
		a := auctionAged(Lifetime-4*time.Minute, 1000)
		origDate := a.Date

		// First extension: +5m.
		check.True(t, applyExtension(a, testBase))
		check.Equal(t, origDate.Add(5*time.Minute), a.Date)
		check.Equal(t, 1, a.TimeShift)

		// Second: +2m, judged against the moved anchor.
		now := testBase.Add(8 * time.Minute)
		check.True(t, applyExtension(a, now))
		check.Equal(t, origDate.Add(7*time.Minute), a.Date)
		check.Equal(t, 2, a.TimeShift)

		// Every extension after that: +1m.
		now = now.Add(2 * time.Minute)
		check.True(t, applyExtension(a, now))
		check.Equal(t, origDate.Add(8*time.Minute), a.Date)
		check.Equal(t, 3, a.TimeShift)
	})
}
