package migration

import (
	"strings"
	"time"

	"github.com/hyeworks/aucbot/aucbot/database/models"
	"github.com/hyeworks/aucbot/aucbot/economy/auction"
)

func (m *Migrator) convertUser(mu MongoUser) *models.User {
	now := time.Now()

	return &models.User{
		DiscordID:   mu.DiscordID,
		Username:    mu.Username,
		Balance:     int64(mu.Exp),
		Hero:        mu.Hero,
		HeroChanged: mu.HeroChanged,
		Effects:     mu.Effects,
		CreatedAt:   mu.Joined,
		UpdatedAt:   now,
	}
}

func (m *Migrator) convertCard(mc MongoCard) *models.Card {
	now := time.Now()

	var tags []string
	if mc.Tags != "" {
		tags = strings.Split(mc.Tags, ",")
		for i := range tags {
			tags[i] = strings.TrimSpace(tags[i])
		}
	}

	return &models.Card{
		ID:        int64(mc.CardID),
		Name:      mc.Name,
		Level:     int(mc.Level),
		ColID:     mc.ColID,
		Tags:      tags,
		CreatedAt: mc.Added,
		UpdatedAt: now,
	}
}

func (m *Migrator) convertUserCard(muc MongoUserCard) *models.UserCard {
	now := time.Now()

	return &models.UserCard{
		UserID:    muc.UserID,
		CardID:    int64(*muc.CardID),
		Amount:    int64(muc.Amount),
		Favorite:  muc.Fav,
		Obtained:  muc.Obtained,
		CreatedAt: muc.Obtained,
		UpdatedAt: now,
	}
}

// convertAuction maps a legacy auction onto the anchor-based clock: the
// anchor is back-computed from the legacy deadline so remaining time is
// preserved, and past extensions collapse into it.
func (m *Migrator) convertAuction(ma MongoAuction) *models.Auction {
	now := time.Now()

	price := ma.Price
	if ma.HighBid > price {
		price = ma.HighBid
	}

	finished := ma.Finished || ma.Cancelled

	return &models.Auction{
		AuctionID:    ma.AuctionID,
		CardID:       int64(ma.Card),
		SellerID:     ma.Author,
		Price:        price,
		LastBidderID: ma.LastBidder,
		HideBid:      ma.HideBid,
		Date:         ma.Expires.Add(-auction.Lifetime),
		TimeShift:    0,
		Finished:     finished,
		CreatedAt:    ma.Time,
		UpdatedAt:    now,
	}
}

func (m *Migrator) convertTransaction(mt MongoTransaction) *models.Transaction {
	status := mt.Status
	if status == "" {
		status = models.TransactionStatusAuction
	}

	return &models.Transaction{
		AuctionID:  mt.AuctionID,
		Price:      mt.Price,
		SellerID:   mt.From,
		SellerName: mt.FromName,
		WinnerID:   mt.To,
		WinnerName: mt.ToName,
		CardID:     int64(mt.Card),
		Status:     status,
		Time:       mt.Time,
	}
}
