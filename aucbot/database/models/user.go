package models

import (
	"time"

	"github.com/uptrace/bun"
)

type User struct {
	bun.BaseModel `bun:"table:users,alias:u"`

	ID        int64  `bun:"id,pk,autoincrement"`
	DiscordID string `bun:"discord_id,notnull,unique"`
	Username  string `bun:"username,notnull"`

	// Balance is the user's flake balance. Bids are escrowed out of it the
	// moment they are placed and refunded when the bidder is outbid.
	Balance int64 `bun:"balance,notnull,default:0"`

	// Hero is the equipped hero id; auctions require one.
	Hero        string    `bun:"hero"`
	HeroChanged time.Time `bun:"hero_changed"`

	// Effects holds active passive effect ids (bid masking, win cashback).
	Effects []string `bun:"effects,type:jsonb"`

	CreatedAt time.Time `bun:"created_at,notnull,default:current_timestamp"`
	UpdatedAt time.Time `bun:"updated_at,notnull"`
}

func (u *User) HasEffect(id string) bool {
	for _, e := range u.Effects {
		if e == id {
			return true
		}
	}
	return false
}
