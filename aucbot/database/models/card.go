package models

import (
	"time"

	"github.com/uptrace/bun"
)

type Card struct {
	bun.BaseModel `bun:"table:cards,alias:c"`

	ID    int64    `bun:"id,pk,autoincrement"`
	Name  string   `bun:"name,notnull"`
	Level int      `bun:"level,notnull"`
	ColID string   `bun:"col_id,notnull"`
	Tags  []string `bun:"tags,type:jsonb"`

	CreatedAt time.Time `bun:"created_at,notnull,default:current_timestamp"`
	UpdatedAt time.Time `bun:"updated_at,notnull"`
}

type UserCard struct {
	bun.BaseModel `bun:"table:user_cards,alias:uc"`

	ID       int64  `bun:"id,pk,autoincrement"`
	UserID   string `bun:"user_id,notnull"`
	CardID   int64  `bun:"card_id,notnull"`
	Amount   int64  `bun:"amount,notnull,default:0"`
	Favorite bool   `bun:"favorite,notnull,default:false"`

	Obtained  time.Time `bun:"obtained,notnull"`
	CreatedAt time.Time `bun:"created_at,notnull,default:current_timestamp"`
	UpdatedAt time.Time `bun:"updated_at,notnull"`
}
