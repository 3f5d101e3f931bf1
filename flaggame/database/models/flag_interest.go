package models

import (
	"time"

	"github.com/uptrace/bun"
)

// FlagInterest is a non-binding wishlist entry. Unique per (user, flag),
// independent of ownership and auctions.
type FlagInterest struct {
	bun.BaseModel `bun:"table:flag_interests,alias:fi"`

	ID        int64     `bun:"id,pk,autoincrement"`
	UserID    string    `bun:"user_id,notnull"`
	FlagID    int64     `bun:"flag_id,notnull"`
	CreatedAt time.Time `bun:"created_at,notnull,default:current_timestamp"`
	UpdatedAt time.Time `bun:"updated_at,notnull"`
}
