package models

import (
	"time"

	"github.com/uptrace/bun"
)

// FlagOwnership records the single current owner of a flag. The unique
// constraint on flag_id makes ownership exclusive; rows are written only by
// auction settlement, administrative transfer, or reset.
type FlagOwnership struct {
	bun.BaseModel `bun:"table:flag_ownerships,alias:fo"`

	ID     int64  `bun:"id,pk,autoincrement"`
	FlagID int64  `bun:"flag_id,notnull,unique"`
	UserID string `bun:"user_id,notnull"`

	// AuctionID is zero when ownership was granted administratively.
	AuctionID  int64     `bun:"auction_id"`
	AcquiredAt time.Time `bun:"acquired_at,notnull"`

	CreatedAt time.Time `bun:"created_at,notnull,default:current_timestamp"`
	UpdatedAt time.Time `bun:"updated_at,notnull"`
}
