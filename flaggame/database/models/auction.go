package models

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/uptrace/bun"
)

type AuctionStatus string

const (
	AuctionStatusPending   AuctionStatus = "pending"
	AuctionStatusActive    AuctionStatus = "active"
	AuctionStatusClosing   AuctionStatus = "closing"
	AuctionStatusSettled   AuctionStatus = "settled"
	AuctionStatusCancelled AuctionStatus = "cancelled"
)

// Terminal reports whether no further transition out of the status is legal.
func (s AuctionStatus) Terminal() bool {
	return s == AuctionStatusSettled || s == AuctionStatusCancelled
}

type Auction struct {
	bun.BaseModel `bun:"table:auctions,alias:a"`

	ID     int64  `bun:"id,pk,autoincrement"`
	Code   string `bun:"code,notnull,unique"`
	FlagID int64  `bun:"flag_id,notnull"`

	Status       AuctionStatus   `bun:"status,notnull"`
	ReservePrice decimal.Decimal `bun:"reserve_price,notnull,type:numeric(20,2)"`
	CurrentPrice decimal.Decimal `bun:"current_price,notnull,type:numeric(20,2)"`

	OpenAt  time.Time `bun:"open_at,notnull"`
	CloseAt time.Time `bun:"close_at,notnull"`

	// Settlement outcome, written exactly once. Empty winner on a settled
	// auction means it closed without a valid bid.
	WinnerID  string    `bun:"winner_id"`
	SettledAt time.Time `bun:"settled_at,nullzero"`

	TopBidderID string    `bun:"top_bidder_id"`
	LastBidTime time.Time `bun:"last_bid_time,nullzero"`
	BidCount    int       `bun:"bid_count"`

	CreatedAt time.Time `bun:"created_at,notnull,default:current_timestamp"`
	UpdatedAt time.Time `bun:"updated_at,notnull,default:current_timestamp"`
}

type Bid struct {
	bun.BaseModel `bun:"table:bids,alias:b"`

	ID        int64           `bun:"id,pk,autoincrement"`
	AuctionID int64           `bun:"auction_id,notnull"`
	BidderID  string          `bun:"bidder_id,notnull"`
	Amount    decimal.Decimal `bun:"amount,notnull,type:numeric(20,2)"`
	Timestamp time.Time       `bun:"timestamp,notnull"`

	CreatedAt time.Time `bun:"created_at,notnull"`
}
