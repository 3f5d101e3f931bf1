package auction

import (
	"context"
	"time"

	"github.com/andrii-lazarenko67/NFT-municipal-flag-game-backend/flaggame/database/models"
)

// TxStore is the persistence surface the engine needs. Read methods that can
// legitimately find nothing (highest bid, ownership, pair mate) return
// (nil, nil); lookups by identifier return the matching ErrUnknown* error.
type TxStore interface {
	InsertAuction(ctx context.Context, a *models.Auction) error
	AuctionByID(ctx context.Context, id int64) (*models.Auction, error)
	AuctionByCode(ctx context.Context, code string) (*models.Auction, error)

	// AuctionForUpdate loads an auction with an exclusive row lock so that
	// bid placement, settlement, and cancellation on the same auction
	// serialize inside their transactions.
	AuctionForUpdate(ctx context.Context, id int64) (*models.Auction, error)

	// UpdateAuctionStatus transitions status from one value to another and
	// reports whether a row actually changed. A false result means the
	// auction was no longer in the expected state.
	UpdateAuctionStatus(ctx context.Context, id int64, from, to models.AuctionStatus) (bool, error)

	// MarkAuctionSettled records the settlement outcome, guarded on the
	// auction still being in closing state.
	MarkAuctionSettled(ctx context.Context, id int64, winnerID string, settledAt time.Time) (bool, error)

	// RecordBid appends a bid and bumps the auction's bid bookkeeping
	// (current price, top bidder, last bid time, bid count).
	RecordBid(ctx context.Context, bid *models.Bid) error

	HighestBid(ctx context.Context, auctionID int64) (*models.Bid, error)

	// BidsPage returns up to limit bids ordered by amount descending then
	// timestamp ascending, starting after the given bid (nil for the first
	// page).
	BidsPage(ctx context.Context, auctionID int64, after *models.Bid, limit int) ([]*models.Bid, error)

	// OpenAuctionByFlag returns an unfinished (pending/active/closing)
	// auction for the flag, or (nil, nil).
	OpenAuctionByFlag(ctx context.Context, flagID int64) (*models.Auction, error)

	// OpenDueAuctions returns pending auctions whose opening time has been
	// reached; CloseDueAuctions returns active auctions past their closing
	// time plus auctions already in closing state awaiting settlement.
	OpenDueAuctions(ctx context.Context, now time.Time) ([]*models.Auction, error)
	CloseDueAuctions(ctx context.Context, now time.Time) ([]*models.Auction, error)

	Flag(ctx context.Context, id int64) (*models.Flag, error)
	PairMate(ctx context.Context, flag *models.Flag) (*models.Flag, error)
	SetPairComplete(ctx context.Context, flagID int64, complete bool) error

	Ownership(ctx context.Context, flagID int64) (*models.FlagOwnership, error)
	UpsertOwnership(ctx context.Context, o *models.FlagOwnership) error

	UserExists(ctx context.Context, id string) (bool, error)
}

// Store adds transaction scoping on top of TxStore. RunInTx executes fn
// against a transaction-bound TxStore at serializable isolation; the
// transaction commits only if fn returns nil.
type Store interface {
	TxStore
	RunInTx(ctx context.Context, fn func(ctx context.Context, tx TxStore) error) error
}
