package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/uptrace/bun"

	"github.com/andrii-lazarenko67/NFT-municipal-flag-game-backend/flaggame/database/models"
	"github.com/andrii-lazarenko67/NFT-municipal-flag-game-backend/flaggame/economy/auction"
)

// AuctionStore is the bun-backed implementation of the auction engine's
// store. The same struct serves plain and transaction-bound access through
// bun.IDB; RunInTx rebinds it to a serializable transaction so engine
// callbacks hit row locks instead of the pool.
type AuctionStore struct {
	db  *bun.DB
	idb bun.IDB
}

func NewAuctionStore(db *bun.DB) *AuctionStore {
	return &AuctionStore{db: db, idb: db}
}

var _ auction.Store = (*AuctionStore)(nil)

func (s *AuctionStore) RunInTx(ctx context.Context, fn func(ctx context.Context, tx auction.TxStore) error) error {
	if s.db == nil {
		return fmt.Errorf("nested transactions are not supported")
	}

	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		return fmt.Errorf("failed to start transaction: %w", err)
	}
	defer tx.Rollback()

	if err := fn(ctx, &AuctionStore{idb: tx}); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func (s *AuctionStore) InsertAuction(ctx context.Context, a *models.Auction) error {
	if _, err := s.idb.NewInsert().Model(a).Exec(ctx); err != nil {
		return fmt.Errorf("failed to create auction: %w", err)
	}
	return nil
}

func (s *AuctionStore) AuctionByID(ctx context.Context, id int64) (*models.Auction, error) {
	a := new(models.Auction)
	err := s.idb.NewSelect().
		Model(a).
		Where("id = ?", id).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("auction %d: %w", id, auction.ErrUnknownAuction)
		}
		return nil, fmt.Errorf("failed to get auction: %w", err)
	}
	return a, nil
}

func (s *AuctionStore) AuctionByCode(ctx context.Context, code string) (*models.Auction, error) {
	a := new(models.Auction)
	err := s.idb.NewSelect().
		Model(a).
		Where("code = ?", code).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("auction %s: %w", code, auction.ErrUnknownAuction)
		}
		return nil, fmt.Errorf("failed to get auction: %w", err)
	}
	return a, nil
}

func (s *AuctionStore) AuctionForUpdate(ctx context.Context, id int64) (*models.Auction, error) {
	a := new(models.Auction)
	err := s.idb.NewSelect().
		Model(a).
		Where("id = ?", id).
		For("UPDATE").
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("auction %d: %w", id, auction.ErrUnknownAuction)
		}
		return nil, fmt.Errorf("failed to lock auction: %w", err)
	}
	return a, nil
}

func (s *AuctionStore) UpdateAuctionStatus(ctx context.Context, id int64, from, to models.AuctionStatus) (bool, error) {
	result, err := s.idb.NewUpdate().
		Model((*models.Auction)(nil)).
		Set("status = ?", to).
		Set("updated_at = ?", time.Now()).
		Where("id = ? AND status = ?", id, from).
		Exec(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to update auction status: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get affected rows: %w", err)
	}
	return rows > 0, nil
}

func (s *AuctionStore) MarkAuctionSettled(ctx context.Context, id int64, winnerID string, settledAt time.Time) (bool, error) {
	result, err := s.idb.NewUpdate().
		Model((*models.Auction)(nil)).
		Set("status = ?", models.AuctionStatusSettled).
		Set("winner_id = ?", winnerID).
		Set("settled_at = ?", settledAt).
		Set("updated_at = ?", settledAt).
		Where("id = ? AND status = ?", id, models.AuctionStatusClosing).
		Exec(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to mark auction settled: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get affected rows: %w", err)
	}
	return rows > 0, nil
}

func (s *AuctionStore) RecordBid(ctx context.Context, bid *models.Bid) error {
	if _, err := s.idb.NewInsert().Model(bid).Exec(ctx); err != nil {
		return fmt.Errorf("failed to create bid: %w", err)
	}

	_, err := s.idb.NewUpdate().
		Model((*models.Auction)(nil)).
		Set("current_price = ?", bid.Amount).
		Set("top_bidder_id = ?", bid.BidderID).
		Set("last_bid_time = ?", bid.Timestamp).
		Set("bid_count = bid_count + 1").
		Set("updated_at = ?", time.Now()).
		Where("id = ?", bid.AuctionID).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to update auction: %w", err)
	}
	return nil
}

func (s *AuctionStore) HighestBid(ctx context.Context, auctionID int64) (*models.Bid, error) {
	bid := new(models.Bid)
	err := s.idb.NewSelect().
		Model(bid).
		Where("auction_id = ?", auctionID).
		Order("amount DESC", "timestamp ASC", "id ASC").
		Limit(1).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get highest bid: %w", err)
	}
	return bid, nil
}

func (s *AuctionStore) BidsPage(ctx context.Context, auctionID int64, after *models.Bid, limit int) ([]*models.Bid, error) {
	var bids []*models.Bid
	q := s.idb.NewSelect().
		Model(&bids).
		Where("auction_id = ?", auctionID)

	if after != nil {
		q = q.Where(
			"(amount < ?) OR (amount = ? AND (timestamp > ? OR (timestamp = ? AND id > ?)))",
			after.Amount, after.Amount, after.Timestamp, after.Timestamp, after.ID,
		)
	}

	err := q.
		Order("amount DESC", "timestamp ASC", "id ASC").
		Limit(limit).
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get auction bids: %w", err)
	}
	return bids, nil
}

func (s *AuctionStore) OpenAuctionByFlag(ctx context.Context, flagID int64) (*models.Auction, error) {
	a := new(models.Auction)
	err := s.idb.NewSelect().
		Model(a).
		Where("flag_id = ?", flagID).
		Where("status IN (?)", bun.In([]models.AuctionStatus{
			models.AuctionStatusPending,
			models.AuctionStatusActive,
			models.AuctionStatusClosing,
		})).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get open auction for flag: %w", err)
	}
	return a, nil
}

func (s *AuctionStore) OpenDueAuctions(ctx context.Context, now time.Time) ([]*models.Auction, error) {
	var auctions []*models.Auction
	err := s.idb.NewSelect().
		Model(&auctions).
		Where("status = ?", models.AuctionStatusPending).
		Where("open_at <= ?", now).
		Order("open_at ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get due pending auctions: %w", err)
	}
	return auctions, nil
}

func (s *AuctionStore) CloseDueAuctions(ctx context.Context, now time.Time) ([]*models.Auction, error) {
	var auctions []*models.Auction
	err := s.idb.NewSelect().
		Model(&auctions).
		WhereGroup(" AND ", func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.
				WhereGroup(" OR ", func(q *bun.SelectQuery) *bun.SelectQuery {
					return q.
						Where("status = ? AND close_at <= ?", models.AuctionStatusActive, now).
						WhereOr("status = ?", models.AuctionStatusClosing)
				})
		}).
		Order("close_at ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get due closing auctions: %w", err)
	}
	return auctions, nil
}

func (s *AuctionStore) Flag(ctx context.Context, id int64) (*models.Flag, error) {
	flag := new(models.Flag)
	err := s.idb.NewSelect().
		Model(flag).
		Where("id = ?", id).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("flag %d: %w", id, auction.ErrUnknownFlag)
		}
		return nil, fmt.Errorf("failed to get flag: %w", err)
	}
	return flag, nil
}

func (s *AuctionStore) PairMate(ctx context.Context, flag *models.Flag) (*models.Flag, error) {
	mate := new(models.Flag)
	err := s.idb.NewSelect().
		Model(mate).
		Where("municipality_id = ? AND variant = ? AND id != ?",
			flag.MunicipalityID, flag.MateVariant(), flag.ID).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get pair mate: %w", err)
	}
	return mate, nil
}

func (s *AuctionStore) SetPairComplete(ctx context.Context, flagID int64, complete bool) error {
	_, err := s.idb.NewUpdate().
		Model((*models.Flag)(nil)).
		Set("is_pair_complete = ?", complete).
		Set("updated_at = ?", time.Now()).
		Where("id = ?", flagID).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to update pair completeness: %w", err)
	}
	return nil
}

func (s *AuctionStore) Ownership(ctx context.Context, flagID int64) (*models.FlagOwnership, error) {
	ownership := new(models.FlagOwnership)
	err := s.idb.NewSelect().
		Model(ownership).
		Where("flag_id = ?", flagID).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get ownership: %w", err)
	}
	return ownership, nil
}

func (s *AuctionStore) UpsertOwnership(ctx context.Context, o *models.FlagOwnership) error {
	_, err := s.idb.NewInsert().
		Model(o).
		On("CONFLICT (flag_id) DO UPDATE").
		Set("user_id = EXCLUDED.user_id").
		Set("auction_id = EXCLUDED.auction_id").
		Set("acquired_at = EXCLUDED.acquired_at").
		Set("updated_at = EXCLUDED.updated_at").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to upsert ownership: %w", err)
	}
	return nil
}

func (s *AuctionStore) UserExists(ctx context.Context, id string) (bool, error) {
	exists, err := s.idb.NewSelect().
		Model((*models.User)(nil)).
		Where("id = ?", id).
		Exists(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to check user existence: %w", err)
	}
	return exists, nil
}
