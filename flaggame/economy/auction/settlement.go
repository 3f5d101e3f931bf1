package auction

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"github.com/andrii-lazarenko67/NFT-municipal-flag-game-backend/flaggame/database/models"
)

// SettlementResult is the recorded outcome of an auction. WinnerID is empty
// when the auction closed without a valid bid.
type SettlementResult struct {
	AuctionID  int64
	WinnerID   string
	FinalPrice decimal.Decimal
	SettledAt  time.Time
}

// Settle finalizes a closed auction: winning bid -> ownership overwrite ->
// pair completeness recompute -> settled, as one atomic unit. It is
// idempotent; settling an already-settled auction returns the stored result
// without re-executing. Any mid-sequence failure rolls the whole unit back,
// leaving the auction in closing so a retry is safe.
func (m *Manager) Settle(ctx context.Context, auctionID int64) (*SettlementResult, error) {
	unlock := m.auctionLocks.lock(auctionID)
	defer unlock()

	auction, err := m.store.AuctionByID(ctx, auctionID)
	if err != nil {
		return nil, err
	}
	flag, err := m.store.Flag(ctx, auction.FlagID)
	if err != nil {
		return nil, err
	}

	// Ownership of either pair mate may change here; hold the pair lock so
	// two settlements touching the same pair never recompute from stale
	// reads. Lock order is always auction then pair.
	unlockPair := m.pairLocks.lock(flag.MunicipalityID)
	defer unlockPair()

	var result *SettlementResult
	err = m.store.RunInTx(ctx, func(ctx context.Context, tx TxStore) error {
		auction, err := tx.AuctionForUpdate(ctx, auctionID)
		if err != nil {
			return err
		}

		now := m.now()

		switch auction.Status {
		case models.AuctionStatusSettled:
			result = storedResult(auction)
			return nil
		case models.AuctionStatusClosing:
		case models.AuctionStatusActive:
			if !closeDue(auction, now) {
				return fmt.Errorf("auction %s has not reached closing time: %w", auction.Code, ErrIllegalStateTransition)
			}
			if _, err := tx.UpdateAuctionStatus(ctx, auctionID, models.AuctionStatusActive, models.AuctionStatusClosing); err != nil {
				return err
			}
		default:
			return fmt.Errorf("auction %s is %s: %w", auction.Code, auction.Status, ErrIllegalStateTransition)
		}

		winning, err := tx.HighestBid(ctx, auctionID)
		if err != nil {
			return err
		}

		var winnerID string
		finalPrice := decimal.Zero
		if winning != nil {
			winnerID = winning.BidderID
			finalPrice = winning.Amount

			if err := tx.UpsertOwnership(ctx, &models.FlagOwnership{
				FlagID:     auction.FlagID,
				UserID:     winnerID,
				AuctionID:  auction.ID,
				AcquiredAt: now,
				CreatedAt:  now,
				UpdatedAt:  now,
			}); err != nil {
				return fmt.Errorf("failed to record ownership: %w", err)
			}

			// The completeness projection and the ownership row must move
			// together; a failure here aborts the transaction so neither is
			// visible.
			if err := m.pairs.Recompute(ctx, tx, auction.FlagID); err != nil {
				return fmt.Errorf("%w: %v", ErrInconsistentPairState, err)
			}
		}

		changed, err := tx.MarkAuctionSettled(ctx, auctionID, winnerID, now)
		if err != nil {
			return err
		}
		if !changed {
			return fmt.Errorf("auction %s left closing state concurrently: %w", auction.Code, ErrIllegalStateTransition)
		}

		result = &SettlementResult{
			AuctionID:  auctionID,
			WinnerID:   winnerID,
			FinalPrice: finalPrice,
			SettledAt:  now,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	slog.Info("Auction settled",
		slog.String("type", "auction"),
		slog.Int64("auction_id", auctionID),
		slog.String("winner_id", result.WinnerID),
		slog.String("final_price", result.FinalPrice.String()))

	return result, nil
}

func storedResult(a *models.Auction) *SettlementResult {
	finalPrice := decimal.Zero
	if a.WinnerID != "" {
		finalPrice = a.CurrentPrice
	}
	return &SettlementResult{
		AuctionID:  a.ID,
		WinnerID:   a.WinnerID,
		FinalPrice: finalPrice,
		SettledAt:  a.SettledAt,
	}
}
