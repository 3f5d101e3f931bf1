package auction

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"github.com/andrii-lazarenko67/NFT-municipal-flag-game-backend/flaggame/database/models"
	"github.com/andrii-lazarenko67/NFT-municipal-flag-game-backend/flaggame/economy/pairing"
)

// Policy carries the configurable game rules the engine does not hardcode.
type Policy struct {
	PairRule pairing.Rule

	// AllowPairCompletionBids permits bidding on a flag whose pair mate the
	// bidder already owns. When false such bids fail with ErrSelfOwnedAsset.
	AllowPairCompletionBids bool
}

// Manager is the auction engine entry point used by the router layer. All
// state-changing operations on one auction serialize through a per-auction
// lock plus a serializable transaction; operations on distinct auctions are
// independent.
type Manager struct {
	store  Store
	pairs  *pairing.Tracker
	policy Policy

	auctionLocks keyedLocks
	pairLocks    keyedLocks

	codes *codeGenerator
	now   func() time.Time
}

func NewManager(store Store, tracker *pairing.Tracker, policy Policy) *Manager {
	if store == nil {
		panic("auction store cannot be nil")
	}
	if tracker == nil {
		panic("pair tracker cannot be nil")
	}

	return &Manager{
		store:  store,
		pairs:  tracker,
		policy: policy,
		codes:  newCodeGenerator(),
		now:    time.Now,
	}
}

// CreateAuction opens a timed sale of one flag. A zero openAt opens the
// auction immediately.
func (m *Manager) CreateAuction(ctx context.Context, flagID int64, openAt, closeAt time.Time, reserve decimal.Decimal) (*models.Auction, error) {
	now := m.now()
	if openAt.IsZero() {
		openAt = now
	}
	if !closeAt.After(openAt) {
		return nil, fmt.Errorf("%w: closing time must be after opening time", ErrIllegalStateTransition)
	}
	if closeAt.Before(now) {
		return nil, fmt.Errorf("%w: closing time is in the past", ErrIllegalStateTransition)
	}
	if reserve.IsNegative() {
		return nil, fmt.Errorf("%w: reserve price cannot be negative", ErrBidTooLow)
	}

	code, err := m.codes.next()
	if err != nil {
		return nil, fmt.Errorf("failed to generate auction code: %w", err)
	}

	var auction *models.Auction
	err = m.store.RunInTx(ctx, func(ctx context.Context, tx TxStore) error {
		if _, err := tx.Flag(ctx, flagID); err != nil {
			return err
		}

		open, err := tx.OpenAuctionByFlag(ctx, flagID)
		if err != nil {
			return err
		}
		if open != nil {
			return fmt.Errorf("%w: auction %s", ErrAuctionExists, open.Code)
		}

		auction = &models.Auction{
			Code:         code,
			FlagID:       flagID,
			Status:       initialStatus(openAt, now),
			ReservePrice: reserve,
			CurrentPrice: reserve,
			OpenAt:       openAt,
			CloseAt:      closeAt,
			CreatedAt:    now,
			UpdatedAt:    now,
		}
		return tx.InsertAuction(ctx, auction)
	})
	if err != nil {
		return nil, err
	}

	slog.Info("Auction created",
		slog.String("type", "auction"),
		slog.String("code", auction.Code),
		slog.Int64("flag_id", flagID),
		slog.String("status", string(auction.Status)),
		slog.String("reserve", reserve.String()))

	return auction, nil
}

// PlaceBid validates and durably appends a bid. The bid's acceptance
// timestamp is taken under the per-auction lock, so concurrent submissions
// at the same amount resolve to exactly one acceptance.
func (m *Manager) PlaceBid(ctx context.Context, auctionID int64, bidderID string, amount decimal.Decimal) (*models.Bid, error) {
	unlock := m.auctionLocks.lock(auctionID)
	defer unlock()

	// Lazy transitions: the clock, not the sweep, is authoritative. They
	// commit in their own transaction so a rejected bid cannot roll back an
	// expiry or activation it observed.
	if err := m.applyDueTransitions(ctx, auctionID); err != nil {
		return nil, err
	}

	var bid *models.Bid
	err := m.store.RunInTx(ctx, func(ctx context.Context, tx TxStore) error {
		auction, err := tx.AuctionForUpdate(ctx, auctionID)
		if err != nil {
			return err
		}

		now := m.now()

		// The closing time may have passed between the transitions above and
		// taking the bid timestamp; the next sweep records the expiry.
		if closeDue(auction, now) {
			return fmt.Errorf("auction %s: %w", auction.Code, ErrAuctionClosed)
		}

		switch auction.Status {
		case models.AuctionStatusActive:
		case models.AuctionStatusClosing:
			return fmt.Errorf("auction %s: %w", auction.Code, ErrAuctionClosed)
		default:
			return fmt.Errorf("auction %s is %s: %w", auction.Code, auction.Status, ErrAuctionNotActive)
		}

		exists, err := tx.UserExists(ctx, bidderID)
		if err != nil {
			return err
		}
		if !exists {
			return fmt.Errorf("bidder %s: %w", bidderID, ErrUnknownUser)
		}

		if err := m.checkSelfOwnership(ctx, tx, auction.FlagID, bidderID); err != nil {
			return err
		}

		highest, err := tx.HighestBid(ctx, auctionID)
		if err != nil {
			return err
		}
		if highest == nil {
			// First bid must meet the reserve.
			if amount.LessThan(auction.ReservePrice) {
				return fmt.Errorf("bid %s below reserve %s: %w", amount, auction.ReservePrice, ErrBidTooLow)
			}
		} else if amount.LessThanOrEqual(highest.Amount) {
			// Ties are not an improvement; first bid at an amount keeps it.
			return fmt.Errorf("bid %s does not exceed %s: %w", amount, highest.Amount, ErrBidTooLow)
		}

		bid = &models.Bid{
			AuctionID: auctionID,
			BidderID:  bidderID,
			Amount:    amount,
			Timestamp: now,
			CreatedAt: now,
		}
		return tx.RecordBid(ctx, bid)
	})
	if err != nil {
		return nil, err
	}

	slog.Info("Bid accepted",
		slog.String("type", "auction"),
		slog.Int64("auction_id", auctionID),
		slog.String("bidder_id", bidderID),
		slog.String("amount", amount.String()))

	return bid, nil
}

// applyDueTransitions commits any clock-driven status changes for one
// auction: a pending auction past its opening time becomes active, an active
// auction past its closing time becomes closing. Callers hold the auction
// lock.
func (m *Manager) applyDueTransitions(ctx context.Context, auctionID int64) error {
	return m.store.RunInTx(ctx, func(ctx context.Context, tx TxStore) error {
		auction, err := tx.AuctionForUpdate(ctx, auctionID)
		if err != nil {
			return err
		}

		now := m.now()
		if openDue(auction, now) {
			if _, err := tx.UpdateAuctionStatus(ctx, auctionID, models.AuctionStatusPending, models.AuctionStatusActive); err != nil {
				return err
			}
			auction.Status = models.AuctionStatusActive
		}
		if closeDue(auction, now) {
			if _, err := tx.UpdateAuctionStatus(ctx, auctionID, models.AuctionStatusActive, models.AuctionStatusClosing); err != nil {
				return err
			}
		}
		return nil
	})
}

func (m *Manager) checkSelfOwnership(ctx context.Context, tx TxStore, flagID int64, bidderID string) error {
	ownership, err := tx.Ownership(ctx, flagID)
	if err != nil {
		return err
	}
	if ownership != nil && ownership.UserID == bidderID {
		return fmt.Errorf("flag %d: %w", flagID, ErrSelfOwnedAsset)
	}

	if m.policy.AllowPairCompletionBids {
		return nil
	}

	flag, err := tx.Flag(ctx, flagID)
	if err != nil {
		return err
	}
	mate, err := tx.PairMate(ctx, flag)
	if err != nil {
		return err
	}
	if mate == nil {
		return nil
	}
	mateOwnership, err := tx.Ownership(ctx, mate.ID)
	if err != nil {
		return err
	}
	if mateOwnership != nil && mateOwnership.UserID == bidderID {
		return fmt.Errorf("pair mate %d: %w", mate.ID, ErrSelfOwnedAsset)
	}
	return nil
}

// CancelAuction is administrative and unconditional except for the terminal
// guard: settled or already cancelled auctions cannot be cancelled.
func (m *Manager) CancelAuction(ctx context.Context, auctionID int64) error {
	unlock := m.auctionLocks.lock(auctionID)
	defer unlock()

	err := m.store.RunInTx(ctx, func(ctx context.Context, tx TxStore) error {
		auction, err := tx.AuctionForUpdate(ctx, auctionID)
		if err != nil {
			return err
		}

		if !canTransition(auction.Status, models.AuctionStatusCancelled) {
			return fmt.Errorf("auction %s is %s: %w", auction.Code, auction.Status, ErrIllegalStateTransition)
		}

		changed, err := tx.UpdateAuctionStatus(ctx, auctionID, auction.Status, models.AuctionStatusCancelled)
		if err != nil {
			return err
		}
		if !changed {
			return fmt.Errorf("auction %s changed state concurrently: %w", auction.Code, ErrIllegalStateTransition)
		}
		return nil
	})
	if err != nil {
		return err
	}

	slog.Info("Auction cancelled",
		slog.String("type", "auction"),
		slog.Int64("auction_id", auctionID))
	return nil
}

func (m *Manager) AuctionByID(ctx context.Context, id int64) (*models.Auction, error) {
	return m.store.AuctionByID(ctx, id)
}

func (m *Manager) AuctionByCode(ctx context.Context, code string) (*models.Auction, error) {
	return m.store.AuctionByCode(ctx, code)
}

// Ownership returns the current owner of a flag, or the empty string when it
// is unowned.
func (m *Manager) Ownership(ctx context.Context, flagID int64) (string, error) {
	if _, err := m.store.Flag(ctx, flagID); err != nil {
		return "", err
	}
	ownership, err := m.store.Ownership(ctx, flagID)
	if err != nil {
		return "", err
	}
	if ownership == nil {
		return "", nil
	}
	return ownership.UserID, nil
}

// PairStatus reads the persisted completeness projection for a flag.
func (m *Manager) PairStatus(ctx context.Context, flagID int64) (bool, error) {
	flag, err := m.store.Flag(ctx, flagID)
	if err != nil {
		return false, err
	}
	return flag.IsPairComplete, nil
}

// TransferOwnership is the administrative owner overwrite. Like settlement
// it recomputes pair completeness in the same transaction, serialized per
// pair.
func (m *Manager) TransferOwnership(ctx context.Context, flagID int64, toUserID string) error {
	flag, err := m.store.Flag(ctx, flagID)
	if err != nil {
		return err
	}

	unlock := m.pairLocks.lock(flag.MunicipalityID)
	defer unlock()

	err = m.store.RunInTx(ctx, func(ctx context.Context, tx TxStore) error {
		exists, err := tx.UserExists(ctx, toUserID)
		if err != nil {
			return err
		}
		if !exists {
			return fmt.Errorf("user %s: %w", toUserID, ErrUnknownUser)
		}

		now := m.now()
		if err := tx.UpsertOwnership(ctx, &models.FlagOwnership{
			FlagID:     flagID,
			UserID:     toUserID,
			AcquiredAt: now,
			CreatedAt:  now,
			UpdatedAt:  now,
		}); err != nil {
			return err
		}

		if err := m.pairs.Recompute(ctx, tx, flagID); err != nil {
			return fmt.Errorf("%w: %v", ErrInconsistentPairState, err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	slog.Info("Ownership transferred",
		slog.String("type", "auction"),
		slog.Int64("flag_id", flagID),
		slog.String("user_id", toUserID))
	return nil
}
