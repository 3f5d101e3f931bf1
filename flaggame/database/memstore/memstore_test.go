package memstore

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/andrii-lazarenko67/NFT-municipal-flag-game-backend/flaggame/database/models"
	"github.com/andrii-lazarenko67/NFT-municipal-flag-game-backend/flaggame/economy/auction"
)

func TestRunInTx_RollsBackOnError(t *testing.T) {
	store := New()
	ctx := context.Background()
	flagID := store.SeedFlag(1, models.FlagVariantFirst, "Day")

	sentinel := errors.New("boom")
	err := store.RunInTx(ctx, func(ctx context.Context, tx auction.TxStore) error {
		a := &models.Auction{
			Code:         "ABC123",
			FlagID:       flagID,
			Status:       models.AuctionStatusActive,
			ReservePrice: decimal.NewFromInt(10),
			CurrentPrice: decimal.NewFromInt(10),
			OpenAt:       time.Now(),
			CloseAt:      time.Now().Add(time.Hour),
		}
		if err := tx.InsertAuction(ctx, a); err != nil {
			return err
		}
		if err := tx.SetPairComplete(ctx, flagID, true); err != nil {
			return err
		}
		return sentinel
	})
	if !errors.Is(err, sentinel) {
		t.Fatalf("RunInTx() error = %v, want sentinel", err)
	}

	if _, err := store.AuctionByCode(ctx, "ABC123"); !errors.Is(err, auction.ErrUnknownAuction) {
		t.Error("auction survived a rolled back transaction")
	}
	flag, err := store.Flag(ctx, flagID)
	if err != nil {
		t.Fatalf("Flag() error = %v", err)
	}
	if flag.IsPairComplete {
		t.Error("flag mutation survived a rolled back transaction")
	}
}

func TestRunInTx_CommitsOnSuccess(t *testing.T) {
	store := New()
	ctx := context.Background()
	flagID := store.SeedFlag(1, models.FlagVariantFirst, "Day")

	err := store.RunInTx(ctx, func(ctx context.Context, tx auction.TxStore) error {
		return tx.SetPairComplete(ctx, flagID, true)
	})
	if err != nil {
		t.Fatalf("RunInTx() error = %v", err)
	}

	flag, err := store.Flag(ctx, flagID)
	if err != nil {
		t.Fatalf("Flag() error = %v", err)
	}
	if !flag.IsPairComplete {
		t.Error("committed mutation not visible")
	}
}

func TestReadsReturnCopies(t *testing.T) {
	store := New()
	ctx := context.Background()
	flagID := store.SeedFlag(1, models.FlagVariantFirst, "Day")

	flag, _ := store.Flag(ctx, flagID)
	flag.Name = "mutated"

	again, _ := store.Flag(ctx, flagID)
	if again.Name != "Day" {
		t.Error("caller mutation leaked into the store")
	}
}
