package auction_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/andrii-lazarenko67/NFT-municipal-flag-game-backend/flaggame/database/models"
	"github.com/andrii-lazarenko67/NFT-municipal-flag-game-backend/flaggame/economy/auction"
)

func TestSettle_WinnerTakesOwnership(t *testing.T) {
	env := newTestEnv(t, auction.Policy{})
	ctx := context.Background()
	env.store.SeedUser("alice", "Alice")
	env.store.SeedUser("bob", "Bob")

	a, flagID, _ := env.openAuction(t, 1, 10, time.Hour)

	if _, err := env.manager.PlaceBid(ctx, a.ID, "alice", decimal.NewFromInt(10)); err != nil {
		t.Fatalf("first bid: %v", err)
	}
	if _, err := env.manager.PlaceBid(ctx, a.ID, "bob", decimal.NewFromInt(12)); err != nil {
		t.Fatalf("second bid: %v", err)
	}

	env.clock.Advance(2 * time.Hour)

	result, err := env.manager.Settle(ctx, a.ID)
	if err != nil {
		t.Fatalf("Settle() error = %v", err)
	}
	if result.WinnerID != "bob" {
		t.Errorf("winner = %s, want bob", result.WinnerID)
	}
	if !result.FinalPrice.Equal(decimal.NewFromInt(12)) {
		t.Errorf("final price = %s, want 12", result.FinalPrice)
	}

	owner, err := env.manager.Ownership(ctx, flagID)
	if err != nil {
		t.Fatalf("Ownership() error = %v", err)
	}
	if owner != "bob" {
		t.Errorf("owner = %s, want bob", owner)
	}

	got, err := env.manager.AuctionByID(ctx, a.ID)
	if err != nil {
		t.Fatalf("AuctionByID() error = %v", err)
	}
	if got.Status != models.AuctionStatusSettled {
		t.Errorf("status = %s, want settled", got.Status)
	}
	if got.WinnerID != "bob" {
		t.Errorf("recorded winner = %s, want bob", got.WinnerID)
	}
}

func TestSettle_Idempotent(t *testing.T) {
	env := newTestEnv(t, auction.Policy{})
	ctx := context.Background()
	env.store.SeedUser("alice", "Alice")

	a, _, _ := env.openAuction(t, 1, 10, time.Hour)
	if _, err := env.manager.PlaceBid(ctx, a.ID, "alice", decimal.NewFromInt(15)); err != nil {
		t.Fatalf("bid: %v", err)
	}

	env.clock.Advance(2 * time.Hour)

	first, err := env.manager.Settle(ctx, a.ID)
	if err != nil {
		t.Fatalf("first Settle() error = %v", err)
	}

	// A later retry must return the stored outcome, not re-settle.
	env.clock.Advance(time.Minute)
	second, err := env.manager.Settle(ctx, a.ID)
	if err != nil {
		t.Fatalf("second Settle() error = %v", err)
	}
	if second.WinnerID != first.WinnerID {
		t.Errorf("winner changed across settlements: %s vs %s", first.WinnerID, second.WinnerID)
	}
	if !second.FinalPrice.Equal(first.FinalPrice) {
		t.Errorf("price changed across settlements: %s vs %s", first.FinalPrice, second.FinalPrice)
	}
	if !second.SettledAt.Equal(first.SettledAt) {
		t.Errorf("settlement time changed: %s vs %s", first.SettledAt, second.SettledAt)
	}
}

func TestSettle_NoBids(t *testing.T) {
	env := newTestEnv(t, auction.Policy{})
	ctx := context.Background()

	a, flagID, _ := env.openAuction(t, 1, 10, time.Hour)
	env.clock.Advance(2 * time.Hour)

	result, err := env.manager.Settle(ctx, a.ID)
	if err != nil {
		t.Fatalf("Settle() error = %v", err)
	}
	if result.WinnerID != "" {
		t.Errorf("winner = %q, want none", result.WinnerID)
	}
	if !result.FinalPrice.IsZero() {
		t.Errorf("final price = %s, want 0", result.FinalPrice)
	}

	owner, err := env.manager.Ownership(ctx, flagID)
	if err != nil {
		t.Fatalf("Ownership() error = %v", err)
	}
	if owner != "" {
		t.Errorf("flag has owner %s after zero-bid settlement", owner)
	}

	got, err := env.manager.AuctionByID(ctx, a.ID)
	if err != nil {
		t.Fatalf("AuctionByID() error = %v", err)
	}
	if got.Status != models.AuctionStatusSettled {
		t.Errorf("status = %s, want settled", got.Status)
	}
}

func TestSettle_BeforeCloseRejected(t *testing.T) {
	env := newTestEnv(t, auction.Policy{})
	ctx := context.Background()

	a, _, _ := env.openAuction(t, 1, 10, time.Hour)

	_, err := env.manager.Settle(ctx, a.ID)
	if !errors.Is(err, auction.ErrIllegalStateTransition) {
		t.Errorf("error = %v, want ErrIllegalStateTransition", err)
	}
}

func TestSettle_CompletesPair(t *testing.T) {
	env := newTestEnv(t, auction.Policy{AllowPairCompletionBids: true})
	ctx := context.Background()
	env.store.SeedUser("alice", "Alice")

	a, flagID, mateID := env.openAuction(t, 1, 10, time.Hour)

	// Alice already holds the mate; winning the auction completes the pair.
	if err := env.manager.TransferOwnership(ctx, mateID, "alice"); err != nil {
		t.Fatalf("TransferOwnership() error = %v", err)
	}
	if _, err := env.manager.PlaceBid(ctx, a.ID, "alice", decimal.NewFromInt(10)); err != nil {
		t.Fatalf("bid: %v", err)
	}

	env.clock.Advance(2 * time.Hour)
	if _, err := env.manager.Settle(ctx, a.ID); err != nil {
		t.Fatalf("Settle() error = %v", err)
	}

	for _, id := range []int64{flagID, mateID} {
		complete, err := env.manager.PairStatus(ctx, id)
		if err != nil {
			t.Fatalf("PairStatus(%d) error = %v", id, err)
		}
		if !complete {
			t.Errorf("flag %d not pair complete after settlement", id)
		}
	}
}

func TestSettle_CancelledRejected(t *testing.T) {
	env := newTestEnv(t, auction.Policy{})
	ctx := context.Background()

	a, _, _ := env.openAuction(t, 1, 10, time.Hour)
	if err := env.manager.CancelAuction(ctx, a.ID); err != nil {
		t.Fatalf("CancelAuction() error = %v", err)
	}

	env.clock.Advance(2 * time.Hour)
	_, err := env.manager.Settle(ctx, a.ID)
	if !errors.Is(err, auction.ErrIllegalStateTransition) {
		t.Errorf("error = %v, want ErrIllegalStateTransition", err)
	}
}
