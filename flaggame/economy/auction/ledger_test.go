package auction_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/andrii-lazarenko67/NFT-municipal-flag-game-backend/flaggame/database/models"
	"github.com/andrii-lazarenko67/NFT-municipal-flag-game-backend/flaggame/economy/auction"
)

// recordBid appends a raw ledger entry, bypassing bid validation, so tests
// can build ledgers with equal amounts.
func recordBid(t *testing.T, env *testEnv, auctionID int64, bidder string, amount int64, at time.Time) {
	t.Helper()
	err := env.store.RecordBid(context.Background(), &models.Bid{
		AuctionID: auctionID,
		BidderID:  bidder,
		Amount:    decimal.NewFromInt(amount),
		Timestamp: at,
	})
	if err != nil {
		t.Fatalf("RecordBid() error = %v", err)
	}
}

func TestHighestBid_TieBreaksOnEarliestTimestamp(t *testing.T) {
	env := newTestEnv(t, auction.Policy{})
	ctx := context.Background()
	a, _, _ := env.openAuction(t, 1, 10, time.Hour)

	base := env.clock.Now()
	recordBid(t, env, a.ID, "late", 20, base.Add(2*time.Minute))
	recordBid(t, env, a.ID, "early", 20, base.Add(time.Minute))
	recordBid(t, env, a.ID, "low", 15, base)

	highest, err := env.manager.HighestBid(ctx, a.ID)
	if err != nil {
		t.Fatalf("HighestBid() error = %v", err)
	}
	if highest.BidderID != "early" {
		t.Errorf("highest bidder = %s, want early (earliest at max amount)", highest.BidderID)
	}
}

func TestBidCursor_OrderAndReset(t *testing.T) {
	env := newTestEnv(t, auction.Policy{})
	ctx := context.Background()
	a, _, _ := env.openAuction(t, 1, 10, time.Hour)

	base := env.clock.Now()
	recordBid(t, env, a.ID, "u1", 15, base)
	recordBid(t, env, a.ID, "u2", 20, base.Add(time.Minute))
	recordBid(t, env, a.ID, "u3", 20, base.Add(2*time.Minute))
	recordBid(t, env, a.ID, "u4", 12, base.Add(3*time.Minute))

	wantOrder := []string{"u2", "u3", "u1", "u4"}

	collect := func() []string {
		cursor := env.manager.AllBids(a.ID)
		var got []string
		for {
			bid, err := cursor.Next(ctx)
			if err != nil {
				t.Fatalf("Next() error = %v", err)
			}
			if bid == nil {
				break
			}
			got = append(got, bid.BidderID)
		}
		return got
	}

	got := collect()
	if len(got) != len(wantOrder) {
		t.Fatalf("cursor yielded %d bids, want %d", len(got), len(wantOrder))
	}
	for i := range wantOrder {
		if got[i] != wantOrder[i] {
			t.Errorf("position %d: got %s, want %s", i, got[i], wantOrder[i])
		}
	}

	// Exhausted cursors keep returning nil.
	cursor := env.manager.AllBids(a.ID)
	for range wantOrder {
		if _, err := cursor.Next(ctx); err != nil {
			t.Fatalf("Next() error = %v", err)
		}
	}
	if bid, _ := cursor.Next(ctx); bid != nil {
		t.Error("exhausted cursor returned a bid")
	}
	if bid, _ := cursor.Next(ctx); bid != nil {
		t.Error("exhausted cursor returned a bid on repeat call")
	}

	// Reset rewinds to the top of the ledger.
	cursor.Reset()
	first, err := cursor.Next(ctx)
	if err != nil {
		t.Fatalf("Next() after Reset error = %v", err)
	}
	if first == nil || first.BidderID != wantOrder[0] {
		t.Errorf("after Reset got %v, want %s", first, wantOrder[0])
	}
}

func TestBidCursor_EmptyLedger(t *testing.T) {
	env := newTestEnv(t, auction.Policy{})
	a, _, _ := env.openAuction(t, 1, 10, time.Hour)

	cursor := env.manager.AllBids(a.ID)
	bid, err := cursor.Next(context.Background())
	if err != nil {
		t.Fatalf("Next() error = %v", err)
	}
	if bid != nil {
		t.Errorf("empty ledger yielded bid %v", bid)
	}
}
