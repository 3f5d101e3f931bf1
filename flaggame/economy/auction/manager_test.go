package auction_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/andrii-lazarenko67/NFT-municipal-flag-game-backend/flaggame/database/memstore"
	"github.com/andrii-lazarenko67/NFT-municipal-flag-game-backend/flaggame/database/models"
	"github.com/andrii-lazarenko67/NFT-municipal-flag-game-backend/flaggame/economy/auction"
	"github.com/andrii-lazarenko67/NFT-municipal-flag-game-backend/flaggame/economy/pairing"
)

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

type testEnv struct {
	store   *memstore.Store
	manager *auction.Manager
	clock   *fakeClock
}

func newTestEnv(t *testing.T, policy auction.Policy) *testEnv {
	t.Helper()
	if policy.PairRule == "" {
		policy.PairRule = pairing.RuleSameOwner
	}

	store := memstore.New()
	manager := auction.NewManager(store, pairing.NewTracker(policy.PairRule), policy)
	clock := newFakeClock()
	auction.SetClock(manager, clock.Now)

	return &testEnv{store: store, manager: manager, clock: clock}
}

// openAuction creates an immediately active auction over a fresh flag pair
// and returns the auction plus both flag IDs.
func (e *testEnv) openAuction(t *testing.T, municipalityID int64, reserve int64, duration time.Duration) (*models.Auction, int64, int64) {
	t.Helper()
	first, second := e.store.SeedPair(municipalityID, "First Flag", "Second Flag")
	a, err := e.manager.CreateAuction(context.Background(), first, time.Time{}, e.clock.Now().Add(duration), decimal.NewFromInt(reserve))
	if err != nil {
		t.Fatalf("CreateAuction() error = %v", err)
	}
	return a, first, second
}

func TestCreateAuction(t *testing.T) {
	env := newTestEnv(t, auction.Policy{})
	ctx := context.Background()
	flagID, _ := env.store.SeedPair(1, "Day", "Night")

	t.Run("immediate open is active", func(t *testing.T) {
		a, err := env.manager.CreateAuction(ctx, flagID, time.Time{}, env.clock.Now().Add(time.Hour), decimal.NewFromInt(10))
		if err != nil {
			t.Fatalf("CreateAuction() error = %v", err)
		}
		if a.Status != models.AuctionStatusActive {
			t.Errorf("status = %s, want active", a.Status)
		}
		if a.Code == "" {
			t.Error("auction has no public code")
		}
	})

	t.Run("second open auction on same flag rejected", func(t *testing.T) {
		_, err := env.manager.CreateAuction(ctx, flagID, time.Time{}, env.clock.Now().Add(time.Hour), decimal.NewFromInt(10))
		if !errors.Is(err, auction.ErrAuctionExists) {
			t.Errorf("error = %v, want ErrAuctionExists", err)
		}
	})

	t.Run("future open is pending", func(t *testing.T) {
		otherFlag, _ := env.store.SeedPair(2, "Day", "Night")
		a, err := env.manager.CreateAuction(ctx, otherFlag,
			env.clock.Now().Add(time.Hour), env.clock.Now().Add(2*time.Hour), decimal.NewFromInt(10))
		if err != nil {
			t.Fatalf("CreateAuction() error = %v", err)
		}
		if a.Status != models.AuctionStatusPending {
			t.Errorf("status = %s, want pending", a.Status)
		}
	})

	t.Run("close before open rejected", func(t *testing.T) {
		otherFlag, _ := env.store.SeedPair(3, "Day", "Night")
		_, err := env.manager.CreateAuction(ctx, otherFlag,
			env.clock.Now().Add(2*time.Hour), env.clock.Now().Add(time.Hour), decimal.NewFromInt(10))
		if !errors.Is(err, auction.ErrIllegalStateTransition) {
			t.Errorf("error = %v, want ErrIllegalStateTransition", err)
		}
	})

	t.Run("unknown flag rejected", func(t *testing.T) {
		_, err := env.manager.CreateAuction(ctx, 9999, time.Time{}, env.clock.Now().Add(time.Hour), decimal.NewFromInt(10))
		if !errors.Is(err, auction.ErrUnknownFlag) {
			t.Errorf("error = %v, want ErrUnknownFlag", err)
		}
	})
}

func TestPlaceBid_ReserveAndRaises(t *testing.T) {
	env := newTestEnv(t, auction.Policy{})
	ctx := context.Background()
	env.store.SeedUser("alice", "Alice")
	env.store.SeedUser("bob", "Bob")

	a, _, _ := env.openAuction(t, 1, 10, time.Hour)

	if _, err := env.manager.PlaceBid(ctx, a.ID, "alice", decimal.NewFromInt(5)); !errors.Is(err, auction.ErrBidTooLow) {
		t.Errorf("bid below reserve: error = %v, want ErrBidTooLow", err)
	}

	// A first bid exactly at the reserve is accepted.
	if _, err := env.manager.PlaceBid(ctx, a.ID, "alice", decimal.NewFromInt(10)); err != nil {
		t.Fatalf("bid at reserve: error = %v", err)
	}

	// Matching the standing highest is not an improvement.
	if _, err := env.manager.PlaceBid(ctx, a.ID, "bob", decimal.NewFromInt(10)); !errors.Is(err, auction.ErrBidTooLow) {
		t.Errorf("equal bid: error = %v, want ErrBidTooLow", err)
	}

	bid, err := env.manager.PlaceBid(ctx, a.ID, "bob", decimal.NewFromInt(12))
	if err != nil {
		t.Fatalf("raising bid: error = %v", err)
	}
	if bid.BidderID != "bob" {
		t.Errorf("bidder = %s, want bob", bid.BidderID)
	}

	highest, err := env.manager.HighestBid(ctx, a.ID)
	if err != nil {
		t.Fatalf("HighestBid() error = %v", err)
	}
	if highest.BidderID != "bob" || !highest.Amount.Equal(decimal.NewFromInt(12)) {
		t.Errorf("highest = %s/%s, want bob/12", highest.BidderID, highest.Amount)
	}

	got, err := env.manager.AuctionByID(ctx, a.ID)
	if err != nil {
		t.Fatalf("AuctionByID() error = %v", err)
	}
	if got.BidCount != 2 {
		t.Errorf("bid count = %d, want 2", got.BidCount)
	}
	if !got.CurrentPrice.Equal(decimal.NewFromInt(12)) {
		t.Errorf("current price = %s, want 12", got.CurrentPrice)
	}
}

func TestPlaceBid_Rejections(t *testing.T) {
	env := newTestEnv(t, auction.Policy{})
	ctx := context.Background()
	env.store.SeedUser("alice", "Alice")

	t.Run("unknown bidder", func(t *testing.T) {
		a, _, _ := env.openAuction(t, 1, 10, time.Hour)
		_, err := env.manager.PlaceBid(ctx, a.ID, "nobody", decimal.NewFromInt(20))
		if !errors.Is(err, auction.ErrUnknownUser) {
			t.Errorf("error = %v, want ErrUnknownUser", err)
		}
	})

	t.Run("pending auction", func(t *testing.T) {
		flagID, _ := env.store.SeedPair(2, "Day", "Night")
		a, err := env.manager.CreateAuction(ctx, flagID,
			env.clock.Now().Add(time.Hour), env.clock.Now().Add(2*time.Hour), decimal.NewFromInt(10))
		if err != nil {
			t.Fatalf("CreateAuction() error = %v", err)
		}
		_, err = env.manager.PlaceBid(ctx, a.ID, "alice", decimal.NewFromInt(20))
		if !errors.Is(err, auction.ErrAuctionNotActive) {
			t.Errorf("error = %v, want ErrAuctionNotActive", err)
		}
	})

	t.Run("bid at closing time", func(t *testing.T) {
		a, _, _ := env.openAuction(t, 3, 10, time.Hour)
		env.clock.Advance(time.Hour)

		_, err := env.manager.PlaceBid(ctx, a.ID, "alice", decimal.NewFromInt(20))
		if !errors.Is(err, auction.ErrAuctionClosed) {
			t.Errorf("error = %v, want ErrAuctionClosed", err)
		}

		// The rejection also moved the auction into closing.
		got, err := env.manager.AuctionByID(ctx, a.ID)
		if err != nil {
			t.Fatalf("AuctionByID() error = %v", err)
		}
		if got.Status != models.AuctionStatusClosing {
			t.Errorf("status = %s, want closing", got.Status)
		}
	})

	t.Run("unknown auction", func(t *testing.T) {
		_, err := env.manager.PlaceBid(ctx, 9999, "alice", decimal.NewFromInt(20))
		if !errors.Is(err, auction.ErrUnknownAuction) {
			t.Errorf("error = %v, want ErrUnknownAuction", err)
		}
	})

	t.Run("rejected bid keeps the lazy activation", func(t *testing.T) {
		flagID, _ := env.store.SeedPair(4, "Day", "Night")
		a, err := env.manager.CreateAuction(ctx, flagID,
			env.clock.Now().Add(30*time.Minute), env.clock.Now().Add(2*time.Hour), decimal.NewFromInt(10))
		if err != nil {
			t.Fatalf("CreateAuction() error = %v", err)
		}
		env.clock.Advance(30 * time.Minute)

		_, err = env.manager.PlaceBid(ctx, a.ID, "alice", decimal.NewFromInt(5))
		if !errors.Is(err, auction.ErrBidTooLow) {
			t.Errorf("error = %v, want ErrBidTooLow", err)
		}

		got, err := env.manager.AuctionByID(ctx, a.ID)
		if err != nil {
			t.Fatalf("AuctionByID() error = %v", err)
		}
		if got.Status != models.AuctionStatusActive {
			t.Errorf("status = %s, want active", got.Status)
		}
	})
}

func TestPlaceBid_SelfOwnership(t *testing.T) {
	ctx := context.Background()

	t.Run("owner of the flag cannot bid", func(t *testing.T) {
		env := newTestEnv(t, auction.Policy{})
		env.store.SeedUser("alice", "Alice")
		a, flagID, _ := env.openAuction(t, 1, 10, time.Hour)

		if err := env.manager.TransferOwnership(ctx, flagID, "alice"); err != nil {
			t.Fatalf("TransferOwnership() error = %v", err)
		}
		_, err := env.manager.PlaceBid(ctx, a.ID, "alice", decimal.NewFromInt(20))
		if !errors.Is(err, auction.ErrSelfOwnedAsset) {
			t.Errorf("error = %v, want ErrSelfOwnedAsset", err)
		}
	})

	t.Run("mate owner blocked by default", func(t *testing.T) {
		env := newTestEnv(t, auction.Policy{})
		env.store.SeedUser("alice", "Alice")
		a, _, mateID := env.openAuction(t, 1, 10, time.Hour)

		if err := env.manager.TransferOwnership(ctx, mateID, "alice"); err != nil {
			t.Fatalf("TransferOwnership() error = %v", err)
		}
		_, err := env.manager.PlaceBid(ctx, a.ID, "alice", decimal.NewFromInt(20))
		if !errors.Is(err, auction.ErrSelfOwnedAsset) {
			t.Errorf("error = %v, want ErrSelfOwnedAsset", err)
		}
	})

	t.Run("mate owner allowed under pair completion policy", func(t *testing.T) {
		env := newTestEnv(t, auction.Policy{AllowPairCompletionBids: true})
		env.store.SeedUser("alice", "Alice")
		a, _, mateID := env.openAuction(t, 1, 10, time.Hour)

		if err := env.manager.TransferOwnership(ctx, mateID, "alice"); err != nil {
			t.Fatalf("TransferOwnership() error = %v", err)
		}
		if _, err := env.manager.PlaceBid(ctx, a.ID, "alice", decimal.NewFromInt(20)); err != nil {
			t.Errorf("pair completion bid rejected: %v", err)
		}
	})
}

func TestPlaceBid_ConcurrentEqualAmounts(t *testing.T) {
	env := newTestEnv(t, auction.Policy{})
	ctx := context.Background()
	a, _, _ := env.openAuction(t, 1, 10, time.Hour)

	const bidders = 16
	for i := 0; i < bidders; i++ {
		env.store.SeedUser(string(rune('a'+i)), "User")
	}

	var wg sync.WaitGroup
	accepted := make(chan string, bidders)
	for i := 0; i < bidders; i++ {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			if _, err := env.manager.PlaceBid(ctx, a.ID, id, decimal.NewFromInt(10)); err == nil {
				accepted <- id
			}
		}(string(rune('a' + i)))
	}
	wg.Wait()
	close(accepted)

	var winners []string
	for id := range accepted {
		winners = append(winners, id)
	}
	if len(winners) != 1 {
		t.Fatalf("accepted %d equal bids, want exactly 1 (%v)", len(winners), winners)
	}

	highest, err := env.manager.HighestBid(ctx, a.ID)
	if err != nil {
		t.Fatalf("HighestBid() error = %v", err)
	}
	if highest.BidderID != winners[0] {
		t.Errorf("highest bidder = %s, want %s", highest.BidderID, winners[0])
	}
}

func TestCancelAuction(t *testing.T) {
	env := newTestEnv(t, auction.Policy{})
	ctx := context.Background()

	a, _, _ := env.openAuction(t, 1, 10, time.Hour)
	if err := env.manager.CancelAuction(ctx, a.ID); err != nil {
		t.Fatalf("CancelAuction() error = %v", err)
	}

	got, err := env.manager.AuctionByID(ctx, a.ID)
	if err != nil {
		t.Fatalf("AuctionByID() error = %v", err)
	}
	if got.Status != models.AuctionStatusCancelled {
		t.Errorf("status = %s, want cancelled", got.Status)
	}

	if err := env.manager.CancelAuction(ctx, a.ID); !errors.Is(err, auction.ErrIllegalStateTransition) {
		t.Errorf("second cancel: error = %v, want ErrIllegalStateTransition", err)
	}
}

func TestOwnershipAndPairStatus(t *testing.T) {
	env := newTestEnv(t, auction.Policy{})
	ctx := context.Background()
	env.store.SeedUser("alice", "Alice")
	first, second := env.store.SeedPair(1, "Day", "Night")

	owner, err := env.manager.Ownership(ctx, first)
	if err != nil {
		t.Fatalf("Ownership() error = %v", err)
	}
	if owner != "" {
		t.Errorf("owner = %q, want unowned", owner)
	}

	if err := env.manager.TransferOwnership(ctx, first, "alice"); err != nil {
		t.Fatalf("TransferOwnership() error = %v", err)
	}
	if err := env.manager.TransferOwnership(ctx, second, "alice"); err != nil {
		t.Fatalf("TransferOwnership() error = %v", err)
	}

	for _, flagID := range []int64{first, second} {
		complete, err := env.manager.PairStatus(ctx, flagID)
		if err != nil {
			t.Fatalf("PairStatus(%d) error = %v", flagID, err)
		}
		if !complete {
			t.Errorf("flag %d not marked pair complete", flagID)
		}
	}
}
