package pairing_test

import (
	"context"
	"testing"
	"time"

	"github.com/andrii-lazarenko67/NFT-municipal-flag-game-backend/flaggame/database/memstore"
	"github.com/andrii-lazarenko67/NFT-municipal-flag-game-backend/flaggame/database/models"
	"github.com/andrii-lazarenko67/NFT-municipal-flag-game-backend/flaggame/economy/pairing"
)

func TestComplete(t *testing.T) {
	tests := []struct {
		name   string
		rule   pairing.Rule
		ownerA string
		ownerB string
		want   bool
	}{
		{"same owner rule, same owner", pairing.RuleSameOwner, "alice", "alice", true},
		{"same owner rule, different owners", pairing.RuleSameOwner, "alice", "bob", false},
		{"same owner rule, one unowned", pairing.RuleSameOwner, "alice", "", false},
		{"same owner rule, both unowned", pairing.RuleSameOwner, "", "", false},
		{"both owned rule, different owners", pairing.RuleBothOwned, "alice", "bob", true},
		{"both owned rule, same owner", pairing.RuleBothOwned, "alice", "alice", true},
		{"both owned rule, one unowned", pairing.RuleBothOwned, "alice", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := pairing.Complete(tt.rule, tt.ownerA, tt.ownerB); got != tt.want {
				t.Errorf("Complete(%s, %q, %q) = %v, want %v", tt.rule, tt.ownerA, tt.ownerB, got, tt.want)
			}
		})
	}
}

func TestParseRule(t *testing.T) {
	if rule, err := pairing.ParseRule(""); err != nil || rule != pairing.RuleSameOwner {
		t.Errorf("ParseRule(\"\") = %v, %v; want same-owner default", rule, err)
	}
	if rule, err := pairing.ParseRule("both-owned"); err != nil || rule != pairing.RuleBothOwned {
		t.Errorf("ParseRule(both-owned) = %v, %v", rule, err)
	}
	if _, err := pairing.ParseRule("nonsense"); err == nil {
		t.Error("ParseRule(nonsense) succeeded, want error")
	}
}

func own(t *testing.T, store *memstore.Store, flagID int64, userID string) {
	t.Helper()
	err := store.UpsertOwnership(context.Background(), &models.FlagOwnership{
		FlagID:     flagID,
		UserID:     userID,
		AcquiredAt: time.Now(),
	})
	if err != nil {
		t.Fatalf("UpsertOwnership() error = %v", err)
	}
}

func pairComplete(t *testing.T, store *memstore.Store, flagID int64) bool {
	t.Helper()
	flag, err := store.Flag(context.Background(), flagID)
	if err != nil {
		t.Fatalf("Flag() error = %v", err)
	}
	return flag.IsPairComplete
}

func TestRecompute_MarksBothMates(t *testing.T) {
	store := memstore.New()
	tracker := pairing.NewTracker(pairing.RuleSameOwner)
	ctx := context.Background()

	first, second := store.SeedPair(1, "Day", "Night")

	own(t, store, first, "alice")
	if err := tracker.Recompute(ctx, store, first); err != nil {
		t.Fatalf("Recompute() error = %v", err)
	}
	if pairComplete(t, store, first) || pairComplete(t, store, second) {
		t.Error("pair marked complete with only one mate owned")
	}

	own(t, store, second, "alice")
	if err := tracker.Recompute(ctx, store, second); err != nil {
		t.Fatalf("Recompute() error = %v", err)
	}
	if !pairComplete(t, store, first) || !pairComplete(t, store, second) {
		t.Error("both mates should be complete once alice owns the pair")
	}

	// Ownership moving to another user breaks the pair again.
	own(t, store, second, "bob")
	if err := tracker.Recompute(ctx, store, second); err != nil {
		t.Fatalf("Recompute() error = %v", err)
	}
	if pairComplete(t, store, first) || pairComplete(t, store, second) {
		t.Error("pair still complete after ownership split")
	}
}

func TestRecompute_BothOwnedRule(t *testing.T) {
	store := memstore.New()
	tracker := pairing.NewTracker(pairing.RuleBothOwned)
	ctx := context.Background()

	first, second := store.SeedPair(1, "Day", "Night")
	own(t, store, first, "alice")
	own(t, store, second, "bob")

	if err := tracker.Recompute(ctx, store, first); err != nil {
		t.Fatalf("Recompute() error = %v", err)
	}
	if !pairComplete(t, store, first) || !pairComplete(t, store, second) {
		t.Error("pair should be complete under both-owned rule with distinct owners")
	}
}

func TestRecompute_UnpairedFlag(t *testing.T) {
	store := memstore.New()
	tracker := pairing.NewTracker(pairing.RuleSameOwner)
	ctx := context.Background()

	solo := store.SeedFlag(1, models.FlagVariantFirst, "Lonely Flag")
	own(t, store, solo, "alice")

	if err := tracker.Recompute(ctx, store, solo); err != nil {
		t.Fatalf("Recompute() error = %v", err)
	}
	if pairComplete(t, store, solo) {
		t.Error("flag without a minted mate can never be complete")
	}
}
