package pairing

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/andrii-lazarenko67/NFT-municipal-flag-game-backend/flaggame/database/models"
)

// Rule selects the pair completeness criterion.
type Rule string

const (
	// RuleSameOwner marks a pair complete only when both variants belong to
	// the same user. This is the default.
	RuleSameOwner Rule = "same-owner"

	// RuleBothOwned marks a pair complete as soon as both variants have any
	// owner.
	RuleBothOwned Rule = "both-owned"
)

func ParseRule(s string) (Rule, error) {
	switch Rule(s) {
	case RuleSameOwner, RuleBothOwned, "":
		if s == "" {
			return RuleSameOwner, nil
		}
		return Rule(s), nil
	default:
		return "", fmt.Errorf("unknown pair rule %q", s)
	}
}

// Complete evaluates the completeness rule over the owners of both pair
// mates. Empty string means the flag is unowned.
func Complete(rule Rule, ownerA, ownerB string) bool {
	if rule == RuleBothOwned {
		return ownerA != "" && ownerB != ""
	}
	return ownerA != "" && ownerA == ownerB
}

// Store is the slice of persistence the tracker needs. It is satisfied by
// the auction engine's transaction-bound store, so a recompute always runs
// inside the transaction that changed ownership.
type Store interface {
	Flag(ctx context.Context, id int64) (*models.Flag, error)
	PairMate(ctx context.Context, flag *models.Flag) (*models.Flag, error)
	Ownership(ctx context.Context, flagID int64) (*models.FlagOwnership, error)
	SetPairComplete(ctx context.Context, flagID int64, complete bool) error
}

// Tracker recomputes the derived is_pair_complete projection. It is never
// patched incrementally: every trigger re-reads both mates' current owners
// and rewrites both flags.
type Tracker struct {
	rule Rule
}

func NewTracker(rule Rule) *Tracker {
	return &Tracker{rule: rule}
}

func (t *Tracker) Rule() Rule {
	return t.rule
}

// Recompute re-evaluates completeness for the flag and its pair mate and
// persists the result on both rows. Must be called after every ownership
// write touching either mate.
func (t *Tracker) Recompute(ctx context.Context, store Store, flagID int64) error {
	flag, err := store.Flag(ctx, flagID)
	if err != nil {
		return fmt.Errorf("failed to load flag %d: %w", flagID, err)
	}

	mate, err := store.PairMate(ctx, flag)
	if err != nil {
		return fmt.Errorf("failed to load pair mate of flag %d: %w", flagID, err)
	}

	// A flag without a minted pair mate can never be complete.
	if mate == nil {
		if flag.IsPairComplete {
			if err := store.SetPairComplete(ctx, flag.ID, false); err != nil {
				return fmt.Errorf("failed to clear completeness on flag %d: %w", flag.ID, err)
			}
		}
		return nil
	}

	owner, err := ownerOf(ctx, store, flag.ID)
	if err != nil {
		return err
	}
	mateOwner, err := ownerOf(ctx, store, mate.ID)
	if err != nil {
		return err
	}

	complete := Complete(t.rule, owner, mateOwner)

	if err := store.SetPairComplete(ctx, flag.ID, complete); err != nil {
		return fmt.Errorf("failed to update completeness on flag %d: %w", flag.ID, err)
	}
	if err := store.SetPairComplete(ctx, mate.ID, complete); err != nil {
		return fmt.Errorf("failed to update completeness on flag %d: %w", mate.ID, err)
	}

	if complete != flag.IsPairComplete {
		slog.Info("Pair completeness changed",
			slog.Int64("flag_id", flag.ID),
			slog.Int64("mate_id", mate.ID),
			slog.Bool("complete", complete))
	}

	return nil
}

func ownerOf(ctx context.Context, store Store, flagID int64) (string, error) {
	ownership, err := store.Ownership(ctx, flagID)
	if err != nil {
		return "", fmt.Errorf("failed to load ownership of flag %d: %w", flagID, err)
	}
	if ownership == nil {
		return "", nil
	}
	return ownership.UserID, nil
}
