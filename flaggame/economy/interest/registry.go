package interest

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/andrii-lazarenko67/NFT-municipal-flag-game-backend/flaggame/database/models"
)

// FlagCount pairs a flag with the number of users interested in it.
type FlagCount struct {
	FlagID int64
	Count  int
}

// Repository is the interest ledger persistence surface.
type Repository interface {
	// Upsert records an interest if it does not already exist. Recording the
	// same (user, flag) twice leaves one logical row.
	Upsert(ctx context.Context, userID string, flagID int64) error
	Remove(ctx context.Context, userID string, flagID int64) error
	Exists(ctx context.Context, userID string, flagID int64) (bool, error)
	GetByUserID(ctx context.Context, userID string) ([]*models.FlagInterest, error)
	CountByFlag(ctx context.Context, flagID int64) (int, error)
	TopFlags(ctx context.Context, limit int) ([]FlagCount, error)
}

// Registry is the non-authoritative wishlist ledger. It never touches
// auctions or ownership; its writes commute, so no per-key serialization is
// needed. Only ranking and statistics consumers read it.
type Registry struct {
	repo Repository
}

func NewRegistry(repo Repository) *Registry {
	if repo == nil {
		panic("interest repository cannot be nil")
	}
	return &Registry{repo: repo}
}

// RecordInterest is additive and idempotent.
func (r *Registry) RecordInterest(ctx context.Context, userID string, flagID int64) error {
	if err := r.repo.Upsert(ctx, userID, flagID); err != nil {
		return fmt.Errorf("failed to record interest: %w", err)
	}

	slog.Debug("Interest recorded",
		slog.String("user_id", userID),
		slog.Int64("flag_id", flagID))
	return nil
}

func (r *Registry) RemoveInterest(ctx context.Context, userID string, flagID int64) error {
	if err := r.repo.Remove(ctx, userID, flagID); err != nil {
		return fmt.Errorf("failed to remove interest: %w", err)
	}
	return nil
}

func (r *Registry) HasInterest(ctx context.Context, userID string, flagID int64) (bool, error) {
	return r.repo.Exists(ctx, userID, flagID)
}

func (r *Registry) UserInterests(ctx context.Context, userID string) ([]*models.FlagInterest, error) {
	return r.repo.GetByUserID(ctx, userID)
}

func (r *Registry) InterestCount(ctx context.Context, flagID int64) (int, error) {
	return r.repo.CountByFlag(ctx, flagID)
}

// MostWanted returns the flags with the most interest records, feeding the
// ranking consumers.
func (r *Registry) MostWanted(ctx context.Context, limit int) ([]FlagCount, error) {
	if limit <= 0 {
		limit = 10
	}
	return r.repo.TopFlags(ctx, limit)
}
