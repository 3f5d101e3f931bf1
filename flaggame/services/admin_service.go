package services

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/andrii-lazarenko67/NFT-municipal-flag-game-backend/flaggame/database"
	"github.com/andrii-lazarenko67/NFT-municipal-flag-game-backend/flaggame/database/repositories"
	"github.com/andrii-lazarenko67/NFT-municipal-flag-game-backend/flaggame/economy/auction"
)

// ErrAdminKeyMismatch is returned for every failed admin verification; the
// caller learns nothing about which part of the check failed.
var ErrAdminKeyMismatch = errors.New("admin key mismatch")

// AdminService gates the destructive and statistical operations behind a
// shared admin key. Every public method takes the presented key; there is no
// session state to leak.
type AdminService struct {
	key     string
	db      *database.DB
	stats   repositories.StatsRepository
	manager *auction.Manager
}

func NewAdminService(key string, db *database.DB, stats repositories.StatsRepository, manager *auction.Manager) *AdminService {
	if key == "" {
		panic("admin key cannot be empty")
	}
	return &AdminService{
		key:     key,
		db:      db,
		stats:   stats,
		manager: manager,
	}
}

// Verify checks the presented key in constant time.
func (s *AdminService) Verify(presented string) error {
	if subtle.ConstantTimeCompare([]byte(s.key), []byte(presented)) != 1 {
		return ErrAdminKeyMismatch
	}
	return nil
}

// Stats returns a catalog and economy snapshot.
func (s *AdminService) Stats(ctx context.Context, adminKey string) (*repositories.GameStats, error) {
	if err := s.Verify(adminKey); err != nil {
		return nil, err
	}
	return s.stats.Snapshot(ctx)
}

// MediaStatus reports artwork and metadata coverage over the flag catalog.
func (s *AdminService) MediaStatus(ctx context.Context, adminKey string) (*repositories.MediaStatus, error) {
	if err := s.Verify(adminKey); err != nil {
		return nil, err
	}
	return s.stats.MediaStatus(ctx)
}

// SeedDemo loads the demo catalog into an empty database and returns the
// number of flags created. Zero means the catalog was already populated.
func (s *AdminService) SeedDemo(ctx context.Context, adminKey string) (int, error) {
	if err := s.Verify(adminKey); err != nil {
		return 0, err
	}
	return database.SeedDemoCatalog(ctx, s.db)
}

// Reset truncates all game state. Catalog, users, auctions, bids, ownership
// and interests are gone afterwards; the schema survives.
func (s *AdminService) Reset(ctx context.Context, adminKey string) error {
	if err := s.Verify(adminKey); err != nil {
		return err
	}

	start := time.Now()
	if err := s.db.ResetAppTables(ctx); err != nil {
		return fmt.Errorf("failed to reset game state: %w", err)
	}

	slog.Warn("Game state reset",
		slog.String("type", "admin"),
		slog.Duration("took", time.Since(start)))
	return nil
}

// TransferOwnership grants a flag to a user outside the auction flow, for
// example to correct a mistaken settlement. Pair completeness is recomputed
// in the same transaction.
func (s *AdminService) TransferOwnership(ctx context.Context, adminKey string, flagID int64, userID string) error {
	if err := s.Verify(adminKey); err != nil {
		return err
	}

	if err := s.manager.TransferOwnership(ctx, flagID, userID); err != nil {
		return err
	}

	slog.Info("Ownership transferred administratively",
		slog.String("type", "admin"),
		slog.Int64("flag_id", flagID),
		slog.String("user_id", userID))
	return nil
}
