package services

import (
	"context"
	"fmt"

	"github.com/uptrace/bun"

	"github.com/andrii-lazarenko67/NFT-municipal-flag-game-backend/flaggame/database/models"
	"github.com/andrii-lazarenko67/NFT-municipal-flag-game-backend/flaggame/database/repositories"
	"github.com/andrii-lazarenko67/NFT-municipal-flag-game-backend/flaggame/economy/interest"
)

// WantedFlag is a most-wanted ranking entry enriched with catalog data.
type WantedFlag struct {
	FlagID    int64  `json:"flag_id"`
	Name      string `json:"name"`
	Interests int    `json:"interests"`
	Owned     bool   `json:"owned"`
}

// CollectorStanding ranks a user by how much of the catalog they hold.
type CollectorStanding struct {
	UserID        string `json:"user_id"`
	FlagsOwned    int    `json:"flags_owned"`
	CompletePairs int    `json:"complete_pairs"`
}

// RankingService produces the public leaderboards. Everything here is
// read-only and derived; nothing feeds back into auctions or ownership.
type RankingService struct {
	db       *bun.DB
	registry *interest.Registry
	flags    repositories.FlagRepository
}

func NewRankingService(db *bun.DB, registry *interest.Registry, flags repositories.FlagRepository) *RankingService {
	return &RankingService{
		db:       db,
		registry: registry,
		flags:    flags,
	}
}

// MostWanted returns the flags with the most interest entries, newest
// catalog data attached.
func (s *RankingService) MostWanted(ctx context.Context, limit int) ([]WantedFlag, error) {
	counts, err := s.registry.MostWanted(ctx, limit)
	if err != nil {
		return nil, err
	}
	if len(counts) == 0 {
		return nil, nil
	}

	ids := make([]int64, len(counts))
	for i, c := range counts {
		ids[i] = c.FlagID
	}

	var flags []*models.Flag
	err = s.db.NewSelect().
		Model(&flags).
		Where("f.id IN (?)", bun.In(ids)).
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load ranked flags: %w", err)
	}
	byID := make(map[int64]*models.Flag, len(flags))
	for _, f := range flags {
		byID[f.ID] = f
	}

	var owned []int64
	err = s.db.NewSelect().
		Model((*models.FlagOwnership)(nil)).
		Column("flag_id").
		Where("flag_id IN (?)", bun.In(ids)).
		Scan(ctx, &owned)
	if err != nil {
		return nil, fmt.Errorf("failed to load ownership for ranking: %w", err)
	}
	ownedSet := make(map[int64]bool, len(owned))
	for _, id := range owned {
		ownedSet[id] = true
	}

	out := make([]WantedFlag, 0, len(counts))
	for _, c := range counts {
		entry := WantedFlag{
			FlagID:    c.FlagID,
			Interests: c.Count,
			Owned:     ownedSet[c.FlagID],
		}
		if f, ok := byID[c.FlagID]; ok {
			entry.Name = f.Name
		}
		out = append(out, entry)
	}
	return out, nil
}

// TopCollectors ranks users by owned flags, complete pairs breaking ties.
func (s *RankingService) TopCollectors(ctx context.Context, limit int) ([]CollectorStanding, error) {
	if limit <= 0 {
		limit = 10
	}

	var rows []struct {
		UserID        string `bun:"user_id"`
		FlagsOwned    int    `bun:"flags_owned"`
		CompletePairs int    `bun:"complete_pairs"`
	}
	err := s.db.NewSelect().
		Model((*models.FlagOwnership)(nil)).
		ColumnExpr("fo.user_id").
		ColumnExpr("COUNT(*) AS flags_owned").
		ColumnExpr("COUNT(*) FILTER (WHERE f.is_pair_complete) / 2 AS complete_pairs").
		Join("JOIN flags AS f ON f.id = fo.flag_id").
		GroupExpr("fo.user_id").
		OrderExpr("flags_owned DESC, complete_pairs DESC, fo.user_id ASC").
		Limit(limit).
		Scan(ctx, &rows)
	if err != nil {
		return nil, fmt.Errorf("failed to rank collectors: %w", err)
	}

	out := make([]CollectorStanding, len(rows))
	for i, row := range rows {
		out[i] = CollectorStanding(row)
	}
	return out, nil
}
