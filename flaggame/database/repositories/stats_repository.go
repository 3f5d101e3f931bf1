package repositories

import (
	"context"
	"fmt"

	"github.com/uptrace/bun"

	"github.com/andrii-lazarenko67/NFT-municipal-flag-game-backend/flaggame/database/models"
)

// GameStats is a point-in-time snapshot of catalog and economy counts.
type GameStats struct {
	Countries      int64 `json:"countries"`
	Regions        int64 `json:"regions"`
	Municipalities int64 `json:"municipalities"`
	Flags          int64 `json:"flags"`
	OwnedFlags     int64 `json:"owned_flags"`
	CompletePairs  int64 `json:"complete_pairs"`
	Users          int64 `json:"users"`
	Interests      int64 `json:"interests"`
	Bids           int64 `json:"bids"`

	AuctionsByStatus map[models.AuctionStatus]int64 `json:"auctions_by_status"`
}

// MediaStatus reports how much of the flag catalog carries image and
// metadata references.
type MediaStatus struct {
	Flags            int64 `json:"flags"`
	WithImageURL     int64 `json:"with_image_url"`
	WithImageIPFS    int64 `json:"with_image_ipfs"`
	WithMetadataIPFS int64 `json:"with_metadata_ipfs"`
}

type StatsRepository interface {
	Snapshot(ctx context.Context) (*GameStats, error)
	MediaStatus(ctx context.Context) (*MediaStatus, error)
}

type statsRepository struct {
	db *bun.DB
}

func NewStatsRepository(db *bun.DB) StatsRepository {
	return &statsRepository{db: db}
}

func (r *statsRepository) Snapshot(ctx context.Context) (*GameStats, error) {
	stats := &GameStats{
		AuctionsByStatus: make(map[models.AuctionStatus]int64),
	}

	counts := []struct {
		model any
		dest  *int64
	}{
		{(*models.Country)(nil), &stats.Countries},
		{(*models.Region)(nil), &stats.Regions},
		{(*models.Municipality)(nil), &stats.Municipalities},
		{(*models.Flag)(nil), &stats.Flags},
		{(*models.FlagOwnership)(nil), &stats.OwnedFlags},
		{(*models.User)(nil), &stats.Users},
		{(*models.FlagInterest)(nil), &stats.Interests},
		{(*models.Bid)(nil), &stats.Bids},
	}
	for _, c := range counts {
		n, err := r.db.NewSelect().Model(c.model).Count(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to count rows: %w", err)
		}
		*c.dest = int64(n)
	}

	complete, err := r.db.NewSelect().
		Model((*models.Flag)(nil)).
		Where("is_pair_complete = TRUE").
		Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count complete pairs: %w", err)
	}
	// Both mates of a complete pair are flagged, so two rows make one pair.
	stats.CompletePairs = int64(complete) / 2

	var byStatus []struct {
		Status models.AuctionStatus `bun:"status"`
		Count  int64                `bun:"count"`
	}
	err = r.db.NewSelect().
		Model((*models.Auction)(nil)).
		ColumnExpr("status, COUNT(*) AS count").
		GroupExpr("status").
		Scan(ctx, &byStatus)
	if err != nil {
		return nil, fmt.Errorf("failed to count auctions: %w", err)
	}
	for _, row := range byStatus {
		stats.AuctionsByStatus[row.Status] = row.Count
	}

	return stats, nil
}

func (r *statsRepository) MediaStatus(ctx context.Context) (*MediaStatus, error) {
	status := new(MediaStatus)

	total, err := r.db.NewSelect().Model((*models.Flag)(nil)).Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count flags: %w", err)
	}
	status.Flags = int64(total)

	counts := []struct {
		column string
		dest   *int64
	}{
		{"image_url", &status.WithImageURL},
		{"image_ipfs_hash", &status.WithImageIPFS},
		{"metadata_ipfs_hash", &status.WithMetadataIPFS},
	}
	for _, c := range counts {
		n, err := r.db.NewSelect().
			Model((*models.Flag)(nil)).
			Where("? != ''", bun.Ident(c.column)).
			Count(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to count flag media: %w", err)
		}
		*c.dest = int64(n)
	}

	return status, nil
}
