package repositories

import (
	"context"
	"time"

	"github.com/uptrace/bun"

	"github.com/andrii-lazarenko67/NFT-municipal-flag-game-backend/flaggame/database/models"
	"github.com/andrii-lazarenko67/NFT-municipal-flag-game-backend/flaggame/economy/interest"
)

type interestRepository struct {
	db *bun.DB
}

func NewInterestRepository(db *bun.DB) interest.Repository {
	return &interestRepository{db: db}
}

func (r *interestRepository) Upsert(ctx context.Context, userID string, flagID int64) error {
	row := &models.FlagInterest{
		UserID:    userID,
		FlagID:    flagID,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
	_, err := r.db.NewInsert().
		Model(row).
		On("CONFLICT (user_id, flag_id) DO NOTHING").
		Exec(ctx)
	return err
}

func (r *interestRepository) Remove(ctx context.Context, userID string, flagID int64) error {
	_, err := r.db.NewDelete().
		Model((*models.FlagInterest)(nil)).
		Where("user_id = ? AND flag_id = ?", userID, flagID).
		Exec(ctx)
	return err
}

func (r *interestRepository) Exists(ctx context.Context, userID string, flagID int64) (bool, error) {
	return r.db.NewSelect().
		Model((*models.FlagInterest)(nil)).
		Where("user_id = ? AND flag_id = ?", userID, flagID).
		Exists(ctx)
}

func (r *interestRepository) GetByUserID(ctx context.Context, userID string) ([]*models.FlagInterest, error) {
	var interests []*models.FlagInterest
	err := r.db.NewSelect().
		Model(&interests).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Scan(ctx)
	return interests, err
}

func (r *interestRepository) CountByFlag(ctx context.Context, flagID int64) (int, error) {
	return r.db.NewSelect().
		Model((*models.FlagInterest)(nil)).
		Where("flag_id = ?", flagID).
		Count(ctx)
}

func (r *interestRepository) TopFlags(ctx context.Context, limit int) ([]interest.FlagCount, error) {
	var rows []struct {
		FlagID int64 `bun:"flag_id"`
		Count  int   `bun:"count"`
	}
	err := r.db.NewSelect().
		Model((*models.FlagInterest)(nil)).
		ColumnExpr("flag_id, COUNT(*) AS count").
		GroupExpr("flag_id").
		OrderExpr("count DESC, flag_id ASC").
		Limit(limit).
		Scan(ctx, &rows)
	if err != nil {
		return nil, err
	}

	counts := make([]interest.FlagCount, len(rows))
	for i, row := range rows {
		counts[i] = interest.FlagCount{FlagID: row.FlagID, Count: row.Count}
	}
	return counts, nil
}
