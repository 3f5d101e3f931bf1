package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	lru "github.com/hashicorp/golang-lru"
	"github.com/sahilm/fuzzy"
	"github.com/uptrace/bun"

	"github.com/andrii-lazarenko67/NFT-municipal-flag-game-backend/flaggame/database/models"
)

const flagCacheSize = 2048

// FlagRepository serves the read-mostly flag catalog. Results are cached
// in an LRU keyed by flag ID; mutations from the auction engine go through
// the store, not here, so the cache only holds immutable catalog fields.
type FlagRepository interface {
	Create(ctx context.Context, flag *models.Flag) error
	GetByID(ctx context.Context, id int64) (*models.Flag, error)
	GetAll(ctx context.Context) ([]*models.Flag, error)
	GetByMunicipality(ctx context.Context, municipalityID int64) ([]*models.Flag, error)
	GetPairMate(ctx context.Context, flag *models.Flag) (*models.Flag, error)
	SearchByName(ctx context.Context, query string, limit int) ([]*models.Flag, error)
	Count(ctx context.Context) (int64, error)
	BulkCreate(ctx context.Context, flags []*models.Flag) (int, error)
}

type flagRepository struct {
	db    *bun.DB
	cache *lru.Cache
}

func NewFlagRepository(db *bun.DB) FlagRepository {
	cache, _ := lru.New(flagCacheSize)
	return &flagRepository{
		db:    db,
		cache: cache,
	}
}

func (r *flagRepository) Create(ctx context.Context, flag *models.Flag) error {
	_, err := r.db.NewInsert().
		Model(flag).
		Returning("id").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to create flag: %w", err)
	}
	return nil
}

func (r *flagRepository) GetByID(ctx context.Context, id int64) (*models.Flag, error) {
	if cached, ok := r.cache.Get(id); ok {
		return cached.(*models.Flag), nil
	}

	flag := new(models.Flag)
	err := r.db.NewSelect().
		Model(flag).
		Where("f.id = ?", id).
		Relation("Municipality").
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("flag %d not found", id)
		}
		return nil, fmt.Errorf("failed to get flag: %w", err)
	}

	r.cache.Add(id, flag)
	return flag, nil
}

func (r *flagRepository) GetAll(ctx context.Context) ([]*models.Flag, error) {
	var flags []*models.Flag
	err := r.db.NewSelect().
		Model(&flags).
		Order("id ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list flags: %w", err)
	}
	return flags, nil
}

func (r *flagRepository) GetByMunicipality(ctx context.Context, municipalityID int64) ([]*models.Flag, error) {
	var flags []*models.Flag
	err := r.db.NewSelect().
		Model(&flags).
		Where("municipality_id = ?", municipalityID).
		Order("variant ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list municipality flags: %w", err)
	}
	return flags, nil
}

func (r *flagRepository) GetPairMate(ctx context.Context, flag *models.Flag) (*models.Flag, error) {
	mate := new(models.Flag)
	err := r.db.NewSelect().
		Model(mate).
		Where("municipality_id = ? AND variant = ? AND id != ?",
			flag.MunicipalityID, flag.MateVariant(), flag.ID).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get pair mate: %w", err)
	}
	return mate, nil
}

// flagSearchItems implements fuzzy.Source over flag names.
type flagSearchItems []*models.Flag

func (items flagSearchItems) Len() int { return len(items) }

func (items flagSearchItems) String(i int) string {
	return strings.ToLower(items[i].Name)
}

func (r *flagRepository) SearchByName(ctx context.Context, query string, limit int) ([]*models.Flag, error) {
	flags, err := r.GetAll(ctx)
	if err != nil {
		return nil, err
	}

	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		if limit > 0 && len(flags) > limit {
			flags = flags[:limit]
		}
		return flags, nil
	}

	matches := fuzzy.FindFrom(query, flagSearchItems(flags))
	if limit > 0 && len(matches) > limit {
		matches = matches[:limit]
	}

	results := make([]*models.Flag, len(matches))
	for i, match := range matches {
		results[i] = flags[match.Index]
	}
	return results, nil
}

func (r *flagRepository) Count(ctx context.Context) (int64, error) {
	count, err := r.db.NewSelect().
		Model((*models.Flag)(nil)).
		Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to count flags: %w", err)
	}
	return int64(count), nil
}

func (r *flagRepository) BulkCreate(ctx context.Context, flags []*models.Flag) (int, error) {
	if len(flags) == 0 {
		return 0, nil
	}

	result, err := r.db.NewInsert().
		Model(&flags).
		On("CONFLICT (municipality_id, variant) DO NOTHING").
		Exec(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to bulk create flags: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get affected rows: %w", err)
	}
	return int(rows), nil
}
