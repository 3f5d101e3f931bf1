package migration

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/uptrace/bun"

	"github.com/andrii-lazarenko67/NFT-municipal-flag-game-backend/flaggame/database/models"
)

func (m *Migrator) ensureCountry(ctx context.Context, cache map[string]int64, code, name string) (int64, error) {
	code = strings.ToUpper(code)
	if id, ok := cache[code]; ok {
		return id, nil
	}

	existing := new(models.Country)
	err := m.pgDB.NewSelect().
		Model(existing).
		Where("code = ?", code).
		Scan(ctx)
	if err == nil {
		cache[code] = existing.ID
		return existing.ID, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("failed to look up country %s: %w", code, err)
	}

	now := time.Now()
	country := &models.Country{
		Code:      code,
		Name:      name,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if _, err := m.pgDB.NewInsert().Model(country).Returning("id").Exec(ctx); err != nil {
		return 0, fmt.Errorf("failed to migrate country %s: %w", code, err)
	}
	cache[code] = country.ID
	return country.ID, nil
}

func (m *Migrator) ensureRegion(ctx context.Context, cache map[string]int64, key string, countryID int64, name string) (int64, error) {
	if id, ok := cache[key]; ok {
		return id, nil
	}

	existing := new(models.Region)
	err := m.pgDB.NewSelect().
		Model(existing).
		Where("country_id = ? AND name = ?", countryID, name).
		Scan(ctx)
	if err == nil {
		cache[key] = existing.ID
		return existing.ID, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("failed to look up region %s: %w", name, err)
	}

	now := time.Now()
	region := &models.Region{
		CountryID: countryID,
		Name:      name,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if _, err := m.pgDB.NewInsert().Model(region).Returning("id").Exec(ctx); err != nil {
		return 0, fmt.Errorf("failed to migrate region %s: %w", name, err)
	}
	cache[key] = region.ID
	return region.ID, nil
}

func convertMunicipality(ctx context.Context, db *bun.DB, legacy *LegacyMunicipality, regionID int64) (*models.Municipality, bool, error) {
	existing := new(models.Municipality)
	err := db.NewSelect().
		Model(existing).
		Where("slug = ?", legacy.Slug).
		Scan(ctx)
	if err == nil {
		return existing, false, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, false, fmt.Errorf("failed to look up municipality %s: %w", legacy.Slug, err)
	}

	now := time.Now()
	municipality := &models.Municipality{
		RegionID:  regionID,
		Name:      legacy.Name,
		Slug:      legacy.Slug,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if _, err := db.NewInsert().Model(municipality).Returning("id").Exec(ctx); err != nil {
		return nil, false, fmt.Errorf("failed to migrate municipality %s: %w", legacy.Slug, err)
	}
	return municipality, true, nil
}

func convertFlag(legacy *LegacyFlag, municipalityID int64) *models.Flag {
	createdAt := legacy.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}
	variant := int(legacy.Variant)
	if variant != models.FlagVariantFirst && variant != models.FlagVariantSecond {
		variant = models.FlagVariantFirst
	}
	return &models.Flag{
		MunicipalityID:   municipalityID,
		Variant:          variant,
		Name:             legacy.Name,
		ImageURL:         legacy.ImageURL,
		ImageIPFSHash:    legacy.ImageIPFSHash,
		MetadataIPFSHash: legacy.MetadataIPFSHash,
		CreatedAt:        createdAt,
		UpdatedAt:        createdAt,
	}
}

// convertUser imports the user row plus their wishlist. Legacy wishlist
// entries are "municipality-slug#variant" keys.
func convertUser(ctx context.Context, db *bun.DB, legacy *LegacyUser, flagByLegacyKey map[string]int64) (bool, error) {
	now := time.Now()
	user := &models.User{
		ID:        legacy.UserID,
		Username:  legacy.Username,
		CreatedAt: now,
		UpdatedAt: now,
	}
	result, err := db.NewInsert().
		Model(user).
		On("CONFLICT (id) DO NOTHING").
		Exec(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to migrate user %s: %w", legacy.UserID, err)
	}
	rows, _ := result.RowsAffected()

	for _, key := range legacy.Wishlist {
		flagID, ok := flagByLegacyKey[strings.ToLower(key)]
		if !ok {
			continue
		}
		entry := &models.FlagInterest{
			UserID:    legacy.UserID,
			FlagID:    flagID,
			CreatedAt: now,
			UpdatedAt: now,
		}
		_, err := db.NewInsert().
			Model(entry).
			On("CONFLICT (user_id, flag_id) DO NOTHING").
			Exec(ctx)
		if err != nil {
			return false, fmt.Errorf("failed to migrate wishlist for %s: %w", legacy.UserID, err)
		}
	}

	return rows > 0, nil
}
