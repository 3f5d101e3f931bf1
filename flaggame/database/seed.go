package database

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/andrii-lazarenko67/NFT-municipal-flag-game-backend/flaggame/database/models"
)

// seedMunicipality describes one demo municipality and the names of its two
// flag variants.
type seedMunicipality struct {
	name   string
	first  string
	second string
}

type seedRegion struct {
	name           string
	municipalities []seedMunicipality
}

type seedCountry struct {
	name    string
	code    string
	regions []seedRegion
}

var demoCatalog = []seedCountry{
	{
		name: "Netherlands",
		code: "NL",
		regions: []seedRegion{
			{
				name: "North Holland",
				municipalities: []seedMunicipality{
					{"Amsterdam", "Amsterdam Day Flag", "Amsterdam Night Flag"},
					{"Haarlem", "Haarlem Day Flag", "Haarlem Night Flag"},
					{"Zaanstad", "Zaanstad Day Flag", "Zaanstad Night Flag"},
				},
			},
			{
				name: "South Holland",
				municipalities: []seedMunicipality{
					{"Rotterdam", "Rotterdam Day Flag", "Rotterdam Night Flag"},
					{"The Hague", "The Hague Day Flag", "The Hague Night Flag"},
					{"Leiden", "Leiden Day Flag", "Leiden Night Flag"},
				},
			},
		},
	},
	{
		name: "Belgium",
		code: "BE",
		regions: []seedRegion{
			{
				name: "Flanders",
				municipalities: []seedMunicipality{
					{"Antwerp", "Antwerp Day Flag", "Antwerp Night Flag"},
					{"Ghent", "Ghent Day Flag", "Ghent Night Flag"},
					{"Bruges", "Bruges Day Flag", "Bruges Night Flag"},
				},
			},
			{
				name: "Wallonia",
				municipalities: []seedMunicipality{
					{"Liege", "Liege Day Flag", "Liege Night Flag"},
					{"Namur", "Namur Day Flag", "Namur Night Flag"},
				},
			},
		},
	},
}

func slugify(name string) string {
	return strings.ToLower(strings.ReplaceAll(name, " ", "-"))
}

// SeedDemoCatalog loads the demo geo hierarchy and flag pairs. It refuses to
// run against a database that already has flags, so a second call is a no-op
// rather than a duplicate catalog.
func SeedDemoCatalog(ctx context.Context, db *DB) (int, error) {
	existing, err := db.BunDB().NewSelect().
		Model((*models.Flag)(nil)).
		Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to check catalog state: %w", err)
	}
	if existing > 0 {
		slog.Info("Catalog already populated, skipping seed",
			slog.String("type", "db"),
			slog.Int("flags", existing))
		return 0, nil
	}

	start := time.Now()
	flagsCreated := 0

	for _, sc := range demoCatalog {
		country := &models.Country{
			Name:      sc.name,
			Code:      sc.code,
			CreatedAt: start,
			UpdatedAt: start,
		}
		if _, err := db.BunDB().NewInsert().Model(country).Returning("id").Exec(ctx); err != nil {
			return flagsCreated, fmt.Errorf("failed to seed country %s: %w", sc.name, err)
		}

		for _, sr := range sc.regions {
			region := &models.Region{
				CountryID: country.ID,
				Name:      sr.name,
				CreatedAt: start,
				UpdatedAt: start,
			}
			if _, err := db.BunDB().NewInsert().Model(region).Returning("id").Exec(ctx); err != nil {
				return flagsCreated, fmt.Errorf("failed to seed region %s: %w", sr.name, err)
			}

			for _, sm := range sr.municipalities {
				municipality := &models.Municipality{
					RegionID:  region.ID,
					Name:      sm.name,
					Slug:      slugify(sm.name),
					CreatedAt: start,
					UpdatedAt: start,
				}
				if _, err := db.BunDB().NewInsert().Model(municipality).Returning("id").Exec(ctx); err != nil {
					return flagsCreated, fmt.Errorf("failed to seed municipality %s: %w", sm.name, err)
				}

				flags := []*models.Flag{
					{
						MunicipalityID: municipality.ID,
						Variant:        models.FlagVariantFirst,
						Name:           sm.first,
						CreatedAt:      start,
						UpdatedAt:      start,
					},
					{
						MunicipalityID: municipality.ID,
						Variant:        models.FlagVariantSecond,
						Name:           sm.second,
						CreatedAt:      start,
						UpdatedAt:      start,
					},
				}
				if _, err := db.BunDB().NewInsert().Model(&flags).Exec(ctx); err != nil {
					return flagsCreated, fmt.Errorf("failed to seed flags for %s: %w", sm.name, err)
				}
				flagsCreated += len(flags)
			}
		}
	}

	slog.Info("Demo catalog seeded",
		slog.String("type", "db"),
		slog.Int("flags", flagsCreated),
		slog.Duration("took", time.Since(start)))
	return flagsCreated, nil
}
