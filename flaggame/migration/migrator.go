package migration

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/uptrace/bun"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/andrii-lazarenko67/NFT-municipal-flag-game-backend/flaggame/database/models"
)

// Migrator copies the first-generation Mongo catalog into Postgres.
// Municipalities come first so flags can resolve their municipality by slug;
// users and their wishlists close the run. Re-running against a populated
// database skips existing rows instead of duplicating them.
type Migrator struct {
	pgDB    *bun.DB
	mongoDB *mongo.Database

	batchSize int
	collNames map[string]string
	stats     MigrationStats

	// Resolved during the run.
	municipalityBySlug map[string]int64
	flagByLegacyKey    map[string]int64
}

func NewMigrator(pgDB *bun.DB, mongoURI, mongoDatabase string) (*Migrator, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(mongoURI))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to legacy database: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("failed to ping legacy database: %w", err)
	}

	return &Migrator{
		pgDB:      pgDB,
		mongoDB:   client.Database(mongoDatabase),
		batchSize: 500,
		collNames: map[string]string{
			"municipalities": "municipalities",
			"flags":          "flags",
			"users":          "users",
		},
		stats: MigrationStats{
			Tables:    make(map[string]*TableStats),
			StartTime: time.Now(),
		},
		municipalityBySlug: make(map[string]int64),
		flagByLegacyKey:    make(map[string]int64),
	}, nil
}

// Close disconnects the Mongo client.
func (m *Migrator) Close(ctx context.Context) error {
	return m.mongoDB.Client().Disconnect(ctx)
}

// MigrateAll runs the whole import in dependency order.
func (m *Migrator) MigrateAll(ctx context.Context) error {
	steps := []struct {
		name string
		run  func(context.Context) error
	}{
		{"municipalities", m.migrateMunicipalities},
		{"flags", m.migrateFlags},
		{"users", m.migrateUsers},
	}

	for _, step := range steps {
		start := time.Now()
		if err := step.run(ctx); err != nil {
			return fmt.Errorf("migration step %s failed: %w", step.name, err)
		}
		ts := m.stats.table(step.name)
		slog.Info("Migration step finished",
			slog.String("type", "migration"),
			slog.String("step", step.name),
			slog.Int("read", ts.Read),
			slog.Int("inserted", ts.Inserted),
			slog.Int("skipped", ts.Skipped),
			slog.Duration("took", time.Since(start)))
	}

	slog.Info("Legacy migration complete",
		slog.String("type", "migration"),
		slog.Duration("took", time.Since(m.stats.StartTime)))
	return nil
}

func (m *Migrator) migrateMunicipalities(ctx context.Context) error {
	ts := m.stats.table("municipalities")

	cursor, err := m.mongoDB.Collection(m.collNames["municipalities"]).Find(ctx, bson.D{})
	if err != nil {
		return fmt.Errorf("failed to read legacy municipalities: %w", err)
	}
	defer cursor.Close(ctx)

	countryIDs := make(map[string]int64)
	regionIDs := make(map[string]int64)

	for cursor.Next(ctx) {
		var legacy LegacyMunicipality
		if err := cursor.Decode(&legacy); err != nil {
			ts.Errors++
			slog.Warn("Skipping undecodable municipality",
				slog.String("type", "migration"),
				slog.String("error", err.Error()))
			continue
		}
		ts.Read++

		countryID, err := m.ensureCountry(ctx, countryIDs, legacy.CountryCode, legacy.CountryName)
		if err != nil {
			return err
		}
		regionKey := legacy.CountryCode + "/" + legacy.RegionName
		regionID, err := m.ensureRegion(ctx, regionIDs, regionKey, countryID, legacy.RegionName)
		if err != nil {
			return err
		}

		municipality, inserted, err := convertMunicipality(ctx, m.pgDB, &legacy, regionID)
		if err != nil {
			return err
		}
		if inserted {
			ts.Inserted++
		} else {
			ts.Skipped++
		}
		m.municipalityBySlug[legacy.Slug] = municipality.ID
	}
	return cursor.Err()
}

func (m *Migrator) migrateFlags(ctx context.Context) error {
	ts := m.stats.table("flags")

	cursor, err := m.mongoDB.Collection(m.collNames["flags"]).Find(ctx, bson.D{})
	if err != nil {
		return fmt.Errorf("failed to read legacy flags: %w", err)
	}
	defer cursor.Close(ctx)

	batch := make([]*models.Flag, 0, m.batchSize)
	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		result, err := m.pgDB.NewInsert().
			Model(&batch).
			On("CONFLICT (municipality_id, variant) DO NOTHING").
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("failed to insert flag batch: %w", err)
		}
		rows, _ := result.RowsAffected()
		ts.Inserted += int(rows)
		ts.Skipped += len(batch) - int(rows)
		batch = batch[:0]
		return nil
	}

	for cursor.Next(ctx) {
		var legacy LegacyFlag
		if err := cursor.Decode(&legacy); err != nil {
			ts.Errors++
			continue
		}
		ts.Read++

		municipalityID, ok := m.municipalityBySlug[legacy.MunicipalitySlug]
		if !ok {
			ts.Errors++
			slog.Warn("Flag references unknown municipality",
				slog.String("type", "migration"),
				slog.String("municipality", legacy.MunicipalitySlug),
				slog.String("flag", legacy.Name))
			continue
		}

		batch = append(batch, convertFlag(&legacy, municipalityID))
		if len(batch) >= m.batchSize {
			if err := flush(); err != nil {
				return err
			}
		}
	}
	if err := flush(); err != nil {
		return err
	}
	if err := cursor.Err(); err != nil {
		return err
	}

	// Wishlist import needs flag IDs; load the mapping once after insert.
	var flags []*models.Flag
	if err := m.pgDB.NewSelect().Model(&flags).Scan(ctx); err != nil {
		return fmt.Errorf("failed to load migrated flags: %w", err)
	}
	slugByID := make(map[int64]string, len(m.municipalityBySlug))
	for slug, id := range m.municipalityBySlug {
		slugByID[id] = slug
	}
	for _, f := range flags {
		key := legacyFlagKey(slugByID[f.MunicipalityID], int(f.Variant))
		m.flagByLegacyKey[key] = f.ID
	}
	return nil
}

func (m *Migrator) migrateUsers(ctx context.Context) error {
	ts := m.stats.table("users")

	cursor, err := m.mongoDB.Collection(m.collNames["users"]).Find(ctx, bson.D{})
	if err != nil {
		return fmt.Errorf("failed to read legacy users: %w", err)
	}
	defer cursor.Close(ctx)

	for cursor.Next(ctx) {
		var legacy LegacyUser
		if err := cursor.Decode(&legacy); err != nil {
			ts.Errors++
			continue
		}
		ts.Read++

		inserted, err := convertUser(ctx, m.pgDB, &legacy, m.flagByLegacyKey)
		if err != nil {
			return err
		}
		if inserted {
			ts.Inserted++
		} else {
			ts.Skipped++
		}
	}
	return cursor.Err()
}

func legacyFlagKey(municipalitySlug string, variant int) string {
	return fmt.Sprintf("%s#%d", strings.ToLower(municipalitySlug), variant)
}
