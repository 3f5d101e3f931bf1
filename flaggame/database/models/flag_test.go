package models_test

import (
	"database/sql"
	"testing"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"

	"github.com/andrii-lazarenko67/NFT-municipal-flag-game-backend/flaggame/database/models"
)

// newQueryDB returns a bun handle that never dials; query building alone is
// enough to resolve model relations.
func newQueryDB() *bun.DB {
	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN("postgres://localhost:5432/flaggame_test?sslmode=disable")))
	return bun.NewDB(sqldb, pgdialect.New())
}

func TestFlag_MunicipalityRelation(t *testing.T) {
	db := newQueryDB()
	defer db.Close()

	q := db.NewSelect().
		Model(new(models.Flag)).
		Relation("Municipality").
		Where("f.id = ?", 1)

	if _, err := q.AppendQuery(db.Formatter(), nil); err != nil {
		t.Fatalf("building flag query with municipality relation: %v", err)
	}
}

func TestFlag_MateVariant(t *testing.T) {
	first := &models.Flag{Variant: models.FlagVariantFirst}
	if got := first.MateVariant(); got != models.FlagVariantSecond {
		t.Errorf("mate of first variant = %d, want %d", got, models.FlagVariantSecond)
	}
	second := &models.Flag{Variant: models.FlagVariantSecond}
	if got := second.MateVariant(); got != models.FlagVariantFirst {
		t.Errorf("mate of second variant = %d, want %d", got, models.FlagVariantFirst)
	}
}
