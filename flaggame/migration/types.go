package migration

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Legacy Mongo documents from the first-generation catalog service. Field
// names follow the old schema exactly; conversion to the relational models
// happens in the converters.

type LegacyMunicipality struct {
	MongoID     primitive.ObjectID `bson:"_id"`
	Name        string             `bson:"name"`
	Slug        string             `bson:"slug"`
	RegionName  string             `bson:"region"`
	CountryName string             `bson:"country"`
	CountryCode string             `bson:"country_code"`
}

type LegacyFlag struct {
	MongoID          primitive.ObjectID `bson:"_id"`
	MunicipalitySlug string             `bson:"municipality"`
	Variant          int32              `bson:"variant"`
	Name             string             `bson:"name"`
	ImageURL         string             `bson:"image_url"`
	ImageIPFSHash    string             `bson:"image_ipfs"`
	MetadataIPFSHash string             `bson:"metadata_ipfs"`
	CreatedAt        time.Time          `bson:"created_at"`
}

type LegacyUser struct {
	MongoID  primitive.ObjectID `bson:"_id"`
	UserID   string             `bson:"user_id"`
	Username string             `bson:"username"`
	Wishlist []string           `bson:"wishlist"`
}

// TableStats tracks per-table migration progress.
type TableStats struct {
	Read     int
	Inserted int
	Skipped  int
	Errors   int
}

type MigrationStats struct {
	Tables    map[string]*TableStats
	StartTime time.Time
}

func (s *MigrationStats) table(name string) *TableStats {
	ts, ok := s.Tables[name]
	if !ok {
		ts = &TableStats{}
		s.Tables[name] = ts
	}
	return ts
}
