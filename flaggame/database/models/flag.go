package models

import (
	"time"

	"github.com/uptrace/bun"
)

// Each municipality has two complementary flag variants forming a pair.
const (
	FlagVariantFirst  = 1
	FlagVariantSecond = 2
)

type Flag struct {
	bun.BaseModel `bun:"table:flags,alias:f"`

	ID             int64  `bun:"id,pk,autoincrement"`
	MunicipalityID int64  `bun:"municipality_id,notnull"`
	Variant        int    `bun:"variant,notnull"`
	Name           string `bun:"name,notnull"`

	Municipality *Municipality `bun:"rel:belongs-to,join:municipality_id=id"`

	// Derived from the ownership of both pair mates. Never written directly,
	// only recomputed together with an ownership change.
	IsPairComplete bool `bun:"is_pair_complete,notnull,default:false"`

	// External media references, opaque to the game logic.
	ImageURL         string `bun:"image_url"`
	ImageIPFSHash    string `bun:"image_ipfs_hash"`
	MetadataIPFSHash string `bun:"metadata_ipfs_hash"`

	CreatedAt time.Time `bun:"created_at,notnull,default:current_timestamp"`
	UpdatedAt time.Time `bun:"updated_at,notnull"`
}

// MateVariant returns the variant slot of this flag's pair mate.
func (f *Flag) MateVariant() int {
	if f.Variant == FlagVariantFirst {
		return FlagVariantSecond
	}
	return FlagVariantFirst
}
