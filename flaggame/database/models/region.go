package models

import (
	"time"

	"github.com/uptrace/bun"
)

type Region struct {
	bun.BaseModel `bun:"table:regions,alias:r"`

	ID        int64  `bun:"id,pk,autoincrement"`
	CountryID int64  `bun:"country_id,notnull"`
	Name      string `bun:"name,notnull"`

	CreatedAt time.Time `bun:"created_at,notnull,default:current_timestamp"`
	UpdatedAt time.Time `bun:"updated_at,notnull"`

	// Relations
	Municipalities []*Municipality `bun:"rel:has-many,join:id=region_id"`
}
