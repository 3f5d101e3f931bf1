package models

import (
	"time"

	"github.com/uptrace/bun"
)

type Municipality struct {
	bun.BaseModel `bun:"table:municipalities,alias:m"`

	ID       int64  `bun:"id,pk,autoincrement"`
	RegionID int64  `bun:"region_id,notnull"`
	Name     string `bun:"name,notnull"`
	Slug     string `bun:"slug,notnull"`

	CreatedAt time.Time `bun:"created_at,notnull,default:current_timestamp"`
	UpdatedAt time.Time `bun:"updated_at,notnull"`

	// Relations
	Flags []*Flag `bun:"rel:has-many,join:id=municipality_id"`
}
