package models

import (
	"time"

	"github.com/uptrace/bun"
)

type Country struct {
	bun.BaseModel `bun:"table:countries,alias:c"`

	ID   int64  `bun:"id,pk,autoincrement"`
	Code string `bun:"code,notnull,unique"`
	Name string `bun:"name,notnull"`

	CreatedAt time.Time `bun:"created_at,notnull,default:current_timestamp"`
	UpdatedAt time.Time `bun:"updated_at,notnull"`

	// Relations
	Regions []*Region `bun:"rel:has-many,join:id=country_id"`
}
