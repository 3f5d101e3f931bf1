package models

import (
	"time"

	"github.com/uptrace/bun"
)

// User identity is owned by the excluded user-management layer; the game
// engine only reads identifiers and checks existence.
type User struct {
	bun.BaseModel `bun:"table:users,alias:u"`

	ID       string `bun:"id,pk"`
	Username string `bun:"username,notnull"`

	CreatedAt time.Time `bun:"created_at,notnull,default:current_timestamp"`
	UpdatedAt time.Time `bun:"updated_at,notnull"`
}
