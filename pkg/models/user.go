package models

import (
	"time"

	"github.com/uptrace/bun"
)

type User struct {
	bun.BaseModel `bun:"table:users,alias:u"`

	ID           int       `bun:",pk,nullzero" json:"id"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
	Email        string    `bun:",nullzero" json:"email"`
	Name         string    `bun:",nullzero" json:"name"`
	PasswordHash string    `json:"-"` // Never expose password hash

	FolderCount   int `bun:",scanonly" json:"folderCount"`
	DocumentCount int `bun:",scanonly" json:"documentCount"`
}

// Creator is the public subset of a user that is embedded in folders and
// documents.
type Creator struct {
	bun.BaseModel `bun:"table:users,alias:u"`

	ID   int    `bun:",pk" json:"-"`
	Name string `json:"name"`
}
