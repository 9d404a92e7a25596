package models

import (
	"time"

	"github.com/uptrace/bun"
)

type Folder struct {
	bun.BaseModel `bun:"table:folders,alias:f"`

	ID          int       `bun:",pk,nullzero" json:"id"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
	Name        string    `bun:",nullzero" json:"name"`
	Description *string   `json:"description"`
	Depth       int       `json:"depth"`
	ParentID    *int      `json:"parentId"`
	CreatorID   int       `bun:",nullzero" json:"creatorId"`
	Creator     *Creator  `bun:"rel:belongs-to,join:creator_id=id" json:"creator,omitempty"`
	IsDeleted   bool      `json:"isDeleted"`

	ChildrenCount int `bun:",scanonly" json:"childrenCount"`
}
