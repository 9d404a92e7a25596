package models

import (
	"time"

	"github.com/uptrace/bun"
)

type Document struct {
	bun.BaseModel `bun:"table:documents,alias:d"`

	ID          int       `bun:",pk,nullzero" json:"id"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
	Name        string    `bun:",nullzero" json:"name"`
	Description *string   `json:"description"`
	FileTypeID  int       `bun:",nullzero" json:"fileTypeId"`
	FileType    *FileType `bun:"rel:belongs-to,join:file_type_id=id" json:"fileType,omitempty"`
	FileSize    int64     `json:"fileSize"`
	FolderID    *int      `json:"folderId"`
	CreatorID   int       `bun:",nullzero" json:"creatorId"`
	Creator     *Creator  `bun:"rel:belongs-to,join:creator_id=id" json:"creator,omitempty"`
	IsDeleted   bool      `json:"isDeleted"`
}
