package models

import "github.com/uptrace/bun"

type FileType struct {
	bun.BaseModel `bun:"table:file_types,alias:ft"`

	ID        int    `bun:",pk,nullzero" json:"id"`
	Extension string `bun:",nullzero" json:"extension"`
	MimeType  string `bun:",nullzero" json:"mimeType"`
}
