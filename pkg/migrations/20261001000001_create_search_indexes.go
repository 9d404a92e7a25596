package migrations

import (
	"context"

	"github.com/pkg/errors"
	"github.com/uptrace/bun"
)

func init() {
	up := func(_ context.Context, db *bun.DB) error {
		// Trigram tokenization lets search match partial words and survive
		// small typos once candidates are re-scored.
		_, err := db.Exec(`
			CREATE VIRTUAL TABLE folders_fts USING fts5(
				folder_id UNINDEXED,
				creator_id UNINDEXED,
				parent_id UNINDEXED,
				is_deleted UNINDEXED,
				created_at UNINDEXED,
				name,
				description,
				tokenize='trigram'
			)
`)
		if err != nil {
			return errors.WithStack(err)
		}
		_, err = db.Exec(`
			CREATE VIRTUAL TABLE documents_fts USING fts5(
				document_id UNINDEXED,
				creator_id UNINDEXED,
				folder_id UNINDEXED,
				is_deleted UNINDEXED,
				created_at UNINDEXED,
				name,
				description,
				file_type,
				tokenize='trigram'
			)
`)
		if err != nil {
			return errors.WithStack(err)
		}
		_, err = db.Exec(`
			INSERT INTO folders_fts (folder_id, creator_id, parent_id, is_deleted, created_at, name, description)
			SELECT id, creator_id, parent_id, is_deleted, created_at, name, COALESCE(description, '')
			FROM folders
`)
		if err != nil {
			return errors.WithStack(err)
		}
		_, err = db.Exec(`
			INSERT INTO documents_fts (document_id, creator_id, folder_id, is_deleted, created_at, name, description, file_type)
			SELECT d.id, d.creator_id, d.folder_id, d.is_deleted, d.created_at, d.name, COALESCE(d.description, ''), ft.extension
			FROM documents d
			JOIN file_types ft ON ft.id = d.file_type_id
`)
		return errors.WithStack(err)
	}

	down := func(_ context.Context, db *bun.DB) error {
		_, err := db.Exec("DROP TABLE IF EXISTS documents_fts")
		if err != nil {
			return errors.WithStack(err)
		}
		_, err = db.Exec("DROP TABLE IF EXISTS folders_fts")
		return errors.WithStack(err)
	}

	Migrations.MustRegister(up, down)
}
