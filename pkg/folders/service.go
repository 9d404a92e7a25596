package folders

import (
	"context"
	"database/sql"
	"time"

	"github.com/pkg/errors"
	"github.com/terftw/doc-management/pkg/config"
	"github.com/terftw/doc-management/pkg/errcodes"
	"github.com/terftw/doc-management/pkg/models"
	"github.com/uptrace/bun"
)

const childrenCountExpr = "(SELECT COUNT(*) FROM folders AS c WHERE c.parent_id = f.id AND c.is_deleted = FALSE) AS children_count"

type RetrieveFolderOptions struct {
	ID             *int
	CreatorID      *int
	IncludeDeleted bool
}

type ListFoldersOptions struct {
	CreatorID *int
	// ParentID scopes the listing to one folder's children. Nil lists the
	// creator's root folders.
	ParentID *int
	Limit    *int
	Offset   *int
	Sort     models.Sort

	IncludeDeleted bool
}

type UpdateFolderOptions struct {
	Columns []string
}

type Service struct {
	db          *bun.DB
	maxDepth    int
	maxChildren int
}

func NewService(db *bun.DB, cfg *config.Config) *Service {
	return &Service{
		db:          db,
		maxDepth:    cfg.FolderMaxDepth,
		maxChildren: cfg.FolderMaxChildren,
	}
}

// CreateFolder inserts a folder under its parent, or at the root when it has
// no parent. The parent must belong to the same creator and not be deleted.
// The parent checks and the insert share one transaction.
func (svc *Service) CreateFolder(ctx context.Context, folder *models.Folder) error {
	now := time.Now()
	if folder.CreatedAt.IsZero() {
		folder.CreatedAt = now
	}
	folder.UpdatedAt = folder.CreatedAt

	return svc.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		folder.Depth = 0
		if folder.ParentID != nil {
			parent, err := retrieveFolder(ctx, tx, RetrieveFolderOptions{
				ID:        folder.ParentID,
				CreatorID: &folder.CreatorID,
			})
			if err != nil {
				if errors.Is(err, errcodes.NotFound("Folder")) {
					return errcodes.NotFound("Parent folder")
				}
				return errors.WithStack(err)
			}
			folder.Depth = parent.Depth + 1
			if folder.Depth > svc.maxDepth {
				return errcodes.FolderDepthLimit(svc.maxDepth)
			}
			if parent.ChildrenCount >= svc.maxChildren {
				return errcodes.FolderMaxChildren(svc.maxChildren)
			}
		}

		_, err := tx.
			NewInsert().
			Model(folder).
			Returning("*").
			Exec(ctx)
		return errors.WithStack(err)
	})
}

func (svc *Service) RetrieveFolder(ctx context.Context, opts RetrieveFolderOptions) (*models.Folder, error) {
	return retrieveFolder(ctx, svc.db, opts)
}

func retrieveFolder(ctx context.Context, db bun.IDB, opts RetrieveFolderOptions) (*models.Folder, error) {
	folder := &models.Folder{}

	q := db.
		NewSelect().
		Model(folder).
		Relation("Creator").
		ColumnExpr("f.*").
		ColumnExpr(childrenCountExpr)

	if opts.ID != nil {
		q = q.Where("f.id = ?", *opts.ID)
	}
	if opts.CreatorID != nil {
		q = q.Where("f.creator_id = ?", *opts.CreatorID)
	}
	if !opts.IncludeDeleted {
		q = q.Where("f.is_deleted = FALSE")
	}

	err := q.Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, errcodes.NotFound("Folder")
		}
		return nil, errors.WithStack(err)
	}

	return folder, nil
}

func (svc *Service) ListFolders(ctx context.Context, opts ListFoldersOptions) ([]*models.Folder, error) {
	folders := []*models.Folder{}

	q := svc.db.
		NewSelect().
		Model(&folders).
		Relation("Creator").
		ColumnExpr("f.*").
		ColumnExpr(childrenCountExpr)

	q = svc.applyListFilters(q, opts)
	q = ApplySort(q, "f", opts.Sort)

	if opts.Limit != nil {
		q = q.Limit(*opts.Limit)
	}
	if opts.Offset != nil {
		q = q.Offset(*opts.Offset)
	}

	err := q.Scan(ctx)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	return folders, nil
}

// CountFolders counts the folders matching the filters of opts. Paging and
// sorting are ignored.
func (svc *Service) CountFolders(ctx context.Context, opts ListFoldersOptions) (int, error) {
	q := svc.db.
		NewSelect().
		Model((*models.Folder)(nil))
	q = svc.applyListFilters(q, opts)

	count, err := q.Count(ctx)
	return count, errors.WithStack(err)
}

func (svc *Service) applyListFilters(q *bun.SelectQuery, opts ListFoldersOptions) *bun.SelectQuery {
	if opts.CreatorID != nil {
		q = q.Where("f.creator_id = ?", *opts.CreatorID)
	}
	if opts.ParentID != nil {
		q = q.Where("f.parent_id = ?", *opts.ParentID)
	} else {
		q = q.Where("f.parent_id IS NULL")
	}
	if !opts.IncludeDeleted {
		q = q.Where("f.is_deleted = FALSE")
	}
	return q
}

func (svc *Service) UpdateFolder(ctx context.Context, folder *models.Folder, opts UpdateFolderOptions) error {
	if len(opts.Columns) == 0 {
		return nil
	}

	folder.UpdatedAt = time.Now()
	columns := make([]string, 0, len(opts.Columns)+1)
	columns = append(columns, opts.Columns...)
	columns = append(columns, "updated_at")

	_, err := svc.db.
		NewUpdate().
		Model(folder).
		Column(columns...).
		WherePK().
		Exec(ctx)
	return errors.WithStack(err)
}

// DeleteFolder soft deletes a folder along with every folder and document
// beneath it. It returns the IDs of everything that was deleted, the folder
// itself included.
func (svc *Service) DeleteFolder(ctx context.Context, folder *models.Folder) (folderIDs []int, documentIDs []int, err error) {
	err = svc.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		err := tx.NewRaw(`
			WITH RECURSIVE tree(id) AS (
				SELECT ?
				UNION ALL
				SELECT f.id FROM folders AS f JOIN tree ON f.parent_id = tree.id WHERE f.is_deleted = FALSE
			)
			SELECT id FROM tree
		`, folder.ID).Scan(ctx, &folderIDs)
		if err != nil {
			return errors.WithStack(err)
		}

		err = tx.NewSelect().
			Model((*models.Document)(nil)).
			ColumnExpr("d.id").
			Where("d.folder_id IN (?)", bun.In(folderIDs)).
			Where("d.is_deleted = FALSE").
			Scan(ctx, &documentIDs)
		if err != nil {
			return errors.WithStack(err)
		}

		now := time.Now()
		_, err = tx.NewUpdate().
			Model((*models.Folder)(nil)).
			Set("is_deleted = TRUE").
			Set("updated_at = ?", now).
			Where("id IN (?)", bun.In(folderIDs)).
			Exec(ctx)
		if err != nil {
			return errors.WithStack(err)
		}

		if len(documentIDs) > 0 {
			_, err = tx.NewUpdate().
				Model((*models.Document)(nil)).
				Set("is_deleted = TRUE").
				Set("updated_at = ?", now).
				Where("id IN (?)", bun.In(documentIDs)).
				Exec(ctx)
			if err != nil {
				return errors.WithStack(err)
			}
		}

		folder.IsDeleted = true
		folder.UpdatedAt = now
		return nil
	})
	if err != nil {
		return nil, nil, errors.WithStack(err)
	}
	return folderIDs, documentIDs, nil
}

// ApplySort orders by the requested column with ID as a tie-breaker so that
// entries created in the same instant keep their insertion order.
func ApplySort(q *bun.SelectQuery, alias string, sort models.Sort) *bun.SelectQuery {
	column := models.SortByCreatedAt
	switch sort.By {
	case models.SortByUpdatedAt, models.SortByName:
		column = sort.By
	}
	direction := "DESC"
	if sort.Order == models.SortOrderAsc {
		direction = "ASC"
	}
	return q.
		OrderExpr("?.? "+direction, bun.Ident(alias), bun.Ident(column)).
		OrderExpr("?.id ASC", bun.Ident(alias))
}
