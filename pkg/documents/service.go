package documents

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/terftw/doc-management/pkg/errcodes"
	"github.com/terftw/doc-management/pkg/folders"
	"github.com/terftw/doc-management/pkg/models"
	"github.com/uptrace/bun"
)

type RetrieveDocumentOptions struct {
	ID             *int
	CreatorID      *int
	IncludeDeleted bool
}

type ListDocumentsOptions struct {
	CreatorID *int
	// FolderID scopes the listing to one folder. Nil lists the creator's
	// root documents.
	FolderID *int
	Limit    *int
	Offset   *int
	Sort     models.Sort

	IncludeDeleted bool
}

type UpdateDocumentOptions struct {
	Columns []string
}

type Service struct {
	db            *bun.DB
	folderService *folders.Service
}

func NewService(db *bun.DB, folderService *folders.Service) *Service {
	return &Service{db, folderService}
}

// CreateDocument inserts a document. When it's placed in a folder, the
// folder must belong to the same creator and not be deleted.
func (svc *Service) CreateDocument(ctx context.Context, doc *models.Document) error {
	if doc.FolderID != nil {
		_, err := svc.folderService.RetrieveFolder(ctx, folders.RetrieveFolderOptions{
			ID:        doc.FolderID,
			CreatorID: &doc.CreatorID,
		})
		if err != nil {
			return errors.WithStack(err)
		}
	}

	if doc.CreatedAt.IsZero() {
		doc.CreatedAt = time.Now()
	}
	doc.UpdatedAt = doc.CreatedAt

	_, err := svc.db.
		NewInsert().
		Model(doc).
		Returning("*").
		Exec(ctx)
	return errors.WithStack(err)
}

func (svc *Service) RetrieveDocument(ctx context.Context, opts RetrieveDocumentOptions) (*models.Document, error) {
	doc := &models.Document{}

	q := svc.db.
		NewSelect().
		Model(doc).
		Relation("Creator").
		Relation("FileType")

	if opts.ID != nil {
		q = q.Where("d.id = ?", *opts.ID)
	}
	if opts.CreatorID != nil {
		q = q.Where("d.creator_id = ?", *opts.CreatorID)
	}
	if !opts.IncludeDeleted {
		q = q.Where("d.is_deleted = FALSE")
	}

	err := q.Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, errcodes.NotFound("Document")
		}
		return nil, errors.WithStack(err)
	}

	return doc, nil
}

func (svc *Service) ListDocuments(ctx context.Context, opts ListDocumentsOptions) ([]*models.Document, error) {
	docs := []*models.Document{}

	q := svc.db.
		NewSelect().
		Model(&docs).
		Relation("Creator").
		Relation("FileType")

	q = applyListFilters(q, opts)
	q = folders.ApplySort(q, "d", opts.Sort)

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

	return docs, nil
}

// CountDocuments counts the documents matching the filters of opts. Paging
// and sorting are ignored.
func (svc *Service) CountDocuments(ctx context.Context, opts ListDocumentsOptions) (int, error) {
	q := svc.db.
		NewSelect().
		Model((*models.Document)(nil))
	q = applyListFilters(q, opts)

	count, err := q.Count(ctx)
	return count, errors.WithStack(err)
}

func applyListFilters(q *bun.SelectQuery, opts ListDocumentsOptions) *bun.SelectQuery {
	if opts.CreatorID != nil {
		q = q.Where("d.creator_id = ?", *opts.CreatorID)
	}
	if opts.FolderID != nil {
		q = q.Where("d.folder_id = ?", *opts.FolderID)
	} else {
		q = q.Where("d.folder_id IS NULL")
	}
	if !opts.IncludeDeleted {
		q = q.Where("d.is_deleted = FALSE")
	}
	return q
}

func (svc *Service) UpdateDocument(ctx context.Context, doc *models.Document, opts UpdateDocumentOptions) error {
	if len(opts.Columns) == 0 {
		return nil
	}

	doc.UpdatedAt = time.Now()
	columns := make([]string, 0, len(opts.Columns)+1)
	columns = append(columns, opts.Columns...)
	columns = append(columns, "updated_at")

	_, err := svc.db.
		NewUpdate().
		Model(doc).
		Column(columns...).
		WherePK().
		Exec(ctx)
	return errors.WithStack(err)
}

// DeleteDocument soft deletes a document.
func (svc *Service) DeleteDocument(ctx context.Context, doc *models.Document) error {
	doc.IsDeleted = true
	return svc.UpdateDocument(ctx, doc, UpdateDocumentOptions{Columns: []string{"is_deleted"}})
}

// RetrieveFileType looks up a supported file type by extension. The
// extension is matched case-insensitively, with or without a leading dot.
func (svc *Service) RetrieveFileType(ctx context.Context, extension string) (*models.FileType, error) {
	ext := strings.ToLower(strings.TrimPrefix(strings.TrimSpace(extension), "."))
	fileType := &models.FileType{}

	err := svc.db.
		NewSelect().
		Model(fileType).
		Where("ft.extension = ?", ext).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, errcodes.FileTypeInvalid(extension)
		}
		return nil, errors.WithStack(err)
	}

	return fileType, nil
}

func (svc *Service) ListFileTypes(ctx context.Context) ([]*models.FileType, error) {
	fileTypes := []*models.FileType{}

	err := svc.db.
		NewSelect().
		Model(&fileTypes).
		Order("ft.extension ASC").
		Scan(ctx)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	return fileTypes, nil
}
