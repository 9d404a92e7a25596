package fsentry

import (
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/pkg/errors"
	"github.com/robinjoseph08/golib/logger"
	"github.com/terftw/doc-management/pkg/documents"
	"github.com/terftw/doc-management/pkg/errcodes"
	"github.com/terftw/doc-management/pkg/folders"
	"github.com/terftw/doc-management/pkg/models"
	"github.com/terftw/doc-management/pkg/search"
	"golang.org/x/sync/errgroup"
)

// refetchConcurrency bounds how many search hits are re-fetched at once.
const refetchConcurrency = 8

type FolderSource interface {
	CountFolders(ctx context.Context, opts folders.ListFoldersOptions) (int, error)
	ListFolders(ctx context.Context, opts folders.ListFoldersOptions) ([]*models.Folder, error)
	RetrieveFolder(ctx context.Context, opts folders.RetrieveFolderOptions) (*models.Folder, error)
}

type DocumentSource interface {
	CountDocuments(ctx context.Context, opts documents.ListDocumentsOptions) (int, error)
	ListDocuments(ctx context.Context, opts documents.ListDocumentsOptions) ([]*models.Document, error)
	RetrieveDocument(ctx context.Context, opts documents.RetrieveDocumentOptions) (*models.Document, error)
}

type Oracle interface {
	Search(ctx context.Context, text string, opts search.Options) (*search.Results, error)
}

type Query struct {
	Page     int
	PageSize int
	// SearchQuery switches the listing to the search index when it has any
	// non-whitespace content.
	SearchQuery string
	Sort        models.Sort
}

type Service struct {
	folders     FolderSource
	documents   DocumentSource
	oracle      Oracle
	maxPageSize int
}

func NewService(folderSource FolderSource, documentSource DocumentSource, oracle Oracle, maxPageSize int) *Service {
	return &Service{
		folders:     folderSource,
		documents:   documentSource,
		oracle:      oracle,
		maxPageSize: maxPageSize,
	}
}

// ListEntries returns one page of the user's folders and documents. With a
// nil folderID the page covers the user's root, otherwise the folder's direct
// children, and the folder itself is reported in the metadata.
func (svc *Service) ListEntries(ctx context.Context, userID int, query Query, folderID *int) (*Result, error) {
	if err := svc.validate(query); err != nil {
		return nil, err
	}

	var scope *models.Folder
	if folderID != nil {
		folder, err := svc.folders.RetrieveFolder(ctx, folders.RetrieveFolderOptions{
			ID:        folderID,
			CreatorID: &userID,
		})
		if err != nil {
			if errors.Is(err, errcodes.NotFound("Folder")) {
				return nil, errcodes.NotFound("Folder")
			}
			return nil, errcodes.RetrievalError("folder", err)
		}
		scope = folder
	}

	var result *Result
	var err error
	if text := strings.TrimSpace(query.SearchQuery); text != "" {
		result, err = svc.searchEntries(ctx, userID, query, text, folderID)
	} else {
		result, err = svc.listEntries(ctx, userID, query, folderID)
	}
	if err != nil {
		return nil, err
	}

	if scope != nil {
		childrenCount := scope.ChildrenCount
		result.Metadata.Folder = scope
		result.Metadata.ChildrenCount = &childrenCount
	}
	return result, nil
}

func (svc *Service) validate(query Query) error {
	if query.Page < 1 {
		return errcodes.ValidationError(`"page" must be at least 1`)
	}
	if query.PageSize < 1 {
		return errcodes.ValidationError(`"pageSize" must be at least 1`)
	}
	if svc.maxPageSize > 0 && query.PageSize > svc.maxPageSize {
		return errcodes.ValidationError(fmt.Sprintf(`"pageSize" must be at most %d`, svc.maxPageSize))
	}
	// (page-1)*pageSize must fit in an int.
	if query.Page-1 > math.MaxInt/query.PageSize {
		return errcodes.ValidationError(`"page" is out of range`)
	}
	return nil
}

func (svc *Service) listEntries(ctx context.Context, userID int, query Query, folderID *int) (*Result, error) {
	folderOpts := folders.ListFoldersOptions{
		CreatorID: &userID,
		ParentID:  folderID,
		Sort:      query.Sort,
	}
	documentOpts := documents.ListDocumentsOptions{
		CreatorID: &userID,
		FolderID:  folderID,
		Sort:      query.Sort,
	}

	var folderCount, documentCount int
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		count, err := svc.folders.CountFolders(gctx, folderOpts)
		folderCount = count
		return errors.WithStack(err)
	})
	g.Go(func() error {
		count, err := svc.documents.CountDocuments(gctx, documentOpts)
		documentCount = count
		return errors.WithStack(err)
	})
	if err := g.Wait(); err != nil {
		return nil, errcodes.RetrievalError("entries", err)
	}

	skip := (query.Page - 1) * query.PageSize
	p := Paginate(skip, folderCount, documentCount, query.PageSize)

	var folderRows []*models.Folder
	var documentRows []*models.Document
	g, gctx = errgroup.WithContext(ctx)
	if p.FolderLimit > 0 {
		opts := folderOpts
		opts.Offset = &p.FolderSkip
		opts.Limit = &p.FolderLimit
		g.Go(func() error {
			rows, err := svc.folders.ListFolders(gctx, opts)
			folderRows = rows
			return errors.WithStack(err)
		})
	}
	if p.DocumentLimit > 0 {
		opts := documentOpts
		opts.Offset = &p.DocumentSkip
		opts.Limit = &p.DocumentLimit
		g.Go(func() error {
			rows, err := svc.documents.ListDocuments(gctx, opts)
			documentRows = rows
			return errors.WithStack(err)
		})
	}
	if err := g.Wait(); err != nil {
		return nil, errcodes.RetrievalError("entries", err)
	}

	data := make([]Entry, 0, len(folderRows)+len(documentRows))
	for _, folder := range folderRows {
		data = append(data, FolderToEntry(folder))
	}
	for _, doc := range documentRows {
		data = append(data, DocumentToEntry(doc))
	}

	totalCount := folderCount + documentCount
	return &Result{
		Data: data,
		Metadata: Metadata{
			CurrentPage: query.Page,
			PageSize:    query.PageSize,
			TotalCount:  totalCount,
			TotalPages:  totalPages(totalCount, query.PageSize),
		},
	}, nil
}

// searchEntries ranks entries with the search index and then loads each hit
// from the database. Hits that are gone, deleted, owned by someone else or
// outside the requested folder are dropped, so a page can come back shorter
// than the window the index returned.
func (svc *Service) searchEntries(ctx context.Context, userID int, query Query, text string, folderID *int) (*Result, error) {
	log := logger.FromContext(ctx)

	results, err := svc.oracle.Search(ctx, text, search.Options{
		Kinds:     []models.EntryKind{models.EntryKindFolder, models.EntryKindDocument},
		From:      (query.Page - 1) * query.PageSize,
		Size:      query.PageSize,
		CreatorID: &userID,
	})
	if err != nil {
		return nil, errcodes.RetrievalError("search results", err)
	}

	slots := make([]Entry, len(results.Hits))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(refetchConcurrency)
	for i, hit := range results.Hits {
		g.Go(func() error {
			entry, err := svc.refetch(gctx, hit)
			if err != nil {
				if errors.Is(err, errcodes.NotFound(string(hit.Kind))) {
					log.Debug("dropping stale search hit", logger.Data{"kind": hit.Kind, "id": hit.ID})
					return nil
				}
				return err
			}
			if reason := rejectReason(entry, userID, folderID); reason != "" {
				log.Debug("dropping search hit", logger.Data{"kind": hit.Kind, "id": hit.ID, "reason": reason})
				return nil
			}
			slots[i] = entry
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, errcodes.RetrievalError("search results", err)
	}

	data := make([]Entry, 0, len(slots))
	for _, entry := range slots {
		if entry != nil {
			data = append(data, entry)
		}
	}

	return &Result{
		Data: data,
		Metadata: Metadata{
			CurrentPage: query.Page,
			PageSize:    query.PageSize,
			TotalCount:  results.Total,
			TotalPages:  totalPages(results.Total, query.PageSize),
		},
	}, nil
}

// refetch loads the current, non-deleted record behind a search hit. A
// missing record is reported as NotFound for the hit's kind.
func (svc *Service) refetch(ctx context.Context, hit search.Hit) (Entry, error) {
	switch hit.Kind {
	case models.EntryKindFolder:
		folder, err := svc.folders.RetrieveFolder(ctx, folders.RetrieveFolderOptions{ID: &hit.ID})
		if err != nil {
			if errors.Is(err, errcodes.NotFound("Folder")) {
				return nil, errcodes.NotFound(string(hit.Kind))
			}
			return nil, errors.WithStack(err)
		}
		return FolderToEntry(folder), nil
	case models.EntryKindDocument:
		doc, err := svc.documents.RetrieveDocument(ctx, documents.RetrieveDocumentOptions{ID: &hit.ID})
		if err != nil {
			if errors.Is(err, errcodes.NotFound("Document")) {
				return nil, errcodes.NotFound(string(hit.Kind))
			}
			return nil, errors.WithStack(err)
		}
		return DocumentToEntry(doc), nil
	default:
		return nil, errcodes.NotFound(string(hit.Kind))
	}
}

func rejectReason(entry Entry, userID int, folderID *int) string {
	var creatorID int
	var parentID *int
	switch e := entry.(type) {
	case *FolderEntry:
		creatorID, parentID = e.CreatorID, e.ParentID
	case *DocumentEntry:
		creatorID, parentID = e.CreatorID, e.FolderID
	}

	if creatorID != userID {
		return "foreign"
	}
	if folderID != nil && (parentID == nil || *parentID != *folderID) {
		return "out of scope"
	}
	return ""
}
