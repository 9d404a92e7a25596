package fsentry

import (
	"context"
	"math"
	"net/http"
	"sync"
	"testing"

	"github.com/pkg/errors"
	"github.com/robinjoseph08/golib/pointerutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/terftw/doc-management/pkg/documents"
	"github.com/terftw/doc-management/pkg/errcodes"
	"github.com/terftw/doc-management/pkg/folders"
	"github.com/terftw/doc-management/pkg/models"
	"github.com/terftw/doc-management/pkg/search"
)

var errStore = errors.New("store unavailable")

type listCall struct {
	Offset int
	Limit  int
}

// fakeFolders serves a fixed number of folders for every scope. Folder i has
// ID i+1.
type fakeFolders struct {
	mu       sync.Mutex
	count    int
	byID     map[int]*models.Folder
	countErr error
	listErr  error

	countCalls int
	listCalls  []listCall
	retrieves  []folders.RetrieveFolderOptions
}

func (f *fakeFolders) CountFolders(_ context.Context, _ folders.ListFoldersOptions) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.countCalls++
	return f.count, f.countErr
}

func (f *fakeFolders) ListFolders(_ context.Context, opts folders.ListFoldersOptions) ([]*models.Folder, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listCalls = append(f.listCalls, listCall{*opts.Offset, *opts.Limit})
	if f.listErr != nil {
		return nil, f.listErr
	}
	out := []*models.Folder{}
	for i := *opts.Offset; i < *opts.Offset+*opts.Limit && i < f.count; i++ {
		out = append(out, &models.Folder{ID: i + 1, CreatorID: 1})
	}
	return out, nil
}

func (f *fakeFolders) RetrieveFolder(_ context.Context, opts folders.RetrieveFolderOptions) (*models.Folder, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.retrieves = append(f.retrieves, opts)
	folder, ok := f.byID[*opts.ID]
	if !ok || (opts.CreatorID != nil && folder.CreatorID != *opts.CreatorID) {
		return nil, errcodes.NotFound("Folder")
	}
	return folder, nil
}

// fakeDocuments mirrors fakeFolders. Document i has ID 100+i.
type fakeDocuments struct {
	mu          sync.Mutex
	count       int
	byID        map[int]*models.Document
	countErr    error
	retrieveErr error

	countCalls int
	listCalls  []listCall
}

func (f *fakeDocuments) CountDocuments(_ context.Context, _ documents.ListDocumentsOptions) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.countCalls++
	return f.count, f.countErr
}

func (f *fakeDocuments) ListDocuments(_ context.Context, opts documents.ListDocumentsOptions) ([]*models.Document, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listCalls = append(f.listCalls, listCall{*opts.Offset, *opts.Limit})
	out := []*models.Document{}
	for i := *opts.Offset; i < *opts.Offset+*opts.Limit && i < f.count; i++ {
		out = append(out, &models.Document{ID: 100 + i, CreatorID: 1})
	}
	return out, nil
}

func (f *fakeDocuments) RetrieveDocument(_ context.Context, opts documents.RetrieveDocumentOptions) (*models.Document, error) {
	if f.retrieveErr != nil {
		return nil, f.retrieveErr
	}
	doc, ok := f.byID[*opts.ID]
	if !ok {
		return nil, errcodes.NotFound("Document")
	}
	return doc, nil
}

type fakeOracle struct {
	results *search.Results
	err     error

	calls []search.Options
	texts []string
}

func (o *fakeOracle) Search(_ context.Context, text string, opts search.Options) (*search.Results, error) {
	o.calls = append(o.calls, opts)
	o.texts = append(o.texts, text)
	if o.err != nil {
		return nil, o.err
	}
	return o.results, nil
}

func kinds(entries []Entry) []models.EntryKind {
	out := make([]models.EntryKind, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.Kind())
	}
	return out
}

func ids(entries []Entry) []int {
	out := make([]int, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.EntryID())
	}
	return out
}

func query(page, pageSize int) Query {
	return Query{Page: page, PageSize: pageSize, Sort: models.DefaultSort}
}

func TestListEntries_PlainPages(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	f := &fakeFolders{count: 3}
	d := &fakeDocuments{count: 8}
	svc := NewService(f, d, &fakeOracle{}, 100)

	page1, err := svc.ListEntries(ctx, 1, query(1, 5), nil)
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2, 3, 100, 101}, ids(page1.Data))
	assert.Equal(t, Metadata{CurrentPage: 1, PageSize: 5, TotalCount: 11, TotalPages: 3}, page1.Metadata)

	page2, err := svc.ListEntries(ctx, 1, query(2, 5), nil)
	require.NoError(t, err)
	assert.Equal(t, []int{102, 103, 104, 105, 106}, ids(page2.Data))

	page3, err := svc.ListEntries(ctx, 1, query(3, 5), nil)
	require.NoError(t, err)
	assert.Equal(t, []int{107}, ids(page3.Data))
	assert.Equal(t, 3, page3.Metadata.TotalPages)

	// Pages 2 and 3 never ask for folders.
	assert.Equal(t, []listCall{{0, 3}}, f.listCalls)
	assert.Equal(t, []listCall{{0, 2}, {2, 5}, {7, 1}}, d.listCalls)
	assert.Equal(t, 3, f.countCalls)
	assert.Equal(t, 3, d.countCalls)
}

func TestListEntries_FoldersPrecedeDocuments(t *testing.T) {
	t.Parallel()
	svc := NewService(&fakeFolders{count: 2}, &fakeDocuments{count: 2}, &fakeOracle{}, 100)

	result, err := svc.ListEntries(context.Background(), 1, query(1, 10), nil)
	require.NoError(t, err)
	assert.Equal(t, []models.EntryKind{
		models.EntryKindFolder, models.EntryKindFolder,
		models.EntryKindDocument, models.EntryKindDocument,
	}, kinds(result.Data))
}

func TestListEntries_PastTheEnd(t *testing.T) {
	t.Parallel()
	f := &fakeFolders{count: 1}
	d := &fakeDocuments{count: 1}
	svc := NewService(f, d, &fakeOracle{}, 100)

	result, err := svc.ListEntries(context.Background(), 1, query(4, 5), nil)
	require.NoError(t, err)
	assert.NotNil(t, result.Data)
	assert.Empty(t, result.Data)
	assert.Equal(t, 2, result.Metadata.TotalCount)
	assert.Equal(t, 1, result.Metadata.TotalPages)
	assert.Empty(t, f.listCalls)
	assert.Empty(t, d.listCalls)
}

func TestListEntries_LargestPageIsEmpty(t *testing.T) {
	t.Parallel()
	f := &fakeFolders{count: 3}
	d := &fakeDocuments{count: 8}
	svc := NewService(f, d, &fakeOracle{}, 100)

	page := math.MaxInt/4 + 1
	result, err := svc.ListEntries(context.Background(), 1, query(page, 4), nil)
	require.NoError(t, err)
	assert.Empty(t, result.Data)
	assert.Equal(t, page, result.Metadata.CurrentPage)
	assert.Equal(t, 11, result.Metadata.TotalCount)
	assert.Equal(t, 3, result.Metadata.TotalPages)
	assert.Empty(t, f.listCalls)
	assert.Empty(t, d.listCalls)
}

func TestListEntries_PageSizeCeilingFromConfig(t *testing.T) {
	t.Parallel()
	f := &fakeFolders{count: 150}
	d := &fakeDocuments{}
	svc := NewService(f, d, &fakeOracle{}, 200)

	result, err := svc.ListEntries(context.Background(), 1, query(1, 150), nil)
	require.NoError(t, err)
	assert.Len(t, result.Data, 150)

	_, err = svc.ListEntries(context.Background(), 1, query(1, 201), nil)
	var codeErr *errcodes.Error
	require.ErrorAs(t, err, &codeErr)
	assert.Equal(t, http.StatusUnprocessableEntity, codeErr.HTTPCode)
}

func TestListEntries_Validation(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		query Query
	}{
		{"zero page", Query{Page: 0, PageSize: 10}},
		{"negative page", Query{Page: -1, PageSize: 10}},
		{"zero page size", Query{Page: 1, PageSize: 0}},
		{"oversized page size", Query{Page: 1, PageSize: 101}},
		{"offset overflows", Query{Page: math.MaxInt/4 + 2, PageSize: 4}},
		{"max page", Query{Page: math.MaxInt, PageSize: 2}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			f := &fakeFolders{}
			d := &fakeDocuments{}
			o := &fakeOracle{}
			svc := NewService(f, d, o, 100)

			_, err := svc.ListEntries(context.Background(), 1, tt.query, pointerutil.Int(1))
			var codeErr *errcodes.Error
			require.ErrorAs(t, err, &codeErr)
			assert.Equal(t, http.StatusUnprocessableEntity, codeErr.HTTPCode)

			assert.Zero(t, f.countCalls)
			assert.Empty(t, f.retrieves)
			assert.Zero(t, d.countCalls)
			assert.Empty(t, o.calls)
		})
	}
}

func TestListEntries_StoreFailure(t *testing.T) {
	t.Parallel()

	svc := NewService(&fakeFolders{count: 1}, &fakeDocuments{countErr: errStore}, &fakeOracle{}, 100)
	_, err := svc.ListEntries(context.Background(), 1, query(1, 10), nil)
	var codeErr *errcodes.Error
	require.ErrorAs(t, err, &codeErr)
	assert.Equal(t, http.StatusInternalServerError, codeErr.HTTPCode)
	assert.Equal(t, "retrieval_error", codeErr.Code)
	assert.ErrorIs(t, err, errStore)

	svc = NewService(&fakeFolders{count: 1, listErr: errStore}, &fakeDocuments{}, &fakeOracle{}, 100)
	_, err = svc.ListEntries(context.Background(), 1, query(1, 10), nil)
	assert.ErrorIs(t, err, errStore)
}

func TestListEntries_ScopedFolder(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	scope := &models.Folder{ID: 7, CreatorID: 1, Name: "Taxes", ChildrenCount: 2}
	f := &fakeFolders{count: 2, byID: map[int]*models.Folder{7: scope}}
	svc := NewService(f, &fakeDocuments{count: 1}, &fakeOracle{}, 100)

	result, err := svc.ListEntries(ctx, 1, query(1, 10), &scope.ID)
	require.NoError(t, err)
	assert.Len(t, result.Data, 3)
	require.NotNil(t, result.Metadata.Folder)
	assert.Equal(t, "Taxes", result.Metadata.Folder.Name)
	require.NotNil(t, result.Metadata.ChildrenCount)
	assert.Equal(t, 2, *result.Metadata.ChildrenCount)

	// Another user's folder is missing, not empty.
	_, err = svc.ListEntries(ctx, 2, query(1, 10), &scope.ID)
	assert.ErrorIs(t, err, errcodes.NotFound("Folder"))

	_, err = svc.ListEntries(ctx, 1, query(1, 10), pointerutil.Int(8))
	assert.ErrorIs(t, err, errcodes.NotFound("Folder"))
}

func TestListEntries_UnscopedHasNoFolderMetadata(t *testing.T) {
	t.Parallel()
	svc := NewService(&fakeFolders{}, &fakeDocuments{}, &fakeOracle{}, 100)

	result, err := svc.ListEntries(context.Background(), 1, query(1, 10), nil)
	require.NoError(t, err)
	assert.Nil(t, result.Metadata.Folder)
	assert.Nil(t, result.Metadata.ChildrenCount)
	assert.Equal(t, 0, result.Metadata.TotalPages)
}

func TestListEntries_BlankSearchUsesPlainListing(t *testing.T) {
	t.Parallel()
	o := &fakeOracle{}
	svc := NewService(&fakeFolders{count: 1}, &fakeDocuments{}, o, 100)

	q := query(1, 10)
	q.SearchQuery = "   \t "
	result, err := svc.ListEntries(context.Background(), 1, q, nil)
	require.NoError(t, err)
	assert.Len(t, result.Data, 1)
	assert.Empty(t, o.calls)
}

func TestListEntries_SearchKeepsOracleOrderAndDropsStaleHits(t *testing.T) {
	t.Parallel()
	f := &fakeFolders{byID: map[int]*models.Folder{
		1: {ID: 1, CreatorID: 1, Name: "Invoices"},
	}}
	d := &fakeDocuments{byID: map[int]*models.Document{
		1: {ID: 1, CreatorID: 1, Name: "invoice-1"},
		3: {ID: 3, CreatorID: 1, Name: "invoice-3"},
	}}
	o := &fakeOracle{results: &search.Results{
		Hits: []search.Hit{
			{Kind: models.EntryKindDocument, ID: 3},
			{Kind: models.EntryKindDocument, ID: 2}, // hard removed
			{Kind: models.EntryKindFolder, ID: 1},
			{Kind: models.EntryKindDocument, ID: 1},
		},
		Total: 4,
	}}
	svc := NewService(f, d, o, 100)

	q := query(2, 4)
	q.SearchQuery = "  inv  "
	result, err := svc.ListEntries(context.Background(), 1, q, nil)
	require.NoError(t, err)

	assert.Equal(t, []models.EntryKind{models.EntryKindDocument, models.EntryKindFolder, models.EntryKindDocument}, kinds(result.Data))
	assert.Equal(t, []int{3, 1, 1}, ids(result.Data))
	assert.Equal(t, Metadata{CurrentPage: 2, PageSize: 4, TotalCount: 4, TotalPages: 1}, result.Metadata)

	require.Len(t, o.calls, 1)
	assert.Equal(t, "inv", o.texts[0])
	assert.Equal(t, 4, o.calls[0].From)
	assert.Equal(t, 4, o.calls[0].Size)
	require.NotNil(t, o.calls[0].CreatorID)
	assert.Equal(t, 1, *o.calls[0].CreatorID)
	assert.False(t, o.calls[0].IncludeDeleted)
	assert.ElementsMatch(t, []models.EntryKind{models.EntryKindFolder, models.EntryKindDocument}, o.calls[0].Kinds)
}

func TestListEntries_SearchDropsForeignAndOutOfScopeHits(t *testing.T) {
	t.Parallel()
	scope := &models.Folder{ID: 10, CreatorID: 1}
	f := &fakeFolders{byID: map[int]*models.Folder{
		10: scope,
		11: {ID: 11, CreatorID: 1, ParentID: &scope.ID},
		12: {ID: 12, CreatorID: 1},
	}}
	d := &fakeDocuments{byID: map[int]*models.Document{
		1: {ID: 1, CreatorID: 1, FolderID: &scope.ID},
		2: {ID: 2, CreatorID: 2, FolderID: &scope.ID},
		3: {ID: 3, CreatorID: 1},
	}}
	o := &fakeOracle{results: &search.Results{
		Hits: []search.Hit{
			{Kind: models.EntryKindFolder, ID: 11},
			{Kind: models.EntryKindFolder, ID: 12},
			{Kind: models.EntryKindDocument, ID: 1},
			{Kind: models.EntryKindDocument, ID: 2},
			{Kind: models.EntryKindDocument, ID: 3},
		},
		Total: 5,
	}}
	svc := NewService(f, d, o, 100)

	q := query(1, 10)
	q.SearchQuery = "report"
	result, err := svc.ListEntries(context.Background(), 1, q, &scope.ID)
	require.NoError(t, err)
	assert.Equal(t, []int{11, 1}, ids(result.Data))
	assert.Equal(t, 5, result.Metadata.TotalCount)
	require.NotNil(t, result.Metadata.Folder)

	// Without a scope, only the foreign document is dropped.
	result, err = svc.ListEntries(context.Background(), 1, q, nil)
	require.NoError(t, err)
	assert.Equal(t, []int{11, 12, 1, 3}, ids(result.Data))
}

func TestListEntries_SearchFailure(t *testing.T) {
	t.Parallel()
	q := query(1, 10)
	q.SearchQuery = "tax"

	svc := NewService(&fakeFolders{}, &fakeDocuments{}, &fakeOracle{err: errStore}, 100)
	_, err := svc.ListEntries(context.Background(), 1, q, nil)
	var codeErr *errcodes.Error
	require.ErrorAs(t, err, &codeErr)
	assert.Equal(t, "retrieval_error", codeErr.Code)
	assert.ErrorIs(t, err, errStore)

	// A failing refetch fails the request rather than being dropped.
	o := &fakeOracle{results: &search.Results{Hits: []search.Hit{{Kind: models.EntryKindDocument, ID: 1}}, Total: 1}}
	svc = NewService(&fakeFolders{}, &fakeDocuments{retrieveErr: errStore}, o, 100)
	_, err = svc.ListEntries(context.Background(), 1, q, nil)
	assert.ErrorIs(t, err, errStore)
}
