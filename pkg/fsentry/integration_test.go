package fsentry

import (
	"context"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/terftw/doc-management/internal/testgen"
	"github.com/terftw/doc-management/pkg/config"
	"github.com/terftw/doc-management/pkg/documents"
	"github.com/terftw/doc-management/pkg/errcodes"
	"github.com/terftw/doc-management/pkg/folders"
	"github.com/terftw/doc-management/pkg/models"
	"github.com/terftw/doc-management/pkg/search"
	"github.com/uptrace/bun"
)

var base = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

type testEnv struct {
	db            *bun.DB
	searchService *search.Service
	entryService  *Service
}

func setupTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db := testgen.NewDB(t)
	cfg := config.NewForTest()
	folderService := folders.NewService(db, cfg)
	searchService := search.NewService(db, cfg)
	return &testEnv{
		db:            db,
		searchService: searchService,
		entryService:  NewService(folderService, documents.NewService(db, folderService), searchService, cfg.MaxPageSize),
	}
}

func entryKey(e Entry) string {
	return string(e.Kind()) + ":" + strconv.Itoa(e.EntryID())
}

func TestIntegration_PagesHaveNoDuplicatesOrDeletedEntries(t *testing.T) {
	t.Parallel()
	env := setupTestEnv(t)
	ctx := context.Background()
	clock := testgen.Clock(base)
	user := testgen.CreateUser(t, env.db, "Alice")
	other := testgen.CreateUser(t, env.db, "Bob")

	expected := map[string]bool{}
	for i := 0; i < 3; i++ {
		f := testgen.CreateFolder(t, env.db, user, testgen.FolderOptions{Name: "Folder " + strconv.Itoa(i), CreatedAt: clock()})
		expected[entryKey(FolderToEntry(f))] = true
	}
	for i := 0; i < 8; i++ {
		d := testgen.CreateDocument(t, env.db, user, testgen.DocumentOptions{Name: "Doc " + strconv.Itoa(i), CreatedAt: clock()})
		expected[entryKey(DocumentToEntry(d))] = true
	}
	// Noise that must never show up.
	testgen.CreateFolder(t, env.db, user, testgen.FolderOptions{IsDeleted: true, CreatedAt: clock()})
	testgen.CreateDocument(t, env.db, user, testgen.DocumentOptions{IsDeleted: true, CreatedAt: clock()})
	testgen.CreateDocument(t, env.db, other, testgen.DocumentOptions{CreatedAt: clock()})

	seen := map[string]bool{}
	var kindsInOrder [][]models.EntryKind
	for page := 1; page <= 3; page++ {
		result, err := env.entryService.ListEntries(ctx, user.ID, Query{Page: page, PageSize: 5, Sort: models.DefaultSort}, nil)
		require.NoError(t, err)
		assert.Equal(t, 11, result.Metadata.TotalCount)
		assert.Equal(t, 3, result.Metadata.TotalPages)
		kindsInOrder = append(kindsInOrder, kinds(result.Data))

		for _, e := range result.Data {
			key := entryKey(e)
			assert.False(t, seen[key], "duplicate entry %s", key)
			seen[key] = true
		}
	}
	assert.Equal(t, expected, seen)

	assert.Equal(t, []models.EntryKind{
		models.EntryKindFolder, models.EntryKindFolder, models.EntryKindFolder,
		models.EntryKindDocument, models.EntryKindDocument,
	}, kindsInOrder[0])
	assert.Len(t, kindsInOrder[2], 1)
}

func TestIntegration_SortWithinKind(t *testing.T) {
	t.Parallel()
	env := setupTestEnv(t)
	ctx := context.Background()
	clock := testgen.Clock(base)
	user := testgen.CreateUser(t, env.db, "Alice")

	testgen.CreateFolder(t, env.db, user, testgen.FolderOptions{Name: "b", CreatedAt: clock()})
	testgen.CreateFolder(t, env.db, user, testgen.FolderOptions{Name: "a", CreatedAt: clock()})
	testgen.CreateDocument(t, env.db, user, testgen.DocumentOptions{Name: "d", CreatedAt: clock()})
	testgen.CreateDocument(t, env.db, user, testgen.DocumentOptions{Name: "c", CreatedAt: clock()})

	names := func(result *Result) []string {
		out := []string{}
		for _, e := range result.Data {
			switch v := e.(type) {
			case *FolderEntry:
				out = append(out, v.Name)
			case *DocumentEntry:
				out = append(out, v.Name)
			}
		}
		return out
	}

	result, err := env.entryService.ListEntries(ctx, user.ID, Query{Page: 1, PageSize: 10, Sort: models.DefaultSort}, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c", "d"}, names(result))

	result, err = env.entryService.ListEntries(ctx, user.ID, Query{
		Page:     1,
		PageSize: 10,
		Sort:     models.Sort{By: models.SortByName, Order: models.SortOrderDesc},
	}, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"b", "a", "d", "c"}, names(result))
}

func TestIntegration_ScopedListing(t *testing.T) {
	t.Parallel()
	env := setupTestEnv(t)
	ctx := context.Background()
	alice := testgen.CreateUser(t, env.db, "Alice")
	bob := testgen.CreateUser(t, env.db, "Bob")

	empty := testgen.CreateFolder(t, env.db, alice, testgen.FolderOptions{Name: "Empty"})
	parent := testgen.CreateFolder(t, env.db, alice, testgen.FolderOptions{Name: "Parent"})
	child := testgen.CreateFolder(t, env.db, alice, testgen.FolderOptions{Name: "Child", Parent: parent})
	testgen.CreateDocument(t, env.db, alice, testgen.DocumentOptions{Folder: parent})
	testgen.CreateDocument(t, env.db, alice, testgen.DocumentOptions{Folder: child})
	deleted := testgen.CreateFolder(t, env.db, alice, testgen.FolderOptions{IsDeleted: true})
	foreign := testgen.CreateFolder(t, env.db, bob, testgen.FolderOptions{})

	q := Query{Page: 1, PageSize: 10, Sort: models.DefaultSort}

	result, err := env.entryService.ListEntries(ctx, alice.ID, q, &empty.ID)
	require.NoError(t, err)
	assert.Empty(t, result.Data)
	assert.Equal(t, 0, result.Metadata.TotalCount)
	require.NotNil(t, result.Metadata.ChildrenCount)
	assert.Equal(t, 0, *result.Metadata.ChildrenCount)

	result, err = env.entryService.ListEntries(ctx, alice.ID, q, &parent.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, result.Metadata.TotalCount)
	assert.Equal(t, []models.EntryKind{models.EntryKindFolder, models.EntryKindDocument}, kinds(result.Data))
	require.NotNil(t, result.Metadata.Folder)
	assert.Equal(t, "Parent", result.Metadata.Folder.Name)
	assert.Equal(t, 1, *result.Metadata.ChildrenCount)

	for _, id := range []int{deleted.ID, foreign.ID, 999999} {
		_, err = env.entryService.ListEntries(ctx, alice.ID, q, &id)
		assert.ErrorIs(t, err, errcodes.NotFound("Folder"))
	}
}

func TestIntegration_SearchDropsStaleHits(t *testing.T) {
	t.Parallel()
	env := setupTestEnv(t)
	ctx := context.Background()
	clock := testgen.Clock(base)
	user := testgen.CreateUser(t, env.db, "Alice")

	folder := testgen.CreateFolder(t, env.db, user, testgen.FolderOptions{Name: "Invoices", CreatedAt: clock()})
	kept := testgen.CreateDocument(t, env.db, user, testgen.DocumentOptions{Name: "invoice-april", CreatedAt: clock()})
	removed := testgen.CreateDocument(t, env.db, user, testgen.DocumentOptions{Name: "invoice-may", CreatedAt: clock()})
	require.NoError(t, env.searchService.RebuildAllIndexes(ctx))

	// Remove the row behind the index's back.
	_, err := env.db.NewDelete().Model((*models.Document)(nil)).Where("id = ?", removed.ID).Exec(ctx)
	require.NoError(t, err)

	result, err := env.entryService.ListEntries(ctx, user.ID, Query{Page: 1, PageSize: 10, SearchQuery: "inv"}, nil)
	require.NoError(t, err)
	assert.Equal(t, 3, result.Metadata.TotalCount)
	assert.Equal(t, 1, result.Metadata.TotalPages)
	assert.Len(t, result.Data, result.Metadata.TotalCount-1)
	assert.ElementsMatch(t, []string{
		entryKey(FolderToEntry(folder)),
		entryKey(DocumentToEntry(kept)),
	}, []string{entryKey(result.Data[0]), entryKey(result.Data[1])})
}

func TestIntegration_SearchWithinFolder(t *testing.T) {
	t.Parallel()
	env := setupTestEnv(t)
	ctx := context.Background()
	user := testgen.CreateUser(t, env.db, "Alice")

	taxes := testgen.CreateFolder(t, env.db, user, testgen.FolderOptions{Name: "Taxes"})
	inside := testgen.CreateDocument(t, env.db, user, testgen.DocumentOptions{Name: "Receipt lunch", Folder: taxes})
	testgen.CreateDocument(t, env.db, user, testgen.DocumentOptions{Name: "Receipt dinner"})
	require.NoError(t, env.searchService.RebuildAllIndexes(ctx))

	result, err := env.entryService.ListEntries(ctx, user.ID, Query{Page: 1, PageSize: 10, SearchQuery: "receipt"}, &taxes.ID)
	require.NoError(t, err)
	require.Len(t, result.Data, 1)
	assert.Equal(t, entryKey(DocumentToEntry(inside)), entryKey(result.Data[0]))
	assert.Equal(t, 2, result.Metadata.TotalCount)
}
