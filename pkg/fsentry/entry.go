package fsentry

import (
	"github.com/terftw/doc-management/pkg/models"
)

// Entry is either a *FolderEntry or a *DocumentEntry. IDs are only unique
// within a kind.
type Entry interface {
	Kind() models.EntryKind
	EntryID() int

	entry()
}

type FolderEntry struct {
	*models.Folder
	EntryKind models.EntryKind `json:"entryKind"`
}

func (e *FolderEntry) Kind() models.EntryKind { return models.EntryKindFolder }
func (e *FolderEntry) EntryID() int           { return e.ID }
func (e *FolderEntry) entry()                 {}

type DocumentEntry struct {
	*models.Document
	EntryKind models.EntryKind `json:"entryKind"`
}

func (e *DocumentEntry) Kind() models.EntryKind { return models.EntryKindDocument }
func (e *DocumentEntry) EntryID() int           { return e.ID }
func (e *DocumentEntry) entry()                 {}

func FolderToEntry(folder *models.Folder) *FolderEntry {
	return &FolderEntry{Folder: folder, EntryKind: models.EntryKindFolder}
}

func DocumentToEntry(doc *models.Document) *DocumentEntry {
	return &DocumentEntry{Document: doc, EntryKind: models.EntryKindDocument}
}

type Metadata struct {
	CurrentPage int `json:"currentPage"`
	PageSize    int `json:"pageSize"`
	TotalCount  int `json:"totalCount"`
	TotalPages  int `json:"totalPages"`

	// Set only when the listing is scoped to a folder.
	Folder        *models.Folder `json:"folder,omitempty"`
	ChildrenCount *int           `json:"childrenCount,omitempty"`
}

type Result struct {
	Data     []Entry  `json:"data"`
	Metadata Metadata `json:"metadata"`
}

func totalPages(totalCount, pageSize int) int {
	if pageSize <= 0 {
		return 0
	}
	return (totalCount + pageSize - 1) / pageSize
}
