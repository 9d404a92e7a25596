package models

// EntryKind discriminates the two kinds of file system entries. Folder and
// document IDs are independent, so an entry is only identified by its kind
// and ID together.
type EntryKind string

const (
	EntryKindFolder   EntryKind = "folder"
	EntryKindDocument EntryKind = "document"
)

// Sort columns shared by folder and document listings.
const (
	SortByCreatedAt = "created_at"
	SortByUpdatedAt = "updated_at"
	SortByName      = "name"

	SortOrderAsc  = "asc"
	SortOrderDesc = "desc"
)

// Sort describes how a listing is ordered. Ties are always broken by ID
// ascending so pages stay stable.
type Sort struct {
	By    string
	Order string
}

// DefaultSort is newest first.
var DefaultSort = Sort{By: SortByCreatedAt, Order: SortOrderDesc}
