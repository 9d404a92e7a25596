package fsentry

// Pagination is the slice of each collection that makes up one page of the
// combined listing.
type Pagination struct {
	FolderSkip    int
	FolderLimit   int
	DocumentSkip  int
	DocumentLimit int
}

// Paginate splits a page of the combined listing between folders and
// documents. Folders always come before documents, so a page starting inside
// the folder range takes what it can from folders and fills the rest from the
// start of the documents. Negative inputs are treated as zero.
func Paginate(skip, folderCount, documentCount, limit int) Pagination {
	skip = max(skip, 0)
	folderCount = max(folderCount, 0)
	documentCount = max(documentCount, 0)
	limit = max(limit, 0)

	if skip < folderCount {
		folderLimit := min(limit, folderCount-skip)
		return Pagination{
			FolderSkip:    skip,
			FolderLimit:   folderLimit,
			DocumentSkip:  0,
			DocumentLimit: min(limit-folderLimit, documentCount),
		}
	}

	documentSkip := skip - folderCount
	return Pagination{
		DocumentSkip:  documentSkip,
		DocumentLimit: max(0, min(limit, documentCount-documentSkip)),
	}
}
