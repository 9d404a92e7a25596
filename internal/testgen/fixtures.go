package testgen

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/terftw/doc-management/pkg/models"
	"github.com/uptrace/bun"
)

var userSeq atomic.Int64

// File type IDs as seeded by the initial migration.
const (
	FileTypePDF  = 1
	FileTypeDOCX = 2
	FileTypePPTX = 3
	FileTypeXLSX = 4
	FileTypeCSV  = 5
)

// CreateUser inserts a user with a unique email. The password hash is not a
// valid bcrypt hash, so these users can't log in.
func CreateUser(t *testing.T, db *bun.DB, name string) *models.User {
	t.Helper()

	now := time.Now()
	user := &models.User{
		CreatedAt:    now,
		UpdatedAt:    now,
		Email:        fmt.Sprintf("user%d@example.com", userSeq.Add(1)),
		Name:         name,
		PasswordHash: "x",
	}
	_, err := db.NewInsert().Model(user).Returning("*").Exec(context.Background())
	if err != nil {
		t.Fatalf("failed to create user: %v", err)
	}
	return user
}

// FolderOptions configures a generated folder. Zero values get defaults: the
// creator's root, a name of "Folder", and the current time.
type FolderOptions struct {
	Name        string
	Description *string
	Parent      *models.Folder
	IsDeleted   bool
	CreatedAt   time.Time
}

func CreateFolder(t *testing.T, db *bun.DB, creator *models.User, opts FolderOptions) *models.Folder {
	t.Helper()

	folder := &models.Folder{
		Name:        opts.Name,
		Description: opts.Description,
		CreatorID:   creator.ID,
		IsDeleted:   opts.IsDeleted,
		CreatedAt:   opts.CreatedAt,
	}
	if folder.Name == "" {
		folder.Name = "Folder"
	}
	if folder.CreatedAt.IsZero() {
		folder.CreatedAt = time.Now()
	}
	folder.UpdatedAt = folder.CreatedAt
	if opts.Parent != nil {
		folder.ParentID = &opts.Parent.ID
		folder.Depth = opts.Parent.Depth + 1
	}

	_, err := db.NewInsert().Model(folder).Returning("*").Exec(context.Background())
	if err != nil {
		t.Fatalf("failed to create folder: %v", err)
	}
	return folder
}

// DocumentOptions configures a generated document. Zero values get
// defaults: a root-level 1 KiB PDF named "Document" created now.
type DocumentOptions struct {
	Name        string
	Description *string
	FileTypeID  int
	FileSize    int64
	Folder      *models.Folder
	IsDeleted   bool
	CreatedAt   time.Time
}

func CreateDocument(t *testing.T, db *bun.DB, creator *models.User, opts DocumentOptions) *models.Document {
	t.Helper()

	doc := &models.Document{
		Name:        opts.Name,
		Description: opts.Description,
		FileTypeID:  opts.FileTypeID,
		FileSize:    opts.FileSize,
		CreatorID:   creator.ID,
		IsDeleted:   opts.IsDeleted,
		CreatedAt:   opts.CreatedAt,
	}
	if doc.Name == "" {
		doc.Name = "Document"
	}
	if doc.FileTypeID == 0 {
		doc.FileTypeID = FileTypePDF
	}
	if doc.FileSize == 0 {
		doc.FileSize = 1024
	}
	if doc.CreatedAt.IsZero() {
		doc.CreatedAt = time.Now()
	}
	doc.UpdatedAt = doc.CreatedAt
	if opts.Folder != nil {
		doc.FolderID = &opts.Folder.ID
	}

	_, err := db.NewInsert().Model(doc).Returning("*").Exec(context.Background())
	if err != nil {
		t.Fatalf("failed to create document: %v", err)
	}
	return doc
}

// Clock returns a function yielding strictly increasing timestamps one
// minute apart, starting at base.
func Clock(base time.Time) func() time.Time {
	var n int
	return func() time.Time {
		n++
		return base.Add(time.Duration(n) * time.Minute)
	}
}
