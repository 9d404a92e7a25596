package search

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/robinjoseph08/golib/logger"
	"github.com/terftw/doc-management/pkg/config"
	"github.com/terftw/doc-management/pkg/models"
	"github.com/uptrace/bun"
	"github.com/xrash/smetrics"
)

const (
	nameWeight = 2.0

	// Jaro-Winkler tuning: boost matches scoring above the threshold by up
	// to prefixSize leading characters in common.
	boostThreshold = 0.7
	prefixSize     = 4
)

// Hit is one ranked match. Folder and document IDs are independent, so a hit
// is only identified by its kind and ID together.
type Hit struct {
	Kind  models.EntryKind
	ID    int
	Score float64
}

type Results struct {
	Hits  []Hit
	Total int
}

type Options struct {
	// Kinds restricts the search to the given entry kinds. Empty means all.
	Kinds          []models.EntryKind
	From           int
	Size           int
	CreatorID      *int
	IncludeDeleted bool
}

type Service struct {
	db            *bun.DB
	maxCandidates int
	minSimilarity float64
}

func NewService(db *bun.DB, cfg *config.Config) *Service {
	return &Service{
		db:            db,
		maxCandidates: cfg.SearchMaxCandidates,
		minSimilarity: cfg.SearchMinSimilarity,
	}
}

type candidate struct {
	ID          int       `bun:"id"`
	CreatedAt   time.Time `bun:"created_at"`
	Name        string    `bun:"name"`
	Description string    `bun:"description"`
	FileType    string    `bun:"file_type"`

	kind  models.EntryKind
	score float64
}

// Search returns the hits for text ranked by relevance. Candidates are pulled
// from the trigram indexes and then re-scored word by word, so a candidate
// only survives when every query word closely matches some word of its name,
// description or file type. Ties are broken by recency.
func (svc *Service) Search(ctx context.Context, text string, opts Options) (*Results, error) {
	words := Words(NormalizeQuery(text))
	if len(words) == 0 {
		return &Results{Hits: []Hit{}}, nil
	}

	var candidates []*candidate
	for _, kind := range []models.EntryKind{models.EntryKindFolder, models.EntryKindDocument} {
		if !includesKind(opts.Kinds, kind) {
			continue
		}
		found, err := svc.findCandidates(ctx, kind, words, opts)
		if err != nil {
			return nil, errors.WithStack(err)
		}
		candidates = append(candidates, found...)
	}

	scored := make([]*candidate, 0, len(candidates))
	for _, c := range candidates {
		score, ok := svc.score(words, c)
		if !ok {
			continue
		}
		c.score = score
		scored = append(scored, c)
	}

	sort.SliceStable(scored, func(i, j int) bool {
		a, b := scored[i], scored[j]
		if a.score != b.score {
			return a.score > b.score
		}
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.After(b.CreatedAt)
		}
		if a.kind != b.kind {
			return a.kind == models.EntryKindFolder
		}
		return a.ID < b.ID
	})

	results := &Results{
		Hits:  []Hit{},
		Total: len(scored),
	}

	from := max(opts.From, 0)
	to := min(from+max(opts.Size, 0), len(scored))
	for i := from; i < to; i++ {
		results.Hits = append(results.Hits, Hit{
			Kind:  scored[i].kind,
			ID:    scored[i].ID,
			Score: scored[i].score,
		})
	}

	logger.FromContext(ctx).Debug("search completed", logger.Data{
		"candidates": len(candidates),
		"total":      results.Total,
		"returned":   len(results.Hits),
	})

	return results, nil
}

func (svc *Service) findCandidates(ctx context.Context, kind models.EntryKind, words []string, opts Options) ([]*candidate, error) {
	var q *bun.SelectQuery
	var table string
	switch kind {
	case models.EntryKindFolder:
		table = "folders_fts"
		q = svc.db.NewSelect().
			TableExpr(table).
			ColumnExpr("folder_id AS id, created_at, name, description, '' AS file_type")
	case models.EntryKindDocument:
		table = "documents_fts"
		q = svc.db.NewSelect().
			TableExpr(table).
			ColumnExpr("document_id AS id, created_at, name, description, file_type")
	default:
		return nil, errors.Errorf("unknown entry kind %q", kind)
	}

	if opts.CreatorID != nil {
		q = q.Where("creator_id = ?", *opts.CreatorID)
	}
	if !opts.IncludeDeleted {
		q = q.Where("is_deleted = 0")
	}

	if ftsQuery := BuildTrigramQuery(words); ftsQuery != "" {
		q = q.Where(table+" MATCH ?", ftsQuery).OrderExpr("rank")
	} else {
		// Every word is shorter than a trigram, so fall back to substring
		// matching. The trigram tokenizer still serves LIKE, just without
		// the index.
		for _, word := range words {
			pattern := likePattern(word)
			q = q.WhereGroup(" AND ", func(q *bun.SelectQuery) *bun.SelectQuery {
				q = q.Where("name LIKE ? ESCAPE '!'", pattern).
					WhereOr("description LIKE ? ESCAPE '!'", pattern)
				if kind == models.EntryKindDocument {
					q = q.WhereOr("file_type LIKE ? ESCAPE '!'", pattern)
				}
				return q
			})
		}
	}

	if svc.maxCandidates > 0 {
		q = q.Limit(svc.maxCandidates)
	}

	var candidates []*candidate
	if err := q.Scan(ctx, &candidates); err != nil {
		return nil, errors.WithStack(err)
	}
	for _, c := range candidates {
		c.kind = kind
	}
	return candidates, nil
}

// score sums, for every query word, the best weighted similarity it reaches
// against the candidate's words. It reports false when some query word has no
// close enough match at all.
func (svc *Service) score(words []string, c *candidate) (float64, bool) {
	fields := []struct {
		words  []string
		weight float64
	}{
		{Words(c.Name), nameWeight},
		{Words(c.Description), 1},
		{Words(c.FileType), 1},
	}

	total := 0.0
	for _, word := range words {
		best := 0.0
		for _, field := range fields {
			for _, fieldWord := range field.words {
				sim := similarity(word, fieldWord)
				if sim < svc.minSimilarity {
					continue
				}
				best = max(best, sim*field.weight)
			}
		}
		if best == 0 {
			return 0, false
		}
		total += best
	}
	return total, true
}

// similarity is 1 when word contains query (so prefixes and partial words
// match fully) and the Jaro-Winkler similarity otherwise.
func similarity(query, word string) float64 {
	if strings.Contains(word, query) {
		return 1
	}
	return smetrics.JaroWinkler(query, word, boostThreshold, prefixSize)
}

func includesKind(kinds []models.EntryKind, kind models.EntryKind) bool {
	if len(kinds) == 0 {
		return true
	}
	for _, k := range kinds {
		if k == kind {
			return true
		}
	}
	return false
}

// IndexFolder adds or updates a folder in the FTS index. Deleted folders stay
// indexed with their flag set so they can be filtered out.
func (svc *Service) IndexFolder(ctx context.Context, folder *models.Folder) error {
	err := svc.DeleteFromIndex(ctx, models.EntryKindFolder, folder.ID)
	if err != nil {
		return errors.WithStack(err)
	}

	description := ""
	if folder.Description != nil {
		description = *folder.Description
	}

	_, err = svc.db.ExecContext(ctx,
		`INSERT INTO folders_fts (folder_id, creator_id, parent_id, is_deleted, created_at, name, description)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		folder.ID,
		folder.CreatorID,
		folder.ParentID,
		folder.IsDeleted,
		folder.CreatedAt,
		folder.Name,
		description,
	)
	return errors.WithStack(err)
}

// IndexDocument adds or updates a document in the FTS index.
func (svc *Service) IndexDocument(ctx context.Context, doc *models.Document) error {
	err := svc.DeleteFromIndex(ctx, models.EntryKindDocument, doc.ID)
	if err != nil {
		return errors.WithStack(err)
	}

	description := ""
	if doc.Description != nil {
		description = *doc.Description
	}

	_, err = svc.db.ExecContext(ctx,
		`INSERT INTO documents_fts (document_id, creator_id, folder_id, is_deleted, created_at, name, description, file_type)
		 VALUES (?, ?, ?, ?, ?, ?, ?, COALESCE((SELECT extension FROM file_types WHERE id = ?), ''))`,
		doc.ID,
		doc.CreatorID,
		doc.FolderID,
		doc.IsDeleted,
		doc.CreatedAt,
		doc.Name,
		description,
		doc.FileTypeID,
	)
	return errors.WithStack(err)
}

// DeleteFromIndex removes an entry from the FTS index.
func (svc *Service) DeleteFromIndex(ctx context.Context, kind models.EntryKind, id int) error {
	var q *bun.DeleteQuery
	switch kind {
	case models.EntryKindFolder:
		q = svc.db.NewDelete().TableExpr("folders_fts").Where("folder_id = ?", id)
	case models.EntryKindDocument:
		q = svc.db.NewDelete().TableExpr("documents_fts").Where("document_id = ?", id)
	default:
		return errors.Errorf("unknown entry kind %q", kind)
	}
	_, err := q.Exec(ctx)
	return errors.WithStack(err)
}

// MarkDeleted flags the given entries as deleted without removing them.
func (svc *Service) MarkDeleted(ctx context.Context, kind models.EntryKind, ids []int) error {
	if len(ids) == 0 {
		return nil
	}
	var err error
	switch kind {
	case models.EntryKindFolder:
		_, err = svc.db.ExecContext(ctx, "UPDATE folders_fts SET is_deleted = 1 WHERE folder_id IN (?)", bun.In(ids))
	case models.EntryKindDocument:
		_, err = svc.db.ExecContext(ctx, "UPDATE documents_fts SET is_deleted = 1 WHERE document_id IN (?)", bun.In(ids))
	default:
		return errors.Errorf("unknown entry kind %q", kind)
	}
	return errors.WithStack(err)
}

// RebuildAllIndexes rebuilds both FTS indexes from the relational tables.
func (svc *Service) RebuildAllIndexes(ctx context.Context) error {
	return svc.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		_, err := tx.ExecContext(ctx, "DELETE FROM folders_fts")
		if err != nil {
			return errors.WithStack(err)
		}
		_, err = tx.ExecContext(ctx, "DELETE FROM documents_fts")
		if err != nil {
			return errors.WithStack(err)
		}

		_, err = tx.ExecContext(ctx, `
			INSERT INTO folders_fts (folder_id, creator_id, parent_id, is_deleted, created_at, name, description)
			SELECT id, creator_id, parent_id, is_deleted, created_at, name, COALESCE(description, '')
			FROM folders
		`)
		if err != nil {
			return errors.WithStack(err)
		}

		_, err = tx.ExecContext(ctx, `
			INSERT INTO documents_fts (document_id, creator_id, folder_id, is_deleted, created_at, name, description, file_type)
			SELECT d.id, d.creator_id, d.folder_id, d.is_deleted, d.created_at, d.name, COALESCE(d.description, ''), ft.extension
			FROM documents d
			JOIN file_types ft ON ft.id = d.file_type_id
		`)
		return errors.WithStack(err)
	})
}
