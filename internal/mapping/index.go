// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package mapping

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/visio-preview/pkg/types"
)

// Index is a SQLite record of generated previews, keyed by source document.
// It lets a later run skip documents that have not changed.
type Index struct {
	db *sql.DB
}

// OpenIndex opens or creates the index database at path, creating parent
// directories and the schema as needed.
func OpenIndex(path string) (*Index, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("creating index directory: %w", err)
	}
	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("opening index: %w", err)
	}
	idx := &Index{db: db}
	if err := idx.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return idx, nil
}

// Close releases the database connection.
func (x *Index) Close() error {
	return x.db.Close()
}

func (x *Index) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS documents (
			source TEXT PRIMARY KEY,
			dir TEXT NOT NULL,
			preview TEXT NOT NULL,
			pages INTEGER NOT NULL,
			modified TEXT NOT NULL,
			generated_at TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS previews (
			source TEXT NOT NULL REFERENCES documents(source) ON DELETE CASCADE,
			page_index INTEGER NOT NULL,
			name TEXT NOT NULL,
			path TEXT NOT NULL,
			PRIMARY KEY (source, page_index)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_previews_name ON previews(name)`,
	}
	for _, stmt := range statements {
		if _, err := x.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

// Save replaces the indexed previews of rec.Source.
func (x *Index) Save(ctx context.Context, rec types.MappingRecord, pages []types.PagePreview) error {
	tx, err := x.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM previews WHERE source = ?`, rec.Source); err != nil {
		return fmt.Errorf("deleting old previews: %w", err)
	}
	_, err = tx.ExecContext(ctx,
		`INSERT INTO documents (source, dir, preview, pages, modified, generated_at)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT(source) DO UPDATE SET
			dir=excluded.dir, preview=excluded.preview, pages=excluded.pages,
			modified=excluded.modified, generated_at=excluded.generated_at`,
		rec.Source, rec.Dir, rec.Preview, rec.Pages,
		rec.Modified.UTC().Format(time.RFC3339Nano),
		time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("upserting document: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO previews (source, page_index, name, path) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	for _, p := range pages {
		if _, err := stmt.ExecContext(ctx, rec.Source, p.Index, p.Name, p.Path); err != nil {
			return fmt.Errorf("inserting preview %s: %w", p.Name, err)
		}
	}
	return tx.Commit()
}

// Lookup returns the indexed record and page previews for source. The bool
// is false when source has never been indexed.
func (x *Index) Lookup(ctx context.Context, source string) (types.MappingRecord, []types.PagePreview, bool, error) {
	var (
		rec      types.MappingRecord
		modified string
	)
	err := x.db.QueryRowContext(ctx,
		`SELECT source, dir, preview, pages, modified FROM documents WHERE source = ?`, source,
	).Scan(&rec.Source, &rec.Dir, &rec.Preview, &rec.Pages, &modified)
	if errors.Is(err, sql.ErrNoRows) {
		return types.MappingRecord{}, nil, false, nil
	}
	if err != nil {
		return types.MappingRecord{}, nil, false, fmt.Errorf("looking up %s: %w", source, err)
	}
	if rec.Modified, err = time.Parse(time.RFC3339Nano, modified); err != nil {
		return types.MappingRecord{}, nil, false, fmt.Errorf("parsing modified time of %s: %w", source, err)
	}

	rows, err := x.db.QueryContext(ctx,
		`SELECT page_index, name, path FROM previews WHERE source = ? ORDER BY page_index`, source)
	if err != nil {
		return types.MappingRecord{}, nil, false, fmt.Errorf("querying previews of %s: %w", source, err)
	}
	defer rows.Close()

	var pages []types.PagePreview
	for rows.Next() {
		var p types.PagePreview
		if err := rows.Scan(&p.Index, &p.Name, &p.Path); err != nil {
			return types.MappingRecord{}, nil, false, fmt.Errorf("scanning preview: %w", err)
		}
		pages = append(pages, p)
	}
	if err := rows.Err(); err != nil {
		return types.MappingRecord{}, nil, false, err
	}
	return rec, pages, true, nil
}

// ListOptions filters List. Zero values match everything.
type ListOptions struct {
	// Source matches documents whose path contains this substring.
	Source string
	// Limit caps the number of records (0 = no limit).
	Limit int
}

// List returns indexed mapping records ordered by source path.
func (x *Index) List(ctx context.Context, opts ListOptions) ([]types.MappingRecord, error) {
	query := `SELECT source, dir, preview, pages, modified FROM documents`
	var args []any
	if opts.Source != "" {
		query += ` WHERE instr(source, ?) > 0`
		args = append(args, opts.Source)
	}
	query += ` ORDER BY source`
	if opts.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, opts.Limit)
	}

	rows, err := x.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing documents: %w", err)
	}
	defer rows.Close()

	var records []types.MappingRecord
	for rows.Next() {
		var (
			rec      types.MappingRecord
			modified string
		)
		if err := rows.Scan(&rec.Source, &rec.Dir, &rec.Preview, &rec.Pages, &modified); err != nil {
			return nil, fmt.Errorf("scanning document: %w", err)
		}
		rec.Modified, _ = time.Parse(time.RFC3339Nano, modified)
		records = append(records, rec)
	}
	return records, rows.Err()
}
