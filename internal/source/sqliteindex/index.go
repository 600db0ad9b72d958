// Package sqliteindex stores documentation records in a SQLite FTS5 index and
// serves prefix queries against it.
package sqliteindex

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"

	"docsearch/internal/domain"
	"docsearch/internal/source"
)

const schema = `
CREATE TABLE IF NOT EXISTS records (
	id          INTEGER PRIMARY KEY,
	object_id   TEXT NOT NULL,
	type        TEXT NOT NULL,
	title       TEXT NOT NULL,
	parameter   TEXT NOT NULL DEFAULT '',
	section     TEXT NOT NULL DEFAULT '',
	content     TEXT NOT NULL,
	breadcrumbs TEXT NOT NULL DEFAULT '[]',
	permalink   TEXT NOT NULL,
	depth       INTEGER NOT NULL DEFAULT 0
);
CREATE VIRTUAL TABLE IF NOT EXISTS records_fts USING fts5(
	title, parameter, content, breadcrumbs,
	tokenize = 'unicode61 remove_diacritics 2'
);`

// Index is a SQLite-backed record index
type Index struct {
	db *sql.DB
	id string
}

// Open opens (creating if needed) the index at path. Results are attributed to id.
func Open(path, id string) (*Index, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA temp_store = memory",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("applying pragma %q: %w", pragma, err)
		}
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	return &Index{db: db, id: id}, nil
}

func (ix *Index) Close() error {
	return ix.db.Close()
}

// Replace swaps the whole index contents for records in one transaction
func (ix *Index) Replace(ctx context.Context, records []domain.Record) error {
	tx, err := ix.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM records"); err != nil {
		return fmt.Errorf("clearing records: %w", err)
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM records_fts"); err != nil {
		return fmt.Errorf("clearing search index: %w", err)
	}
	if err := insertRecords(ctx, tx, records); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing records: %w", err)
	}
	return nil
}

// Add appends records to the index
func (ix *Index) Add(ctx context.Context, records []domain.Record) error {
	tx, err := ix.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if err := insertRecords(ctx, tx, records); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing records: %w", err)
	}
	return nil
}

func insertRecords(ctx context.Context, tx *sql.Tx, records []domain.Record) error {
	recStmt, err := tx.PrepareContext(ctx, `
		INSERT INTO records (object_id, type, title, parameter, section, content, breadcrumbs, permalink, depth)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing record insert: %w", err)
	}
	defer recStmt.Close()

	ftsStmt, err := tx.PrepareContext(ctx, `
		INSERT INTO records_fts (rowid, title, parameter, content, breadcrumbs)
		VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing search insert: %w", err)
	}
	defer ftsStmt.Close()

	for _, rec := range records {
		crumbs, err := json.Marshal([]string(rec.Breadcrumbs))
		if err != nil {
			return fmt.Errorf("encoding breadcrumbs: %w", err)
		}
		recordType := rec.Type
		if recordType == "" {
			recordType = "text"
		}

		res, err := recStmt.ExecContext(ctx, rec.ObjectID, recordType, rec.Title, rec.Parameter,
			rec.Section, rec.Content, string(crumbs), rec.Permalink, rec.Depth)
		if err != nil {
			return fmt.Errorf("inserting record %q: %w", rec.Title, err)
		}
		rowID, err := res.LastInsertId()
		if err != nil {
			return fmt.Errorf("reading record id: %w", err)
		}
		if rec.ObjectID == "" {
			if _, err := tx.ExecContext(ctx, "UPDATE records SET object_id = ? WHERE id = ?",
				fmt.Sprintf("rec-%d", rowID), rowID); err != nil {
				return fmt.Errorf("assigning object id: %w", err)
			}
		}

		if _, err := ftsStmt.ExecContext(ctx, rowID, rec.Title, rec.Parameter, rec.Content,
			strings.Join(rec.Breadcrumbs, " ")); err != nil {
			return fmt.Errorf("indexing record %q: %w", rec.Title, err)
		}
	}
	return nil
}

// Count returns the number of indexed records
func (ix *Index) Count(ctx context.Context) (int, error) {
	var n int
	if err := ix.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM records").Scan(&n); err != nil {
		return 0, fmt.Errorf("counting records: %w", err)
	}
	return n, nil
}

// Fetch implements source.QuerySource. Every term is prefix matched; ranking
// is bm25 weighted towards titles and parameter names, then shallower records.
func (ix *Index) Fetch(ctx context.Context, query string, pageSize int) ([]domain.ResultItem, error) {
	if pageSize <= 0 {
		pageSize = source.DefaultPageSize
	}

	records, err := ix.Search(ctx, query, pageSize)
	if err != nil {
		return nil, err
	}

	items := make([]domain.ResultItem, 0, len(records))
	for _, rec := range records {
		items = append(items, rec.Item(ix.id))
	}
	return items, nil
}

// Search returns matching records; Content holds an FTS5 snippet for term queries
func (ix *Index) Search(ctx context.Context, query string, limit int) ([]domain.Record, error) {
	var rows *sql.Rows
	var err error

	match := MatchExpression(query)
	if match != "" {
		rows, err = ix.db.QueryContext(ctx, `
			SELECT r.object_id, r.type, r.title, r.parameter, r.section,
			       snippet(records_fts, 2, '', '', '…', 24),
			       r.breadcrumbs, r.permalink, r.depth
			FROM records_fts
			JOIN records r ON r.id = records_fts.rowid
			WHERE records_fts MATCH ?
			ORDER BY bm25(records_fts, 10.0, 8.0, 1.0, 2.0), r.depth, r.id
			LIMIT ?`, match, limit)
	} else {
		rows, err = ix.db.QueryContext(ctx, `
			SELECT object_id, type, title, parameter, section, content, breadcrumbs, permalink, depth
			FROM records
			ORDER BY depth, id
			LIMIT ?`, limit)
	}
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, domain.Unavailable(fmt.Errorf("querying records: %w", err))
	}
	defer rows.Close()

	var records []domain.Record
	for rows.Next() {
		var rec domain.Record
		var crumbs string
		if err := rows.Scan(&rec.ObjectID, &rec.Type, &rec.Title, &rec.Parameter, &rec.Section,
			&rec.Content, &crumbs, &rec.Permalink, &rec.Depth); err != nil {
			return nil, domain.Unavailable(fmt.Errorf("scanning record: %w", err))
		}
		if err := json.Unmarshal([]byte(crumbs), &rec.Breadcrumbs); err != nil {
			return nil, domain.Unavailable(fmt.Errorf("decoding breadcrumbs for %s: %w", rec.ObjectID, err))
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.Unavailable(fmt.Errorf("reading records: %w", err))
	}
	return records, nil
}

// MatchExpression turns free text into an FTS5 expression of quoted prefix terms
func MatchExpression(text string) string {
	terms := source.Terms(text)
	parts := make([]string, 0, len(terms))
	for _, term := range terms {
		term = strings.ReplaceAll(term, `"`, `""`)
		parts = append(parts, `"`+term+`"*`)
	}
	return strings.Join(parts, " ")
}
