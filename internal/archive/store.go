// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package archive persists harvested records in a local SQLite database
// with a full-text index over the raw lines. The archive is incremental:
// re-ingesting the same records is idempotent, so a harvest can be re-run
// after fixing failed pages without duplicating rows.
package archive

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"fmt"
	"io"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/genharvest/pkg/types"
)

const (
	indexDir = "index"
	dbFile   = "records.db"
)

// Store manages the record archive SQLite database.
type Store struct {
	db         *sql.DB
	archiveDir string
	maxResults int

	// fts reports whether the sqlite build provides the fts5 module.
	// Without it queries fall back to substring search.
	fts bool
}

// NewStore opens or creates the archive database at
// archiveDir/index/records.db, creating the schema if needed.
func NewStore(cfg types.ArchiveConfig) (*Store, error) {
	dbDir := filepath.Join(cfg.ArchiveDir, indexDir)
	if err := os.MkdirAll(dbDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating index directory: %w", err)
	}

	dbPath := filepath.Join(dbDir, dbFile)
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	maxResults := cfg.MaxResults
	if maxResults <= 0 {
		maxResults = 20
	}

	s := &Store{
		db:         db,
		archiveDir: cfg.ArchiveDir,
		maxResults: maxResults,
	}

	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS records (
			rowid INTEGER PRIMARY KEY AUTOINCREMENT,
			id TEXT NOT NULL UNIQUE,
			last_name TEXT,
			first_name TEXT,
			patronymic TEXT,
			extra TEXT,
			gender TEXT,
			date_birth TEXT,
			place TEXT,
			raw TEXT NOT NULL,
			page INTEGER
		)`,
		`CREATE INDEX IF NOT EXISTS idx_records_last_name ON records(last_name)`,
		`CREATE INDEX IF NOT EXISTS idx_records_gender ON records(gender)`,
	}

	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}

	// FTS5 virtual table with triggers for sync. mattn/go-sqlite3 only
	// compiles the fts5 module in under the sqlite_fts5 build tag, so the
	// index is created when available and skipped otherwise.
	s.fts = s.ftsSupported()

	var ftsExists int
	if err := s.db.QueryRow(
		`SELECT count(*) FROM sqlite_master WHERE type='table' AND name='records_fts'`,
	).Scan(&ftsExists); err != nil {
		return fmt.Errorf("checking FTS table: %w", err)
	}

	if !s.fts {
		if ftsExists != 0 {
			return fmt.Errorf("archive has a full-text index but this binary lacks fts5; rebuild with -tags sqlite_fts5")
		}
		return nil
	}

	if ftsExists == 0 {
		ftsStatements := []string{
			`CREATE VIRTUAL TABLE records_fts USING fts5(raw, place, content=records, content_rowid=rowid)`,
			`CREATE TRIGGER records_ai AFTER INSERT ON records BEGIN
				INSERT INTO records_fts(rowid, raw, place) VALUES (new.rowid, new.raw, new.place);
			END`,
			`CREATE TRIGGER records_ad AFTER DELETE ON records BEGIN
				INSERT INTO records_fts(records_fts, rowid, raw, place) VALUES('delete', old.rowid, old.raw, old.place);
			END`,
			`CREATE TRIGGER records_au AFTER UPDATE ON records BEGIN
				INSERT INTO records_fts(records_fts, rowid, raw, place) VALUES('delete', old.rowid, old.raw, old.place);
				INSERT INTO records_fts(rowid, raw, place) VALUES (new.rowid, new.raw, new.place);
			END`,
		}
		for _, stmt := range ftsStatements {
			if _, err := s.db.Exec(stmt); err != nil {
				return fmt.Errorf("creating FTS infrastructure: %w", err)
			}
		}
	}

	return nil
}

// ftsSupported checks for the fts5 module by creating a throwaway virtual
// table in the temp schema.
func (s *Store) ftsSupported() bool {
	if _, err := s.db.Exec(`CREATE VIRTUAL TABLE temp.fts_check USING fts5(x)`); err != nil {
		return false
	}
	s.db.Exec(`DROP TABLE temp.fts_check`)
	return true
}

// stableID derives a deterministic record ID from the raw line and its
// page: the first 12 hex characters of SHA-256(raw, page). Identical lines
// on different pages are distinct records (a name can recur in the topic).
func stableID(raw string, page int) string {
	h := sha256.New()
	h.Write([]byte(raw))
	fmt.Fprintf(h, "|%d", page)
	return fmt.Sprintf("%x", h.Sum(nil))[:12]
}

// Ingest inserts records harvested from one page. Existing records with
// the same stable ID are updated in place, so re-ingesting a page is
// idempotent. The upsert goes through the UPDATE trigger, keeping the
// full-text index in sync; REPLACE would delete-and-reinsert without
// firing the delete trigger and strand stale index entries.
// Returns the number of records written.
func (s *Store) Ingest(ctx context.Context, records []types.Record, page int) (int, error) {
	if len(records) == 0 {
		return 0, nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO records
			(id, last_name, first_name, patronymic, extra, gender, date_birth, place, raw, page)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
			last_name = excluded.last_name,
			first_name = excluded.first_name,
			patronymic = excluded.patronymic,
			extra = excluded.extra,
			gender = excluded.gender,
			date_birth = excluded.date_birth,
			place = excluded.place,
			raw = excluded.raw,
			page = excluded.page`)
	if err != nil {
		return 0, fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	for _, r := range records {
		_, err := stmt.ExecContext(ctx,
			stableID(r.Raw, page), r.LastName, r.FirstName, r.Patronymic,
			r.Extra, r.Gender, r.DateBirth, r.Place, r.Raw, page,
		)
		if err != nil {
			return 0, fmt.Errorf("inserting record %q: %w", r.Raw, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("committing: %w", err)
	}
	return len(records), nil
}

// Count returns the number of archived records.
func (s *Store) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT count(*) FROM records`).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting records: %w", err)
	}
	return n, nil
}

// IngestCSV loads a records CSV written by the extraction stage and ingests
// every row under page 0 (page provenance is lost in the flat file).
// Progress goes to w.
func (s *Store) IngestCSV(ctx context.Context, records []types.Record, w io.Writer) (int, error) {
	n, err := s.Ingest(ctx, records, 0)
	if err != nil {
		return 0, err
	}
	total, err := s.Count(ctx)
	if err != nil {
		return n, err
	}
	fmt.Fprintf(w, "ingested %d record(s), archive now holds %d\n", n, total)
	return n, nil
}
