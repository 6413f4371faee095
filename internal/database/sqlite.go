package database

import (
	"database/sql"
	"fmt"
	"time"

	"portal-go/internal/database/migrations"
	"portal-go/internal/portal"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

// SQLiteLedger implements portal.Ledger with one table per log.
type SQLiteLedger struct {
	db   *sql.DB
	path string
}

var _ portal.Ledger = (*SQLiteLedger)(nil)

// NewSQLiteLedger opens the ledger database at path, applying any pending
// migrations. path can be ":memory:".
func NewSQLiteLedger(path string) (*SQLiteLedger, error) {
	db, err := OpenConnection(path)
	if err != nil {
		return nil, err
	}
	if err := migrations.MigrateUp(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrating ledger database: %w", err)
	}
	return &SQLiteLedger{db: db, path: path}, nil
}

// OpenConnection opens and configures a SQLite connection. The pool is
// limited to one connection: SQLite serializes writers anyway, and an
// in-memory database only exists on the connection that created it.
func OpenConnection(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1)

	// Other CLI invocations may hold the write lock briefly.
	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to set busy timeout: %w", err)
	}
	return db, nil
}

// CheckMigrations verifies the schema is at the latest version.
func (s *SQLiteLedger) CheckMigrations() error {
	return migrations.CheckDBMigrationStatus(s.db)
}

// Path returns the database location the ledger was opened with.
func (s *SQLiteLedger) Path() string {
	return s.path
}

func tableFor(log portal.LogName) (string, error) {
	switch log {
	case portal.LogUpload, portal.LogDecline, portal.LogActivity, portal.LogSession, portal.LogSuggestion:
		return string(log) + "_log", nil
	}
	return "", fmt.Errorf("unknown log %q: %w", log, portal.ErrInvalid)
}

func (s *SQLiteLedger) Append(log portal.LogName, rec portal.Record) error {
	table, err := tableFor(log)
	if err != nil {
		return err
	}
	_, err = s.db.Exec(
		"INSERT INTO "+table+" (recorded_at, identity, action, subject, extra) VALUES (?, ?, ?, ?, ?)",
		rec.Time.UTC().Format(portal.RecordTimeFormat), rec.Identity, rec.Action, rec.Subject, rec.Extra,
	)
	if err != nil {
		return fmt.Errorf("appending to %s log: %w: %w", log, portal.ErrIO, err)
	}
	return nil
}

func (s *SQLiteLedger) ReadAll(log portal.LogName) ([]portal.Record, error) {
	table, err := tableFor(log)
	if err != nil {
		return nil, err
	}
	rows, err := s.db.Query("SELECT recorded_at, identity, action, subject, extra FROM " + table + " ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("reading %s log: %w: %w", log, portal.ErrIO, err)
	}
	defer rows.Close()

	var recs []portal.Record
	for rows.Next() {
		var ts string
		var rec portal.Record
		if err := rows.Scan(&ts, &rec.Identity, &rec.Action, &rec.Subject, &rec.Extra); err != nil {
			return nil, fmt.Errorf("scanning %s log: %w: %w", log, portal.ErrIO, err)
		}
		rec.Time, err = time.Parse(portal.RecordTimeFormat, ts)
		if err != nil {
			return nil, fmt.Errorf("parsing %s log timestamp %q: %w: %w", log, ts, portal.ErrIntegrity, err)
		}
		recs = append(recs, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading %s log: %w: %w", log, portal.ErrIO, err)
	}
	return recs, nil
}

func (s *SQLiteLedger) Close() error {
	return s.db.Close()
}
