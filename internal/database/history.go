package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // SQLite driver
)

// DBFileName is the name of the history database inside the data directory.
const DBFileName = "phrasecrawl.db"

// Run statuses.
const (
	StatusSucceeded = "succeeded"
	StatusFailed    = "failed"
)

// Item outcomes.
const (
	OutcomeFetched = "fetched"
	OutcomeFailed  = "failed"
)

// ErrRunNotFound is returned by GetRun when no run has the requested id.
var ErrRunNotFound = errors.New("run not found")

// HistoryDB stores crawl run history in SQLite.
type HistoryDB struct {
	db     *sql.DB
	dbPath string
}

// Options configures HistoryDB behavior.
type Options struct {
	// CreateIfNotExists creates the directory and database file if missing.
	CreateIfNotExists bool

	// EnableWAL enables Write-Ahead Logging.
	EnableWAL bool
}

// DefaultOptions returns the default database options.
func DefaultOptions() Options {
	return Options{
		CreateIfNotExists: true,
		EnableWAL:         true,
	}
}

// Open opens or creates the history database in dbDir.
// If CreateIfNotExists is false and the database doesn't exist, an error is returned.
func Open(dbDir string, opts Options) (*HistoryDB, error) {
	dbPath := filepath.Join(dbDir, DBFileName)

	if !opts.CreateIfNotExists {
		if _, err := os.Stat(dbPath); os.IsNotExist(err) {
			return nil, fmt.Errorf("database not found at %s (use CreateIfNotExists option to create)", dbPath)
		} else if err != nil {
			return nil, fmt.Errorf("failed to check database path: %w", err)
		}
	} else {
		if err := os.MkdirAll(dbDir, 0750); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	dsn := dbPath + "?mode=rw"
	if opts.CreateIfNotExists {
		dsn = dbPath + "?mode=rwc"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite only supports one writer
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	h := &HistoryDB{db: db, dbPath: dbPath}

	if opts.EnableWAL {
		if _, err := db.ExecContext(context.Background(), "PRAGMA journal_mode=WAL"); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
		}
	}

	if err := h.createTables(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return h, nil
}

// Close closes the database connection.
func (h *HistoryDB) Close() error {
	return h.db.Close()
}

// Path returns the database file path.
func (h *HistoryDB) Path() string {
	return h.dbPath
}

func (h *HistoryDB) createTables() error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		started_at TEXT NOT NULL,
		finished_at TEXT NOT NULL,
		status TEXT NOT NULL,
		listing_url TEXT NOT NULL,
		listed INTEGER NOT NULL DEFAULT 0,
		skipped INTEGER NOT NULL DEFAULT 0,
		total INTEGER NOT NULL DEFAULT 0,
		complete INTEGER NOT NULL DEFAULT 0,
		fetched INTEGER NOT NULL DEFAULT 0,
		failed INTEGER NOT NULL DEFAULT 0,
		writes INTEGER NOT NULL DEFAULT 0,
		store_digest TEXT,
		error TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_runs_started ON runs(started_at);

	-- one row per detail page attempted by a run
	CREATE TABLE IF NOT EXISTS run_items (
		run_id INTEGER NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
		phrase_id TEXT NOT NULL,
		outcome TEXT NOT NULL,
		error TEXT,
		PRIMARY KEY (run_id, phrase_id)
	);

	CREATE INDEX IF NOT EXISTS idx_items_phrase ON run_items(phrase_id);
	`

	_, err := h.db.ExecContext(context.Background(), schema)
	return err
}

// RunRecord is one crawl run.
type RunRecord struct {
	ID          int64
	StartedAt   time.Time
	FinishedAt  time.Time
	Status      string
	ListingURL  string
	Listed      int
	Skipped     int
	Total       int
	Complete    int
	Fetched     int
	Failed      int
	Writes      int
	StoreDigest string
	Error       string

	// Items is only populated by GetRun.
	Items []ItemRecord
}

// Duration returns how long the run took.
func (r *RunRecord) Duration() time.Duration {
	return r.FinishedAt.Sub(r.StartedAt)
}

// ItemRecord is the outcome of one detail fetch within a run.
type ItemRecord struct {
	PhraseID string
	Outcome  string
	Error    string
}

// RecordRun stores a run and its items in one transaction and returns the
// run id.
func (h *HistoryDB) RecordRun(ctx context.Context, run *RunRecord) (id int64, err error) {
	tx, err := h.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	res, err := tx.ExecContext(ctx, `
	INSERT INTO runs (started_at, finished_at, status, listing_url, listed, skipped, total,
		complete, fetched, failed, writes, store_digest, error)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		formatTimestamp(run.StartedAt), formatTimestamp(run.FinishedAt), run.Status, run.ListingURL,
		run.Listed, run.Skipped, run.Total, run.Complete, run.Fetched, run.Failed, run.Writes,
		nullString(run.StoreDigest), nullString(run.Error),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to insert run: %w", err)
	}

	id, err = res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get run id: %w", err)
	}

	for _, item := range run.Items {
		if _, err = tx.ExecContext(ctx, `
		INSERT INTO run_items (run_id, phrase_id, outcome, error)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(run_id, phrase_id) DO UPDATE SET
			outcome = excluded.outcome,
			error = excluded.error`,
			id, item.PhraseID, item.Outcome, nullString(item.Error),
		); err != nil {
			return 0, fmt.Errorf("failed to insert run item %s: %w", item.PhraseID, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit run: %w", err)
	}

	run.ID = id
	return id, nil
}

const runColumns = `id, started_at, finished_at, status, listing_url, listed, skipped, total,
	complete, fetched, failed, writes, store_digest, error`

// ListRuns returns the most recent runs, newest first. A limit of 0 or less
// returns all runs.
func (h *HistoryDB) ListRuns(ctx context.Context, limit int) ([]*RunRecord, error) {
	query := `SELECT ` + runColumns + ` FROM runs ORDER BY id DESC`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := h.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	var runs []*RunRecord
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// GetRun returns a run with its items.
func (h *HistoryDB) GetRun(ctx context.Context, id int64) (*RunRecord, error) {
	row := h.db.QueryRowContext(ctx, `SELECT `+runColumns+` FROM runs WHERE id = ?`, id)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %d", ErrRunNotFound, id)
	}
	if err != nil {
		return nil, err
	}

	rows, err := h.db.QueryContext(ctx,
		`SELECT phrase_id, outcome, error FROM run_items WHERE run_id = ? ORDER BY rowid`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to query run items: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var item ItemRecord
		var itemErr sql.NullString
		if err := rows.Scan(&item.PhraseID, &item.Outcome, &itemErr); err != nil {
			return nil, fmt.Errorf("failed to scan run item: %w", err)
		}
		item.Error = itemErr.String
		run.Items = append(run.Items, item)
	}
	return run, rows.Err()
}

// FailingPhrases returns phrase ids whose detail fetch failed in at least
// minFailures runs and never succeeded afterwards, ordered by id.
func (h *HistoryDB) FailingPhrases(ctx context.Context, minFailures int) ([]string, error) {
	rows, err := h.db.QueryContext(ctx, `
	SELECT phrase_id FROM run_items AS f
	WHERE outcome = ?
	AND NOT EXISTS (
		SELECT 1 FROM run_items AS s
		WHERE s.phrase_id = f.phrase_id AND s.outcome = ? AND s.run_id > f.run_id
	)
	GROUP BY phrase_id
	HAVING COUNT(*) >= ?
	ORDER BY phrase_id`, OutcomeFailed, OutcomeFetched, minFailures)
	if err != nil {
		return nil, fmt.Errorf("failed to query failing phrases: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan phrase id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(s scanner) (*RunRecord, error) {
	var (
		run                 RunRecord
		started, finished   string
		digest, errorString sql.NullString
	)
	err := s.Scan(&run.ID, &started, &finished, &run.Status, &run.ListingURL,
		&run.Listed, &run.Skipped, &run.Total, &run.Complete, &run.Fetched, &run.Failed, &run.Writes,
		&digest, &errorString)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan run: %w", err)
	}
	run.StartedAt = parseTimestamp(started)
	run.FinishedAt = parseTimestamp(finished)
	run.StoreDigest = digest.String
	run.Error = errorString.String
	return &run, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func formatTimestamp(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

// timestampFormats are tried in order when reading timestamps back.
var timestampFormats = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
}

// parseTimestamp returns the zero time when no format matches.
func parseTimestamp(s string) time.Time {
	for _, format := range timestampFormats {
		if t, err := time.Parse(format, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
