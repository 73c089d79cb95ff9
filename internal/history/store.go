// Package history records finished walks in a SQLite database so past runs
// can be listed and compared. The walker never reads it back.
package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/harrison/fathom/internal/report"
	"github.com/harrison/fathom/internal/walker"
)

var (
	// ErrRunNotFound is returned when no run matches an id.
	ErrRunNotFound = errors.New("run not found")
	// ErrAmbiguousID is returned when an id prefix matches several runs.
	ErrAmbiguousID = errors.New("run id prefix is ambiguous")
)

// Run is the summary row of one recorded walk.
type Run struct {
	ID             string
	Root           string
	StartedAt      time.Time
	Duration       time.Duration
	Partial        bool
	Files          int
	Dirs           int
	BrokenSymlinks int
	Errors         int
	TotalBytes     int64
}

// ErrorRecord is one stored walk error.
type ErrorRecord struct {
	Kind    string
	Path    string
	Message string
}

// RunDetail is a run with its broken links and errors.
type RunDetail struct {
	Run
	BrokenPaths []string
	ErrorList   []ErrorRecord
}

// Store manages the SQLite run history database
type Store struct {
	db     *sql.DB
	dbPath string
}

// NewStore opens (creating if needed) the database at dbPath and applies
// pending migrations. ":memory:" opens a private in-memory database.
func NewStore(dbPath string) (*Store, error) {
	if dbPath != ":memory:" {
		dir := filepath.Dir(dbPath)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}

	// Pooled connections each need the busy timeout, so it goes in the DSN;
	// immediate transactions take the write lock up front.
	dsn := dbPath + "?_busy_timeout=5000&_txlock=immediate"
	if dbPath == ":memory:" {
		dsn = dbPath
	}
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if dbPath == ":memory:" {
		// every pooled connection would otherwise see its own empty database
		db.SetMaxOpenConns(1)
	}

	// busy_timeout first so the rest wait on locks held by concurrent runs
	pragmas := []string{
		"PRAGMA busy_timeout=5000",
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
	}
	for _, pragma := range pragmas {
		if err := execWithRetry(db, pragma, 5, 10*time.Millisecond); err != nil {
			db.Close()
			return nil, fmt.Errorf("set %s: %w", pragma, err)
		}
	}

	store := &Store{db: db, dbPath: dbPath}
	if err := store.ApplyMigrations(context.Background()); err != nil {
		db.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}
	return store, nil
}

// execWithRetry executes a statement with exponential backoff on lock errors.
func execWithRetry(db *sql.DB, stmt string, maxRetries int, baseDelay time.Duration) error {
	var lastErr error
	for attempt := 0; attempt < maxRetries; attempt++ {
		_, err := db.Exec(stmt)
		if err == nil {
			return nil
		}
		if !strings.Contains(err.Error(), "database is locked") {
			return err
		}
		lastErr = err
		time.Sleep(baseDelay * time.Duration(1<<attempt))
	}
	return lastErr
}

// Close closes the database connection
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Record stores a finished report.
func (s *Store) Record(ctx context.Context, r *report.Report) error {
	res := r.Result
	var total int64
	for _, e := range res.Files {
		total += e.Size
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `INSERT INTO runs
		(id, root, started_at, duration_ms, partial, files, dirs, broken_symlinks, errors, total_bytes)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID.String(), r.Root, r.Started.UTC(), r.Duration.Milliseconds(), r.Partial,
		len(res.Files), len(res.Dirs), len(res.BrokenSymlinks), len(res.Errors), total)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}

	for _, p := range res.BrokenSymlinks {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO run_broken_symlinks (run_id, path) VALUES (?, ?)`, r.ID.String(), p); err != nil {
			return fmt.Errorf("insert broken symlink: %w", err)
		}
	}

	for _, walkErr := range res.Errors {
		rec := classifyError(walkErr)
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO run_errors (run_id, kind, path, message) VALUES (?, ?, ?, ?)`,
			r.ID.String(), rec.Kind, rec.Path, rec.Message); err != nil {
			return fmt.Errorf("insert run error: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit run: %w", err)
	}
	return nil
}

// classifyError maps walker errors to a stored kind.
func classifyError(err error) ErrorRecord {
	var (
		dirErr  *walker.DirectoryReadError
		statErr *walker.StatError
		linkErr *walker.SymlinkResolutionError
	)
	switch {
	case errors.As(err, &linkErr) && errors.Is(err, walker.ErrSymlinkCycle):
		return ErrorRecord{Kind: "symlink_cycle", Path: linkErr.Path, Message: err.Error()}
	case errors.As(err, &linkErr):
		return ErrorRecord{Kind: "symlink", Path: linkErr.Path, Message: err.Error()}
	case errors.As(err, &dirErr):
		return ErrorRecord{Kind: "read_dir", Path: dirErr.Path, Message: err.Error()}
	case errors.As(err, &statErr):
		return ErrorRecord{Kind: "stat", Path: statErr.Path, Message: err.Error()}
	default:
		return ErrorRecord{Kind: "other", Message: err.Error()}
	}
}

const runColumns = `id, root, started_at, duration_ms, partial, files, dirs, broken_symlinks, errors, total_bytes`

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(row scanner) (Run, error) {
	var (
		run        Run
		durationMS int64
	)
	err := row.Scan(&run.ID, &run.Root, &run.StartedAt, &durationMS, &run.Partial,
		&run.Files, &run.Dirs, &run.BrokenSymlinks, &run.Errors, &run.TotalBytes)
	run.Duration = time.Duration(durationMS) * time.Millisecond
	return run, err
}

// ListRuns returns the most recent runs first. limit <= 0 means no limit.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+runColumns+` FROM runs ORDER BY started_at DESC, recorded_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	return runs, nil
}

// GetRun loads one run by full id or unique id prefix.
func (s *Store) GetRun(ctx context.Context, id string) (*RunDetail, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, fmt.Errorf("%w: empty id", ErrRunNotFound)
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT `+runColumns+` FROM runs WHERE id = ? OR id LIKE ? ESCAPE '\' LIMIT 2`,
		id, escapeLike(id)+"%")
	if err != nil {
		return nil, fmt.Errorf("query run: %w", err)
	}
	var matches []Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan run: %w", err)
		}
		matches = append(matches, run)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}

	if len(matches) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}
	if len(matches) > 1 {
		return nil, fmt.Errorf("%w: %s", ErrAmbiguousID, id)
	}

	detail := &RunDetail{Run: matches[0]}

	if detail.BrokenPaths, err = s.brokenPaths(ctx, detail.ID); err != nil {
		return nil, err
	}
	if detail.ErrorList, err = s.runErrors(ctx, detail.ID); err != nil {
		return nil, err
	}
	return detail, nil
}

func (s *Store) brokenPaths(ctx context.Context, runID string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT path FROM run_broken_symlinks WHERE run_id = ? ORDER BY path`, runID)
	if err != nil {
		return nil, fmt.Errorf("query broken symlinks: %w", err)
	}
	defer rows.Close()

	var paths []string
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			return nil, fmt.Errorf("scan broken symlink: %w", err)
		}
		paths = append(paths, p)
	}
	return paths, rows.Err()
}

func (s *Store) runErrors(ctx context.Context, runID string) ([]ErrorRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT kind, COALESCE(path, ''), message FROM run_errors WHERE run_id = ? ORDER BY id`, runID)
	if err != nil {
		return nil, fmt.Errorf("query run errors: %w", err)
	}
	defer rows.Close()

	var recs []ErrorRecord
	for rows.Next() {
		var rec ErrorRecord
		if err := rows.Scan(&rec.Kind, &rec.Path, &rec.Message); err != nil {
			return nil, fmt.Errorf("scan run error: %w", err)
		}
		recs = append(recs, rec)
	}
	return recs, rows.Err()
}

// DeleteRunsBefore removes runs started before cutoff, with their broken
// links and errors, and returns how many runs were removed.
func (s *Store) DeleteRunsBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	for _, child := range []string{"run_broken_symlinks", "run_errors"} {
		if _, err := tx.ExecContext(ctx,
			`DELETE FROM `+child+` WHERE run_id IN (SELECT id FROM runs WHERE started_at < ?)`, cutoff.UTC()); err != nil {
			return 0, fmt.Errorf("delete from %s: %w", child, err)
		}
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM runs WHERE started_at < ?`, cutoff.UTC())
	if err != nil {
		return 0, fmt.Errorf("delete runs: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit delete: %w", err)
	}
	return n, nil
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
