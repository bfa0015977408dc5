package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"

	_ "github.com/mattn/go-sqlite3"

	"github.com/roach88/mealdb/internal/logging"
)

const (
	// DefaultName is the file name of the meal database inside the data dir.
	DefaultName = "Meals.db"

	// DisplayName is the human-facing name of the store.
	DisplayName = "Meal Database"
)

// Medium is the storage medium: a directory holding named SQLite files.
//
// Medium counts every successful open and every released handle so callers
// can verify that handles are never leaked.
type Medium struct {
	dir    string
	logger *slog.Logger

	opens  atomic.Int64
	closes atomic.Int64
}

// MediumOption configures a Medium.
type MediumOption func(*Medium)

// WithLogger sets the logger used by the medium and its handles.
func WithLogger(l *slog.Logger) MediumOption {
	return func(m *Medium) { m.logger = l }
}

// NewMedium returns a medium rooted at dir. The directory is not created;
// a missing directory makes Open fail with an OpenError.
func NewMedium(dir string, opts ...MediumOption) *Medium {
	m := &Medium{dir: dir}
	for _, opt := range opts {
		opt(m)
	}
	m.logger = logging.With(m.logger, "store")
	return m
}

// Dir returns the directory backing the medium.
func (m *Medium) Dir() string {
	return m.dir
}

// Path returns the database file path for name.
func (m *Medium) Path(name string) string {
	return filepath.Join(m.dir, name)
}

// Stats reports handle accounting for the medium.
type Stats struct {
	Opens  int64 `json:"opens"`
	Closes int64 `json:"closes"`
}

// Live returns the number of handles opened but not yet released.
func (s Stats) Live() int64 {
	return s.Opens - s.Closes
}

// Stats returns a snapshot of the open/close counters.
func (m *Medium) Stats() Stats {
	return Stats{Opens: m.opens.Load(), Closes: m.closes.Load()}
}

// Open creates or opens the named SQLite database.
//
// The database is configured with:
//   - WAL mode for concurrent reads during writes
//   - NORMAL synchronous mode (balance durability/performance)
//   - 5-second busy timeout for lock contention
//   - Foreign key enforcement
//
// Any failure is reported as an *OpenError and no handle is held.
func (m *Medium) Open(ctx context.Context, name string) (*Handle, error) {
	if err := validateName(name); err != nil {
		return nil, &OpenError{Name: name, Err: err}
	}
	info, err := os.Stat(m.dir)
	if err != nil {
		return nil, &OpenError{Name: name, Err: fmt.Errorf("storage medium unavailable: %w", err)}
	}
	if !info.IsDir() {
		return nil, &OpenError{Name: name, Err: fmt.Errorf("storage medium unavailable: %s is not a directory", m.dir)}
	}

	path := m.Path(name)
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, &OpenError{Name: name, Err: fmt.Errorf("open database: %w", err)}
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, &OpenError{Name: name, Err: fmt.Errorf("connect to database: %w", err)}
	}

	// SQLite only supports one writer at a time, so limit connections
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := applyPragmas(ctx, db); err != nil {
		db.Close()
		return nil, &OpenError{Name: name, Err: err}
	}

	m.opens.Add(1)
	m.logger.Debug("database opened", "name", name, "path", path)
	return &Handle{db: db, name: name, medium: m}, nil
}

// Delete removes the named database together with its WAL side files.
// Deleting a database that does not exist succeeds.
func (m *Medium) Delete(ctx context.Context, name string) error {
	if err := validateName(name); err != nil {
		return &DeleteError{Name: name, Err: err}
	}
	if err := ctx.Err(); err != nil {
		return &DeleteError{Name: name, Err: err}
	}

	path := m.Path(name)
	var errs []error
	for _, p := range []string{path, path + "-wal", path + "-shm", path + "-journal"} {
		if err := os.Remove(p); err != nil && !errors.Is(err, os.ErrNotExist) {
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		return &DeleteError{Name: name, Err: errors.Join(errs...)}
	}
	m.logger.Debug("database deleted", "name", name, "path", path)
	return nil
}

// Handle is the exclusive ownership token for an open database.
// A Handle is invalid after Close.
type Handle struct {
	db     *sql.DB
	name   string
	medium *Medium

	closeOnce sync.Once
	closeErr  error
}

// Name returns the logical name the handle was opened with.
func (h *Handle) Name() string {
	return h.name
}

// DB returns the underlying sql.DB for direct queries.
// Use with caution - prefer the txn executor for anything that writes.
func (h *Handle) DB() *sql.DB {
	return h.db
}

// BeginTx starts a transaction on the handle's single connection.
func (h *Handle) BeginTx(ctx context.Context, opts *sql.TxOptions) (*sql.Tx, error) {
	if h == nil || h.db == nil {
		return nil, errors.New("store handle is not open")
	}
	return h.db.BeginTx(ctx, opts)
}

// Close releases the handle. Only the first call touches the database; later
// calls return the first call's result. On a *CloseError the handle is still
// considered released.
func (h *Handle) Close() error {
	if h == nil || h.db == nil {
		return nil
	}
	h.closeOnce.Do(func() {
		err := h.db.Close()
		h.medium.closes.Add(1)
		if err != nil {
			h.closeErr = &CloseError{Name: h.name, Err: err}
			h.medium.logger.Warn("database close failed", "name", h.name, "error", err)
			return
		}
		h.medium.logger.Debug("database closed", "name", h.name)
	})
	return h.closeErr
}

// applyPragmas sets required SQLite configuration.
func applyPragmas(ctx context.Context, db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA foreign_keys = ON",
	}

	for _, pragma := range pragmas {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			return fmt.Errorf("failed to execute %q: %w", pragma, err)
		}
	}

	return nil
}

func validateName(name string) error {
	if strings.TrimSpace(name) == "" {
		return errors.New("database name is required")
	}
	if strings.ContainsAny(name, `/\`) || name == "." || name == ".." {
		return fmt.Errorf("database name %q must be a plain file name", name)
	}
	return nil
}

// verifyPragma checks that a pragma is set to the expected value.
// Used for testing.
func (h *Handle) verifyPragma(name, expected string) error {
	var value string
	query := fmt.Sprintf("PRAGMA %s", name)
	if err := h.db.QueryRow(query).Scan(&value); err != nil {
		return fmt.Errorf("failed to query %s: %w", name, err)
	}
	if value != expected {
		return fmt.Errorf("%s = %q, expected %q", name, value, expected)
	}
	return nil
}
