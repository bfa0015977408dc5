package lifecycle

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"

	"github.com/roach88/mealdb/internal/logging"
	"github.com/roach88/mealdb/internal/progress"
	"github.com/roach88/mealdb/internal/schema"
	"github.com/roach88/mealdb/internal/store"
	"github.com/roach88/mealdb/internal/txn"
)

// Progress messages, in the order a fresh run emits them.
const (
	MsgOpening   = "Opening database"
	MsgChecking  = "Database integrity check"
	MsgMigrating = "Database not yet ready ... populating data"
	MsgSeeded    = "Database populated"
	MsgPresent   = "Database is ready"
	MsgClosed    = "Database CLOSED"
	MsgNotOpen   = "Database was not OPENED"
	MsgDeleted   = "Database DELETED"
	ErrorPrefix  = "Error: "
)

// Handle is an open store. *store.Handle satisfies it.
type Handle interface {
	txn.Beginner
	Close() error
}

// Medium is the storage the manager opens and deletes. Use FromStore to
// adapt a *store.Medium.
type Medium interface {
	Open(ctx context.Context, name string) (Handle, error)
	Delete(ctx context.Context, name string) error
}

// FromStore adapts m to Medium.
func FromStore(m *store.Medium) Medium {
	return storeMedium{m}
}

type storeMedium struct {
	*store.Medium
}

func (s storeMedium) Open(ctx context.Context, name string) (Handle, error) {
	h, err := s.Medium.Open(ctx, name)
	if err != nil {
		return nil, err
	}
	return h, nil
}

// Manager owns the single store handle and drives the progress log through
// open, probe, migrate, query and close.
//
// Manager is not reentrant: a second OpenAndRun while one is in flight fails
// with a *BusyError. Close and DeleteStore wait for the in-flight step to
// settle.
type Manager struct {
	medium   Medium
	name     string
	exec     *txn.Executor
	migrator *schema.Migrator
	log      *progress.Log
	logger   *slog.Logger
	ids      RunIDGenerator
	observer func(Transition)

	running atomic.Bool
	sem     chan struct{} // held by whichever operation touches the handle

	// Written only while sem is held; atomics so State and RunID never block.
	state  atomic.Int32
	runID  atomic.Value // string
	handle Handle
}

// Option configures a Manager.
type Option func(*Manager)

// WithName sets the database file name. Defaults to store.DefaultName.
func WithName(name string) Option {
	return func(m *Manager) { m.name = name }
}

// WithLogger sets the base logger.
func WithLogger(l *slog.Logger) Option {
	return func(m *Manager) { m.logger = l }
}

// WithProgressLog supplies the log the manager writes to.
func WithProgressLog(l *progress.Log) Option {
	return func(m *Manager) { m.log = l }
}

// WithMigrator replaces the default migrator (embedded seed catalogue).
func WithMigrator(mig *schema.Migrator) Option {
	return func(m *Manager) { m.migrator = mig }
}

// WithRunIDGenerator overrides the UUIDv7 run identifiers.
func WithRunIDGenerator(g RunIDGenerator) Option {
	return func(m *Manager) { m.ids = g }
}

// WithStateObserver registers fn to receive every state transition. fn runs
// synchronously on the manager's goroutine.
func WithStateObserver(fn func(Transition)) Option {
	return func(m *Manager) { m.observer = fn }
}

// New creates a Manager for medium.
func New(medium Medium, opts ...Option) (*Manager, error) {
	m := &Manager{
		medium: medium,
		name:   store.DefaultName,
		ids:    UUIDv7Generator{},
		sem:    make(chan struct{}, 1),
	}
	for _, opt := range opts {
		opt(m)
	}
	m.exec = txn.New(m.logger)
	if m.migrator == nil {
		mig, err := schema.New(m.exec, schema.WithLogger(m.logger))
		if err != nil {
			return nil, fmt.Errorf("create migrator: %w", err)
		}
		m.migrator = mig
	}
	if m.log == nil {
		m.log = progress.New()
	}
	m.logger = logging.With(m.logger, "lifecycle").With("name", m.name)
	m.runID.Store("")
	m.state.Store(int32(Closed))
	return m, nil
}

// Log returns the progress log. The presentation layer reads it through
// Snapshot or Watch.
func (m *Manager) Log() *progress.Log {
	return m.log
}

// State returns the current lifecycle state.
func (m *Manager) State() State {
	return State(m.state.Load())
}

// RunID returns the identifier of the most recent OpenAndRun.
func (m *Manager) RunID() string {
	return m.runID.Load().(string)
}

// Name returns the database file name the manager operates on.
func (m *Manager) Name() string {
	return m.name
}

// OpenAndRun opens the store, probes the Meals table, migrates it if it is
// missing, queries every meal into the progress log and closes the store.
//
// The handle is released on every exit path. Any error other than a missing
// table is terminal for the run: the log is reset to a single error entry,
// the store is closed and the state settles in Errored.
func (m *Manager) OpenAndRun(ctx context.Context) (err error) {
	if !m.running.CompareAndSwap(false, true) {
		return &BusyError{Op: "open_and_run"}
	}
	defer m.running.Store(false)

	if err := m.acquire(ctx); err != nil {
		return err
	}
	defer m.release()

	runID := m.ids.Generate()
	m.runID.Store(runID)
	logger := m.logger.With("run_id", runID)
	logger.Info("run starting")

	m.log.Reset(MsgOpening)
	m.setState(Opening)

	h, err := m.medium.Open(ctx, m.name)
	if err != nil {
		if !store.IsOpenError(err) {
			err = &store.OpenError{Name: m.name, Err: err}
		}
		logger.Error("open failed", "error", err)
		m.log.Reset(ErrorPrefix + err.Error())
		m.closeLocked(logger, Errored)
		return err
	}
	m.handle = h
	m.setState(Checking)

	defer func() {
		final := Closed
		if err != nil {
			final = Errored
		}
		m.closeLocked(logger, final)
		logger.Info("run finished", "state", m.State(), "ok", err == nil)
	}()

	if err := m.populate(ctx, logger); err != nil {
		logger.Error("run failed", "state", m.State(), "error", err)
		m.log.Reset(ErrorPrefix + err.Error())
		return err
	}
	return nil
}

// populate runs probe, optional migration and query against the held handle.
func (m *Manager) populate(ctx context.Context, logger *slog.Logger) error {
	m.log.Append(MsgChecking)
	result, err := m.migrator.Probe(ctx, m.handle)
	switch {
	case err == nil:
		logger.Debug("schema present")
		m.log.Append(MsgPresent)
	case schema.IsMissing(err):
		logger.Info("schema missing, migrating")
		m.log.Append(MsgMigrating)
		m.setState(Migrating)
		n, err := m.migrator.CreateAndSeed(ctx, m.handle)
		if err != nil {
			return err
		}
		logger.Info("schema seeded", "meals", n)
		m.log.Append(MsgSeeded)
	default:
		// Anything but a missing table is fatal; migrating would mask a
		// damaged store.
		logger.Warn("probe failed", "result", result, "error", err)
		return err
	}

	if err := ctx.Err(); err != nil {
		return err
	}
	m.setState(Querying)
	out, err := m.exec.Run(ctx, m.handle, []txn.Statement{m.migrator.QueryStatement()})
	if err != nil {
		return fmt.Errorf("query meals: %w", err)
	}
	meals, err := schema.MealsFromRows(out.Rows())
	if err != nil {
		return fmt.Errorf("query meals: %w", err)
	}
	for _, meal := range meals {
		m.log.Append(meal.String())
	}
	logger.Debug("query complete", "meals", len(meals))
	return nil
}

// Close releases the store handle if one is held. It waits for any
// in-flight step to finish first. Closing without a handle records
// MsgNotOpen and succeeds, so Close is idempotent. ctx only bounds the wait:
// an idle manager closes even when ctx is already done.
//
// A *store.CloseError is returned for information only; the handle is
// released regardless.
func (m *Manager) Close(ctx context.Context) error {
	select {
	case m.sem <- struct{}{}:
	default:
		if err := m.acquire(ctx); err != nil {
			return err
		}
	}
	defer m.release()
	return m.closeLocked(m.logger, Closed)
}

// closeLocked must be called with sem held.
func (m *Manager) closeLocked(logger *slog.Logger, final State) error {
	if m.handle == nil {
		m.log.Append(MsgNotOpen)
		if final == Errored {
			m.setState(Errored)
		}
		return nil
	}

	m.setState(Closing)
	err := m.handle.Close()
	m.handle = nil
	m.setState(final)

	if err != nil {
		logger.Warn("close failed, handle released", "error", err)
		m.log.Append(fmt.Sprintf("%s%v", ErrorPrefix, err))
		return err
	}
	m.log.Append(MsgClosed)
	return nil
}

// DeleteStore removes the database files. It fails fast with a *BusyError
// while a run is in flight.
func (m *Manager) DeleteStore(ctx context.Context) error {
	if m.running.Load() {
		return &BusyError{Op: "delete_store"}
	}
	if err := m.acquire(ctx); err != nil {
		return err
	}
	defer m.release()

	if m.handle != nil {
		return &BusyError{Op: "delete_store"}
	}

	if err := m.medium.Delete(ctx, m.name); err != nil {
		if !store.IsDeleteError(err) {
			err = &store.DeleteError{Name: m.name, Err: err}
		}
		m.logger.Error("delete failed", "error", err)
		m.log.Reset(ErrorPrefix + err.Error())
		return err
	}
	m.logger.Info("database deleted")
	m.log.Append(MsgDeleted)
	return nil
}

func (m *Manager) acquire(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	select {
	case m.sem <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (m *Manager) release() {
	<-m.sem
}

// setState must be called with sem held, after m.handle reflects the new state.
func (m *Manager) setState(to State) {
	from := State(m.state.Swap(int32(to)))
	if m.observer != nil {
		m.observer(Transition{
			From:       from,
			To:         to,
			HandleHeld: m.handle != nil,
			RunID:      m.RunID(),
		})
	}
}
