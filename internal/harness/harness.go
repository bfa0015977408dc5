package harness

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/roach88/mealdb/internal/lifecycle"
	"github.com/roach88/mealdb/internal/logging"
	"github.com/roach88/mealdb/internal/progress"
	"github.com/roach88/mealdb/internal/store"
	"github.com/roach88/mealdb/internal/testutil"
)

// epoch is the wall time of the first entry in every scenario.
var epoch = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

// Harness is the test execution engine.
// It runs scenarios with a deterministic clock and run IDs, each in a fresh
// data directory.
type Harness struct {
	dataDir string
	logger  *slog.Logger
}

// Option configures a Harness.
type Option func(*Harness)

// WithDataDir runs scenarios in dir instead of a fresh temporary directory.
// The directory must exist and should be empty.
func WithDataDir(dir string) Option {
	return func(h *Harness) { h.dataDir = dir }
}

// WithLogger sets the logger handed to the store and manager.
func WithLogger(l *slog.Logger) Option {
	return func(h *Harness) { h.logger = l }
}

// New creates a Harness.
func New(opts ...Option) *Harness {
	h := &Harness{}
	for _, opt := range opts {
		opt(h)
	}
	if h.logger == nil {
		h.logger = logging.Discard()
	}
	return h
}

// Run executes a scenario with a default Harness.
func Run(ctx context.Context, scenario *Scenario) (*Result, error) {
	return New().Run(ctx, scenario)
}

// Run executes scenario and returns the result.
//
// Execution flow:
//  1. Create a fresh data directory, medium and manager
//  2. Execute each step in order, recording every emitted entry
//  3. Check each step's error against its expect_error
//  4. Evaluate the scenario's expectations
//
// An error is returned only when the scenario could not be executed at all;
// expectation failures are reported through Result.Pass and Result.Errors.
func (h *Harness) Run(ctx context.Context, scenario *Scenario) (*Result, error) {
	dir := h.dataDir
	if dir == "" {
		tmp, err := os.MkdirTemp("", "mealdb-scenario-*")
		if err != nil {
			return nil, fmt.Errorf("create data dir: %w", err)
		}
		defer os.RemoveAll(tmp)
		dir = tmp
	}

	medium := store.NewMedium(dir, store.WithLogger(h.logger))
	clock := testutil.NewClock(epoch, time.Millisecond)
	plog := progress.New(progress.WithNow(clock.Now))

	var (
		mu          sync.Mutex
		transitions []lifecycle.Transition
	)
	mgr, err := lifecycle.New(lifecycle.FromStore(medium),
		lifecycle.WithLogger(h.logger),
		lifecycle.WithProgressLog(plog),
		lifecycle.WithRunIDGenerator(lifecycle.NewFixedGenerator("run-1", "run-2", "run-3", "run-4")),
		lifecycle.WithStateObserver(func(tr lifecycle.Transition) {
			mu.Lock()
			transitions = append(transitions, tr)
			mu.Unlock()
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("create manager: %w", err)
	}

	result := NewResult(scenario.Name)

	// Steps run sequentially on this goroutine and Watch delivers on the
	// writer's goroutine, so current is stable while a step emits.
	var current *StepResult
	cancel := plog.Watch(func(e progress.Entry) {
		ev := TraceEvent{
			Step:  current.Index,
			Op:    current.Op,
			Seq:   e.Seq,
			Text:  e.Text,
			Reset: e.Reset,
		}
		current.Events = append(current.Events, ev)
	})
	defer cancel()

	for i, step := range scenario.Steps {
		current = &StepResult{Index: i, Op: step.Op, Events: []TraceEvent{}}
		stepErr := h.execute(ctx, step, mgr, medium)
		current.ErrKind = lifecycle.ErrorKind(stepErr)
		if stepErr != nil {
			current.Err = stepErr.Error()
		}
		result.Steps = append(result.Steps, *current)
		result.Trace = append(result.Trace, current.Events...)

		if current.ErrKind != step.ExpectError {
			result.AddError(fmt.Sprintf("steps[%d] %s: expected error %s, got %s",
				i, step.Op, describeKind(step.ExpectError), describeErr(current.ErrKind, current.Err)))
		}
	}

	result.Snapshot = plog.Texts()
	result.State = mgr.State()
	result.Stats = medium.Stats()
	mu.Lock()
	result.Transitions = append([]lifecycle.Transition(nil), transitions...)
	mu.Unlock()

	evaluate(scenario, result)
	return result, nil
}

func (h *Harness) execute(ctx context.Context, step Step, mgr *lifecycle.Manager, medium *store.Medium) error {
	switch step.Op {
	case OpRun:
		return mgr.OpenAndRun(ctx)
	case OpClose:
		return mgr.Close(ctx)
	case OpDelete:
		return mgr.DeleteStore(ctx)
	case OpCorrupt:
		return Corrupt(ctx, medium, mgr.Name())
	default:
		return fmt.Errorf("unknown op %q", step.Op)
	}
}

// Corrupt replaces the Meals table in the named store with one that exists
// but cannot be read by the integrity probe.
func Corrupt(ctx context.Context, medium *store.Medium, name string) (err error) {
	h, err := medium.Open(ctx, name)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := h.Close(); err == nil {
			err = cerr
		}
	}()
	if _, err := h.DB().ExecContext(ctx, "DROP TABLE IF EXISTS Meals"); err != nil {
		return fmt.Errorf("corrupt: %w", err)
	}
	if _, err := h.DB().ExecContext(ctx, "CREATE TABLE Meals (garbage BLOB)"); err != nil {
		return fmt.Errorf("corrupt: %w", err)
	}
	return nil
}

func describeKind(kind string) string {
	if kind == "" {
		return "none"
	}
	return kind
}

func describeErr(kind, msg string) string {
	if kind == "" {
		return "none"
	}
	return fmt.Sprintf("%s (%s)", kind, msg)
}
