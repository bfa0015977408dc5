package lifecycle

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/roach88/mealdb/internal/logging"
	"github.com/roach88/mealdb/internal/progress"
	"github.com/roach88/mealdb/internal/schema"
	"github.com/roach88/mealdb/internal/store"
	"github.com/roach88/mealdb/internal/txn"
)

// hookMedium wraps a real medium so tests can pause opens, fail closes and
// fail deletes.
type hookMedium struct {
	*store.Medium

	entered   chan struct{} // closed when Open is first entered
	gate      chan struct{} // Open waits for this to close
	closeErr  error
	deleteErr error
	once      sync.Once
}

func (h *hookMedium) Open(ctx context.Context, name string) (Handle, error) {
	if h.entered != nil {
		h.once.Do(func() { close(h.entered) })
	}
	if h.gate != nil {
		<-h.gate
	}
	sh, err := h.Medium.Open(ctx, name)
	if err != nil {
		return nil, err
	}
	if h.closeErr != nil {
		return &failingHandle{Handle: sh, err: h.closeErr}, nil
	}
	return sh, nil
}

func (h *hookMedium) Delete(ctx context.Context, name string) error {
	if h.deleteErr != nil {
		return h.deleteErr
	}
	return h.Medium.Delete(ctx, name)
}

// failingHandle releases the underlying handle but reports err from Close.
type failingHandle struct {
	*store.Handle
	err error
}

func (f *failingHandle) Close() error {
	if err := f.Handle.Close(); err != nil {
		return err
	}
	return &store.CloseError{Name: f.Name(), Err: f.err}
}

// harness bundles a manager with everything a test inspects.
type harness struct {
	medium      *store.Medium
	mgr         *Manager
	rec         *progress.Recorder
	mu          sync.Mutex
	transitions []Transition
}

func (h *harness) observe(tr Transition) {
	h.mu.Lock()
	h.transitions = append(h.transitions, tr)
	h.mu.Unlock()
}

func (h *harness) Transitions() []Transition {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]Transition(nil), h.transitions...)
}

// visited reports whether any recorded transition entered s.
func (h *harness) visited(s State) bool {
	for _, tr := range h.Transitions() {
		if tr.To == s {
			return true
		}
	}
	return false
}

func (h *harness) resetObservations() {
	h.mu.Lock()
	h.transitions = nil
	h.mu.Unlock()
	h.rec = &progress.Recorder{}
	h.mgr.Log().Watch(h.rec.Record)
}

type harnessOption func(*harnessConfig)

type harnessConfig struct {
	medium func(*store.Medium) Medium
	opts   []Option
}

func withMediumWrapper(fn func(*store.Medium) Medium) harnessOption {
	return func(c *harnessConfig) { c.medium = fn }
}

func withManagerOptions(opts ...Option) harnessOption {
	return func(c *harnessConfig) { c.opts = append(c.opts, opts...) }
}

func newHarness(t *testing.T, hopts ...harnessOption) *harness {
	t.Helper()
	return newHarnessIn(t, t.TempDir(), hopts...)
}

func newHarnessIn(t *testing.T, dir string, hopts ...harnessOption) *harness {
	t.Helper()
	cfg := &harnessConfig{}
	for _, o := range hopts {
		o(cfg)
	}

	medium := store.NewMedium(dir, store.WithLogger(logging.Discard()))
	med := FromStore(medium)
	if cfg.medium != nil {
		med = cfg.medium(medium)
	}

	h := &harness{medium: medium, rec: &progress.Recorder{}}
	opts := []Option{
		WithLogger(logging.Discard()),
		WithStateObserver(h.observe),
		WithRunIDGenerator(NewFixedGenerator("run-1", "run-2", "run-3")),
	}
	opts = append(opts, cfg.opts...)
	mgr, err := New(med, opts...)
	require.NoError(t, err)
	h.mgr = mgr
	mgr.Log().Watch(h.rec.Record)
	return h
}

// seedTexts renders the default catalogue the way the query step does.
func seedTexts(t *testing.T) []string {
	t.Helper()
	meals, err := schema.DefaultSeed()
	require.NoError(t, err)
	out := make([]string, len(meals))
	for i, m := range meals {
		out[i] = m.String()
	}
	return out
}

// corruptStore creates a Meals table that exists but cannot be read by the
// probe.
func corruptStore(t *testing.T, m *store.Medium) {
	t.Helper()
	h, err := m.Open(context.Background(), store.DefaultName)
	require.NoError(t, err)
	_, err = h.DB().Exec("CREATE TABLE Meals (garbage BLOB)")
	require.NoError(t, err)
	require.NoError(t, h.Close())
}

func newMigrator(t *testing.T, opts ...schema.Option) *schema.Migrator {
	t.Helper()
	opts = append([]schema.Option{schema.WithLogger(logging.Discard())}, opts...)
	mig, err := schema.New(txn.New(logging.Discard()), opts...)
	require.NoError(t, err)
	return mig
}

var errDiskLocked = errors.New("file is locked")
