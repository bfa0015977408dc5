package store

import (
	"context"
	"testing"

	"github.com/roach88/mealdb/internal/logging"
)

// createTestMedium returns a medium rooted in a fresh temp dir.
func createTestMedium(t *testing.T) *Medium {
	t.Helper()
	return NewMedium(t.TempDir(), WithLogger(logging.Discard()))
}

// openTestHandle opens DefaultName on m and closes it at cleanup.
func openTestHandle(t *testing.T, m *Medium) *Handle {
	t.Helper()
	h, err := m.Open(context.Background(), DefaultName)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { h.Close() })
	return h
}
