package store

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpen_CreatesNewDatabase(t *testing.T) {
	m := createTestMedium(t)
	openTestHandle(t, m)

	if _, err := os.Stat(m.Path(DefaultName)); os.IsNotExist(err) {
		t.Error("database file was not created")
	}
}

func TestOpen_OpensExistingDatabase(t *testing.T) {
	m := createTestMedium(t)
	ctx := context.Background()

	h1, err := m.Open(ctx, DefaultName)
	require.NoError(t, err)
	_, err = h1.DB().Exec("CREATE TABLE probe (x INTEGER)")
	require.NoError(t, err)
	require.NoError(t, h1.Close())

	h2, err := m.Open(ctx, DefaultName)
	require.NoError(t, err)
	defer h2.Close()

	var count int
	err = h2.DB().QueryRow("SELECT COUNT(*) FROM probe").Scan(&count)
	assert.NoError(t, err)
}

func TestOpen_MissingDirectory(t *testing.T) {
	m := NewMedium(filepath.Join(t.TempDir(), "nope"))

	_, err := m.Open(context.Background(), DefaultName)
	require.Error(t, err)
	assert.True(t, IsOpenError(err))
	assert.Equal(t, Stats{}, m.Stats(), "failed open must not count")
}

func TestOpen_NotADatabase(t *testing.T) {
	m := createTestMedium(t)
	require.NoError(t, os.WriteFile(m.Path(DefaultName), bytes.Repeat([]byte("not a sqlite page "), 512), 0o644))

	_, err := m.Open(context.Background(), DefaultName)
	require.Error(t, err)
	assert.True(t, IsOpenError(err))
	assert.Equal(t, int64(0), m.Stats().Live())
}

func TestOpen_InvalidName(t *testing.T) {
	m := createTestMedium(t)
	for _, name := range []string{"", "  ", "../escape.db", "a/b.db", ".."} {
		_, err := m.Open(context.Background(), name)
		assert.True(t, IsOpenError(err), "name %q should be rejected", name)
	}
}

func TestClose_NilHandle(t *testing.T) {
	var h *Handle
	assert.NoError(t, h.Close())
	assert.NoError(t, (&Handle{}).Close())
}

func TestClose_MultipleCalls(t *testing.T) {
	m := createTestMedium(t)
	h, err := m.Open(context.Background(), DefaultName)
	require.NoError(t, err)

	require.NoError(t, h.Close())
	require.NoError(t, h.Close())

	stats := m.Stats()
	assert.Equal(t, int64(1), stats.Opens)
	assert.Equal(t, int64(1), stats.Closes, "second close must not release twice")
	assert.Equal(t, int64(0), stats.Live())
}

func TestHandle_BeginTxAfterZeroValue(t *testing.T) {
	var h *Handle
	_, err := h.BeginTx(context.Background(), nil)
	assert.Error(t, err)
}

func TestDelete_RemovesFiles(t *testing.T) {
	m := createTestMedium(t)
	h, err := m.Open(context.Background(), DefaultName)
	require.NoError(t, err)
	_, err = h.DB().Exec("CREATE TABLE t (x INTEGER)")
	require.NoError(t, err)
	require.NoError(t, h.Close())

	require.NoError(t, m.Delete(context.Background(), DefaultName))

	for _, suffix := range []string{"", "-wal", "-shm"} {
		_, err := os.Stat(m.Path(DefaultName) + suffix)
		assert.True(t, os.IsNotExist(err), "file %q should be gone", DefaultName+suffix)
	}
}

func TestDelete_MissingIsNotAnError(t *testing.T) {
	m := createTestMedium(t)
	assert.NoError(t, m.Delete(context.Background(), "never-created.db"))
}

func TestDelete_Failure(t *testing.T) {
	m := createTestMedium(t)
	// A non-empty directory in place of the database file cannot be removed.
	dir := m.Path(DefaultName)
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "child"), 0o755))

	err := m.Delete(context.Background(), DefaultName)
	require.Error(t, err)
	assert.True(t, IsDeleteError(err))
}

func TestDelete_CanceledContext(t *testing.T) {
	m := createTestMedium(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.True(t, IsDeleteError(m.Delete(ctx, DefaultName)))
}

// Pragma tests

func TestPragma_JournalMode(t *testing.T) {
	h := openTestHandle(t, createTestMedium(t))
	if err := h.verifyPragma("journal_mode", "wal"); err != nil {
		t.Error(err)
	}
}

func TestPragma_Synchronous(t *testing.T) {
	h := openTestHandle(t, createTestMedium(t))
	// NORMAL = 1
	if err := h.verifyPragma("synchronous", "1"); err != nil {
		t.Error(err)
	}
}

func TestPragma_BusyTimeout(t *testing.T) {
	h := openTestHandle(t, createTestMedium(t))
	if err := h.verifyPragma("busy_timeout", "5000"); err != nil {
		t.Error(err)
	}
}

func TestPragma_ForeignKeys(t *testing.T) {
	h := openTestHandle(t, createTestMedium(t))
	// ON = 1
	if err := h.verifyPragma("foreign_keys", "1"); err != nil {
		t.Error(err)
	}
}
