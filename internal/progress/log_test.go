package progress

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLog_AppendPreservesOrder(t *testing.T) {
	l := New()
	l.Append("one")
	l.Append("two")
	l.Append("three")

	assert.Equal(t, []string{"one", "two", "three"}, l.Texts())

	snap := l.Snapshot()
	require.Len(t, snap, 3)
	for i, e := range snap {
		assert.Equal(t, i, e.Position)
		assert.Equal(t, int64(i+1), e.Seq)
	}
}

func TestLog_ResetStartsNewView(t *testing.T) {
	l := New()
	l.Append("old 1")
	l.Append("old 2")

	e := l.Reset("fresh")
	assert.Equal(t, 0, e.Position)
	assert.True(t, e.Reset)
	assert.Equal(t, int64(3), e.Seq, "seq continues across resets")
	assert.Equal(t, []string{"fresh"}, l.Texts())

	l.Append("next")
	assert.Equal(t, []string{"fresh", "next"}, l.Texts())
	assert.Equal(t, 2, l.Len())
}

func TestLog_SnapshotIsImmutable(t *testing.T) {
	l := New()
	l.Append("a")
	snap := l.Snapshot()

	l.Append("b")
	l.Reset("c")

	require.Len(t, snap, 1)
	assert.Equal(t, "a", snap[0].Text)
}

func TestLog_WithNow(t *testing.T) {
	fixed := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	l := New(WithNow(func() time.Time { return fixed }))
	e := l.Append("x")
	assert.Equal(t, fixed, e.At)
}

func TestLog_WatchSeesResetsAndAppends(t *testing.T) {
	l := New()
	rec := &Recorder{}
	cancel := l.Watch(rec.Record)

	l.Reset("opening")
	l.Append("checking")
	l.Reset("Error: boom")
	l.Append("closed")

	assert.Equal(t, []string{"opening", "checking", "Error: boom", "closed"}, rec.Texts())
	assert.Equal(t, []string{"Error: boom", "closed"}, l.Texts())

	cancel()
	cancel() // idempotent
	l.Append("unseen")
	assert.Len(t, rec.Entries(), 4)
}

func TestLog_ConcurrentSnapshotDuringWrites(t *testing.T) {
	l := New()
	const writes = 500

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < writes; i++ {
			if i%50 == 0 {
				l.Reset("reset")
			} else {
				l.Append("entry")
			}
		}
	}()

	for i := 0; i < 200; i++ {
		snap := l.Snapshot()
		for pos, e := range snap {
			// A torn read would show a position that does not match the index.
			if e.Position != pos {
				t.Fatalf("torn snapshot: entry %d has position %d", pos, e.Position)
			}
		}
	}
	wg.Wait()
}

func TestLog_SeqUniqueAcrossWriters(t *testing.T) {
	l := New()
	rec := &Recorder{}
	l.Watch(rec.Record)

	const writers, perWriter = 20, 50
	var wg sync.WaitGroup
	for w := 0; w < writers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < perWriter; i++ {
				if w == 0 && i%10 == 0 {
					l.Reset("reset")
				} else {
					l.Append("entry")
				}
			}
		}(w)
	}
	wg.Wait()

	entries := rec.Entries()
	require.Len(t, entries, writers*perWriter)
	for i, e := range entries {
		assert.Equal(t, int64(i+1), e.Seq, "watchers see seq in emission order")
	}
}
