package progress

import (
	"sync"
	"time"
)

// Entry is a single human-readable status line.
type Entry struct {
	// Seq is the entry's position in the emitted stream. Strictly increasing,
	// never reset.
	Seq int64 `json:"seq"`

	// Position is the entry's index in the view it was appended to.
	Position int `json:"position"`

	// Text is the status message shown to the user.
	Text string `json:"text"`

	// At is the wall-clock time the entry was recorded. Informational only;
	// ordering always uses Seq.
	At time.Time `json:"at"`

	// Reset is true when this entry cleared the view before being appended.
	Reset bool `json:"reset,omitempty"`
}

// Option configures a Log.
type Option func(*Log)

// WithNow overrides the wall-clock source (for deterministic tests).
func WithNow(now func() time.Time) Option {
	return func(l *Log) { l.now = now }
}

// Log is an ordered, resettable sequence of progress entries.
//
// Writes are serialized; watchers observe entries in exactly the order they
// were appended. Snapshot may be called from any goroutine at any time.
type Log struct {
	writeMu sync.Mutex // serializes Append/Reset including watcher delivery

	mu       sync.RWMutex
	entries  []Entry
	watchers map[int]func(Entry)
	nextID   int

	seq int64 // last Seq handed out; survives Reset
	now func() time.Time
}

// New creates an empty Log.
func New(opts ...Option) *Log {
	l := &Log{
		watchers: make(map[int]func(Entry)),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Append adds text to the end of the current view.
func (l *Log) Append(text string) Entry {
	return l.emit(text, false)
}

// Reset clears the current view and makes text its only entry.
func (l *Log) Reset(text string) Entry {
	return l.emit(text, true)
}

func (l *Log) emit(text string, reset bool) Entry {
	l.writeMu.Lock()
	defer l.writeMu.Unlock()

	l.mu.Lock()
	if reset {
		// Fresh backing array: snapshots handed out earlier keep their contents.
		l.entries = nil
	}
	l.seq++
	e := Entry{
		Seq:      l.seq,
		Position: len(l.entries),
		Text:     text,
		At:       l.now(),
		Reset:    reset,
	}
	l.entries = append(l.entries, e)
	watchers := make([]func(Entry), 0, len(l.watchers))
	for id := 0; id < l.nextID; id++ {
		if fn, ok := l.watchers[id]; ok {
			watchers = append(watchers, fn)
		}
	}
	l.mu.Unlock()

	for _, fn := range watchers {
		fn(e)
	}
	return e
}

// Snapshot returns a copy of the current view.
func (l *Log) Snapshot() []Entry {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]Entry, len(l.entries))
	copy(out, l.entries)
	return out
}

// Texts returns the text of every entry in the current view.
func (l *Log) Texts() []string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]string, len(l.entries))
	for i, e := range l.entries {
		out[i] = e.Text
	}
	return out
}

// Len returns the number of entries in the current view.
func (l *Log) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.entries)
}

// Watch registers fn to receive every entry emitted after this call, in
// order. fn runs on the writer's goroutine and must not call Append or Reset.
// The returned function unregisters fn.
func (l *Log) Watch(fn func(Entry)) (cancel func()) {
	l.mu.Lock()
	id := l.nextID
	l.nextID++
	l.watchers[id] = fn
	l.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			l.mu.Lock()
			delete(l.watchers, id)
			l.mu.Unlock()
		})
	}
}

// Recorder collects every emitted entry. Useful as a Watch target.
type Recorder struct {
	mu      sync.Mutex
	entries []Entry
}

// Record appends e. It has the signature expected by Watch.
func (r *Recorder) Record(e Entry) {
	r.mu.Lock()
	r.entries = append(r.entries, e)
	r.mu.Unlock()
}

// Entries returns a copy of everything recorded so far.
func (r *Recorder) Entries() []Entry {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Entry, len(r.entries))
	copy(out, r.entries)
	return out
}

// Texts returns the text of every recorded entry.
func (r *Recorder) Texts() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.entries))
	for i, e := range r.entries {
		out[i] = e.Text
	}
	return out
}
