package groundstation

import (
	"fmt"
	"sync"
)

const DefaultMaxRecords = 500

// Window holds the most recent rows in arrival order. Once full, each push
// evicts the oldest row. Safe for one writer and any number of readers.
type Window struct {
	mu    sync.Mutex
	rows  []Row
	start int // index of the oldest row once full
	total uint64
}

func NewWindow(capacity int) (*Window, error) {
	if capacity <= 0 {
		return nil, fmt.Errorf("invalid window capacity: %d", capacity)
	}
	return &Window{rows: make([]Row, 0, capacity)}, nil
}

// Push appends r, evicting the oldest row if the window is at capacity
func (w *Window) Push(r Row) {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.total++

	if len(w.rows) < cap(w.rows) {
		w.rows = append(w.rows, r)
		return
	}

	w.rows[w.start] = r
	w.start = (w.start + 1) % len(w.rows)
}

// Snapshot returns a copy of the rows, oldest first
func (w *Window) Snapshot() []Row {
	w.mu.Lock()
	defer w.mu.Unlock()

	out := make([]Row, 0, len(w.rows))
	out = append(out, w.rows[w.start:]...)
	out = append(out, w.rows[:w.start]...)
	return out
}

func (w *Window) Len() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.rows)
}

func (w *Window) Cap() int {
	return cap(w.rows)
}

// Total returns the number of rows ever pushed
func (w *Window) Total() uint64 {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.total
}
