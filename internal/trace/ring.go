package trace

import (
	"io"
	"sync"
)

// DefaultRingSize is the number of events a Ring keeps when none is given.
const DefaultRingSize = 256

// Ring remembers the most recent block events so that a failing handler can
// report what the logger was doing right before it broke.
type Ring struct {
	mu    sync.RWMutex
	buf   []Event
	start int // oldest event
	n     int // events held
}

// NewRing returns a ring holding up to capacity events.
func NewRing(capacity int) *Ring {
	if capacity <= 0 {
		capacity = DefaultRingSize
	}
	return &Ring{buf: make([]Event, capacity)}
}

// Emit stores a copy of ev, evicting the oldest event when the ring is full.
func (t *Ring) Emit(ev *Event) {
	stored := *ev
	if stored.Seq == 0 {
		stored.Seq = NextSeq()
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	if t.n < len(t.buf) {
		t.buf[(t.start+t.n)%len(t.buf)] = stored
		t.n++
		return
	}
	t.buf[t.start] = stored
	t.start = (t.start + 1) % len(t.buf)
}

// Len returns the number of events held.
func (t *Ring) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.n
}

// Snapshot returns the held events, oldest first.
func (t *Ring) Snapshot() []Event {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]Event, t.n)
	for i := range out {
		out[i] = t.buf[(t.start+i)%len(t.buf)]
	}
	return out
}

// Dump writes the held events to w, oldest first.
func (t *Ring) Dump(w io.Writer, format Format) error {
	for _, ev := range t.Snapshot() {
		if _, err := w.Write(FormatEvent(&ev, format)); err != nil {
			return err
		}
	}
	return nil
}

func (t *Ring) Flush() error { return nil }

func (t *Ring) Close() error { return nil }

func (t *Ring) Enabled() bool { return true }
