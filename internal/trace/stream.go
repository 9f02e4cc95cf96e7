package trace

import (
	"io"
	"os"
	"sync"
	"time"
)

// Stream writes events immediately to an io.Writer.
type Stream struct {
	mu     sync.Mutex
	w      io.Writer
	format Format
}

// NewStream creates a new Stream.
func NewStream(w io.Writer, format Format) *Stream {
	return &Stream{w: w, format: format}
}

// Emit writes an event to the output.
func (t *Stream) Emit(ev *Event) {
	if ev.Seq == 0 {
		ev.Seq = NextSeq()
	}
	if ev.Time.IsZero() && t.format == FormatNDJSON {
		ev.Time = time.Now()
	}

	data := FormatEvent(ev, t.format)

	t.mu.Lock()
	defer t.mu.Unlock()

	// Best-effort write - a broken side channel must not break the build log
	_, _ = t.w.Write(data) //nolint:errcheck
}

// Flush ensures all buffered data is written.
func (t *Stream) Flush() error {
	if flusher, ok := t.w.(interface{ Flush() error }); ok {
		return flusher.Flush()
	}
	return nil
}

// Close flushes and closes the writer if it implements io.Closer.
// Standard streams are left open.
func (t *Stream) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if err := t.Flush(); err != nil {
		return err
	}
	if t.w == os.Stdout || t.w == os.Stderr {
		return nil
	}
	if closer, ok := t.w.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}

// Enabled always returns true.
func (t *Stream) Enabled() bool { return true }
