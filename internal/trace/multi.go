package trace

// Multi fans out events to multiple tracers.
type Multi struct {
	tracers []Tracer
}

// NewMulti creates a tracer that emits to every enabled tracer given.
// It returns Nop when none is enabled and the tracer itself when only one is.
func NewMulti(tracers ...Tracer) Tracer {
	enabled := make([]Tracer, 0, len(tracers))
	for _, tr := range tracers {
		if tr != nil && tr.Enabled() {
			enabled = append(enabled, tr)
		}
	}
	switch len(enabled) {
	case 0:
		return Nop
	case 1:
		return enabled[0]
	}
	return &Multi{tracers: enabled}
}

// Emit sends a copy of the event to every underlying tracer.
func (t *Multi) Emit(ev *Event) {
	if ev.Seq == 0 {
		ev.Seq = NextSeq()
	}
	for _, tr := range t.tracers {
		cp := *ev
		tr.Emit(&cp)
	}
}

// Flush flushes all underlying tracers.
func (t *Multi) Flush() error {
	var firstErr error
	for _, tr := range t.tracers {
		if err := tr.Flush(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// Close closes all underlying tracers.
func (t *Multi) Close() error {
	var firstErr error
	for _, tr := range t.tracers {
		if err := tr.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// Enabled returns true; disabled tracers are dropped at construction.
func (t *Multi) Enabled() bool { return true }
