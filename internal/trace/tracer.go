package trace

import (
	"fmt"
	"io"
	"os"
)

// Tracer is the main interface for emitting structured events.
type Tracer interface {
	// Emit records an event. Must be goroutine-safe.
	Emit(ev *Event)

	// Flush ensures all buffered events are written.
	Flush() error

	// Close flushes and releases resources.
	Close() error

	// Enabled returns true if the tracer records anything.
	Enabled() bool
}

type nopTracer struct{}

func (nopTracer) Emit(*Event)   {}
func (nopTracer) Flush() error  { return nil }
func (nopTracer) Close() error  { return nil }
func (nopTracer) Enabled() bool { return false }

// Nop discards every event; it is what New returns when nothing is configured.
var Nop Tracer = nopTracer{}

// Config holds tracer configuration.
type Config struct {
	Format     Format    // output format
	Output     io.Writer // stream destination (if nil, use OutputPath)
	OutputPath string    // alternative: file path ("-" for stderr, "" for no stream)
	RingSize   int       // crash ring capacity (default 256, negative disables)
}

// New creates the structured tracer described by cfg: an optional stream
// plus the crash ring. The returned ring is nil when disabled.
func New(cfg Config) (Tracer, *Ring, error) {
	var tracers []Tracer

	if cfg.Output != nil || cfg.OutputPath != "" {
		w, err := openOutput(cfg)
		if err != nil {
			return nil, nil, err
		}
		tracers = append(tracers, NewStream(w, cfg.Format))
	}

	var ring *Ring
	if cfg.RingSize >= 0 {
		ring = NewRing(cfg.RingSize)
		tracers = append(tracers, ring)
	}

	switch len(tracers) {
	case 0:
		return Nop, nil, nil
	case 1:
		return tracers[0], ring, nil
	default:
		return NewMulti(tracers...), ring, nil
	}
}

// openOutput opens the output writer from config.
func openOutput(cfg Config) (io.Writer, error) {
	if cfg.Output != nil {
		return cfg.Output, nil
	}

	if cfg.OutputPath == "-" {
		return os.Stderr, nil
	}

	f, err := os.Create(cfg.OutputPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open structured output: %w", err)
	}

	return f, nil
}
