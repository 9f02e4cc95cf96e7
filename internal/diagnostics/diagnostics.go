// Package diagnostics records the logger's own troubleshooting output. It is
// off unless a diagnostics file is configured.
package diagnostics

import (
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/sirupsen/logrus"
)

// Standard field names.
const (
	FieldNode       = "node"
	FieldKind       = "kind"
	FieldReentrancy = "reentrancy"
	FieldScope      = "scope"
)

// Sink writes diagnostics entries through logrus.
type Sink struct {
	log     *logrus.Logger
	enabled bool

	mu     sync.Mutex
	closer io.Closer
}

// Disabled returns a sink that drops everything.
func Disabled() *Sink {
	l := logrus.New()
	l.SetOutput(io.Discard)
	l.SetLevel(logrus.PanicLevel)
	return &Sink{log: l}
}

// New returns a sink writing text entries to w.
func New(w io.Writer) *Sink {
	l := logrus.New()
	l.SetOutput(w)
	l.SetLevel(logrus.DebugLevel)
	l.SetFormatter(&logrus.TextFormatter{
		DisableColors:    true,
		FullTimestamp:    true,
		TimestampFormat:  "15:04:05.000",
		QuoteEmptyFields: true,
	})
	return &Sink{log: l, enabled: true}
}

// Open appends diagnostics to path. A blank path gives a disabled sink.
func Open(path string) (*Sink, error) {
	if path == "" {
		return Disabled(), nil
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("failed to open diagnostics file: %w", err)
	}
	s := New(f)
	s.closer = f
	return s, nil
}

// Enabled reports whether entries are recorded.
func (s *Sink) Enabled() bool {
	return s != nil && s.enabled
}

// Send records the message built by build. build is not called when the
// sink is disabled.
func (s *Sink) Send(build func() string) {
	if !s.Enabled() {
		return
	}
	s.log.Debug(build())
}

// With returns an entry carrying fields, or nil when the sink is disabled.
func (s *Sink) With(fields logrus.Fields) *Entry {
	if !s.Enabled() {
		return nil
	}
	return &Entry{e: s.log.WithFields(fields)}
}

// Writer returns a writer whose lines are recorded at debug level.
// The caller must close it.
func (s *Sink) Writer() io.WriteCloser {
	if !s.Enabled() {
		return nopWriteCloser{}
	}
	return s.log.WriterLevel(logrus.DebugLevel)
}

// Close releases the diagnostics file.
func (s *Sink) Close() error {
	if s == nil {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closer == nil {
		return nil
	}
	err := s.closer.Close()
	s.closer = nil
	s.enabled = false
	return err
}

// Entry is a diagnostics entry with fields attached. A nil Entry drops everything.
type Entry struct {
	e *logrus.Entry
}

// Send records the message built by build with the entry's fields.
func (e *Entry) Send(build func() string) {
	if e == nil {
		return
	}
	e.e.Debug(build())
}

// Error records msg at error level.
func (e *Entry) Error(msg string) {
	if e == nil {
		return
	}
	e.e.Error(msg)
}

type nopWriteCloser struct{}

func (nopWriteCloser) Write(p []byte) (int, error) { return len(p), nil }
func (nopWriteCloser) Close() error { return nil }
