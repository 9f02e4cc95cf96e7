package logger

import (
	"errors"

	"buildlog/internal/output"
	"buildlog/internal/trace"
)

var (
	// ErrNoStart reports a finished event whose started event was never seen.
	ErrNoStart = errors.New("finished event received without matching start event")
	// ErrProjectNotStarted reports a target whose owning project is not live.
	ErrProjectNotStarted = errors.New("project started event missing for target")
	// ErrUnknownImportance reports a message with an importance outside the known set.
	ErrUnknownImportance = errors.New("unknown message importance")
	// ErrHandlerPanic wraps a panic recovered from an event handler.
	ErrHandlerPanic = errors.New("event handler panicked")
)

// Logger renders events into the session's log output. Each handler method
// processes one event kind; none of them is safe for concurrent use.
type Logger struct {
	st     *State
	out    output.LogWriter
	mw     *output.MessageWriter
	blocks trace.BlockWriter
	stats  Statistics

	onFinished func(*State)
}

// NewLogger returns a logger writing to out. A nil blocks or stats disables
// structured blocks or statistics.
func NewLogger(st *State, out output.LogWriter, blocks trace.BlockWriter, stats Statistics) *Logger {
	if blocks == nil {
		blocks = trace.NopBlocks{}
	}
	if stats == nil {
		stats = DefaultStatistics{}
	}
	return &Logger{
		st:     st,
		out:    out,
		mw:     output.NewMessageWriter(out, st.Params, st.Registry, &st.Cursor),
		blocks: blocks,
		stats:  stats,
	}
}

// State returns the session state.
func (l *Logger) State() *State { return l.st }

// OnBuildFinished registers fn to run at the end of BuildFinished, before the
// session state is reset.
func (l *Logger) OnBuildFinished(fn func(*State)) { l.onFinished = fn }
