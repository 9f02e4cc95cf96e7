package output

import (
	"strings"
	"time"

	"github.com/mattn/go-runewidth"

	"buildlog/internal/config"
	"buildlog/internal/event"
	"buildlog/internal/perf"
	"buildlog/internal/registry"
	"buildlog/internal/resources"
)

const (
	tabWidth        = 2
	timestampLayout = "15:04:05.000"
)

// Cursor is the layout state shared by the message writer and the logger session.
type Cursor struct {
	// Nodes is the number of build nodes; line prefixes carry project keys only when it exceeds one.
	Nodes int
	// LastDisplayed is the context of the most recently rendered line, or nil.
	LastDisplayed *event.Context
	// LastProjectKey is the key of the project whose target prefix was written last.
	LastProjectKey registry.FullKey
	// PrefixWidth is the widest line prefix written so far.
	PrefixWidth int

	keyWidth int
}

// Reset clears everything but the node count.
func (c *Cursor) Reset() {
	*c = Cursor{Nodes: c.Nodes}
}

// MessageWriter writes prefixed, aligned log lines.
type MessageWriter struct {
	out    LogWriter
	params *config.Parameters
	reg    *registry.Registry
	cur    *Cursor
}

// NewMessageWriter returns a writer rendering to out.
func NewMessageWriter(out LogWriter, params *config.Parameters, reg *registry.Registry, cur *Cursor) *MessageWriter {
	return &MessageWriter{out: out, params: params, reg: reg, cur: cur}
}

// WriteLinePrefix starts a line with the optional timestamp and, in multi-node
// sessions, the project key followed by '>'. Message prefixes below detailed
// verbosity leave the key column blank.
func (m *MessageWriter) WriteLinePrefix(key string, ts time.Time, isMessagePrefix bool) {
	var sb strings.Builder
	if m.params.ShowTimestamp {
		sb.WriteString(ts.Format(timestampLayout))
		sb.WriteByte(' ')
	}
	if m.cur.Nodes > 1 {
		if w := runewidth.StringWidth(key); w > m.cur.keyWidth {
			m.cur.keyWidth = w
		}
		if isMessagePrefix && !m.params.IsVerbosityAtLeast(event.Detailed) {
			sb.WriteString(strings.Repeat(" ", m.cur.keyWidth+1))
		} else {
			sb.WriteString(runewidth.FillLeft(key, m.cur.keyWidth))
			sb.WriteByte('>')
		}
	}

	prefix := sb.String()
	if w := runewidth.StringWidth(prefix); w > m.cur.PrefixWidth {
		m.cur.PrefixWidth = w
	}
	m.out.Write(prefix)
}

// WriteLinePrefixFor writes the prefix for the project owning ctx.
func (m *MessageWriter) WriteLinePrefixFor(ctx *event.Context, ts time.Time, isMessagePrefix bool) {
	m.WriteLinePrefix(m.reg.FullProjectKey(ctx, m.params.Verbosity), ts, isMessagePrefix)
}

// WriteTargetMessagePrefix prefixes a line that belongs to a target. When the
// previous line belonged to another target, the target name is repeated on a
// line of its own first. It reports whether the message can follow on the
// current line.
func (m *MessageWriter) WriteTargetMessagePrefix(ctx event.Context, ts time.Time) bool {
	if last := m.cur.LastDisplayed; last != nil && last.SameTarget(ctx) {
		m.WriteLinePrefixFor(&ctx, ts, true)
		return true
	}

	if key, ok := m.reg.FullKeyOf(&ctx); ok {
		m.cur.LastProjectKey = key
	}
	m.WriteLinePrefixFor(&ctx, ts, false)
	target := m.reg.GetTargetStarted(ctx)
	if target == nil {
		return true
	}

	name := target.TargetName
	if m.params.ShowsEventID() {
		name = resources.Format("TargetMessageWithId", name, ctx.TargetID)
	}
	m.out.SetColor(BuildStage)
	m.WriteMessageAligned(name+":", true)
	m.out.ResetColor()
	return false
}

// WriteMessageAligned writes message, padding every line that has no prefix of
// its own to the prefix width.
func (m *MessageWriter) WriteMessageAligned(message string, prefixAlreadyWritten bool) {
	m.writeAligned(message, prefixAlreadyWritten, 0)
}

func (m *MessageWriter) writeAligned(message string, prefixAlreadyWritten bool, adjustment int) {
	lines := strings.Split(strings.ReplaceAll(message, "\r\n", "\n"), "\n")
	pad := strings.Repeat(" ", m.cur.PrefixWidth+adjustment)
	for i, line := range lines {
		switch {
		case i > 0 || !prefixAlreadyWritten:
			m.out.Write(pad)
		case adjustment > 0:
			m.out.Write(strings.Repeat(" ", adjustment))
		}
		m.out.Write(line + "\n")
	}
}

// WriteLinePretty writes text indented by indent tab stops.
func (m *MessageWriter) WriteLinePretty(indent int, text string) {
	if indent < 0 {
		indent = 0
	}
	m.out.Write(strings.Repeat(" ", indent*tabWidth) + text + "\n")
}

// WriteLinePrettyFromResource writes the named template indented by indent tab stops.
func (m *MessageWriter) WriteLinePrettyFromResource(indent int, name string, args ...any) {
	m.WriteLinePretty(indent, resources.Format(name, args...))
}

// WriteNewLine writes an empty line.
func (m *MessageWriter) WriteNewLine() {
	m.out.Write("\n")
}

// PrintMessage writes a message event. Located messages use the canonical
// location form; task messages are indented two columns past the prefix.
func (m *MessageWriter) PrintMessage(msg *event.Message, lighten bool) {
	text := msg.Head.Message
	if text == "" {
		text = msg.CommandLine
	}
	if msg.Location.File != "" {
		text = FormatEventMessage(msg, m.params.ShowProjectFile)
	}

	ctx := msg.Head.Context
	adjustment := 0
	if ctx != nil && ctx.TaskID != event.InvalidTaskID && msg.Location.File == "" {
		adjustment = 2
	}

	prefixWritten := false
	if ctx != nil && m.params.IsVerbosityAtLeast(event.Normal) {
		prefixWritten = m.WriteTargetMessagePrefix(*ctx, msg.Head.Timestamp)
	}

	if lighten {
		m.out.SetColor(Details)
	}
	m.writeAligned(text, prefixWritten, adjustment)
	if lighten {
		m.out.ResetColor()
	}
}

// DisplayCounters writes the counters of level, sub-counters in their own color.
func (m *MessageWriter) DisplayCounters(level *perf.Level) {
	for _, line := range level.Render(perf.TopIndent) {
		if line.Nested {
			m.out.SetColor(PerformanceCounterInfo)
		} else {
			m.out.SetColor(SummaryInfo)
		}
		m.WriteLinePretty(line.Indent, line.Text)
	}
	m.out.ResetColor()
}
