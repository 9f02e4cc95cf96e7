package logger

import (
	"fmt"
	"strings"
	"time"

	"buildlog/internal/event"
	"buildlog/internal/output"
	"buildlog/internal/perf"
	"buildlog/internal/resources"
)

const buildStartedLayout = "2006-01-02 15:04:05"

// BuildStarted opens the session. From Normal verbosity on it prints the start
// time, and the environment when asked for.
func (l *Logger) BuildStarted(e *event.BuildStarted) error {
	l.st.BuildStarted = e.Head.Timestamp
	l.st.HasBuildStarted = true
	if l.st.Params.ErrorsOrWarningsOnly() {
		return nil
	}
	if l.st.IsVerbosityAtLeast(event.Normal) {
		l.mw.WriteLinePrettyFromResource(0, "BuildStartedWithTime", e.Head.Timestamp.Format(buildStartedLayout))
	}
	if (l.st.Params.ShowEnvironment || l.st.IsVerbosityAtLeast(event.Diagnostic)) && len(e.Environment) > 0 {
		l.writeEnvironment(event.NodeOf(e), e.Environment)
	}
	return nil
}

func (l *Logger) writeEnvironment(flow int, env map[string]string) {
	l.blocks.StartBlock(flow, resources.Format("EnvironmentBlock"))
	l.out.SetColor(output.SummaryHeader)
	l.mw.WriteLinePrettyFromResource(0, "EnvironmentHeader")
	l.out.SetColor(output.SummaryInfo)
	for _, name := range sortedKeys(env) {
		l.mw.WriteLinePretty(0, name+" = "+env[name])
	}
	l.out.ResetColor()
	l.blocks.FinishBlock(flow)
}

// BuildFinished writes the closing part of the log: messages whose project
// never started, the performance summary, the result line, the warning and
// error summary and the elapsed time. The session state is reset afterwards.
func (l *Logger) BuildFinished(e *event.BuildFinished) error {
	p := l.st.Params
	flow := event.NodeOf(e)
	l.stats.Publish(l.st)

	if !p.ErrorsOrWarningsOnly() && l.st.DeferredCount() > 0 && l.st.IsVerbosityAtLeast(event.Normal) {
		l.out.SetColor(output.SummaryHeader)
		l.mw.WriteNewLine()
		l.mw.WriteLinePrettyFromResource(0, "DeferredMessages")
		l.out.ResetColor()
		for _, msg := range l.st.Deferred() {
			l.mw.PrintMessage(msg, false)
		}
	}

	if p.ShowPerfSummary {
		l.writePerfSummary(flow)
	}

	if l.st.IsVerbosityAtLeast(event.Normal) || l.st.ShowSummary() {
		msg := e.Head.Message
		if e.Succeeded {
			l.out.SetColor(output.Success)
			if msg == "" {
				msg = resources.Format("BuildSucceeded")
			}
		} else {
			if l.st.ErrorCount > 0 {
				l.out.SetColor(output.Error)
			} else {
				l.out.SetColor(output.Warning)
			}
			if msg == "" {
				msg = resources.Format("BuildFailed")
			}
		}
		l.mw.WriteNewLine()
		l.mw.WriteLinePretty(0, msg)
		l.out.ResetColor()
	}

	if l.st.ShowSummary() {
		if l.st.IsVerbosityAtLeast(event.Normal) {
			l.writeNestedSummary()
		} else {
			l.writeFlatSummary()
		}
		if l.st.WarningCount > 0 {
			l.out.SetColor(output.WarningSummary)
		}
		l.mw.WriteLinePrettyFromResource(2, "WarningCount", l.st.WarningCount)
		l.out.ResetColor()
		if l.st.ErrorCount > 0 {
			l.out.SetColor(output.ErrorSummary)
		}
		l.mw.WriteLinePrettyFromResource(2, "ErrorCount", l.st.ErrorCount)
		l.out.ResetColor()
	}

	if l.st.IsVerbosityAtLeast(event.Normal) || l.st.ShowSummary() {
		l.mw.WriteNewLine()
		l.mw.WriteLinePrettyFromResource(0, "TimeElapsed", formatElapsed(e.Head.Timestamp.Sub(l.st.BuildStarted)))
	}

	if l.onFinished != nil {
		l.onFinished(l.st)
	}
	l.blocks.Close()
	l.st.Reset()
	return nil
}

func (l *Logger) writePerfSummary(flow int) {
	l.blocks.StartBlock(flow, resources.Format("PerformanceSummaryBlock"))
	tables := []struct {
		header string
		level  *perf.Level
	}{
		{"ProjectPerformanceSummary", l.st.ProjectCounters},
		{"TargetPerformanceSummary", l.st.TargetCounters},
		{"TaskPerformanceSummary", l.st.TaskCounters},
	}
	for _, t := range tables {
		l.out.SetColor(output.PerformanceHeader)
		l.mw.WriteNewLine()
		l.mw.WriteLinePrettyFromResource(0, t.header)
		l.out.ResetColor()
		l.mw.DisplayCounters(t.level)
	}
	l.blocks.FinishBlock(flow)
}

type summaryGroup struct {
	project   event.Key
	target    string
	callStack []string
	entries   []SummaryEntry
}

func groupSummary(entries []SummaryEntry) []*summaryGroup {
	type groupKey struct {
		project event.Key
		target  string
	}
	index := make(map[groupKey]*summaryGroup)
	var groups []*summaryGroup
	for _, e := range entries {
		k := groupKey{e.Project, e.TargetName}
		g, ok := index[k]
		if !ok {
			g = &summaryGroup{project: e.Project, target: e.TargetName, callStack: e.CallStack}
			index[k] = g
			groups = append(groups, g)
		}
		g.entries = append(g.entries, e)
	}
	return groups
}

// writeNestedSummary lists warnings, then errors, under the project call
// stack and target they were reported in.
func (l *Logger) writeNestedSummary() {
	l.writeNestedList(l.st.Warnings, output.WarningSummary)
	l.writeNestedList(l.st.Errors, output.ErrorSummary)
	l.out.ResetColor()
}

func (l *Logger) writeNestedList(entries []SummaryEntry, c output.Color) {
	if len(entries) == 0 {
		return
	}
	l.out.SetColor(c)
	var (
		project event.Key
		target  string
		indent  string
	)
	for i, g := range groupSummary(entries) {
		if i == 0 || g.project != project {
			l.mw.WriteNewLine()
			for _, line := range g.callStack {
				l.mw.WriteMessageAligned(line, false)
			}
			project, target = g.project, ""
			indent = strings.Repeat(" ", 2*len(g.callStack))
		}
		entryIndent := indent
		if g.target != "" {
			if !strings.EqualFold(g.target, target) {
				l.mw.WriteMessageAligned(indent+resources.Format("ErrorWarningInTarget", g.target), false)
			}
			entryIndent += "  "
		}
		target = g.target
		for _, e := range g.entries {
			l.mw.WriteMessageAligned(entryIndent+output.FormatEventMessage(e.Event, l.st.Params.ShowProjectFile), false)
		}
		l.mw.WriteNewLine()
	}
}

// writeFlatSummary lists warnings, then errors, one per line.
func (l *Logger) writeFlatSummary() {
	if len(l.st.Warnings) > 0 || len(l.st.Errors) > 0 {
		l.mw.WriteNewLine()
	}
	l.out.SetColor(output.WarningSummary)
	for _, e := range l.st.Warnings {
		l.mw.WriteMessageAligned(output.FormatEventMessage(e.Event, l.st.Params.ShowProjectFile), false)
	}
	l.out.SetColor(output.ErrorSummary)
	for _, e := range l.st.Errors {
		l.mw.WriteMessageAligned(output.FormatEventMessage(e.Event, l.st.Params.ShowProjectFile), false)
	}
	l.out.ResetColor()
	if len(l.st.Warnings) > 0 || len(l.st.Errors) > 0 {
		l.mw.WriteNewLine()
	}
}

// formatElapsed renders d as hh:mm:ss[.fffffff], prefixed with the day count
// when it spans days, cut to 11 characters.
func formatElapsed(d time.Duration) string {
	var sb strings.Builder
	if d < 0 {
		sb.WriteByte('-')
		d = -d
	}
	days := d / (24 * time.Hour)
	d -= days * 24 * time.Hour
	h := d / time.Hour
	d -= h * time.Hour
	m := d / time.Minute
	d -= m * time.Minute
	s := d / time.Second
	d -= s * time.Second
	if days > 0 {
		fmt.Fprintf(&sb, "%d.", days)
	}
	fmt.Fprintf(&sb, "%02d:%02d:%02d", h, m, s)
	if ticks := d / 100; ticks > 0 {
		fmt.Fprintf(&sb, ".%07d", ticks)
	}
	out := sb.String()
	if len(out) > 11 {
		out = out[:11]
	}
	return out
}
