package logger

import (
	"fmt"

	"buildlog/internal/event"
	"buildlog/internal/output"
	"buildlog/internal/perf"
	"buildlog/internal/registry"
	"buildlog/internal/resources"
	"buildlog/internal/trace"
)

func contextOf(ev event.Event) (event.Context, error) {
	if c := ev.Header().Context; c != nil {
		return *c, nil
	}
	return event.Context{}, fmt.Errorf("%s: %w", ev.Kind(), registry.ErrMissingContext)
}

func (l *Logger) requireTimestamp() bool {
	return l.st.Params.ShowTimestamp || l.st.IsVerbosityAtLeast(event.Detailed)
}

// ProjectStarted registers the project and replays the messages that arrived
// before it. At diagnostic verbosity it also lists the project's initial
// properties and items.
func (l *Logger) ProjectStarted(e *event.ProjectStarted) error {
	ctx, err := contextOf(e)
	if err != nil {
		return err
	}
	p := l.st.Params
	if err := l.st.Registry.AddProjectStarted(e, l.requireTimestamp()); err != nil {
		return err
	}
	if p.ShowPerfSummary {
		perf.GetOrCreate(e.ProjectFile, l.st.ProjectCounters).RecordStarted(e.TargetNames, ctx, e.Head.Timestamp, event.ByProject)
	}

	if msgs := l.st.TakeDeferred(ctx); len(msgs) > 0 && !p.ErrorsOrWarningsOnly() {
		for _, msg := range msgs {
			if err := l.Message(msg); err != nil {
				return err
			}
		}
	}

	if p.Verbosity != event.Diagnostic || !p.ShowItemAndPropertyList || p.ErrorsOrWarningsOnly() {
		return nil
	}
	l.DisplayDeferredProjectStarted(ctx)
	l.writeProperties(ctx, e.Head.Timestamp, e.Properties)
	l.writeItems(ctx, e.Head.Timestamp, e.Items)
	return nil
}

// ProjectFinished renders the finished line of a shown project and drops its record.
func (l *Logger) ProjectFinished(e *event.ProjectFinished) error {
	ctx, err := contextOf(e)
	if err != nil {
		return err
	}
	rec := l.st.Registry.GetProjectStarted(ctx)
	if rec == nil {
		return fmt.Errorf("project %q (%s): %w", e.ProjectFile, ctx, ErrNoStart)
	}
	p := l.st.Params
	if p.ShowPerfSummary {
		if err := perf.GetOrCreate(rec.ProjectFile, l.st.ProjectCounters).RecordFinished(rec.TargetNames, ctx, e.Head.Timestamp); err != nil {
			return err
		}
	}

	if l.st.IsVerbosityAtLeast(event.Normal) && rec.StartedShown {
		l.st.Cursor.LastProjectKey = rec.FullKey
		if !p.ErrorsOrWarningsOnly() {
			var msg string
			switch {
			case rec.TargetNames == "" && e.Succeeded:
				msg = resources.Format("ProjectFinishedPrefixWithDefaultTargetsMultiProc", rec.ProjectFile)
			case rec.TargetNames == "":
				msg = resources.Format("ProjectFinishedPrefixWithDefaultTargetsMultiProcFailed", rec.ProjectFile)
			case e.Succeeded:
				msg = resources.Format("ProjectFinishedPrefixWithTargetNamesMultiProc", rec.ProjectFile, rec.TargetNames)
			default:
				msg = resources.Format("ProjectFinishedPrefixWithTargetNamesMultiProcFailed", rec.ProjectFile, rec.TargetNames)
			}
			l.mw.WriteLinePrefixFor(&ctx, e.Head.Timestamp, false)
			l.out.SetColor(output.BuildStage)
			l.mw.WriteMessageAligned(msg, true)
			l.out.ResetColor()
			l.blocks.FinishBlock(ctx.NodeID)
		}
		rec.FinishedShown = true
		l.NotifyShown(&rec.Context)
	}

	l.st.Registry.RemoveProjectStarted(ctx)
	return nil
}

func (l *Logger) TargetStarted(e *event.TargetStarted) error {
	ctx, err := contextOf(e)
	if err != nil {
		return err
	}
	if err := l.st.Registry.AddTargetStarted(e, l.requireTimestamp()); err != nil {
		return err
	}
	if l.st.Params.ShowPerfSummary {
		perf.GetOrCreate(e.TargetName, l.st.TargetCounters).RecordStarted("", ctx, e.Head.Timestamp, event.ByTarget)
	}
	return nil
}

// TargetFinished renders the finished line of a target from Detailed verbosity
// on, revealing it first, and drops its record.
func (l *Logger) TargetFinished(e *event.TargetFinished) error {
	ctx, err := contextOf(e)
	if err != nil {
		return err
	}
	p := l.st.Params
	if p.ShowPerfSummary {
		if err := perf.GetOrCreate(e.TargetName, l.st.TargetCounters).RecordFinished("", ctx, e.Head.Timestamp); err != nil {
			return err
		}
	}

	if l.st.IsVerbosityAtLeast(event.Detailed) {
		if err := l.DisplayDeferredTargetStarted(ctx); err != nil {
			return err
		}
		target := l.st.Registry.GetTargetStarted(ctx)
		if target == nil {
			return fmt.Errorf("target %q (%s): %w", e.TargetName, ctx, ErrNoStart)
		}
		if target.StartedShown {
			if p.ShowTargetOutputs && len(e.Outputs) > 0 {
				l.mw.WriteMessageAligned(resources.Format("TargetOutputItemsHeader"), false)
				for _, item := range e.Outputs {
					l.mw.WriteMessageAligned(resources.Format("TargetOutputItem", item.Spec), false)
					l.writeMetadata(item)
				}
				l.out.ResetColor()
			}
			if !p.ErrorsOrWarningsOnly() {
				l.st.Cursor.LastProjectKey, _ = l.st.Registry.FullKeyOf(&ctx)
				l.mw.WriteLinePrefixFor(&ctx, e.Head.Timestamp, false)
				msg := e.Head.Message
				if p.ShowsEventID() {
					msg = resources.Format("TargetMessageWithId", msg, ctx.TargetID)
				}
				l.out.SetColor(output.BuildStage)
				l.mw.WriteMessageAligned(msg, true)
				l.out.ResetColor()
			}
			target.FinishedShown = true
			l.NotifyShown(&ctx)
			l.blocks.FinishBlock(ctx.NodeID)
		}
	}

	l.st.Registry.RemoveTargetStarted(ctx)
	return nil
}

func (l *Logger) TaskStarted(e *event.TaskStarted) error {
	ctx, err := contextOf(e)
	if err != nil {
		return err
	}
	if l.st.IsVerbosityAtLeast(event.Detailed) {
		if err := l.DisplayDeferredStartedEvents(ctx); err != nil {
			return err
		}
		l.writeTaskLine(ctx, e.Head)
	}
	if l.st.Params.ShowPerfSummary {
		perf.GetOrCreate(e.TaskName, l.st.TaskCounters).RecordStarted("", ctx, e.Head.Timestamp, nil)
	}
	return nil
}

func (l *Logger) TaskFinished(e *event.TaskFinished) error {
	ctx, err := contextOf(e)
	if err != nil {
		return err
	}
	if l.st.Params.ShowPerfSummary {
		if err := perf.GetOrCreate(e.TaskName, l.st.TaskCounters).RecordFinished("", ctx, e.Head.Timestamp); err != nil {
			return err
		}
	}
	if l.st.IsVerbosityAtLeast(event.Detailed) {
		l.writeTaskLine(ctx, e.Head)
	}
	return nil
}

func (l *Logger) writeTaskLine(ctx event.Context, h event.Header) {
	if !l.st.Params.ErrorsOrWarningsOnly() {
		prefixWritten := l.mw.WriteTargetMessagePrefix(ctx, h.Timestamp)
		msg := h.Message
		if l.st.Params.ShowsEventID() {
			msg = resources.Format("TaskMessageWithId", msg, ctx.TaskID)
		}
		l.out.SetColor(output.Task)
		l.mw.WriteMessageAligned(msg, prefixWritten)
		l.out.ResetColor()
	}
	l.NotifyShown(&ctx)
}

// Message renders a message if its importance passes the verbosity filter.
// Messages of a project that has not started yet are queued until it does.
func (l *Logger) Message(e *event.Message) error {
	p := l.st.Params
	if p.ErrorsOrWarningsOnly() {
		return nil
	}
	ctx, err := contextOf(e)
	if err != nil {
		return err
	}

	var show, lighten bool
	if e.CommandLine != "" {
		if !p.ShowCommandLine && !l.st.IsVerbosityAtLeast(event.Normal) {
			return nil
		}
		show = true
	} else {
		switch e.Importance {
		case event.High:
			show = l.st.IsVerbosityAtLeast(event.Minimal)
		case event.NormalImportance:
			show, lighten = l.st.IsVerbosityAtLeast(event.Normal), true
		case event.Low:
			show, lighten = l.st.IsVerbosityAtLeast(event.Detailed), true
		default:
			return fmt.Errorf("message importance %d: %w", e.Importance, ErrUnknownImportance)
		}
	}
	if !show {
		return nil
	}

	if l.st.HasBuildStarted &&
		ctx.ProjectContextID != event.InvalidProjectContextID &&
		l.st.Registry.GetProjectStarted(ctx) == nil &&
		l.st.IsVerbosityAtLeast(event.Normal) {
		l.st.Defer(e)
		return nil
	}

	if err := l.DisplayDeferredStartedEvents(ctx); err != nil {
		return err
	}
	l.mw.PrintMessage(e, lighten)
	l.NotifyShown(&ctx)
	return nil
}

// Warning counts the warning, flags its call stack and renders it unless
// only errors are shown.
func (l *Logger) Warning(e *event.Warning) error {
	ctx, err := contextOf(e)
	if err != nil {
		return err
	}
	p := l.st.Params
	l.st.WarningCount++
	l.st.Registry.SetErrorOrWarningFlag(ctx)
	if err := l.DisplayDeferredStartedEvents(ctx); err != nil {
		return err
	}

	if !p.ShowOnlyErrors || p.ShowOnlyWarnings {
		l.writeProblem(ctx, e, output.Warning, trace.StatusWarning)
	}
	l.NotifyShown(&ctx)
	if l.st.ShowSummary() {
		l.st.Warnings = append(l.st.Warnings, l.summaryEntry(ctx, e))
	}
	return nil
}

// Error counts the error, flags its call stack and renders it unless only
// warnings are shown.
func (l *Logger) Error(e *event.Error) error {
	ctx, err := contextOf(e)
	if err != nil {
		return err
	}
	p := l.st.Params
	l.st.ErrorCount++
	l.st.Registry.SetErrorOrWarningFlag(ctx)
	if err := l.DisplayDeferredStartedEvents(ctx); err != nil {
		return err
	}
	if p.ShowOnlyWarnings && !p.ShowOnlyErrors {
		return nil
	}

	l.writeProblem(ctx, e, output.Error, trace.StatusError)
	l.NotifyShown(&ctx)
	if l.st.ShowSummary() {
		l.st.Errors = append(l.st.Errors, l.summaryEntry(ctx, e))
	}
	return nil
}

func (l *Logger) writeProblem(ctx event.Context, e event.Event, c output.Color, status trace.Status) {
	if l.st.IsVerbosityAtLeast(event.Normal) {
		l.mw.WriteLinePrefixFor(&ctx, e.Header().Timestamp, false)
	}
	text := output.FormatEventMessage(e, l.st.Params.ShowProjectFile)
	l.out.SetColor(c)
	l.mw.WriteMessageAligned(text, true)
	l.out.ResetColor()
	l.blocks.Message(ctx.NodeID, e.Header().Message, status, e)
}

func (l *Logger) summaryEntry(ctx event.Context, e event.Event) SummaryEntry {
	entry := SummaryEntry{
		Event:     e,
		Project:   event.ByProject(ctx),
		CallStack: l.st.Registry.ProjectCallStack(ctx),
	}
	if target := l.st.Registry.GetTargetStarted(ctx); target != nil {
		entry.TargetName = target.TargetName
	}
	return entry
}

// Custom renders the message of a custom event from Detailed verbosity on.
func (l *Logger) Custom(e *event.Custom) error {
	if l.st.Params.ErrorsOrWarningsOnly() {
		return nil
	}
	ctx, err := contextOf(e)
	if err != nil {
		return err
	}
	if !l.st.IsVerbosityAtLeast(event.Detailed) || e.Head.Message == "" {
		return nil
	}
	if err := l.DisplayDeferredStartedEvents(ctx); err != nil {
		return err
	}
	l.mw.WriteLinePrefixFor(&ctx, e.Head.Timestamp, false)
	l.mw.WriteMessageAligned(e.Head.Message, true)
	l.NotifyShown(&ctx)
	return nil
}
