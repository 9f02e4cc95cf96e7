package logger

import (
	"fmt"
	"path/filepath"
	"strings"

	"buildlog/internal/event"
	"buildlog/internal/output"
	"buildlog/internal/resources"
)

// A scope's started banner is deferred until something under it is shown.
// Revealing a scope reveals its ancestors first, so banners always precede
// the output of their descendants, and each banner is rendered at most once.

// NotifyShown records ctx as the context of the line rendered last. A nil ctx
// forces the next line to start with a fresh prefix.
func (l *Logger) NotifyShown(ctx *event.Context) {
	if ctx == nil {
		l.st.Cursor.LastDisplayed = nil
		return
	}
	c := *ctx
	l.st.Cursor.LastDisplayed = &c
}

// DisplayDeferredStartedEvents reveals the project owning ctx from Normal
// verbosity on and its target from Detailed on.
func (l *Logger) DisplayDeferredStartedEvents(ctx event.Context) error {
	if l.st.Params.ErrorsOrWarningsOnly() {
		return nil
	}
	if l.st.IsVerbosityAtLeast(event.Normal) {
		l.DisplayDeferredProjectStarted(ctx)
	}
	if !l.st.IsVerbosityAtLeast(event.Detailed) {
		return nil
	}
	return l.DisplayDeferredTargetStarted(ctx)
}

// DisplayDeferredProjectStarted renders the banner of the project owning ctx
// unless it was rendered already.
func (l *Logger) DisplayDeferredProjectStarted(ctx event.Context) {
	if l.st.Params.ErrorsOrWarningsOnly() {
		return
	}
	rec := l.st.Registry.GetProjectStarted(ctx)
	if rec == nil || rec.StartedShown {
		return
	}
	rec.StartedShown = true

	parent := rec.Parent
	if parent != nil {
		l.DisplayDeferredProjectStarted(parent.Context)
	}

	shortName := filepath.Base(rec.ProjectFile)
	if rec.TargetNames != "" {
		shortName += ": " + rec.TargetNames
	}
	l.blocks.StartBlock(rec.Context.NodeID, shortName)

	var banner string
	if parent == nil {
		l.mw.WriteLinePrefix(rec.FullKey.Format(l.st.Params.Verbosity), rec.Timestamp, false)
		if rec.TargetNames == "" {
			banner = resources.Format("ProjectStartedTopLevelProjectWithDefaultTargets", rec.ProjectFile, rec.Context.NodeID)
		} else {
			banner = resources.Format("ProjectStartedTopLevelProjectWithTargetNames", rec.ProjectFile, rec.Context.NodeID, rec.TargetNames)
		}
	} else {
		l.mw.WriteLinePrefix(parent.FullKey.Format(l.st.Params.Verbosity), parent.Timestamp, false)
		if rec.TargetNames == "" {
			banner = resources.Format("ProjectStartedWithDefaultTargetsMultiProc",
				parent.ProjectFile, parent.FullKey, rec.ProjectFile, rec.FullKey, rec.Context.NodeID)
		} else {
			banner = resources.Format("ProjectStartedWithTargetsMultiProc",
				parent.ProjectFile, parent.FullKey, rec.ProjectFile, rec.FullKey, rec.Context.NodeID, rec.TargetNames)
		}
	}

	l.out.SetColor(output.BuildStage)
	l.mw.WriteMessageAligned(banner, true)
	l.out.ResetColor()
	l.NotifyShown(nil)
}

// DisplayDeferredTargetStarted renders the banner of the target owning ctx,
// revealing its project first. The owning project must still be live.
func (l *Logger) DisplayDeferredTargetStarted(ctx event.Context) error {
	if l.st.Params.ErrorsOrWarningsOnly() {
		return nil
	}
	target := l.st.Registry.GetTargetStarted(ctx)
	if target == nil || target.StartedShown {
		return nil
	}
	target.StartedShown = true

	if err := l.DisplayDeferredStartedEvents(target.Context); err != nil {
		return err
	}
	project := l.st.Registry.GetProjectStarted(ctx)
	if project == nil {
		return fmt.Errorf("target %q (%s): %w", target.TargetName, target.Context, ErrProjectNotStarted)
	}

	l.blocks.StartBlock(target.Context.NodeID, target.TargetName)
	l.mw.WriteLinePrefixFor(&target.Context, target.Timestamp, false)

	name := target.TargetName
	if l.st.Params.ShowsEventID() {
		name = resources.Format("TargetMessageWithId", target.TargetName, target.Context.TargetID)
	}

	var banner string
	switch sameFile := strings.EqualFold(project.ProjectFile, target.TargetFile); {
	case !l.st.IsVerbosityAtLeast(event.Detailed):
		banner = resources.Format("TargetStartedFileProjectEntry", name, target.TargetFile, project.ProjectFile)
	case sameFile && target.ParentTarget != "":
		banner = resources.Format("TargetStartedProjectDepends", name, project.ProjectFile, target.ParentTarget)
	case sameFile:
		banner = resources.Format("TargetStartedProjectEntry", name, project.ProjectFile)
	case target.ParentTarget != "":
		banner = resources.Format("TargetStartedFileProjectDepends", name, target.TargetFile, project.ProjectFile, target.ParentTarget)
	default:
		banner = resources.Format("TargetStartedFileProjectEntry", name, target.TargetFile, project.ProjectFile)
	}

	l.out.SetColor(output.BuildStage)
	l.mw.WriteMessageAligned(banner, true)
	l.out.ResetColor()
	l.NotifyShown(&ctx)
	return nil
}
