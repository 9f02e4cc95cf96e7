package logger

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime/debug"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"

	"buildlog/internal/config"
	"buildlog/internal/diagnostics"
	"buildlog/internal/event"
	"buildlog/internal/observ"
	"buildlog/internal/output"
	"buildlog/internal/resources"
	"buildlog/internal/trace"
)

// Source delivers build events to a subscriber. Subscribers may be called
// from several goroutines at once.
type Source interface {
	Subscribe(fn func(event.Event))
}

// Options configures a NodeLogger.
type Options struct {
	// Out receives the rendered log; defaults to os.Stdout.
	Out io.Writer
	// Terminal reports whether Out is an interactive terminal.
	Terminal bool
	// Base holds parameters applied before the parameter string, for example
	// from a config file. Defaults to config.Default().
	Base *config.Parameters
	// Env defaults to the process environment.
	Env config.Environment
	// Structured receives hierarchy blocks and statistics in addition to the
	// service messages written to Out in TeamCity mode.
	Structured trace.Tracer
	// Ring keeps the latest structured events for failure reports.
	Ring        *trace.Ring
	Diagnostics *diagnostics.Sink
	// BuildFinished runs after the build summary, before the session resets.
	BuildFinished func(st *State)
}

// NodeLogger serializes events from every build node into one logger session.
type NodeLogger struct {
	// Parameters is the ';'-separated parameter string applied on Initialize.
	Parameters string

	opts    Options
	params  config.Parameters
	st      *State
	out     output.LogWriter
	lg      *Logger
	blocks  trace.BlockWriter
	diag    *diagnostics.Sink
	timer   *observ.Timer
	metrics *Metrics

	mu         sync.Mutex
	reentrancy atomic.Int32

	debuggerAttached func() bool
}

// NewNodeLogger returns a logger that renders once Initialize subscribes it.
func NewNodeLogger(opts Options) *NodeLogger {
	if opts.Out == nil {
		opts.Out = os.Stdout
	}
	if opts.Diagnostics == nil {
		opts.Diagnostics = diagnostics.Disabled()
	}
	params := config.Default()
	if opts.Base != nil {
		params = *opts.Base
	}
	return &NodeLogger{
		opts:             opts,
		params:           params,
		diag:             opts.Diagnostics,
		timer:            observ.NewTimer(),
		metrics:          NewMetrics(),
		debuggerAttached: tracerAttached,
	}
}

// Initialize applies the parameters and their defaults for a build running on
// nodes nodes and subscribes to src.
func (nl *NodeLogger) Initialize(src Source, nodes int) error {
	nl.diag.Send(func() string { return fmt.Sprintf("Initialize(%d)", nodes) })
	if nodes < 1 {
		nodes = 1
	}
	p := &nl.params
	if nl.Parameters != "" {
		if err := config.ParseParameters(nl.Parameters, p); err != nil {
			return err
		}
	}
	if nodes == 1 && p.ShowEventID != nil {
		p.ShowEventID = config.Bool(false)
	}

	nl.out = output.NewLogWriter(nl.opts.Out, p, nl.opts.Terminal)
	if p.Debug {
		nl.out.SetColor(output.Warning)
		nl.out.Write("\n" + resources.Format("WaitingForDebugger", os.Getpid(), filepath.Base(os.Args[0])) + "\n")
		nl.out.ResetColor()
		waitForDebugger(nl.debuggerAttached)
	}

	if p.IsVerbosityAtLeast(event.Diagnostic) {
		p.ShowPerfSummary = true
	}
	p.ShowTargetOutputs = nl.opts.Env.TargetOutputLogging()
	if p.ShowSummary == nil && p.IsVerbosityAtLeast(event.Normal) {
		p.ShowSummary = config.Bool(true)
	}
	if p.ErrorsOrWarningsOnly() {
		if p.ShowSummary == nil {
			p.ShowSummary = config.Bool(false)
		}
		p.ShowPerfSummary = false
	}

	if p.IsVerbosityAtLeast(event.Diagnostic) {
		nl.out.SetColor(output.Details)
		nl.out.Write(resources.Format("LoggerParameters", p.String()) + "\n")
		nl.out.ResetColor()
	}

	var service trace.Tracer
	if p.TeamCityMode == config.TeamCitySupportHierarchy {
		service = trace.NewStream(nl.opts.Out, trace.FormatServiceMessage)
	}
	sinks := []trace.Tracer{service, nl.opts.Structured}
	if nl.opts.Ring != nil {
		sinks = append(sinks, nl.opts.Ring)
	}
	nl.blocks = trace.NopBlocks{}
	if sink := trace.NewMulti(sinks...); sink.Enabled() {
		nl.blocks = trace.NewHierarchy(sink, trace.NewFlowIDs(p.FlowID))
	}
	stats := NewStatistics(p.StatisticsMode, trace.NewMulti(service, nl.opts.Structured))

	nl.st = NewState(p, nodes)
	nl.lg = NewLogger(nl.st, nl.out, nl.blocks, stats)
	nl.lg.OnBuildFinished(nl.opts.BuildFinished)
	src.Subscribe(nl.Dispatch)
	nl.diag.Send(p.String)
	return nil
}

// Dispatch routes ev to its handler.
func (nl *NodeLogger) Dispatch(ev event.Event) {
	switch e := ev.(type) {
	case *event.BuildStarted:
		handle(nl, e, nl.lg.BuildStarted)
	case *event.BuildFinished:
		handle(nl, e, nl.lg.BuildFinished)
	case *event.ProjectStarted:
		handle(nl, e, nl.lg.ProjectStarted)
	case *event.ProjectFinished:
		handle(nl, e, nl.lg.ProjectFinished)
	case *event.TargetStarted:
		handle(nl, e, nl.lg.TargetStarted)
	case *event.TargetFinished:
		handle(nl, e, nl.lg.TargetFinished)
	case *event.TaskStarted:
		handle(nl, e, nl.lg.TaskStarted)
	case *event.TaskFinished:
		handle(nl, e, nl.lg.TaskFinished)
	case *event.Message:
		handle(nl, e, nl.lg.Message)
	case *event.Warning:
		handle(nl, e, nl.lg.Warning)
	case *event.Error:
		handle(nl, e, nl.lg.Error)
	case *event.Custom:
		handle(nl, e, nl.lg.Custom)
	}
}

func handle[E event.Event](nl *NodeLogger, e E, h func(E) error) {
	kind := e.Kind().String()
	fields := logrus.Fields{
		diagnostics.FieldKind:       kind,
		diagnostics.FieldNode:       event.NodeOf(e),
		diagnostics.FieldReentrancy: nl.reentrancy.Add(1) - 1,
	}
	if ctx := e.Header().Context; ctx != nil {
		fields[diagnostics.FieldScope] = fmt.Sprintf("%08x", ctx.ScopeHash())
	}
	entry := nl.diag.With(fields)
	entry.Send(func() string { return "handle +" })
	defer func() {
		n := nl.reentrancy.Add(-1)
		entry.Send(func() string { return fmt.Sprintf("handle - (%d left)", n) })
	}()

	nl.mu.Lock()
	defer nl.mu.Unlock()

	start := time.Now()
	err := invoke(e, h)
	d := time.Since(start)
	nl.timer.Add(kind, d)
	nl.metrics.observe(kind, d, err != nil)
	if err != nil {
		nl.fail(kind, err, entry)
	}
}

func invoke[E event.Event](e E, h func(E) error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v\n%s", ErrHandlerPanic, r, debug.Stack())
		}
	}()
	return h(e)
}

// fail reports a handler failure on the log output and in diagnostics. The
// session keeps running.
func (nl *NodeLogger) fail(kind string, err error, entry *diagnostics.Entry) {
	msg := resources.Format("HandlerFailed", kind, err)
	nl.out.ResetColor()
	nl.out.Write(msg + "\n")
	entry.Error(msg)
	if nl.opts.Ring != nil && nl.diag.Enabled() {
		w := nl.diag.Writer()
		_ = nl.opts.Ring.Dump(w, trace.FormatNDJSON) //nolint:errcheck
		_ = w.Close()                                //nolint:errcheck
	}
}

// Shutdown closes open blocks, writes handler timings to diagnostics and
// flushes the structured stream. The stream stays open; its owner closes it.
func (nl *NodeLogger) Shutdown() error {
	nl.mu.Lock()
	defer nl.mu.Unlock()
	nl.diag.Send(func() string { return "Shutdown()\n" + nl.timer.Summary() })
	if nl.blocks != nil {
		nl.blocks.Close()
	}
	if nl.opts.Structured != nil {
		return nl.opts.Structured.Flush()
	}
	return nil
}

// State returns the session state; nil before Initialize.
func (nl *NodeLogger) State() *State { return nl.st }

// Timer returns the per-kind handler timings.
func (nl *NodeLogger) Timer() *observ.Timer { return nl.timer }

// Metrics returns the dispatcher metrics.
func (nl *NodeLogger) Metrics() *Metrics { return nl.metrics }
