// Package logger turns a stream of build events into the rendered build log.
//
// A State holds everything one logging session knows: the live scope
// registry, the performance counters, error and warning lists and the
// messages waiting for their project to start. Handlers mutate it one event
// at a time under the NodeLogger lock, so nothing in this package locks on
// its own.
package logger

import (
	"time"

	"buildlog/internal/config"
	"buildlog/internal/event"
	"buildlog/internal/output"
	"buildlog/internal/perf"
	"buildlog/internal/registry"
)

// SummaryEntry is a warning or error kept for the build summary, together
// with where it was reported. The scope records are gone by the time the
// summary is written, so the call stack and target are captured up front.
type SummaryEntry struct {
	Event      event.Event
	Project    event.Key
	TargetName string
	CallStack  []string
}

// State is the mutable state of one logging session.
type State struct {
	Params   *config.Parameters
	Registry *registry.Registry
	Cursor   output.Cursor

	BuildStarted    time.Time
	HasBuildStarted bool

	ErrorCount   int
	WarningCount int
	Errors       []SummaryEntry
	Warnings     []SummaryEntry

	Perf            *perf.Tree
	ProjectCounters *perf.Level
	TargetCounters  *perf.Level
	TaskCounters    *perf.Level

	deferred      map[event.Key][]*event.Message
	deferredOrder []event.Key
}

// NewState returns the state of a session rendering for nodes build nodes.
func NewState(params *config.Parameters, nodes int) *State {
	s := &State{
		Params:   params,
		Registry: registry.New(),
		Perf:     perf.NewTree(),
	}
	s.Cursor.Nodes = nodes
	s.Reset()
	return s
}

// IsVerbosityAtLeast reports whether the session verbosity is v or higher.
func (s *State) IsVerbosityAtLeast(v event.Verbosity) bool {
	return s.Params.IsVerbosityAtLeast(v)
}

// ShowSummary reports whether errors and warnings are collected for the summary.
func (s *State) ShowSummary() bool {
	return config.IsSet(s.Params.ShowSummary)
}

// Defer queues msg until the project owning it starts.
func (s *State) Defer(msg *event.Message) {
	key := event.ByProject(*msg.Head.Context)
	if _, ok := s.deferred[key]; !ok {
		s.deferredOrder = append(s.deferredOrder, key)
	}
	s.deferred[key] = append(s.deferred[key], msg)
}

// TakeDeferred removes and returns the messages queued for the project owning ctx.
func (s *State) TakeDeferred(ctx event.Context) []*event.Message {
	key := event.ByProject(ctx)
	msgs, ok := s.deferred[key]
	if !ok {
		return nil
	}
	delete(s.deferred, key)
	for i, k := range s.deferredOrder {
		if k == key {
			s.deferredOrder = append(s.deferredOrder[:i], s.deferredOrder[i+1:]...)
			break
		}
	}
	return msgs
}

// Deferred returns every queued message, grouped by project in arrival order.
func (s *State) Deferred() []*event.Message {
	var all []*event.Message
	for _, key := range s.deferredOrder {
		all = append(all, s.deferred[key]...)
	}
	return all
}

// DeferredCount reports the number of projects with queued messages.
func (s *State) DeferredCount() int {
	return len(s.deferredOrder)
}

// Reset returns the session to its initial state; the parameters and node count survive.
func (s *State) Reset() {
	s.Registry.Reset()
	s.Cursor.Reset()
	s.BuildStarted = time.Time{}
	s.HasBuildStarted = false
	s.ErrorCount, s.WarningCount = 0, 0
	s.Errors, s.Warnings = nil, nil
	s.Perf.Reset()
	s.ProjectCounters = s.Perf.NewLevel()
	s.TargetCounters = s.Perf.NewLevel()
	s.TaskCounters = s.Perf.NewLevel()
	s.deferred = make(map[event.Key][]*event.Message)
	s.deferredOrder = nil
}

// PerfReport snapshots the three counter tables.
func (s *State) PerfReport() perf.Report {
	return perf.NewReport(s.ProjectCounters, s.TargetCounters, s.TaskCounters)
}
