// Package registry tracks project and target scopes that have started but not yet finished.
//
// Projects are keyed at project granularity (node, project context) and targets at
// target granularity (node, project context, target), so scopes from different build
// nodes never collide even when their context ids are equal.
package registry

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"buildlog/internal/event"
	"buildlog/internal/resources"
)

var (
	// ErrDuplicateStart reports a started event for a scope that is already live.
	ErrDuplicateStart = errors.New("scope already started")
	// ErrMissingContext reports an event without the build context it requires.
	ErrMissingContext = errors.New("event has no build context")
)

// FullKey is the compact display key of a project invocation.
type FullKey struct {
	Project    int
	EntryPoint int
}

// String returns "p" for the first entry into a project file and "p:e" afterwards.
func (k FullKey) String() string {
	if k.EntryPoint <= 1 {
		return fmt.Sprintf("%d", k.Project)
	}
	return fmt.Sprintf("%d:%d", k.Project, k.EntryPoint)
}

// Format drops the entry-point part at verbosities up to Normal.
func (k FullKey) Format(v event.Verbosity) string {
	if v <= event.Normal {
		return fmt.Sprintf("%d", k.Project)
	}
	return k.String()
}

// IsZero reports whether the key was never assigned.
func (k FullKey) IsZero() bool {
	return k.Project == 0 && k.EntryPoint == 0
}

// ProjectRecord is a live project scope.
type ProjectRecord struct {
	Context     event.Context
	ProjectFile string
	TargetNames string
	Timestamp   time.Time
	FullKey     FullKey
	Parent      *ProjectRecord

	// StartedShown is set once the banner has been rendered; the finished line is
	// rendered only for shown projects.
	StartedShown   bool
	FinishedShown  bool
	ErrorInProject bool
}

// TargetRecord is a live target scope.
type TargetRecord struct {
	Context       event.Context
	TargetName    string
	TargetFile    string
	ProjectFile   string
	ParentTarget  string
	Message       string
	Timestamp     time.Time
	FullTargetKey string

	StartedShown  bool
	FinishedShown bool
	ErrorInTarget bool
}

// Registry owns every live scope record. It is not safe for concurrent use;
// the dispatcher serializes access.
type Registry struct {
	projects map[event.Key]*ProjectRecord
	targets  map[event.Key]*TargetRecord

	projectKeys    map[string]int
	entryPointKeys map[string]int
	lastProjectKey int
}

// New returns an empty registry.
func New() *Registry {
	r := &Registry{}
	r.Reset()
	return r
}

// Reset clears all state.
func (r *Registry) Reset() {
	r.projects = make(map[event.Key]*ProjectRecord)
	r.targets = make(map[event.Key]*TargetRecord)
	r.projectKeys = make(map[string]int)
	r.entryPointKeys = make(map[string]int)
	r.lastProjectKey = 0
}

// AddProjectStarted records a started project and links it to its parent, if the
// parent is still live. The timestamp is kept only when requireTimestamp is set.
func (r *Registry) AddProjectStarted(ev *event.ProjectStarted, requireTimestamp bool) error {
	ctx := ev.Head.Context
	if ctx == nil {
		return fmt.Errorf("project %q: %w", ev.ProjectFile, ErrMissingContext)
	}
	key := event.ByProject(*ctx)
	if _, ok := r.projects[key]; ok {
		return fmt.Errorf("project %q (%s): %w", ev.ProjectFile, ctx, ErrDuplicateStart)
	}

	rec := &ProjectRecord{
		Context:     *ctx,
		ProjectFile: ev.ProjectFile,
		TargetNames: ev.TargetNames,
		FullKey:     r.nextFullKey(ev.ProjectFile),
	}
	if requireTimestamp {
		rec.Timestamp = ev.Head.Timestamp
	}
	if ev.ParentContext != nil {
		rec.Parent = r.projects[event.ByProject(*ev.ParentContext)]
	}
	r.projects[key] = rec
	return nil
}

func (r *Registry) nextFullKey(projectFile string) FullKey {
	r.entryPointKeys[projectFile]++
	project, ok := r.projectKeys[projectFile]
	if !ok {
		r.lastProjectKey++
		project = r.lastProjectKey
		r.projectKeys[projectFile] = project
	}
	return FullKey{Project: project, EntryPoint: r.entryPointKeys[projectFile]}
}

// AddTargetStarted records a started target.
func (r *Registry) AddTargetStarted(ev *event.TargetStarted, requireTimestamp bool) error {
	ctx := ev.Head.Context
	if ctx == nil {
		return fmt.Errorf("target %q: %w", ev.TargetName, ErrMissingContext)
	}
	key := event.ByTarget(*ctx)
	if _, ok := r.targets[key]; ok {
		return fmt.Errorf("target %q (%s): %w", ev.TargetName, ctx, ErrDuplicateStart)
	}

	rec := &TargetRecord{
		Context:       *ctx,
		TargetName:    ev.TargetName,
		TargetFile:    ev.TargetFile,
		ProjectFile:   ev.ProjectFile,
		ParentTarget:  ev.ParentTarget,
		Message:       ev.Head.Message,
		FullTargetKey: ev.TargetFile + "." + ev.TargetName,
	}
	if requireTimestamp {
		rec.Timestamp = ev.Head.Timestamp
	}
	r.targets[key] = rec
	return nil
}

// GetProjectStarted returns the live project owning ctx, or nil.
func (r *Registry) GetProjectStarted(ctx event.Context) *ProjectRecord {
	return r.projects[event.ByProject(ctx)]
}

// GetTargetStarted returns the live target owning ctx, or nil.
func (r *Registry) GetTargetStarted(ctx event.Context) *TargetRecord {
	return r.targets[event.ByTarget(ctx)]
}

// RemoveProjectStarted drops the project owning ctx. Unknown scopes are ignored.
func (r *Registry) RemoveProjectStarted(ctx event.Context) {
	delete(r.projects, event.ByProject(ctx))
}

// RemoveTargetStarted drops the target owning ctx. Unknown scopes are ignored.
func (r *Registry) RemoveTargetStarted(ctx event.Context) {
	delete(r.targets, event.ByTarget(ctx))
}

// Projects reports the number of live projects.
func (r *Registry) Projects() int { return len(r.projects) }

// Targets reports the number of live targets.
func (r *Registry) Targets() int { return len(r.targets) }

// ProjectCallStack describes the chain of projects from the build root down to the
// project owning ctx, one line per project, each indented two spaces deeper than its parent.
func (r *Registry) ProjectCallStack(ctx event.Context) []string {
	var chain []*ProjectRecord
	for rec := r.GetProjectStarted(ctx); rec != nil; rec = rec.Parent {
		chain = append(chain, rec)
	}

	lines := make([]string, 0, len(chain))
	for depth := range chain {
		rec := chain[len(chain)-1-depth]
		var line string
		if rec.TargetNames == "" {
			line = resources.Format("ProjectStackWithDefaultTargets", rec.ProjectFile)
		} else {
			line = resources.Format("ProjectStackWithTargetNames", rec.ProjectFile, rec.TargetNames)
		}
		lines = append(lines, strings.Repeat("  ", depth)+line)
	}
	return lines
}

// SetErrorOrWarningFlag marks the target owning ctx and every project on its call
// stack as having reported a problem. Flags are never cleared.
func (r *Registry) SetErrorOrWarningFlag(ctx event.Context) {
	if t := r.GetTargetStarted(ctx); t != nil {
		t.ErrorInTarget = true
	}
	for rec := r.GetProjectStarted(ctx); rec != nil; rec = rec.Parent {
		rec.ErrorInProject = true
	}
}

// FullKeyOf returns the full key of the project owning ctx.
func (r *Registry) FullKeyOf(ctx *event.Context) (FullKey, bool) {
	if ctx == nil {
		return FullKey{}, false
	}
	rec := r.GetProjectStarted(*ctx)
	if rec == nil {
		return FullKey{}, false
	}
	return rec.FullKey, true
}

// FullProjectKey returns the formatted key of the project owning ctx, or "".
func (r *Registry) FullProjectKey(ctx *event.Context, v event.Verbosity) string {
	key, ok := r.FullKeyOf(ctx)
	if !ok {
		return ""
	}
	return key.Format(v)
}
