// Package perf accumulates elapsed time and call counts per named build scope.
//
// Counters live in an arena owned by a Tree and are addressed by ID. Each Level is a
// name-indexed table over the arena; lookups are case-insensitive. A counter may own
// a nested Level of sub-counters, used by the project table to break a project's time
// down by the target names it was asked to build.
package perf

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"fortio.org/safecast"
	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"

	"buildlog/internal/event"
)

// ErrNotStarted reports a finish observed on a counter that never saw a start.
var ErrNotStarted = errors.New("cannot have finished counter without started counter")

// ID addresses a counter in a Tree.
type ID uint32

type node struct {
	name     string
	elapsed  time.Duration
	calls    int
	keyOf    event.KeyFunc
	open     map[event.Key]time.Time // nil until the first start
	children *Level
}

// Tree is the arena holding every counter of a logger session.
type Tree struct {
	nodes []node
	fold  cases.Caser
}

// NewTree returns an empty arena.
func NewTree() *Tree {
	return &Tree{fold: cases.Fold()}
}

// Reset drops every counter. Levels created before Reset must not be reused.
func (t *Tree) Reset() {
	t.nodes = t.nodes[:0]
}

// Len reports the number of counters in the arena.
func (t *Tree) Len() int {
	return len(t.nodes)
}

// NewLevel returns an empty lookup table backed by t.
func (t *Tree) NewLevel() *Level {
	return &Level{tree: t, index: make(map[string]ID)}
}

func (t *Tree) alloc(name string) ID {
	t.nodes = append(t.nodes, node{name: name})
	id, err := safecast.Conv[uint32](len(t.nodes) - 1)
	if err != nil {
		panic(fmt.Errorf("performance counter overflow: %w", err))
	}
	return ID(id)
}

func (t *Tree) node(id ID) *node {
	return &t.nodes[id]
}

func (t *Tree) foldName(name string) string {
	return t.fold.String(norm.NFC.String(name))
}

// Level is a name-indexed set of sibling counters.
type Level struct {
	tree  *Tree
	index map[string]ID
	ids   []ID
}

// Len reports the number of counters in the level.
func (l *Level) Len() int {
	if l == nil {
		return 0
	}
	return len(l.ids)
}

// Lookup returns the counter registered under name, ignoring case.
func (l *Level) Lookup(name string) (Counter, bool) {
	if l == nil {
		return Counter{}, false
	}
	id, ok := l.index[l.tree.foldName(name)]
	if !ok {
		return Counter{}, false
	}
	return Counter{tree: l.tree, id: id}, true
}

// GetOrCreate returns the counter registered under name, creating a zeroed one if needed.
// The first spelling of a name is the one displayed.
func GetOrCreate(name string, l *Level) Counter {
	if c, ok := l.Lookup(name); ok {
		return c
	}
	id := l.tree.alloc(name)
	l.index[l.tree.foldName(name)] = id
	l.ids = append(l.ids, id)
	return Counter{tree: l.tree, id: id}
}

// Counters returns the level's counters by descending elapsed time, ties by name.
func (l *Level) Counters() []Counter {
	if l == nil {
		return nil
	}
	out := make([]Counter, len(l.ids))
	for i, id := range l.ids {
		out[i] = Counter{tree: l.tree, id: id}
	}
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i].n(), out[j].n()
		if a.elapsed != b.elapsed {
			return a.elapsed > b.elapsed
		}
		return a.name < b.name
	})
	return out
}

// Render renders every counter of the level at the given indent.
func (l *Level) Render(indent int) []Line {
	var lines []Line
	for _, c := range l.Counters() {
		lines = append(lines, c.Render(indent)...)
	}
	return lines
}

// Snapshot returns the structure of the level in render order.
func (l *Level) Snapshot() []NodeSnapshot {
	counters := l.Counters()
	if len(counters) == 0 {
		return nil
	}
	out := make([]NodeSnapshot, len(counters))
	for i, c := range counters {
		out[i] = c.Snapshot()
	}
	return out
}

// NodeSnapshot is a copy of a counter and its sub-counters.
type NodeSnapshot struct {
	Name     string         `json:"name" msgpack:"name"`
	Elapsed  time.Duration  `json:"elapsed" msgpack:"elapsed"`
	Calls    int            `json:"calls" msgpack:"calls"`
	Open     int            `json:"open,omitempty" msgpack:"open,omitempty"`
	Children []NodeSnapshot `json:"children,omitempty" msgpack:"children,omitempty"`
}
