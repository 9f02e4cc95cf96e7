package perf

import (
	"fmt"
	"math"
	"time"

	"github.com/mattn/go-runewidth"

	"buildlog/internal/event"
	"buildlog/internal/resources"
)

const (
	// TopIndent is the indent of top-level counter lines.
	TopIndent = 2
	// NestedIndentStep is added to the indent of sub-counter lines.
	NestedIndentStep = 5

	nameWidth = 40
)

// Counter is a handle to a counter in a Tree.
type Counter struct {
	tree *Tree
	id   ID
}

func (c Counter) n() *node { return c.tree.node(c.id) }

// ID returns the arena index of the counter.
func (c Counter) ID() ID { return c.id }

// Name returns the scope name the counter was created with.
func (c Counter) Name() string { return c.n().name }

// Elapsed returns the accumulated time of every closed interval.
func (c Counter) Elapsed() time.Duration { return c.n().elapsed }

// Calls returns the number of distinct started intervals.
func (c Counter) Calls() int { return c.n().calls }

// Children returns the sub-counter level, or nil.
func (c Counter) Children() *Level { return c.n().children }

// RecordStarted opens an interval for ctx at ts. Intervals are keyed with keyOf, or
// with every context field when keyOf is nil. When sub is not empty the interval is
// also opened on the sub-counter named sub, keyed at target granularity.
// Starting an interval that is already open is a no-op.
func (c Counter) RecordStarted(sub string, ctx event.Context, ts time.Time, keyOf event.KeyFunc) {
	if sub != "" {
		nd := c.n()
		if nd.children == nil {
			nd.children = c.tree.NewLevel()
		}
		child := GetOrCreate(sub, nd.children)
		child.RecordStarted("", ctx, ts, event.ByTarget)
	}

	// GetOrCreate may have grown the arena; take the node pointer afterwards.
	nd := c.n()
	if nd.open == nil {
		if keyOf == nil {
			keyOf = event.ByEvent
		}
		nd.keyOf = keyOf
		nd.open = make(map[event.Key]time.Time)
	}
	key := nd.keyOf(ctx)
	if _, ok := nd.open[key]; ok {
		return
	}
	nd.open[key] = ts
	nd.calls++
}

// RecordFinished closes the interval opened for ctx and adds its duration.
// It returns ErrNotStarted when the counter never saw a start. A finish for an
// interval that is not open is ignored, as is a finish on a sub-counter that
// never started.
func (c Counter) RecordFinished(sub string, ctx event.Context, ts time.Time) error {
	if sub != "" {
		if child, ok := c.n().children.Lookup(sub); ok && child.n().open != nil {
			if err := child.RecordFinished("", ctx, ts); err != nil {
				return err
			}
		}
	}

	nd := c.n()
	if nd.open == nil {
		return fmt.Errorf("%q: %w", nd.name, ErrNotStarted)
	}
	key := nd.keyOf(ctx)
	started, ok := nd.open[key]
	if !ok {
		return nil
	}
	if d := ts.Sub(started); d > 0 {
		nd.elapsed += d
	}
	delete(nd.open, key)
	return nil
}

// Line is one rendered counter line.
type Line struct {
	Indent int
	Nested bool
	Text   string
}

// Render formats the counter at indent, followed by its sub-counters one step deeper.
func (c Counter) Render(indent int) []Line {
	nd := c.n()
	ms := int64(math.Round(float64(nd.elapsed) / float64(time.Millisecond)))
	text := resources.Format("PerformanceLine",
		fmt.Sprintf("%5d", ms),
		runewidth.FillRight(nd.name, nameWidth),
		fmt.Sprintf("%3d", nd.calls),
	)
	lines := []Line{{Indent: indent, Nested: indent > TopIndent, Text: text}}
	for _, child := range nd.children.Counters() {
		lines = append(lines, child.Render(indent+NestedIndentStep)...)
	}
	return lines
}

// Snapshot copies the counter and its sub-counters.
func (c Counter) Snapshot() NodeSnapshot {
	nd := c.n()
	return NodeSnapshot{
		Name:     nd.name,
		Elapsed:  nd.elapsed,
		Calls:    nd.calls,
		Open:     len(nd.open),
		Children: nd.children.Snapshot(),
	}
}
