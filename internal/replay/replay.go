// Package replay feeds a recorded event log to subscribers, either in log
// order or with every build node's events delivered from its own goroutine.
package replay

import (
	"context"
	"fmt"
	"io"
	"runtime"
	"sort"
	"sync"

	"golang.org/x/sync/errgroup"

	"buildlog/internal/event"
)

// Source is an event source backed by a recorded log.
type Source struct {
	mu     sync.Mutex
	subs   []func(event.Event)
	events []event.Event
}

// New returns a source replaying events.
func New(events []event.Event) *Source {
	return &Source{events: events}
}

// Load decodes the whole log in r.
func Load(r io.Reader, format event.Format) (*Source, error) {
	events, err := event.ReadAll(r, format)
	if err != nil {
		return nil, fmt.Errorf("failed to read event log: %w", err)
	}
	return New(events), nil
}

// Subscribe registers fn for every replayed event.
func (s *Source) Subscribe(fn func(event.Event)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.subs = append(s.subs, fn)
}

// Len reports the number of recorded events.
func (s *Source) Len() int { return len(s.events) }

// Nodes reports the number of distinct build nodes in the log, at least one.
// Build-level events carrying the invalid node id do not count.
func (s *Source) Nodes() int {
	seen := make(map[int]struct{})
	for _, ev := range s.events {
		if node, ok := nodeEvent(ev); ok {
			seen[node] = struct{}{}
		}
	}
	return max(len(seen), 1)
}

// nodeEvent reports the node of ev when ev belongs to one build node.
func nodeEvent(ev event.Event) (int, bool) {
	switch ev.Kind() {
	case event.KindBuildStarted, event.KindBuildFinished:
		return 0, false
	}
	ctx := ev.Header().Context
	if ctx == nil || ctx.NodeID == event.InvalidNodeID {
		return 0, false
	}
	return ctx.NodeID, true
}

func (s *Source) deliver(ev event.Event) {
	s.mu.Lock()
	subs := s.subs
	s.mu.Unlock()
	for _, fn := range subs {
		fn(ev)
	}
}

// Run delivers every event in log order.
func (s *Source) Run(ctx context.Context) error {
	return s.runSequential(ctx, s.events)
}

func (s *Source) runSequential(ctx context.Context, events []event.Event) error {
	for _, ev := range events {
		if err := ctx.Err(); err != nil {
			return err
		}
		s.deliver(ev)
	}
	return nil
}

// RunParallel delivers the events of each node from its own goroutine, at
// most jobs at a time, keeping the log order within a node. Events before the
// first and after the last node event are delivered sequentially around them.
func (s *Source) RunParallel(ctx context.Context, jobs int) error {
	head, groups, tail := split(s.events)
	if err := s.runSequential(ctx, head); err != nil {
		return err
	}

	if jobs <= 0 {
		jobs = runtime.GOMAXPROCS(0)
	}
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(min(jobs, len(groups)), 1))
	for _, group := range groups {
		g.Go(func() error {
			return s.runSequential(gctx, group)
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	return s.runSequential(ctx, tail)
}

// split cuts events into the head before the first node event, per-node
// groups ordered by node id, and the tail after the last node event. Build
// started events always join the head and build finished events the tail;
// other build-level events in between join node 0.
func split(events []event.Event) (head []event.Event, groups [][]event.Event, tail []event.Event) {
	first, last := -1, -1
	for i, ev := range events {
		if _, ok := nodeEvent(ev); ok {
			if first < 0 {
				first = i
			}
			last = i
		}
	}
	if first < 0 {
		return events, nil, nil
	}

	head = append(head, events[:first]...)
	byNode := make(map[int][]event.Event)
	for _, ev := range events[first : last+1] {
		switch ev.Kind() {
		case event.KindBuildStarted:
			head = append(head, ev)
			continue
		case event.KindBuildFinished:
			tail = append(tail, ev)
			continue
		}
		node, _ := nodeEvent(ev)
		byNode[node] = append(byNode[node], ev)
	}
	tail = append(tail, events[last+1:]...)

	nodes := make([]int, 0, len(byNode))
	for node := range byNode {
		nodes = append(nodes, node)
	}
	sort.Ints(nodes)
	for _, node := range nodes {
		groups = append(groups, byNode[node])
	}
	return head, groups, tail
}
