package trace

import (
	"sort"
	"time"

	"buildlog/internal/event"
)

// BlockWriter brackets nested regions of output per build node.
type BlockWriter interface {
	StartBlock(flow int, name string)
	FinishBlock(flow int)
	// Message reports text with the given status; location attributes are taken from ev when it carries any.
	Message(flow int, text string, status Status, ev event.Event)
	// Close finishes every open block and flow.
	Close()
}

// NopBlocks ignores everything.
type NopBlocks struct{}

func (NopBlocks) StartBlock(int, string) {}
func (NopBlocks) FinishBlock(int) {}
func (NopBlocks) Message(int, string, Status, event.Event) {}
func (NopBlocks) Close() {}

// Hierarchy emits block and message events to a tracer, keeping
// a stack of open block names for every flow.
type Hierarchy struct {
	tracer Tracer
	flows  *FlowIDs
	stacks map[int][]string
	now    func() time.Time
}

// NewHierarchy returns a block writer emitting to t.
func NewHierarchy(t Tracer, flows *FlowIDs) *Hierarchy {
	return &Hierarchy{tracer: t, flows: flows, stacks: make(map[int][]string), now: time.Now}
}

func (h *Hierarchy) flow(node int) string {
	id, created := h.flows.Lookup(node)
	if created {
		h.tracer.Emit(&Event{Time: h.now(), Kind: KindFlowStarted, Flow: id})
	}
	return id
}

func (h *Hierarchy) StartBlock(flow int, name string) {
	id := h.flow(flow)
	h.stacks[flow] = append(h.stacks[flow], name)
	h.tracer.Emit(&Event{Time: h.now(), Kind: KindBlockOpened, Flow: id, Name: name})
}

// FinishBlock closes the innermost open block of flow; it is a no-op when none is open.
func (h *Hierarchy) FinishBlock(flow int) {
	stack := h.stacks[flow]
	if len(stack) == 0 {
		return
	}
	name := stack[len(stack)-1]
	h.stacks[flow] = stack[:len(stack)-1]
	id, _ := h.flows.Lookup(flow)
	h.tracer.Emit(&Event{Time: h.now(), Kind: KindBlockClosed, Flow: id, Name: name})
}

// Depth returns the number of open blocks of flow.
func (h *Hierarchy) Depth(flow int) int {
	return len(h.stacks[flow])
}

func (h *Hierarchy) Message(flow int, text string, status Status, ev event.Event) {
	out := &Event{Time: h.now(), Kind: KindMessage, Flow: h.flow(flow), Text: text, Status: status}
	addLocation(out, ev)
	h.tracer.Emit(out)
}

// Close unwinds every open block, innermost first, and finishes each flow.
func (h *Hierarchy) Close() {
	nodes := make([]int, 0, len(h.stacks))
	for node := range h.stacks {
		nodes = append(nodes, node)
	}
	sort.Ints(nodes)
	for _, node := range nodes {
		for len(h.stacks[node]) > 0 {
			h.FinishBlock(node)
		}
	}

	type flow struct {
		node int
		id   string
	}
	var flows []flow
	h.flows.Each(func(node int, id string) { flows = append(flows, flow{node, id}) })
	sort.Slice(flows, func(i, j int) bool { return flows[i].node < flows[j].node })
	for _, f := range flows {
		h.tracer.Emit(&Event{Time: h.now(), Kind: KindFlowFinished, Flow: f.id})
	}
	h.flows.Reset()
	h.stacks = make(map[int][]string)
}

func addLocation(out *Event, ev event.Event) {
	var (
		loc        event.Location
		importance string
	)
	switch e := ev.(type) {
	case *event.Error:
		loc = e.Location
	case *event.Warning:
		loc = e.Location
	case *event.Message:
		loc = e.Location
		importance = e.Importance.String()
	default:
		return
	}

	opt := func(key, value string) {
		if value != "" {
			out.With(key, value)
		}
	}
	opt("code", loc.Code)
	opt("file", loc.File)
	opt("subcategory", loc.Subcategory)
	opt("projectFile", loc.ProjectFile)
	opt("senderName", ev.Header().SenderName)
	out.WithInt("columnNumber", loc.ColumnNumber).
		WithInt("endColumnNumber", loc.EndColumnNumber).
		WithInt("lineNumber", loc.LineNumber).
		WithInt("endLineNumber", loc.EndLineNumber)
	opt("importance", importance)
}
