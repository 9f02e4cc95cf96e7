package trace

import (
	"strings"
	"sync"

	"github.com/google/uuid"
)

// FlowIDs hands out one flow id per build node. The first id is the
// configured one when set; later ids are random.
type FlowIDs struct {
	mu    sync.Mutex
	first string
	used  bool
	ids   map[int]string
	gen   func() string
}

// NewFlowIDs returns a registry whose first flow id is first, if not blank.
func NewFlowIDs(first string) *FlowIDs {
	return &FlowIDs{first: strings.TrimSpace(first), ids: make(map[int]string), gen: newFlowID}
}

func newFlowID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}

// Lookup returns the flow id of node and whether it was just created.
func (f *FlowIDs) Lookup(node int) (id string, created bool) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if id, ok := f.ids[node]; ok {
		return id, false
	}
	if !f.used {
		f.used = true
		if f.first != "" {
			id = f.first
		}
	}
	if id == "" {
		id = f.gen()
	}
	f.ids[node] = id
	return id, true
}

// Each calls fn for every known node and its flow id.
func (f *FlowIDs) Each(fn func(node int, id string)) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for node, id := range f.ids {
		fn(node, id)
	}
}

// Reset forgets every flow id.
func (f *FlowIDs) Reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ids = make(map[int]string)
}
