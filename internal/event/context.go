package event

import "fmt"

// Sentinel ids used by the build engine for "no such scope".
const (
	InvalidNodeID           = -2
	InvalidProjectContextID = -2
	InvalidTargetID         = -1
	InvalidTaskID           = -1
)

// Context identifies the scope an event belongs to.
// Two contexts denote the same project scope when NodeID and ProjectContextID match,
// and the same target scope when TargetID matches as well.
type Context struct {
	NodeID           int `json:"node" msgpack:"node"`
	ProjectContextID int `json:"project" msgpack:"project"`
	TargetID         int `json:"target" msgpack:"target"`
	TaskID           int `json:"task" msgpack:"task"`
}

// NewContext returns a context for the given ids.
func NewContext(node, project, target, task int) Context {
	return Context{NodeID: node, ProjectContextID: project, TargetID: target, TaskID: task}
}

// ProjectContext returns a context pointing at a project scope.
func ProjectContext(node, project int) Context {
	return Context{NodeID: node, ProjectContextID: project, TargetID: InvalidTargetID, TaskID: InvalidTaskID}
}

// TargetContext returns a context pointing at a target scope.
func TargetContext(node, project, target int) Context {
	return Context{NodeID: node, ProjectContextID: project, TargetID: target, TaskID: InvalidTaskID}
}

// ProjectHash mixes the node id into the high bits of the project context id.
func (c Context) ProjectHash() int {
	return c.ProjectContextID + (c.NodeID << 24)
}

// TargetHash extends ProjectHash with the target id.
func (c Context) TargetHash() int {
	return c.ProjectHash() ^ (c.TargetID << 12)
}

// ScopeHash is TargetHash for target-level contexts and ProjectHash otherwise.
func (c Context) ScopeHash() int {
	if c.TargetID == InvalidTargetID {
		return c.ProjectHash()
	}
	return c.TargetHash()
}

// SameProject reports whether both contexts denote the same project scope.
func (c Context) SameProject(o Context) bool {
	return c.NodeID == o.NodeID && c.ProjectContextID == o.ProjectContextID
}

// SameTarget reports whether both contexts denote the same target scope.
func (c Context) SameTarget(o Context) bool {
	return c.SameProject(o) && c.TargetID == o.TargetID
}

func (c Context) String() string {
	return fmt.Sprintf("node=%d project=%d target=%d task=%d", c.NodeID, c.ProjectContextID, c.TargetID, c.TaskID)
}

// Key is a comparable projection of a Context used as a map key.
// Fields outside the granularity of the KeyFunc that produced it are zero.
type Key struct {
	Node    int
	Project int
	Target  int
	Task    int
}

// KeyFunc projects a Context to a Key of a fixed granularity.
type KeyFunc func(Context) Key

// ByProject keys contexts by (node, project context).
func ByProject(c Context) Key {
	return Key{Node: c.NodeID, Project: c.ProjectContextID}
}

// ByTarget keys contexts by (node, project context, target).
func ByTarget(c Context) Key {
	return Key{Node: c.NodeID, Project: c.ProjectContextID, Target: c.TargetID}
}

// ByEvent keys contexts by all four ids.
func ByEvent(c Context) Key {
	return Key{Node: c.NodeID, Project: c.ProjectContextID, Target: c.TargetID, Task: c.TaskID}
}
