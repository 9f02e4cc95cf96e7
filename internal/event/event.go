package event

import "time"

// Kind represents the type of a build event.
type Kind uint8

const (
	KindBuildStarted Kind = iota + 1
	KindBuildFinished
	KindProjectStarted
	KindProjectFinished
	KindTargetStarted
	KindTargetFinished
	KindTaskStarted
	KindTaskFinished
	KindMessage
	KindWarning
	KindError
	KindCustom
)

var kindNames = [...]string{
	KindBuildStarted:    "BuildStarted",
	KindBuildFinished:   "BuildFinished",
	KindProjectStarted:  "ProjectStarted",
	KindProjectFinished: "ProjectFinished",
	KindTargetStarted:   "TargetStarted",
	KindTargetFinished:  "TargetFinished",
	KindTaskStarted:     "TaskStarted",
	KindTaskFinished:    "TaskFinished",
	KindMessage:         "Message",
	KindWarning:         "Warning",
	KindError:           "Error",
	KindCustom:          "Custom",
}

// String returns the string representation of Kind.
func (k Kind) String() string {
	if int(k) < len(kindNames) && kindNames[k] != "" {
		return kindNames[k]
	}
	return "unknown"
}

// ParseKind converts a kind name back to a Kind.
func ParseKind(s string) (Kind, bool) {
	for k, name := range kindNames {
		if name != "" && name == s {
			return Kind(k), true
		}
	}
	return 0, false
}

// Header carries the fields shared by every event.
type Header struct {
	Context     *Context  `json:"context,omitempty" msgpack:"context,omitempty"`
	Timestamp   time.Time `json:"timestamp" msgpack:"timestamp"`
	Message     string    `json:"message,omitempty" msgpack:"message,omitempty"`
	SenderName  string    `json:"sender,omitempty" msgpack:"sender,omitempty"`
	HelpKeyword string    `json:"help,omitempty" msgpack:"help,omitempty"`
}

// Event is the closed set of build events understood by the logger.
type Event interface {
	Header() *Header
	Kind() Kind
	sealed()
}

// Location is the source position attached to warnings, errors and messages.
type Location struct {
	Subcategory     string `json:"subcategory,omitempty" msgpack:"subcategory,omitempty"`
	Code            string `json:"code,omitempty" msgpack:"code,omitempty"`
	File            string `json:"file,omitempty" msgpack:"file,omitempty"`
	ProjectFile     string `json:"projectFile,omitempty" msgpack:"projectFile,omitempty"`
	LineNumber      int    `json:"line,omitempty" msgpack:"line,omitempty"`
	ColumnNumber    int    `json:"column,omitempty" msgpack:"column,omitempty"`
	EndLineNumber   int    `json:"endLine,omitempty" msgpack:"endLine,omitempty"`
	EndColumnNumber int    `json:"endColumn,omitempty" msgpack:"endColumn,omitempty"`
}

// Item is a build item with its metadata.
type Item struct {
	Type     string            `json:"type" msgpack:"type"`
	Spec     string            `json:"spec" msgpack:"spec"`
	Metadata map[string]string `json:"metadata,omitempty" msgpack:"metadata,omitempty"`
}

type BuildStarted struct {
	Head        Header            `json:"header" msgpack:"header"`
	Environment map[string]string `json:"environment,omitempty" msgpack:"environment,omitempty"`
}

type BuildFinished struct {
	Head      Header `json:"header" msgpack:"header"`
	Succeeded bool   `json:"succeeded" msgpack:"succeeded"`
}

type ProjectStarted struct {
	Head          Header            `json:"header" msgpack:"header"`
	ProjectFile   string            `json:"projectFile" msgpack:"projectFile"`
	TargetNames   string            `json:"targetNames,omitempty" msgpack:"targetNames,omitempty"`
	ParentContext *Context          `json:"parent,omitempty" msgpack:"parent,omitempty"`
	Properties    map[string]string `json:"properties,omitempty" msgpack:"properties,omitempty"`
	Items         []Item            `json:"items,omitempty" msgpack:"items,omitempty"`
}

type ProjectFinished struct {
	Head        Header `json:"header" msgpack:"header"`
	ProjectFile string `json:"projectFile" msgpack:"projectFile"`
	Succeeded   bool   `json:"succeeded" msgpack:"succeeded"`
}

type TargetStarted struct {
	Head         Header `json:"header" msgpack:"header"`
	TargetName   string `json:"targetName" msgpack:"targetName"`
	TargetFile   string `json:"targetFile,omitempty" msgpack:"targetFile,omitempty"`
	ProjectFile  string `json:"projectFile,omitempty" msgpack:"projectFile,omitempty"`
	ParentTarget string `json:"parentTarget,omitempty" msgpack:"parentTarget,omitempty"`
}

type TargetFinished struct {
	Head        Header `json:"header" msgpack:"header"`
	TargetName  string `json:"targetName" msgpack:"targetName"`
	TargetFile  string `json:"targetFile,omitempty" msgpack:"targetFile,omitempty"`
	ProjectFile string `json:"projectFile,omitempty" msgpack:"projectFile,omitempty"`
	Succeeded   bool   `json:"succeeded" msgpack:"succeeded"`
	Outputs     []Item `json:"outputs,omitempty" msgpack:"outputs,omitempty"`
}

type TaskStarted struct {
	Head        Header `json:"header" msgpack:"header"`
	TaskName    string `json:"taskName" msgpack:"taskName"`
	ProjectFile string `json:"projectFile,omitempty" msgpack:"projectFile,omitempty"`
	TaskFile    string `json:"taskFile,omitempty" msgpack:"taskFile,omitempty"`
}

type TaskFinished struct {
	Head        Header `json:"header" msgpack:"header"`
	TaskName    string `json:"taskName" msgpack:"taskName"`
	ProjectFile string `json:"projectFile,omitempty" msgpack:"projectFile,omitempty"`
	TaskFile    string `json:"taskFile,omitempty" msgpack:"taskFile,omitempty"`
	Succeeded   bool   `json:"succeeded" msgpack:"succeeded"`
}

// Message is an informational message. CommandLine is set for messages that
// report the command line of a tool task.
type Message struct {
	Head        Header     `json:"header" msgpack:"header"`
	Importance  Importance `json:"importance" msgpack:"importance"`
	CommandLine string     `json:"commandLine,omitempty" msgpack:"commandLine,omitempty"`
	Location    Location   `json:"location" msgpack:"location"`
}

type Warning struct {
	Head     Header   `json:"header" msgpack:"header"`
	Location Location `json:"location" msgpack:"location"`
}

type Error struct {
	Head     Header   `json:"header" msgpack:"header"`
	Location Location `json:"location" msgpack:"location"`
}

type Custom struct {
	Head Header `json:"header" msgpack:"header"`
}

func (e *BuildStarted) Header() *Header    { return &e.Head }
func (e *BuildFinished) Header() *Header   { return &e.Head }
func (e *ProjectStarted) Header() *Header  { return &e.Head }
func (e *ProjectFinished) Header() *Header { return &e.Head }
func (e *TargetStarted) Header() *Header   { return &e.Head }
func (e *TargetFinished) Header() *Header  { return &e.Head }
func (e *TaskStarted) Header() *Header     { return &e.Head }
func (e *TaskFinished) Header() *Header    { return &e.Head }
func (e *Message) Header() *Header         { return &e.Head }
func (e *Warning) Header() *Header         { return &e.Head }
func (e *Error) Header() *Header           { return &e.Head }
func (e *Custom) Header() *Header          { return &e.Head }

func (*BuildStarted) Kind() Kind    { return KindBuildStarted }
func (*BuildFinished) Kind() Kind   { return KindBuildFinished }
func (*ProjectStarted) Kind() Kind  { return KindProjectStarted }
func (*ProjectFinished) Kind() Kind { return KindProjectFinished }
func (*TargetStarted) Kind() Kind   { return KindTargetStarted }
func (*TargetFinished) Kind() Kind  { return KindTargetFinished }
func (*TaskStarted) Kind() Kind     { return KindTaskStarted }
func (*TaskFinished) Kind() Kind    { return KindTaskFinished }
func (*Message) Kind() Kind         { return KindMessage }
func (*Warning) Kind() Kind         { return KindWarning }
func (*Error) Kind() Kind           { return KindError }
func (*Custom) Kind() Kind          { return KindCustom }

func (*BuildStarted) sealed()    {}
func (*BuildFinished) sealed()   {}
func (*ProjectStarted) sealed()  {}
func (*ProjectFinished) sealed() {}
func (*TargetStarted) sealed()   {}
func (*TargetFinished) sealed()  {}
func (*TaskStarted) sealed()     {}
func (*TaskFinished) sealed()    {}
func (*Message) sealed()         {}
func (*Warning) sealed()         {}
func (*Error) sealed()           {}
func (*Custom) sealed()          {}

// New returns an empty event of the given kind, or nil for an unknown kind.
func New(k Kind) Event {
	switch k {
	case KindBuildStarted:
		return &BuildStarted{}
	case KindBuildFinished:
		return &BuildFinished{}
	case KindProjectStarted:
		return &ProjectStarted{}
	case KindProjectFinished:
		return &ProjectFinished{}
	case KindTargetStarted:
		return &TargetStarted{}
	case KindTargetFinished:
		return &TargetFinished{}
	case KindTaskStarted:
		return &TaskStarted{}
	case KindTaskFinished:
		return &TaskFinished{}
	case KindMessage:
		return &Message{}
	case KindWarning:
		return &Warning{}
	case KindError:
		return &Error{}
	case KindCustom:
		return &Custom{}
	default:
		return nil
	}
}

// NodeOf returns the node id of an event, or 0 when it has no context.
func NodeOf(e Event) int {
	if e == nil || e.Header().Context == nil {
		return 0
	}
	return e.Header().Context.NodeID
}
