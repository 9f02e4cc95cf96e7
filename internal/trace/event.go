package trace

import (
	"strconv"
	"sync/atomic"
	"time"
)

// Kind represents the type of structured event.
type Kind uint8

const (
	KindBlockOpened Kind = iota + 1 // nested region start
	KindBlockClosed                 // nested region end
	KindFlowStarted                 // first event of a build node
	KindFlowFinished
	KindMessage   // error, warning or plain text
	KindStatistic // named build statistic value
)

// String returns the string representation of Kind.
func (k Kind) String() string {
	switch k {
	case KindBlockOpened:
		return "blockOpened"
	case KindBlockClosed:
		return "blockClosed"
	case KindFlowStarted:
		return "flowStarted"
	case KindFlowFinished:
		return "flowFinished"
	case KindMessage:
		return "message"
	case KindStatistic:
		return "buildStatisticValue"
	default:
		return "unknown"
	}
}

// Status is the severity of a message event.
type Status uint8

const (
	StatusNormal Status = iota
	StatusWarning
	StatusError
	StatusFailure
)

// String returns the service message spelling of s.
func (s Status) String() string {
	switch s {
	case StatusWarning:
		return "WARNING"
	case StatusError:
		return "ERROR"
	case StatusFailure:
		return "FAILURE"
	default:
		return "NORMAL"
	}
}

// Attr is an ordered key-value pair attached to an event.
type Attr struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// Event represents a single structured event.
type Event struct {
	Time   time.Time // wall-clock timestamp
	Seq    uint64    // global sequence number (monotonic)
	Kind   Kind
	Flow   string // flow id of the originating build node
	Name   string // block name or statistic key
	Text   string // message text or statistic value
	Status Status
	Attrs  []Attr
}

// With appends an attribute and returns the event for chaining.
func (ev *Event) With(key, value string) *Event {
	ev.Attrs = append(ev.Attrs, Attr{Key: key, Value: value})
	return ev
}

// WithInt appends a numeric attribute.
func (ev *Event) WithInt(key string, value int) *Event {
	return ev.With(key, strconv.Itoa(value))
}

var globalSeq uint64

// NextSeq returns a monotonically increasing sequence number.
func NextSeq() uint64 {
	return atomic.AddUint64(&globalSeq, 1)
}
