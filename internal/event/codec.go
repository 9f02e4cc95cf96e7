package event

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/vmihailenco/msgpack/v5"
)

// Format is the on-disk encoding of an event log.
type Format uint8

const (
	FormatNDJSON  Format = iota // one JSON record per line
	FormatMsgpack               // stream of msgpack records
)

// String returns the string representation of Format.
func (f Format) String() string {
	switch f {
	case FormatNDJSON:
		return "ndjson"
	case FormatMsgpack:
		return "msgpack"
	default:
		return "unknown"
	}
}

// ErrUnknownKind is returned when a record names a kind this package does not know.
var ErrUnknownKind = errors.New("unknown event kind")

// DetectFormat picks the log format from a file extension; NDJSON is the default.
func DetectFormat(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".mp", ".msgpack":
		return FormatMsgpack
	default:
		return FormatNDJSON
	}
}

type record struct {
	Kind  string `json:"kind" msgpack:"kind"`
	Event Event  `json:"event" msgpack:"event"`
}

type jsonRecord struct {
	Kind  string          `json:"kind"`
	Event json.RawMessage `json:"event"`
}

type msgpackRecord struct {
	Kind  string             `msgpack:"kind"`
	Event msgpack.RawMessage `msgpack:"event"`
}

// Encoder writes events as records of a single format.
type Encoder struct {
	format Format
	json   *json.Encoder
	mp     *msgpack.Encoder
}

// NewEncoder creates an Encoder writing to w.
func NewEncoder(w io.Writer, format Format) *Encoder {
	enc := &Encoder{format: format}
	if format == FormatMsgpack {
		enc.mp = msgpack.NewEncoder(w)
	} else {
		enc.json = json.NewEncoder(w)
	}
	return enc
}

// Encode writes a single event.
func (e *Encoder) Encode(ev Event) error {
	if ev == nil {
		return errors.New("cannot encode nil event")
	}
	rec := record{Kind: ev.Kind().String(), Event: ev}
	if e.format == FormatMsgpack {
		return e.mp.Encode(rec)
	}
	return e.json.Encode(rec)
}

// Decoder reads events written by Encoder.
type Decoder struct {
	format  Format
	scanner *bufio.Scanner
	mp      *msgpack.Decoder
	line    int
}

// NewDecoder creates a Decoder reading from r.
func NewDecoder(r io.Reader, format Format) *Decoder {
	dec := &Decoder{format: format}
	if format == FormatMsgpack {
		dec.mp = msgpack.NewDecoder(r)
	} else {
		dec.scanner = bufio.NewScanner(r)
		dec.scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	}
	return dec
}

// Decode returns the next event, or io.EOF when the stream is exhausted.
func (d *Decoder) Decode() (Event, error) {
	if d.format == FormatMsgpack {
		return d.decodeMsgpack()
	}
	return d.decodeJSON()
}

func (d *Decoder) decodeJSON() (Event, error) {
	for d.scanner.Scan() {
		d.line++
		line := strings.TrimSpace(d.scanner.Text())
		if line == "" {
			continue
		}
		var raw jsonRecord
		if err := json.Unmarshal([]byte(line), &raw); err != nil {
			return nil, fmt.Errorf("line %d: %w", d.line, err)
		}
		ev, err := newFor(raw.Kind)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", d.line, err)
		}
		if err := json.Unmarshal(raw.Event, ev); err != nil {
			return nil, fmt.Errorf("line %d: %s: %w", d.line, raw.Kind, err)
		}
		return ev, nil
	}
	if err := d.scanner.Err(); err != nil {
		return nil, err
	}
	return nil, io.EOF
}

func (d *Decoder) decodeMsgpack() (Event, error) {
	var raw msgpackRecord
	if err := d.mp.Decode(&raw); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, io.EOF
		}
		return nil, err
	}
	ev, err := newFor(raw.Kind)
	if err != nil {
		return nil, err
	}
	if err := msgpack.Unmarshal(raw.Event, ev); err != nil {
		return nil, fmt.Errorf("%s: %w", raw.Kind, err)
	}
	return ev, nil
}

func newFor(kind string) (Event, error) {
	k, ok := ParseKind(kind)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}
	return New(k), nil
}

// ReadAll decodes every event in r.
func ReadAll(r io.Reader, format Format) ([]Event, error) {
	dec := NewDecoder(r, format)
	var events []Event
	for {
		ev, err := dec.Decode()
		if errors.Is(err, io.EOF) {
			return events, nil
		}
		if err != nil {
			return events, err
		}
		events = append(events, ev)
	}
}
