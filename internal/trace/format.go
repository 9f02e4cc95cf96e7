package trace

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Format represents the output format for structured events.
type Format uint8

const (
	FormatServiceMessage Format = iota // ##teamcity[...] lines
	FormatNDJSON                       // newline-delimited JSON
)

// String returns the string representation of Format.
func (f Format) String() string {
	switch f {
	case FormatServiceMessage:
		return "teamcity"
	case FormatNDJSON:
		return "ndjson"
	default:
		return "unknown"
	}
}

// ParseFormat converts a string to a Format.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(s) {
	case "teamcity", "servicemessage":
		return FormatServiceMessage, nil
	case "ndjson", "json", "":
		return FormatNDJSON, nil
	default:
		return FormatNDJSON, fmt.Errorf("invalid structured format: %q (expected: ndjson|teamcity)", s)
	}
}

// FormatEvent formats an event according to the specified format.
func FormatEvent(ev *Event, format Format) []byte {
	switch format {
	case FormatServiceMessage:
		return formatServiceMessage(ev)
	default:
		return formatNDJSON(ev)
	}
}

func formatNDJSON(ev *Event) []byte {
	type jsonEvent struct {
		Time   string `json:"time,omitempty"`
		Seq    uint64 `json:"seq"`
		Kind   string `json:"kind"`
		Flow   string `json:"flow,omitempty"`
		Name   string `json:"name,omitempty"`
		Text   string `json:"text,omitempty"`
		Status string `json:"status,omitempty"`
		Attrs  []Attr `json:"attrs,omitempty"`
	}

	j := jsonEvent{
		Seq:   ev.Seq,
		Kind:  ev.Kind.String(),
		Flow:  ev.Flow,
		Name:  ev.Name,
		Text:  ev.Text,
		Attrs: ev.Attrs,
	}
	if !ev.Time.IsZero() {
		j.Time = ev.Time.Format("2006-01-02T15:04:05.000000Z07:00")
	}
	if ev.Kind == KindMessage {
		j.Status = ev.Status.String()
	}

	data, _ := json.Marshal(j)
	data = append(data, '\n')
	return data
}

// formatServiceMessage renders ev as a single TeamCity service message line.
// Format: ##teamcity[name key='value' ...]
func formatServiceMessage(ev *Event) []byte {
	var sb strings.Builder
	sb.WriteString("##teamcity[")
	sb.WriteString(ev.Kind.String())

	attr := func(key, value string) {
		sb.WriteByte(' ')
		sb.WriteString(key)
		sb.WriteString("='")
		sb.WriteString(Escape(value))
		sb.WriteByte('\'')
	}

	switch ev.Kind {
	case KindBlockOpened, KindBlockClosed:
		attr("name", ev.Name)
	case KindMessage:
		attr("text", ev.Text)
		attr("status", ev.Status.String())
	case KindStatistic:
		attr("key", ev.Name)
		attr("value", ev.Text)
	}
	if ev.Flow != "" {
		attr("flowId", ev.Flow)
	}
	for _, a := range ev.Attrs {
		attr(a.Key, a.Value)
	}

	sb.WriteString("]\n")
	return []byte(sb.String())
}

var serviceEscaper = strings.NewReplacer(
	"|", "||",
	"'", "|'",
	"\n", "|n",
	"\r", "|r",
	"[", "|[",
	"]", "|]",
	"\u0085", "|x",
	"\u2028", "|l",
	"\u2029", "|p",
)

// Escape applies the service message value escaping rules.
func Escape(s string) string {
	return serviceEscaper.Replace(s)
}
