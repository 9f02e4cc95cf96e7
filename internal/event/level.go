package event

import (
	"fmt"
	"strings"
)

// Verbosity controls how much of the build is rendered.
type Verbosity uint8

const (
	Quiet Verbosity = iota
	Minimal
	Normal
	Detailed
	Diagnostic
)

// String returns the string representation of Verbosity.
func (v Verbosity) String() string {
	switch v {
	case Quiet:
		return "quiet"
	case Minimal:
		return "minimal"
	case Normal:
		return "normal"
	case Detailed:
		return "detailed"
	case Diagnostic:
		return "diagnostic"
	default:
		return "unknown"
	}
}

// ParseVerbosity converts a verbosity name or its short form to a Verbosity.
func ParseVerbosity(s string) (Verbosity, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "q", "quiet":
		return Quiet, nil
	case "m", "minimal":
		return Minimal, nil
	case "n", "normal":
		return Normal, nil
	case "d", "detailed":
		return Detailed, nil
	case "diag", "diagnostic":
		return Diagnostic, nil
	default:
		return Normal, fmt.Errorf("invalid verbosity: %q (expected: quiet|minimal|normal|detailed|diagnostic)", s)
	}
}

// Importance is the priority of a message.
type Importance uint8

const (
	High Importance = iota
	NormalImportance
	Low
)

// String returns the string representation of Importance.
func (i Importance) String() string {
	switch i {
	case High:
		return "High"
	case NormalImportance:
		return "Normal"
	case Low:
		return "Low"
	default:
		return "unknown"
	}
}
