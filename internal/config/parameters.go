package config

import (
	"fmt"
	"strings"

	"buildlog/internal/event"
)

// ColorMode selects how colors are written to the log output.
type ColorMode uint8

const (
	ColorDefault  ColorMode = iota // colors when the output is a terminal
	ColorTeamCity                  // ANSI colors, TeamCity palette
	ColorNone                      // never write colors
	ColorANSI                      // always write ANSI colors
)

// String returns the string representation of ColorMode.
func (m ColorMode) String() string {
	switch m {
	case ColorDefault:
		return "default"
	case ColorTeamCity:
		return "teamcity"
	case ColorNone:
		return "none"
	case ColorANSI:
		return "ansi"
	default:
		return "unknown"
	}
}

// ColorThemeMode selects the palette.
type ColorThemeMode uint8

const (
	ThemeDefault ColorThemeMode = iota
	ThemeTeamCity
)

// String returns the string representation of ColorThemeMode.
func (m ColorThemeMode) String() string {
	if m == ThemeTeamCity {
		return "teamcity"
	}
	return "default"
}

// TeamCityMode controls whether hierarchy blocks are written as service messages.
type TeamCityMode uint8

const (
	TeamCityOff TeamCityMode = iota
	TeamCitySupportHierarchy
)

// String returns the string representation of TeamCityMode.
func (m TeamCityMode) String() string {
	if m == TeamCitySupportHierarchy {
		return "hierarchy"
	}
	return "off"
}

// StatisticsMode selects how build statistics are published.
type StatisticsMode uint8

const (
	StatisticsDefault StatisticsMode = iota
	StatisticsTeamCity
)

// String returns the string representation of StatisticsMode.
func (m StatisticsMode) String() string {
	if m == StatisticsTeamCity {
		return "teamcity"
	}
	return "default"
}

// Parameters holds every toggle that influences rendering.
// ShowSummary and ShowEventID are tri-state: nil means "not set, use the default".
type Parameters struct {
	Verbosity               event.Verbosity
	ShowOnlyErrors          bool
	ShowOnlyWarnings        bool
	ShowSummary             *bool
	ShowPerfSummary         bool
	ShowEventID             *bool
	ShowItemAndPropertyList bool
	ShowTargetOutputs       bool
	ShowProjectFile         bool
	ShowTimestamp           bool
	ShowEnvironment         bool
	ShowCommandLine         bool
	ColorMode               ColorMode
	ColorThemeMode          ColorThemeMode
	TeamCityMode            TeamCityMode
	StatisticsMode          StatisticsMode
	FlowID                  string
	Debug                   bool
}

// Default returns parameters for a normal-verbosity console session.
func Default() Parameters {
	return Parameters{
		Verbosity:               event.Normal,
		ShowItemAndPropertyList: true,
		ShowProjectFile:         true,
	}
}

// Bool returns a pointer to v, for the tri-state fields.
func Bool(v bool) *bool {
	return &v
}

// IsSet reports whether a tri-state value is set to true.
func IsSet(v *bool) bool {
	return v != nil && *v
}

// IsVerbosityAtLeast reports whether the configured verbosity is v or higher.
func (p *Parameters) IsVerbosityAtLeast(v event.Verbosity) bool {
	return p.Verbosity >= v
}

// ShowsEventID reports whether target and task ids are appended to their names.
func (p *Parameters) ShowsEventID() bool {
	return p.IsVerbosityAtLeast(event.Diagnostic) || IsSet(p.ShowEventID)
}

// ErrorsOrWarningsOnly reports whether only errors or only warnings are shown.
func (p *Parameters) ErrorsOrWarningsOnly() bool {
	return p.ShowOnlyErrors || p.ShowOnlyWarnings
}

func (p Parameters) String() string {
	tri := func(v *bool) string {
		if v == nil {
			return "unset"
		}
		return fmt.Sprint(*v)
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "Verbosity=%s", p.Verbosity)
	fmt.Fprintf(&sb, "; ShowOnlyErrors=%t; ShowOnlyWarnings=%t", p.ShowOnlyErrors, p.ShowOnlyWarnings)
	fmt.Fprintf(&sb, "; ShowSummary=%s; ShowPerfSummary=%t; ShowEventId=%s", tri(p.ShowSummary), p.ShowPerfSummary, tri(p.ShowEventID))
	fmt.Fprintf(&sb, "; ShowItemAndPropertyList=%t; ShowTargetOutputs=%t", p.ShowItemAndPropertyList, p.ShowTargetOutputs)
	fmt.Fprintf(&sb, "; ShowProjectFile=%t; ShowTimestamp=%t; ShowEnvironment=%t; ShowCommandLine=%t", p.ShowProjectFile, p.ShowTimestamp, p.ShowEnvironment, p.ShowCommandLine)
	fmt.Fprintf(&sb, "; ColorMode=%s; ColorThemeMode=%s; TeamCityMode=%s; StatisticsMode=%s", p.ColorMode, p.ColorThemeMode, p.TeamCityMode, p.StatisticsMode)
	if p.FlowID != "" {
		fmt.Fprintf(&sb, "; FlowId=%s", p.FlowID)
	}
	if p.Debug {
		sb.WriteString("; Debug=true")
	}
	return sb.String()
}
