package output

import (
	"github.com/fatih/color"

	"buildlog/internal/config"
)

// Color is a semantic color; a Theme maps it to terminal attributes.
type Color uint8

const (
	BuildStage Color = iota
	SummaryHeader
	PerformanceHeader
	Items
	Success
	Warning
	WarningSummary
	Error
	ErrorSummary
	SummaryInfo
	Details
	Task
	PerformanceCounterInfo
)

var colorNames = [...]string{
	BuildStage:             "BuildStage",
	SummaryHeader:          "SummaryHeader",
	PerformanceHeader:      "PerformanceHeader",
	Items:                  "Items",
	Success:                "Success",
	Warning:                "Warning",
	WarningSummary:         "WarningSummary",
	Error:                  "Error",
	ErrorSummary:           "ErrorSummary",
	SummaryInfo:            "SummaryInfo",
	Details:                "Details",
	Task:                   "Task",
	PerformanceCounterInfo: "PerformanceCounterInfo",
}

// String returns the string representation of Color.
func (c Color) String() string {
	if int(c) < len(colorNames) {
		return colorNames[c]
	}
	return "unknown"
}

// Theme maps semantic colors to terminal attributes.
type Theme struct {
	name  string
	attrs map[Color][]color.Attribute
}

// Name returns the theme name.
func (t *Theme) Name() string { return t.name }

// Attributes returns the attributes of c; unknown colors have none.
func (t *Theme) Attributes(c Color) []color.Attribute {
	return t.attrs[c]
}

// DefaultTheme is the palette used on ordinary terminals.
func DefaultTheme() *Theme {
	return &Theme{name: "default", attrs: map[Color][]color.Attribute{
		BuildStage:             {color.FgCyan, color.Bold},
		SummaryHeader:          {color.FgBlue, color.Bold},
		PerformanceHeader:      {color.FgBlue, color.Bold},
		Items:                  {color.FgBlue, color.Bold},
		Success:                {color.FgGreen, color.Bold},
		Warning:                {color.FgYellow, color.Bold},
		WarningSummary:         {color.FgYellow},
		Error:                  {color.FgRed, color.Bold},
		ErrorSummary:           {color.FgRed},
		SummaryInfo:            {color.FgWhite},
		Details:                {color.FgHiBlack},
		Task:                   {color.FgCyan},
		PerformanceCounterInfo: {color.FgWhite, color.Bold},
	}}
}

// TeamCityTheme keeps the default palette except for colors that are unreadable
// on the TeamCity build log background.
func TeamCityTheme() *Theme {
	t := DefaultTheme()
	t.name = "teamcity"
	t.attrs[SummaryInfo] = []color.Attribute{color.FgMagenta}
	t.attrs[PerformanceCounterInfo] = []color.Attribute{color.FgMagenta}
	t.attrs[Details] = []color.Attribute{color.FgBlue, color.Bold}
	t.attrs[Task] = []color.Attribute{color.FgCyan}
	return t
}

// ThemeFor returns the theme selected by mode.
func ThemeFor(mode config.ColorThemeMode) *Theme {
	if mode == config.ThemeTeamCity {
		return TeamCityTheme()
	}
	return DefaultTheme()
}
