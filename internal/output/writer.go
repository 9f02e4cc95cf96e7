// Package output renders log lines: colored log writers, line prefixes, aligned
// multi-line messages, performance counters and canonical warning/error text.
package output

import (
	"io"

	"github.com/fatih/color"

	"buildlog/internal/config"
)

// LogWriter is the raw sink of rendered text.
type LogWriter interface {
	Write(s string)
	SetColor(c Color)
	ResetColor()
}

// ColorWriter writes text wrapped in the attributes of the current color.
type ColorWriter struct {
	w       io.Writer
	theme   *Theme
	enabled bool
	current *color.Color
}

// NewColorWriter returns a writer that colors output when enabled is true.
func NewColorWriter(w io.Writer, theme *Theme, enabled bool) *ColorWriter {
	return &ColorWriter{w: w, theme: theme, enabled: enabled}
}

// Write writes s in the current color. Empty strings are dropped.
func (cw *ColorWriter) Write(s string) {
	if s == "" {
		return
	}
	if cw.current == nil {
		_, _ = io.WriteString(cw.w, s) //nolint:errcheck
		return
	}
	_, _ = io.WriteString(cw.w, cw.current.Sprint(s)) //nolint:errcheck
}

// SetColor selects the color of subsequent writes.
func (cw *ColorWriter) SetColor(c Color) {
	col := color.New(cw.theme.Attributes(c)...)
	if cw.enabled {
		col.EnableColor()
	} else {
		col.DisableColor()
	}
	cw.current = col
}

// ResetColor returns to uncolored output.
func (cw *ColorWriter) ResetColor() {
	cw.current = nil
}

// PlainWriter ignores colors.
type PlainWriter struct {
	w io.Writer
}

// NewPlainWriter returns a writer that never colors output.
func NewPlainWriter(w io.Writer) *PlainWriter {
	return &PlainWriter{w: w}
}

func (pw *PlainWriter) Write(s string) {
	if s == "" {
		return
	}
	_, _ = io.WriteString(pw.w, s) //nolint:errcheck
}

func (*PlainWriter) SetColor(Color) {}

func (*PlainWriter) ResetColor() {}

// NewLogWriter selects the log writer for the configured color mode. terminal
// reports whether w is an interactive terminal and only matters in the default mode.
func NewLogWriter(w io.Writer, p *config.Parameters, terminal bool) LogWriter {
	theme := ThemeFor(p.ColorThemeMode)
	switch p.ColorMode {
	case config.ColorNone:
		return NewPlainWriter(w)
	case config.ColorTeamCity, config.ColorANSI:
		return NewColorWriter(w, theme, true)
	default:
		return NewColorWriter(w, theme, terminal)
	}
}
