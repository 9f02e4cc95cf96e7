package output

import (
	"fmt"
	"strings"

	"buildlog/internal/event"
)

// FormatEventMessage renders a warning, error or located message in the canonical
// "file(line,col): subcategory category code: text [project]" form. Multi-line text
// repeats the location header on every line.
func FormatEventMessage(ev event.Event, showProjectFile bool) string {
	var (
		category string
		loc      event.Location
	)
	switch e := ev.(type) {
	case *event.Warning:
		category, loc = "warning", e.Location
	case *event.Error:
		category, loc = "error", e.Location
	case *event.Message:
		loc = e.Location
	default:
		return ev.Header().Message
	}

	head := formatHeader(category, loc)
	suffix := ""
	if showProjectFile && loc.ProjectFile != "" && loc.ProjectFile != loc.File {
		suffix = " [" + loc.ProjectFile + "]"
	}

	text := strings.ReplaceAll(ev.Header().Message, "\r\n", "\n")
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		lines[i] = head + line + suffix
	}
	return strings.Join(lines, "\n")
}

func formatHeader(category string, loc event.Location) string {
	var sb strings.Builder
	if loc.File == "" {
		if category != "" {
			sb.WriteString("BUILDLOG : ")
		}
	} else {
		sb.WriteString(loc.File)
		sb.WriteString(position(loc))
	}
	if loc.Subcategory != "" {
		sb.WriteString(loc.Subcategory)
		sb.WriteByte(' ')
	}
	if category != "" {
		sb.WriteString(category)
		sb.WriteByte(' ')
		sb.WriteString(loc.Code)
		sb.WriteString(": ")
	} else if loc.Code != "" {
		sb.WriteString(loc.Code)
		sb.WriteString(": ")
	}
	return sb.String()
}

func position(loc event.Location) string {
	switch {
	case loc.LineNumber == 0:
		return " : "
	case loc.ColumnNumber == 0:
		if loc.EndLineNumber == 0 {
			return fmt.Sprintf("(%d): ", loc.LineNumber)
		}
		return fmt.Sprintf("(%d-%d): ", loc.LineNumber, loc.EndLineNumber)
	case loc.EndLineNumber == 0:
		if loc.EndColumnNumber == 0 {
			return fmt.Sprintf("(%d,%d): ", loc.LineNumber, loc.ColumnNumber)
		}
		return fmt.Sprintf("(%d,%d-%d): ", loc.LineNumber, loc.ColumnNumber, loc.EndColumnNumber)
	case loc.EndColumnNumber == 0:
		return fmt.Sprintf("(%d-%d,%d): ", loc.LineNumber, loc.EndLineNumber, loc.ColumnNumber)
	default:
		return fmt.Sprintf("(%d,%d,%d,%d): ", loc.LineNumber, loc.ColumnNumber, loc.EndLineNumber, loc.EndColumnNumber)
	}
}
