package perf

import (
	"fmt"
	"io"

	"github.com/vmihailenco/msgpack/v5"
)

// Report is the snapshot of the project, target and task tables of a session.
type Report struct {
	Projects []NodeSnapshot `json:"projects" msgpack:"projects"`
	Targets  []NodeSnapshot `json:"targets" msgpack:"targets"`
	Tasks    []NodeSnapshot `json:"tasks" msgpack:"tasks"`
}

// NewReport snapshots the three tables.
func NewReport(projects, targets, tasks *Level) Report {
	return Report{
		Projects: projects.Snapshot(),
		Targets:  targets.Snapshot(),
		Tasks:    tasks.Snapshot(),
	}
}

// WriteReport encodes r to w with msgpack.
func WriteReport(w io.Writer, r Report) error {
	if err := msgpack.NewEncoder(w).Encode(r); err != nil {
		return fmt.Errorf("failed to encode performance report: %w", err)
	}
	return nil
}

// ReadReport decodes a report written by WriteReport.
func ReadReport(r io.Reader) (Report, error) {
	var rep Report
	if err := msgpack.NewDecoder(r).Decode(&rep); err != nil {
		return Report{}, fmt.Errorf("failed to decode performance report: %w", err)
	}
	return rep, nil
}
