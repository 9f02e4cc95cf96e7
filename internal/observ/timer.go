package observ

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"
)

// Phase accumulates the processing time of one kind of work.
type Phase struct {
	Name  string
	Calls int
	Dur   time.Duration
	Max   time.Duration
}

// Timer tracks how long each kind of event takes to process.
type Timer struct {
	mu     sync.Mutex
	phases map[string]*Phase
	now    func() time.Time
}

// NewTimer creates a new empty Timer.
func NewTimer() *Timer {
	return &Timer{phases: make(map[string]*Phase, 16), now: time.Now}
}

// Begin starts timing name and returns the function that stops it.
func (t *Timer) Begin(name string) func() {
	start := t.now()
	return func() { t.Add(name, t.now().Sub(start)) }
}

// Add records one call of name that took d.
func (t *Timer) Add(name string, d time.Duration) {
	t.mu.Lock()
	defer t.mu.Unlock()
	p := t.phases[name]
	if p == nil {
		p = &Phase{Name: name}
		t.phases[name] = p
	}
	p.Calls++
	p.Dur += d
	if d > p.Max {
		p.Max = d
	}
}

// Summary returns a human-readable string summarizing all tracked phases.
func (t *Timer) Summary() string {
	report := t.Report()
	var sb strings.Builder
	sb.WriteString("timings:\n")
	for _, p := range report.Phases {
		fmt.Fprintf(&sb, "  %-20s %7.2f ms  %6d calls  max %7.2f ms\n", p.Name, p.DurationMS, p.Calls, p.MaxMS)
	}
	fmt.Fprintf(&sb, "  %-20s %7.2f ms\n", "total", report.TotalMS)
	return sb.String()
}

// PhaseReport is the serializable form of a Phase.
type PhaseReport struct {
	Name       string  `json:"name"`
	Calls      int     `json:"calls"`
	DurationMS float64 `json:"duration_ms"`
	MaxMS      float64 `json:"max_ms"`
}

// Report holds the aggregated timings, slowest phase first.
type Report struct {
	TotalMS float64       `json:"total_ms"`
	Phases  []PhaseReport `json:"phases"`
}

// Report builds the phase list and the total duration in milliseconds.
func (t *Timer) Report() Report {
	t.mu.Lock()
	defer t.mu.Unlock()
	if len(t.phases) == 0 {
		return Report{}
	}
	report := Report{
		Phases: make([]PhaseReport, 0, len(t.phases)),
	}
	var total time.Duration
	for _, phase := range t.phases {
		total += phase.Dur
		report.Phases = append(report.Phases, PhaseReport{
			Name:       phase.Name,
			Calls:      phase.Calls,
			DurationMS: durationToMillis(phase.Dur),
			MaxMS:      durationToMillis(phase.Max),
		})
	}
	sort.Slice(report.Phases, func(i, j int) bool {
		a, b := report.Phases[i], report.Phases[j]
		if a.DurationMS != b.DurationMS {
			return a.DurationMS > b.DurationMS
		}
		return a.Name < b.Name
	})
	report.TotalMS = durationToMillis(total)
	return report
}

func durationToMillis(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}
