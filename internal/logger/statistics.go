package logger

import (
	"strconv"

	"buildlog/internal/config"
	"buildlog/internal/trace"
)

// Statistics publishes build-level numbers when the build finishes.
type Statistics interface {
	Publish(st *State)
}

// DefaultStatistics publishes nothing.
type DefaultStatistics struct{}

func (DefaultStatistics) Publish(*State) {}

// Statistic keys reported to TeamCity.
const (
	StatWarnings = "BuildStatsW"
	StatErrors   = "BuildStatsE"
)

// TeamCityStatistics reports warning and error counts as buildStatisticValue
// events.
type TeamCityStatistics struct {
	tracer trace.Tracer
}

// NewTeamCityStatistics returns statistics emitting to t.
func NewTeamCityStatistics(t trace.Tracer) *TeamCityStatistics {
	if t == nil {
		t = trace.Nop
	}
	return &TeamCityStatistics{tracer: t}
}

func (s *TeamCityStatistics) Publish(st *State) {
	s.emit(StatWarnings, st.WarningCount)
	s.emit(StatErrors, st.ErrorCount)
}

func (s *TeamCityStatistics) emit(key string, value int) {
	s.tracer.Emit(&trace.Event{Kind: trace.KindStatistic, Name: key, Text: strconv.Itoa(value)})
}

// NewStatistics selects the statistics publisher for mode.
func NewStatistics(mode config.StatisticsMode, t trace.Tracer) Statistics {
	if mode == config.StatisticsTeamCity {
		return NewTeamCityStatistics(t)
	}
	return DefaultStatistics{}
}
