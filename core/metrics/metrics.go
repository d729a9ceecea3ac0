package metrics

import (
	"time"

	"github.com/kilianp07/gridwalk/core/grid"
)

// Outcome labels attached to plan events.
const (
	OutcomeOK         = "ok"
	OutcomeInvalid    = "invalid"
	OutcomeInfeasible = "infeasible"
	OutcomeTimeout    = "timeout"
	OutcomeError      = "error"
)

// PlanEvent describes one finished planning run.
type PlanEvent struct {
	RunID      string
	Strategy   string
	Outcome    string
	GridSize   int
	StepBudget int
	Steps      int
	Score      grid.Reward
	Truncated  bool
	Duration   time.Duration
	Time       time.Time
}

// MetricsSink records planning runs for observability purposes.
type MetricsSink interface {
	RecordPlan(ev PlanEvent) error
}

// ComparisonEvent summarises a side by side run of several strategies on the
// same request.
type ComparisonEvent struct {
	RunID  string
	Scores map[string]grid.Reward
	Best   string
	Time   time.Time
}

// ComparisonRecorder records strategy comparisons.
type ComparisonRecorder interface {
	RecordComparison(ev ComparisonEvent) error
}

// NopSink discards everything.
type NopSink struct{}

func (NopSink) RecordPlan(PlanEvent) error             { return nil }
func (NopSink) RecordComparison(ComparisonEvent) error { return nil }

// MultiSink fans events out to multiple sinks.
type MultiSink struct {
	Sinks []MetricsSink
}

// NewMultiSink creates a MultiSink with the provided sinks.
func NewMultiSink(sinks ...MetricsSink) *MultiSink {
	return &MultiSink{Sinks: sinks}
}

// RecordPlan forwards the event to all sinks, returning the first error
// encountered.
func (m *MultiSink) RecordPlan(ev PlanEvent) error {
	for _, s := range m.Sinks {
		if err := s.RecordPlan(ev); err != nil {
			return err
		}
	}
	return nil
}

// RecordComparison forwards comparisons to the sinks that support them.
func (m *MultiSink) RecordComparison(ev ComparisonEvent) error {
	for _, s := range m.Sinks {
		if rec, ok := s.(ComparisonRecorder); ok {
			if err := rec.RecordComparison(ev); err != nil {
				return err
			}
		}
	}
	return nil
}
