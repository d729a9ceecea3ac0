package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	coremetrics "github.com/kilianp07/gridwalk/core/metrics"
)

func TestPromSink_RecordPlan(t *testing.T) {
	reg := prometheus.NewRegistry()
	sink, err := NewPromSinkWithRegistry(reg)
	if err != nil {
		t.Fatalf("new sink: %v", err)
	}
	events := []coremetrics.PlanEvent{
		{Strategy: "greedy", Outcome: coremetrics.OutcomeOK, Score: 20, Duration: time.Millisecond},
		{Strategy: "greedy", Outcome: coremetrics.OutcomeOK, Score: 18, Duration: time.Millisecond},
		{Strategy: "edge_flow", Outcome: coremetrics.OutcomeInfeasible, Duration: time.Millisecond},
	}
	for _, ev := range events {
		if err := sink.RecordPlan(ev); err != nil {
			t.Fatalf("record: %v", err)
		}
	}
	if v := testutil.ToFloat64(sink.plans.WithLabelValues("greedy", "ok", "false")); v != 2 {
		t.Errorf("greedy ok = %v, want 2", v)
	}
	if v := testutil.ToFloat64(sink.plans.WithLabelValues("edge_flow", "infeasible", "false")); v != 1 {
		t.Errorf("edge_flow infeasible = %v, want 1", v)
	}
	if v := testutil.ToFloat64(sink.score.WithLabelValues("greedy")); v != 18 {
		t.Errorf("last score = %v, want 18", v)
	}
	if n := testutil.CollectAndCount(sink.duration); n != 2 {
		t.Errorf("duration series = %d, want 2", n)
	}
}

func TestPromSink_ReusesCollectors(t *testing.T) {
	reg := prometheus.NewRegistry()
	first, err := NewPromSinkWithRegistry(reg)
	if err != nil {
		t.Fatalf("first: %v", err)
	}
	second, err := NewPromSinkWithRegistry(reg)
	if err != nil {
		t.Fatalf("second: %v", err)
	}
	_ = first.RecordComparison(coremetrics.ComparisonEvent{Best: "time_indexed"})
	_ = second.RecordComparison(coremetrics.ComparisonEvent{Best: "time_indexed"})
	if v := testutil.ToFloat64(first.best.WithLabelValues("time_indexed")); v != 2 {
		t.Errorf("wins = %v, want 2", v)
	}
}
