package scenarios

import (
	"context"
	"sort"
	"strconv"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/kilianp07/gridwalk/core/factory"
	coremetrics "github.com/kilianp07/gridwalk/core/metrics"
	"github.com/kilianp07/gridwalk/core/planner"
	"github.com/kilianp07/gridwalk/core/runner"
	"github.com/kilianp07/gridwalk/infra/logger"
	"github.com/kilianp07/gridwalk/infra/metrics"
	"github.com/kilianp07/gridwalk/internal/eventbus"
)

func RunScenario(t *testing.T, sc *Scenario) {
	reg := prometheus.NewRegistry()
	sink, err := metrics.NewPromSinkWithRegistry(reg)
	if err != nil {
		t.Fatalf("prom sink: %v", err)
	}
	bus := eventbus.NewTyped[coremetrics.PlanEvent]()
	done := metrics.StartEventCollector(context.Background(), bus, sink, logger.NopLogger{})
	run := runner.New(runner.WithBus(bus), runner.WithComparisons(sink))

	g, err := sc.Field()
	if err != nil {
		t.Fatalf("grid: %v", err)
	}

	strategies := make([]string, 0, len(sc.Expected))
	for name := range sc.Expected {
		strategies = append(strategies, name)
	}
	sort.Strings(strategies)
	planners := make([]planner.Planner, len(strategies))
	for i, name := range strategies {
		p, err := planner.New(factory.ModuleConfig{Type: name}, logger.NopLogger{})
		if err != nil {
			t.Fatalf("planner %s: %v", name, err)
		}
		planners[i] = p
	}

	reports, _ := run.Compare(context.Background(), g, sc.Request(), planners, 30*time.Second)
	bus.Close()
	<-done

	for _, rep := range reports {
		want := sc.Expected[rep.Strategy]
		outcome := want.Outcome
		if outcome == "" {
			outcome = coremetrics.OutcomeOK
		}
		if got := runner.Classify(rep.Err); got != outcome {
			t.Errorf("%s/%s: outcome %s (%v), want %s", sc.Name, rep.Strategy, got, rep.Err, outcome)
			continue
		}
		truncated := "false"
		if rep.Err == nil {
			truncated = strconv.FormatBool(rep.Result.Truncated())
		}
		if n := testutil.ToFloat64(sink.Plans().WithLabelValues(rep.Strategy, outcome, truncated)); n != 1 {
			t.Errorf("%s/%s: plans_total = %v, want 1", sc.Name, rep.Strategy, n)
		}
		if rep.Err != nil {
			continue
		}
		if score := rep.Result.Score(); score != want.Score {
			t.Errorf("%s/%s: score %d, want %d", sc.Name, rep.Strategy, score, want.Score)
		}
		if want.Path != nil {
			got, exp := rep.Result.Path(), cells(want.Path)
			if !samePath(got, exp) {
				t.Errorf("%s/%s: path %v, want %v", sc.Name, rep.Strategy, got, exp)
			}
		}
	}
}
