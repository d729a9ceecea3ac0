package metrics

import (
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	coremetrics "github.com/kilianp07/gridwalk/core/metrics"
)

func TestInfluxSink_RecordPlan(t *testing.T) {
	var (
		mu   sync.Mutex
		body string
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, _ := io.ReadAll(r.Body)
		mu.Lock()
		body = string(data)
		mu.Unlock()
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	sink := NewInfluxSink(srv.URL, "token", "org", "bucket")
	defer sink.Close()
	now := time.Now()
	ev := coremetrics.PlanEvent{
		RunID:      "run-1",
		Strategy:   "greedy",
		Outcome:    coremetrics.OutcomeOK,
		GridSize:   3,
		StepBudget: 3,
		Steps:      3,
		Score:      20,
		Duration:   1500 * time.Microsecond,
		Time:       now,
	}
	if err := sink.RecordPlan(ev); err != nil {
		t.Fatalf("record error: %v", err)
	}
	expected := fmt.Sprintf("plan_run,component=runner,outcome=ok,run_id=run-1,strategy=greedy "+
		"duration_ms=1.5,grid_size=3i,score=20i,step_budget=3i,steps=3i,truncated=false %d", now.UnixNano())
	mu.Lock()
	defer mu.Unlock()
	if strings.TrimSpace(body) != expected {
		t.Errorf("unexpected body:\n%s\nwant:\n%s", body, expected)
	}
}

func TestInfluxSink_RecordComparison(t *testing.T) {
	var (
		mu   sync.Mutex
		body string
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, _ := io.ReadAll(r.Body)
		mu.Lock()
		body = string(data)
		mu.Unlock()
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	sink := NewInfluxSink(srv.URL+"/api/v2/write", "token", "org", "bucket")
	defer sink.Close()
	ev := coremetrics.ComparisonEvent{
		RunID:  "cmp",
		Best:   "time_indexed",
		Scores: map[string]int64{"time_indexed": 20, "greedy": 18},
		Time:   time.Unix(10, 0),
	}
	if err := sink.RecordComparison(ev); err != nil {
		t.Fatalf("record error: %v", err)
	}
	mu.Lock()
	defer mu.Unlock()
	if !strings.HasPrefix(body, "plan_comparison,best=time_indexed,run_id=cmp greedy=18i,time_indexed=20i") {
		t.Errorf("unexpected body: %s", body)
	}
}

func TestNewInfluxSinkWithFallback(t *testing.T) {
	called := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/health" {
			called = true
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
	}))
	defer srv.Close()

	sink := NewInfluxSinkWithFallback(srv.URL+"/api/v2/write", "tok", "org", "bucket")
	if _, ok := sink.(*InfluxSink); ok {
		t.Fatalf("expected NopSink on failing health check")
	}
	if !called {
		t.Fatalf("health endpoint not called")
	}
}

func TestPlanPoint_TagsSorted(t *testing.T) {
	p := planPoint(coremetrics.PlanEvent{
		RunID:     "r",
		Strategy:  "time_indexed",
		Outcome:   coremetrics.OutcomeTimeout,
		Truncated: true,
		Time:      time.Unix(0, 5),
	})
	var keys []string
	for _, tag := range p.TagList() {
		keys = append(keys, tag.Key)
	}
	want := []string{"component", "outcome", "run_id", "strategy"}
	if strings.Join(keys, ",") != strings.Join(want, ",") {
		t.Fatalf("tags not sorted: %v", keys)
	}
}
