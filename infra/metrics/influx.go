package metrics

import (
	"context"
	"math"
	"net/http"
	"strings"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"
	"github.com/influxdata/influxdb-client-go/v2/api/write"

	coremetrics "github.com/kilianp07/gridwalk/core/metrics"
	"github.com/kilianp07/gridwalk/infra/logger"
)

// InfluxSink writes planning runs to an InfluxDB instance using the official client.
type InfluxSink struct {
	client   influxdb2.Client
	writeAPI api.WriteAPIBlocking
	log      logger.Logger
}

// NewInfluxSink creates a new sink configured for the given InfluxDB endpoint.
func NewInfluxSink(url, token, org, bucket string) *InfluxSink {
	base := strings.TrimSuffix(url, "/api/v2/write")
	client := influxdb2.NewClientWithOptions(base, token,
		influxdb2.DefaultOptions().SetHTTPClient(&http.Client{Timeout: 5 * time.Second}))
	return &InfluxSink{
		client:   client,
		writeAPI: client.WriteAPIBlocking(org, bucket),
		log:      logger.New("influx-sink"),
	}
}

// NewInfluxSinkWithFallback tries to ping the InfluxDB instance and
// returns a NopSink if the health check fails.
func NewInfluxSinkWithFallback(url, token, org, bucket string) coremetrics.MetricsSink {
	sink := NewInfluxSink(url, token, org, bucket)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	health, err := sink.client.Health(ctx)
	if err != nil || health.Status != "pass" {
		if err != nil {
			sink.log.Errorf("influx health check error: %v", err)
		} else {
			sink.log.Errorf("influx health status: %s", health.Status)
		}
		sink.client.Close()
		return coremetrics.NopSink{}
	}
	return sink
}

// RecordPlan writes the run as a plan_run point.
func (s *InfluxSink) RecordPlan(ev coremetrics.PlanEvent) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.writeAPI.WritePoint(ctx, planPoint(ev))
}

// RecordComparison writes one plan_comparison point with a score field per
// strategy.
func (s *InfluxSink) RecordComparison(ev coremetrics.ComparisonEvent) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.writeAPI.WritePoint(ctx, comparisonPoint(ev))
}

// Close releases the client resources.
func (s *InfluxSink) Close() { s.client.Close() }

// write.NewPoint sorts tags and fields, so the line protocol is stable.
func planPoint(ev coremetrics.PlanEvent) *write.Point {
	tags := map[string]string{
		"strategy":  ev.Strategy,
		"outcome":   ev.Outcome,
		"run_id":    ev.RunID,
		"component": "runner",
	}
	fields := map[string]any{
		"score":       ev.Score,
		"steps":       ev.Steps,
		"step_budget": ev.StepBudget,
		"grid_size":   ev.GridSize,
		"truncated":   ev.Truncated,
		"duration_ms": round3(float64(ev.Duration) / float64(time.Millisecond)),
	}
	return write.NewPoint("plan_run", tags, fields, ev.Time)
}

func comparisonPoint(ev coremetrics.ComparisonEvent) *write.Point {
	fields := make(map[string]any, len(ev.Scores))
	for name, score := range ev.Scores {
		fields[name] = score
	}
	return write.NewPoint("plan_comparison",
		map[string]string{"run_id": ev.RunID, "best": ev.Best}, fields, ev.Time)
}

func round3(f float64) float64 {
	return math.Round(f*1000) / 1000
}
