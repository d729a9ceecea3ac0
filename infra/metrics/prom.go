package metrics

import (
	"strconv"

	coremetrics "github.com/kilianp07/gridwalk/core/metrics"
	"github.com/prometheus/client_golang/prometheus"
)

// PromSink records planning runs in Prometheus metrics.
type PromSink struct {
	plans    *prometheus.CounterVec
	duration *prometheus.HistogramVec
	score    *prometheus.GaugeVec
	best     *prometheus.CounterVec
}

// NewPromSink registers planning metrics on the default Prometheus registerer.
// The /metrics endpoint is served separately, see StartPromServer.
func NewPromSink() (*PromSink, error) {
	return NewPromSinkWithRegistry(prometheus.DefaultRegisterer)
}

// NewPromSinkWithRegistry registers metrics on the provided registerer.
// A nil registerer defaults to the global Prometheus registerer. Collectors
// already registered by a previous sink are reused.
func NewPromSinkWithRegistry(reg prometheus.Registerer) (*PromSink, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	plans := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "plans_total",
		Help: "Total number of planning runs",
	}, []string{"strategy", "outcome", "truncated"})
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "plan_duration_seconds",
		Help:    "Wall time spent planning",
		Buckets: prometheus.ExponentialBuckets(0.0005, 4, 10),
	}, []string{"strategy"})
	score := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "plan_last_score",
		Help: "Score of the last successful plan",
	}, []string{"strategy"})
	best := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "plan_comparison_wins_total",
		Help: "Number of comparisons won by each strategy",
	}, []string{"strategy"})

	var err error
	if plans, err = register(reg, plans); err != nil {
		return nil, err
	}
	if duration, err = register(reg, duration); err != nil {
		return nil, err
	}
	if score, err = register(reg, score); err != nil {
		return nil, err
	}
	if best, err = register(reg, best); err != nil {
		return nil, err
	}
	return &PromSink{plans: plans, duration: duration, score: score, best: best}, nil
}

func register[C prometheus.Collector](reg prometheus.Registerer, c C) (C, error) {
	if err := reg.Register(c); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing, nil
			}
		}
		return c, err
	}
	return c, nil
}

// RecordPlan counts the run and records its duration and score.
func (s *PromSink) RecordPlan(ev coremetrics.PlanEvent) error {
	s.plans.WithLabelValues(ev.Strategy, ev.Outcome, strconv.FormatBool(ev.Truncated)).Inc()
	s.duration.WithLabelValues(ev.Strategy).Observe(ev.Duration.Seconds())
	if ev.Outcome == coremetrics.OutcomeOK {
		s.score.WithLabelValues(ev.Strategy).Set(float64(ev.Score))
	}
	return nil
}

// RecordComparison credits the winning strategy.
func (s *PromSink) RecordComparison(ev coremetrics.ComparisonEvent) error {
	if ev.Best != "" {
		s.best.WithLabelValues(ev.Best).Inc()
	}
	return nil
}

// Plans exposes the run counter, labelled by strategy, outcome and truncated.
func (s *PromSink) Plans() *prometheus.CounterVec { return s.plans }
