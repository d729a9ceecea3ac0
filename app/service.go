package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/kilianp07/gridwalk/api/plan"
	"github.com/kilianp07/gridwalk/config"
	"github.com/kilianp07/gridwalk/core/grid"
	coremetrics "github.com/kilianp07/gridwalk/core/metrics"
	"github.com/kilianp07/gridwalk/core/model"
	"github.com/kilianp07/gridwalk/core/planlog"
	"github.com/kilianp07/gridwalk/core/planner"
	"github.com/kilianp07/gridwalk/core/runner"
	"github.com/kilianp07/gridwalk/infra/logger"
	"github.com/kilianp07/gridwalk/infra/metrics"
	"github.com/kilianp07/gridwalk/internal/eventbus"
)

// Service wires the planners, the runner, plan logging and metrics.
type Service struct {
	cfg       *config.Config
	Runner    *runner.Runner
	store     planlog.Store
	sink      coremetrics.MetricsSink
	bus       *eventbus.TypedBus[coremetrics.PlanEvent]
	log       logger.Logger
	collector <-chan struct{}
	cancel    context.CancelFunc
}

// New creates a Service from the configuration.
func New(cfg *config.Config) (*Service, error) {
	logg := logger.New("service")
	sink, err := coremetrics.NewMetricsSink(cfg.Metrics.Sinks)
	if err != nil {
		return nil, fmt.Errorf("metrics sink: %w", err)
	}
	store, err := planlog.NewStore(cfg.Logging.Module())
	if err != nil {
		return nil, fmt.Errorf("plan log: %w", err)
	}

	bus := eventbus.NewTyped[coremetrics.PlanEvent]()
	opts := []runner.Option{
		runner.WithLogger(logger.New("runner")),
		runner.WithStore(store),
		runner.WithBus(bus),
	}
	if rec, ok := sink.(coremetrics.ComparisonRecorder); ok {
		opts = append(opts, runner.WithComparisons(rec))
	}

	ctx, cancel := context.WithCancel(context.Background())
	svc := &Service{
		cfg:    cfg,
		Runner: runner.New(opts...),
		store:  store,
		sink:   sink,
		bus:    bus,
		log:    logg,
		cancel: cancel,
	}
	svc.collector = metrics.StartEventCollector(ctx, bus, sink, logger.New("collector"))
	return svc, nil
}

// Config returns the configuration the service was built from.
func (s *Service) Config() *config.Config { return s.cfg }

// Planner builds the planner for strategy with the configured tuning. An
// empty strategy selects the configured default.
func (s *Service) Planner(strategy string) (planner.Planner, error) {
	if strategy == "" {
		strategy = s.cfg.Planner.Strategy
	}
	return planner.New(s.cfg.Planner.Module(strategy), logger.New("planner."+strategy))
}

// Plan runs one strategy under the configured timeout.
func (s *Service) Plan(ctx context.Context, g *grid.Grid, req model.Request, strategy string) (runner.Report, error) {
	p, err := s.Planner(strategy)
	if err != nil {
		return runner.Report{}, err
	}
	return s.Runner.Run(ctx, runner.Job{Grid: g, Request: req, Planner: p, Timeout: s.cfg.Planner.Timeout()})
}

// Compare runs the given strategies, or all registered ones when empty.
func (s *Service) Compare(ctx context.Context, g *grid.Grid, req model.Request, strategies []string) ([]runner.Report, string, error) {
	if len(strategies) == 0 {
		strategies = planner.Strategies()
	}
	planners := make([]planner.Planner, 0, len(strategies))
	for _, name := range strategies {
		p, err := s.Planner(name)
		if err != nil {
			return nil, "", err
		}
		planners = append(planners, p)
	}
	reports, best := s.Runner.Compare(ctx, g, req, planners, s.cfg.Planner.Timeout())
	return reports, best, nil
}

// Handler returns the HTTP API: planning, plan logs, metrics and health.
func (s *Service) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/api/plan", plan.NewPlanHandler(s.Runner, s.Planner, plan.Options{
		DefaultStrategy: s.cfg.Planner.Strategy,
		Timeout:         s.cfg.Planner.Timeout(),
		MaxGridSize:     s.cfg.API.MaxGridSize,
		MaxStepBudget:   s.cfg.API.MaxStepBudget,
		Log:             logger.New("api"),
	}))
	mux.Handle("/api/plan/logs", plan.NewLogHandler(s.store, s.cfg.API.Token))
	mux.Handle("/metrics", metrics.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	return mux
}

// Run serves the HTTP API and blocks until the context is cancelled. A
// dedicated Prometheus listener is started when metrics.prometheus_port is
// set.
func (s *Service) Run(ctx context.Context) error {
	if port := s.cfg.Metrics.PrometheusPort; port != "" {
		go func() {
			if err := metrics.StartPromServer(ctx, port); err != nil {
				s.log.Errorf("prom server: %v", err)
			}
		}()
	}
	srv := &http.Server{Addr: s.cfg.API.Address, Handler: s.Handler(), ReadHeaderTimeout: 5 * time.Second}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			s.log.Errorf("api shutdown: %v", err)
		}
	}()
	s.log.Infof("listening on %s", s.cfg.API.Address)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Close stops metric collection and releases the plan log.
func (s *Service) Close() error {
	s.bus.Close()
	<-s.collector
	s.cancel()
	if c, ok := s.sink.(interface{ Close() }); ok {
		c.Close()
	}
	if dropped := s.bus.Dropped(); dropped > 0 {
		s.log.Warnf("%d plan events were not delivered to metrics", dropped)
	}
	return s.store.Close()
}
