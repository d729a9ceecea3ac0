// Package runner executes planners under a deadline and reports every run to
// the plan log and the event bus.
package runner

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/kilianp07/gridwalk/core/grid"
	"github.com/kilianp07/gridwalk/core/logger"
	coremetrics "github.com/kilianp07/gridwalk/core/metrics"
	"github.com/kilianp07/gridwalk/core/model"
	"github.com/kilianp07/gridwalk/core/planlog"
	"github.com/kilianp07/gridwalk/core/planner"
	"github.com/kilianp07/gridwalk/internal/eventbus"
)

// ErrTimeout is returned when a planner does not finish before its deadline.
// The planner goroutine is abandoned, not stopped, and its result discarded.
var ErrTimeout = errors.New("planning timed out")

// Job is one planning invocation.
type Job struct {
	Grid    *grid.Grid
	Request model.Request
	Planner planner.Planner
	// Timeout bounds the run on top of the context deadline. Zero disables it.
	Timeout time.Duration
}

// Report describes a finished run.
type Report struct {
	RunID    string        `json:"run_id"`
	Strategy string        `json:"strategy"`
	Result   model.Result  `json:"result"`
	Duration time.Duration `json:"duration"`
	Err      error         `json:"-"`
}

// Runner executes jobs. The zero value is not usable; call New.
type Runner struct {
	log   logger.Logger
	store planlog.Store
	bus   *eventbus.TypedBus[coremetrics.PlanEvent]
	cmp   coremetrics.ComparisonRecorder
	now   func() time.Time
	newID func() string
}

// Option configures a Runner.
type Option func(*Runner)

// WithLogger sets the logger used for run outcomes.
func WithLogger(l logger.Logger) Option { return func(r *Runner) { r.log = l } }

// WithStore appends a record per run to s.
func WithStore(s planlog.Store) Option { return func(r *Runner) { r.store = s } }

// WithBus publishes a PlanEvent per run on b.
func WithBus(b *eventbus.TypedBus[coremetrics.PlanEvent]) Option {
	return func(r *Runner) { r.bus = b }
}

// WithComparisons reports the outcome of Compare calls to rec.
func WithComparisons(rec coremetrics.ComparisonRecorder) Option {
	return func(r *Runner) { r.cmp = rec }
}

// New returns a Runner.
func New(opts ...Option) *Runner {
	r := &Runner{log: logger.Nop{}, now: time.Now, newID: uuid.NewString}
	for _, o := range opts {
		o(r)
	}
	if r.log == nil {
		r.log = logger.Nop{}
	}
	return r
}

type outcome struct {
	res model.Result
	err error
}

// Run executes job and blocks until the planner returns, the job timeout
// expires or ctx is done.
func (r *Runner) Run(ctx context.Context, job Job) (Report, error) {
	if job.Planner == nil {
		return Report{}, fmt.Errorf("no planner: %w", model.ErrInvalidInput)
	}
	rep := Report{RunID: r.newID(), Strategy: job.Planner.Name()}
	if job.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, job.Timeout)
		defer cancel()
	}

	start := r.now()
	done := make(chan outcome, 1)
	go func() {
		defer func() {
			if p := recover(); p != nil {
				done <- outcome{err: fmt.Errorf("%s panicked: %v: %w", rep.Strategy, p, model.ErrSolver)}
			}
		}()
		res, err := job.Planner.Plan(job.Grid, job.Request)
		done <- outcome{res: res, err: err}
	}()

	select {
	case o := <-done:
		rep.Result, rep.Err = o.res, o.err
	case <-ctx.Done():
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			rep.Err = fmt.Errorf("%s: %w", rep.Strategy, ErrTimeout)
		} else {
			rep.Err = fmt.Errorf("%s: %w", rep.Strategy, ctx.Err())
		}
	}
	rep.Duration = r.now().Sub(start)
	r.report(ctx, job, rep, start)
	return rep, rep.Err
}

// Compare runs every planner on the same grid and request concurrently and
// returns one report per planner, in input order. The best strategy is the
// successful one with the highest score, earlier planners winning ties. It is
// empty when every run failed.
func (r *Runner) Compare(ctx context.Context, g *grid.Grid, req model.Request, planners []planner.Planner, timeout time.Duration) ([]Report, string) {
	reports := make([]Report, len(planners))
	finished := make(chan struct{}, len(planners))
	for i, p := range planners {
		go func(i int, p planner.Planner) {
			reports[i], _ = r.Run(ctx, Job{Grid: g, Request: req, Planner: p, Timeout: timeout})
			finished <- struct{}{}
		}(i, p)
	}
	for range planners {
		<-finished
	}

	best := -1
	scores := make(map[string]grid.Reward, len(reports))
	for i, rep := range reports {
		if rep.Err != nil {
			continue
		}
		scores[rep.Strategy] = rep.Result.Score()
		if best < 0 || rep.Result.Score() > reports[best].Result.Score() {
			best = i
		}
	}
	var name string
	if best >= 0 {
		name = reports[best].Strategy
	}
	if r.cmp != nil {
		ev := coremetrics.ComparisonEvent{RunID: r.newID(), Scores: scores, Best: name, Time: r.now()}
		if err := r.cmp.RecordComparison(ev); err != nil {
			r.log.Warnf("record comparison: %v", err)
		}
	}
	return reports, name
}

func (r *Runner) report(ctx context.Context, job Job, rep Report, start time.Time) {
	size := 0
	if job.Grid != nil {
		size = job.Grid.Size()
	}
	outcome := Classify(rep.Err)
	fields := map[string]any{
		"run_id":      rep.RunID,
		"strategy":    rep.Strategy,
		"outcome":     outcome,
		"duration_ms": float64(rep.Duration) / float64(time.Millisecond),
	}
	if rep.Err != nil {
		fields["error"] = rep.Err.Error()
		r.log.Infow("plan failed", fields)
	} else {
		fields["score"] = rep.Result.Score()
		fields["steps"] = rep.Result.Len()
		r.log.Infow("plan finished", fields)
	}

	if r.bus != nil {
		r.bus.Publish(coremetrics.PlanEvent{
			RunID:      rep.RunID,
			Strategy:   rep.Strategy,
			Outcome:    outcome,
			GridSize:   size,
			StepBudget: job.Request.StepBudget,
			Steps:      rep.Result.Len(),
			Score:      rep.Result.Score(),
			Truncated:  rep.Err == nil && rep.Result.Truncated(),
			Duration:   rep.Duration,
			Time:       start,
		})
	}
	if r.store != nil {
		rec := planlog.Record{
			RunID:      rep.RunID,
			Timestamp:  start,
			Strategy:   rep.Strategy,
			GridSize:   size,
			Request:    job.Request,
			Score:      rep.Result.Score(),
			Steps:      rep.Result.Len(),
			Truncated:  rep.Err == nil && rep.Result.Truncated(),
			DurationMS: float64(rep.Duration) / float64(time.Millisecond),
			Path:       rep.Result.Path(),
		}
		if rep.Err != nil {
			rec.Error = rep.Err.Error()
		}
		// The run context may already be expired; the record must still land.
		if err := r.store.Append(context.WithoutCancel(ctx), rec); err != nil {
			r.log.Errorf("append plan log %s: %v", rep.RunID, err)
		}
	}
}

// Classify maps a run error onto a metrics outcome label.
func Classify(err error) string {
	switch {
	case err == nil:
		return coremetrics.OutcomeOK
	case errors.Is(err, ErrTimeout):
		return coremetrics.OutcomeTimeout
	case errors.Is(err, model.ErrInvalidInput):
		return coremetrics.OutcomeInvalid
	case errors.Is(err, model.ErrInfeasible):
		return coremetrics.OutcomeInfeasible
	default:
		return coremetrics.OutcomeError
	}
}
