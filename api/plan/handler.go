package plan

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/kilianp07/gridwalk/core/factory"
	"github.com/kilianp07/gridwalk/core/grid"
	"github.com/kilianp07/gridwalk/core/logger"
	"github.com/kilianp07/gridwalk/core/model"
	"github.com/kilianp07/gridwalk/core/planner"
	"github.com/kilianp07/gridwalk/core/runner"
)

// PlannerFactory returns the planner registered under strategy.
type PlannerFactory func(strategy string) (planner.Planner, error)

// Options tunes the planning handler.
type Options struct {
	DefaultStrategy string
	Timeout         time.Duration
	// MaxGridSize rejects larger grids. Zero disables the check.
	MaxGridSize int
	// MaxStepBudget rejects longer walks. Zero disables the check.
	MaxStepBudget int
	Log           logger.Logger
}

// Request is the body accepted by POST /api/plan. Zero fields fall back to
// the server defaults for strategy and timeout.
type Request struct {
	Grid         [][]grid.Reward `json:"grid"`
	Start        grid.Cell       `json:"start"`
	StepBudget   int             `json:"step_budget"`
	RecoveryRate grid.Reward     `json:"recovery_rate"`
	Strategy     string          `json:"strategy"`
	TimeoutMS    int             `json:"timeout_ms"`
}

// Response is returned for a successful plan.
type Response struct {
	RunID      string       `json:"run_id"`
	Strategy   string       `json:"strategy"`
	Score      grid.Reward  `json:"score"`
	Truncated  bool         `json:"truncated"`
	DurationMS float64      `json:"duration_ms"`
	Result     model.Result `json:"result"`
}

type errorBody struct {
	Error  string `json:"error"`
	RunID  string `json:"run_id,omitempty"`
	Reason string `json:"reason"`
}

// NewPlanHandler returns an HTTP handler planning walks via POST /api/plan.
func NewPlanHandler(run *runner.Runner, newPlanner PlannerFactory, opts Options) http.Handler {
	log := opts.Log
	if log == nil {
		log = logger.Nop{}
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			w.Header().Set("Allow", http.MethodPost)
			writeError(w, http.StatusMethodNotAllowed, "", "method", errors.New("method not allowed"))
			return
		}
		var req Request
		dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 8<<20))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "", "decode", err)
			return
		}
		g, err := grid.FromRows(req.Grid)
		if err != nil {
			writeError(w, http.StatusBadRequest, "", "grid", err)
			return
		}
		if opts.MaxGridSize > 0 && g.Size() > opts.MaxGridSize {
			writeError(w, http.StatusBadRequest, "", "grid",
				fmt.Errorf("grid size %d exceeds limit %d", g.Size(), opts.MaxGridSize))
			return
		}
		if opts.MaxStepBudget > 0 && req.StepBudget > opts.MaxStepBudget {
			writeError(w, http.StatusBadRequest, "", "request",
				fmt.Errorf("step budget %d exceeds limit %d", req.StepBudget, opts.MaxStepBudget))
			return
		}
		strategy := req.Strategy
		if strategy == "" {
			strategy = opts.DefaultStrategy
		}
		p, err := newPlanner(strategy)
		if err != nil {
			writeError(w, statusFor(err), "", "strategy", err)
			return
		}
		timeout := opts.Timeout
		if req.TimeoutMS > 0 {
			timeout = time.Duration(req.TimeoutMS) * time.Millisecond
		}

		rep, err := run.Run(r.Context(), runner.Job{
			Grid:    g,
			Request: model.Request{Start: req.Start, StepBudget: req.StepBudget, RecoveryRate: req.RecoveryRate},
			Planner: p,
			Timeout: timeout,
		})
		if err != nil {
			log.Debugf("plan %s failed: %v", rep.RunID, err)
			writeError(w, statusFor(err), rep.RunID, runner.Classify(err), err)
			return
		}
		writeJSON(w, http.StatusOK, Response{
			RunID:      rep.RunID,
			Strategy:   rep.Strategy,
			Score:      rep.Result.Score(),
			Truncated:  rep.Result.Truncated(),
			DurationMS: float64(rep.Duration) / float64(time.Millisecond),
			Result:     rep.Result,
		})
	})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, model.ErrInvalidInput), errors.Is(err, factory.ErrUnknownType):
		return http.StatusBadRequest
	case errors.Is(err, model.ErrInfeasible):
		return http.StatusUnprocessableEntity
	case errors.Is(err, runner.ErrTimeout):
		return http.StatusGatewayTimeout
	}
	return http.StatusInternalServerError
}

func writeError(w http.ResponseWriter, status int, runID, reason string, err error) {
	writeJSON(w, status, errorBody{Error: err.Error(), RunID: runID, Reason: reason})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
