package plan

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/gridwalk/core/factory"
	"github.com/kilianp07/gridwalk/core/grid"
	"github.com/kilianp07/gridwalk/core/model"
	"github.com/kilianp07/gridwalk/core/planlog"
	"github.com/kilianp07/gridwalk/core/planner"
	"github.com/kilianp07/gridwalk/core/runner"
)

type blockingPlanner struct{ release chan struct{} }

func (b blockingPlanner) Name() string { return "blocking" }

func (b blockingPlanner) Plan(*grid.Grid, model.Request) (model.Result, error) {
	<-b.release
	return model.Result{}, nil
}

func registryFactory(strategy string) (planner.Planner, error) {
	return planner.New(factory.ModuleConfig{Type: strategy}, nil)
}

func post(t *testing.T, h http.Handler, body any) *httptest.ResponseRecorder {
	t.Helper()
	data, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, "/api/plan", bytes.NewReader(data))
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

var scenarioRows = [][]grid.Reward{{0, 5, 5}, {5, 7, 5}, {5, 10, 5}}

func TestPlanHandler_Success(t *testing.T) {
	h := NewPlanHandler(runner.New(), registryFactory, Options{DefaultStrategy: planner.StrategyGreedy})
	rr := post(t, h, Request{Grid: scenarioRows, StepBudget: 3, RecoveryRate: 1})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))

	var resp Response
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, planner.StrategyGreedy, resp.Strategy)
	assert.Equal(t, grid.Reward(20), resp.Score)
	assert.NotEmpty(t, resp.RunID)
	assert.Equal(t, []grid.Cell{{Row: 0, Col: 0}, {Row: 1, Col: 1}, {Row: 2, Col: 1}}, resp.Result.Path())
}

func TestPlanHandler_ExactStrategy(t *testing.T) {
	h := NewPlanHandler(runner.New(), registryFactory, Options{})
	rr := post(t, h, Request{Grid: scenarioRows, StepBudget: 3, RecoveryRate: 1, Strategy: planner.StrategyTimeIndexed})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	var resp Response
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, grid.Reward(20), resp.Score)
}

func TestPlanHandler_Errors(t *testing.T) {
	h := NewPlanHandler(runner.New(), registryFactory, Options{DefaultStrategy: planner.StrategyGreedy, MaxGridSize: 3, MaxStepBudget: 5})
	cases := []struct {
		name   string
		body   any
		status int
	}{
		{"ragged grid", Request{Grid: [][]grid.Reward{{1, 2}, {3}}, StepBudget: 2}, http.StatusBadRequest},
		{"empty grid", Request{StepBudget: 2}, http.StatusBadRequest},
		{"too large", Request{Grid: [][]grid.Reward{{1, 1, 1, 1}, {1, 1, 1, 1}, {1, 1, 1, 1}, {1, 1, 1, 1}}, StepBudget: 2}, http.StatusBadRequest},
		{"budget over limit", Request{Grid: scenarioRows, StepBudget: 6}, http.StatusBadRequest},
		{"start outside", Request{Grid: scenarioRows, Start: grid.Cell{Row: 5}, StepBudget: 2}, http.StatusBadRequest},
		{"unknown strategy", Request{Grid: scenarioRows, StepBudget: 2, Strategy: "annealing"}, http.StatusBadRequest},
		{"unknown field", map[string]any{"grid": scenarioRows, "budget": 3}, http.StatusBadRequest},
		{"infeasible", Request{Grid: [][]grid.Reward{{4}}, StepBudget: 2, Strategy: planner.StrategyEdgeFlow}, http.StatusUnprocessableEntity},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			rr := post(t, h, c.body)
			assert.Equal(t, c.status, rr.Code, rr.Body.String())
			var body errorBody
			require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
			assert.NotEmpty(t, body.Error)
		})
	}
}

func TestPlanHandler_StepBudgetLimit(t *testing.T) {
	h := NewPlanHandler(runner.New(), registryFactory, Options{DefaultStrategy: planner.StrategyTimeIndexed, MaxStepBudget: 3})

	rr := post(t, h, Request{Grid: scenarioRows, StepBudget: 4, RecoveryRate: 1})
	require.Equal(t, http.StatusBadRequest, rr.Code, rr.Body.String())
	var body errorBody
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.Equal(t, "request", body.Reason)
	assert.Contains(t, body.Error, "exceeds limit 3")

	rr = post(t, h, Request{Grid: scenarioRows, StepBudget: 3, RecoveryRate: 1})
	assert.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
}

func TestPlanHandler_Timeout(t *testing.T) {
	release := make(chan struct{})
	defer close(release)
	newPlanner := func(string) (planner.Planner, error) { return blockingPlanner{release: release}, nil }
	h := NewPlanHandler(runner.New(), newPlanner, Options{Timeout: time.Second})

	rr := post(t, h, Request{Grid: scenarioRows, StepBudget: 3, TimeoutMS: 20})
	assert.Equal(t, http.StatusGatewayTimeout, rr.Code)
	var body errorBody
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.Equal(t, "timeout", body.Reason)
	assert.NotEmpty(t, body.RunID)
}

func TestPlanHandler_Method(t *testing.T) {
	h := NewPlanHandler(runner.New(), registryFactory, Options{})
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/plan", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rr.Code)
	assert.Equal(t, http.MethodPost, rr.Header().Get("Allow"))
}

func TestLogHandler_AuthAndFilters(t *testing.T) {
	store, err := planlog.NewJSONLStore(filepath.Join(t.TempDir(), "plans.jsonl"))
	require.NoError(t, err)
	run := runner.New(runner.WithStore(store))
	ctx := context.Background()
	g, err := grid.FromRows(scenarioRows)
	require.NoError(t, err)
	for _, p := range []planner.Planner{planner.NewGreedy(nil), planner.NewEdgeFlow(planner.EdgeFlowConfig{}, nil)} {
		_, err := run.Run(ctx, runner.Job{Grid: g, Request: model.Request{StepBudget: 3, RecoveryRate: 1}, Planner: p})
		require.NoError(t, err)
	}

	h := NewLogHandler(store, "secret")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/plan/logs", nil))
	assert.Equal(t, http.StatusUnauthorized, rr.Code)

	req := httptest.NewRequest(http.MethodGet, "/api/plan/logs?strategy=edge_flow", nil)
	req.Header.Set("Authorization", "Bearer secret")
	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	require.Equal(t, http.StatusOK, rr.Code)
	var recs []planlog.Record
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &recs))
	require.Len(t, recs, 1)
	assert.Equal(t, planner.StrategyEdgeFlow, recs[0].Strategy)
	assert.Equal(t, grid.Reward(20), recs[0].Score)

	req = httptest.NewRequest(http.MethodGet, "/api/plan/logs?failed=true", nil)
	req.Header.Set("Authorization", "Bearer secret")
	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, "[]", rr.Body.String())
}
