package planner

import (
	"fmt"
	"math"

	"github.com/kilianp07/gridwalk/core/grid"
	"github.com/kilianp07/gridwalk/core/logger"
	"github.com/kilianp07/gridwalk/core/milp"
	"github.com/kilianp07/gridwalk/core/model"
)

// TimeIndexedConfig tunes the time-indexed formulation.
type TimeIndexedConfig struct {
	MILP milp.Options `json:"milp"`
}

// TimeIndexed unrolls the walk over its step budget and models the reward
// held by every cell at every step, so decay on collection and recovery
// while away are part of the objective.
type TimeIndexed struct {
	cfg TimeIndexedConfig
	log logger.Logger
}

// NewTimeIndexed returns a time-indexed planner. A nil logger discards
// output.
func NewTimeIndexed(cfg TimeIndexedConfig, log logger.Logger) *TimeIndexed {
	return &TimeIndexed{cfg: cfg, log: orNop(log)}
}

func (p *TimeIndexed) setLogger(l logger.Logger) { p.log = orNop(l) }

// Name implements Planner.
func (p *TimeIndexed) Name() string { return StrategyTimeIndexed }

// Plan implements Planner. The returned walk always has exactly StepBudget
// steps.
func (p *TimeIndexed) Plan(g *grid.Grid, req model.Request) (model.Result, error) {
	if err := req.Validate(g); err != nil {
		return model.Result{}, err
	}
	if req.StepBudget <= 1 {
		return replay(StrategyTimeIndexed, g, []grid.Cell{req.Start}, req.StepBudget, req.RecoveryRate), nil
	}

	tm := buildTimeModel(g, req)
	p.log.Debugw("time-indexed model", map[string]any{
		"horizon":     req.StepBudget,
		"variables":   tm.m.NumVars(),
		"constraints": tm.m.NumConstraints(),
	})
	sol, err := milp.Solve(tm.m, p.cfg.MILP)
	if err != nil {
		return model.Result{}, solveError(StrategyTimeIndexed, err)
	}

	path := make([]grid.Cell, 0, req.StepBudget)
	for t := range tm.visit {
		at, ok := tm.position(sol, t)
		if !ok {
			return model.Result{}, fmt.Errorf("%s: no position selected at step %d: %w",
				StrategyTimeIndexed, t+1, model.ErrSolver)
		}
		path = append(path, at)
	}
	res := replay(StrategyTimeIndexed, g, path, req.StepBudget, req.RecoveryRate)
	if diff := math.Abs(float64(res.Score()) - sol.Objective); diff > 0.5 {
		p.log.Warnf("time-indexed objective %.3f differs from replayed score %d", sol.Objective, res.Score())
	}
	p.log.Debugw("time-indexed solved", map[string]any{
		"objective": sol.Objective,
		"nodes":     sol.Nodes,
		"score":     res.Score(),
	})
	return res, nil
}

// noVar marks a (step, cell) pair that cannot be occupied.
const noVar milp.Var = -1

type timeModel struct {
	m     *milp.Model
	cells []grid.Cell
	visit [][]milp.Var
}

func (tm timeModel) position(sol *milp.Solution, t int) (grid.Cell, bool) {
	for i, v := range tm.visit[t] {
		if v != noVar && sol.IsSet(v) {
			return tm.cells[i], true
		}
	}
	return grid.Cell{}, false
}

// buildTimeModel unrolls the walk over T = StepBudget steps.
//
//	visit[t][c]     agent stands on c at step t
//	move[t][c→n]    agent walks from c to n between steps t and t+1
//	score[t][c]     reward held by c when step t starts
//	collected[t][c] reward collected on c at step t
//
// Only cells within t moves of the start get visit and move variables at
// step t; the reward held elsewhere is fixed. The one unit of flow leaving
// the start bounds every visit and move by 1. Only the upper sides of the
// reward recurrence are constrained: the objective pushes score and
// collected up to their bounds, and those bounds follow the grid dynamics
// exactly.
func buildTimeModel(g *grid.Grid, req model.Request) timeModel {
	T, start, rate := req.StepBudget, req.Start, float64(req.RecoveryRate)
	cells := g.Cells()
	index := make(map[grid.Cell]int, len(cells))
	for i, c := range cells {
		index[c] = i
	}
	m := milp.NewModel(milp.Maximize)
	name := func(kind string, t int, c grid.Cell) string {
		return fmt.Sprintf("%s_%d_%d_%d", kind, t, c.Row, c.Col)
	}
	reachable := func(t int, c grid.Cell) bool { return start.Distance(c) <= t }

	visit := make([][]milp.Var, T)
	for t := range visit {
		visit[t] = make([]milp.Var, len(cells))
		for i, c := range cells {
			visit[t][i] = noVar
			if reachable(t, c) {
				visit[t][i] = m.Integer(name("visit", t, c), 0, math.Inf(1))
			}
		}
	}
	m.Fix(visit[0][index[start]], 1)

	for t := 0; t < T-1; t++ {
		arrivals := make([]milp.Expr, len(cells))
		for i, c := range cells {
			if visit[t][i] == noVar {
				continue
			}
			var leave milp.Expr
			leave.Add(visit[t][i], -1)
			for _, n := range g.Neighbors(c) {
				mv := m.Integer(fmt.Sprintf("move_%d_%d_%d_%d_%d", t, c.Row, c.Col, n.Row, n.Col), 0, math.Inf(1))
				leave.Add(mv, 1)
				arrivals[index[n]].Add(mv, -1)
			}
			m.Constrain(name("leave", t, c), leave, milp.EQ, 0)
		}
		for i, c := range cells {
			v := visit[t+1][i]
			if v == noVar {
				continue
			}
			if len(arrivals[i].Terms) == 0 {
				m.Fix(v, 0)
				continue
			}
			arrive := arrivals[i]
			arrive.Add(v, 1)
			m.Constrain(name("arrive", t+1, c), arrive, milp.EQ, 0)
		}
	}

	var obj milp.Expr
	obj.AddConst(float64(g.Value(start)))
	score := make([][]milp.Var, T)
	for t := 0; t < T; t++ {
		score[t] = make([]milp.Var, len(cells))
		for i, c := range cells {
			static := float64(g.Value(c))
			bigM := static + rate*float64(T)
			score[t][i] = m.Continuous(name("score", t, c), 0, math.Inf(1))
			switch {
			case c != start && t <= start.Distance(c):
				// Not reachable before t, so untouched since the beginning.
				m.Fix(score[t][i], static+rate*float64(t))
			case c == start && t <= 1:
				m.Fix(score[t][i], boolFloat(t == 0)*static)
			default:
				var grow milp.Expr
				grow.Add(score[t][i], 1).Add(score[t-1][i], -1)
				m.Constrain(name("recover", t, c), grow, milp.LE, rate)
				var reset milp.Expr
				reset.Add(score[t][i], 1).Add(visit[t-1][i], bigM)
				m.Constrain(name("reset", t, c), reset, milp.LE, bigM)
			}

			if t == 0 || visit[t][i] == noVar {
				continue
			}
			collected := m.Continuous(name("collected", t, c), 0, math.Inf(1))
			obj.Add(collected, 1)
			var held milp.Expr
			held.Add(collected, 1).Add(score[t][i], -1)
			m.Constrain(name("collect_held", t, c), held, milp.LE, 0)
			var here milp.Expr
			here.Add(collected, 1).Add(visit[t][i], -bigM)
			m.Constrain(name("collect_here", t, c), here, milp.LE, 0)
		}
	}
	m.SetObjective(obj)
	return timeModel{m: m, cells: cells, visit: visit}
}

func boolFloat(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
