package planner

import (
	"fmt"
	"math"
	"sort"

	"github.com/kilianp07/gridwalk/core/grid"
	"github.com/kilianp07/gridwalk/core/logger"
	"github.com/kilianp07/gridwalk/core/milp"
	"github.com/kilianp07/gridwalk/core/model"
)

// EdgeFlowConfig tunes the edge-flow formulation.
type EdgeFlowConfig struct {
	// Connected adds single-commodity flow constraints so that every selected
	// edge is reachable from the start. Without it the optimiser may satisfy
	// the edge count with closed cycles detached from the walk, and the decoded
	// walk then stops early.
	Connected bool         `json:"connected"`
	MILP      milp.Options `json:"milp"`
}

// EdgeFlow selects edges of the reachable subgraph with an integer program.
// Rewards are taken as static: decay and recovery during the walk are not
// modelled, only replayed when scoring the decoded walk.
type EdgeFlow struct {
	cfg EdgeFlowConfig
	log logger.Logger
}

// NewEdgeFlow returns an edge-flow planner. A nil logger discards output.
func NewEdgeFlow(cfg EdgeFlowConfig, log logger.Logger) *EdgeFlow {
	return &EdgeFlow{cfg: cfg, log: orNop(log)}
}

func (p *EdgeFlow) setLogger(l logger.Logger) { p.log = orNop(l) }

// Name implements Planner.
func (p *EdgeFlow) Name() string { return StrategyEdgeFlow }

// Plan implements Planner. The step budget counts visited cells, start
// included, so the program selects StepBudget-1 edges.
func (p *EdgeFlow) Plan(g *grid.Grid, req model.Request) (model.Result, error) {
	if err := req.Validate(g); err != nil {
		return model.Result{}, err
	}
	if req.StepBudget <= 1 {
		return replay(StrategyEdgeFlow, g, []grid.Cell{req.Start}, req.StepBudget, req.RecoveryRate), nil
	}
	selected, sol, err := p.solve(g, req)
	if err != nil {
		return model.Result{}, err
	}
	path := decodeTrail(req.Start, selected)
	res := replay(StrategyEdgeFlow, g, path, req.StepBudget, req.RecoveryRate)
	p.log.Debugw("edge-flow solved", map[string]any{
		"objective": sol.Objective,
		"nodes":     sol.Nodes,
		"selected":  len(selected),
		"steps":     res.Len(),
		"truncated": res.Truncated(),
	})
	return res, nil
}

// solve selects StepBudget-1 edges of the subgraph reachable from the start.
func (p *EdgeFlow) solve(g *grid.Grid, req model.Request) ([]Edge, *milp.Solution, error) {
	moves := req.StepBudget - 1
	sub := BuildSubgraphWithin(g, req.Start, moves)
	if len(sub.Edges) < moves {
		return nil, nil, fmt.Errorf("%s: %d moves requested but only %d edges reachable from %v: %w",
			StrategyEdgeFlow, moves, len(sub.Edges), req.Start, model.ErrInfeasible)
	}

	m, x := p.buildModel(g, req.Start, sub, moves)
	p.log.Debugw("edge-flow model", map[string]any{
		"edges":       len(sub.Edges),
		"cells":       len(sub.Cells),
		"connected":   p.cfg.Connected,
		"variables":   m.NumVars(),
		"constraints": m.NumConstraints(),
	})
	sol, err := milp.Solve(m, p.cfg.MILP)
	if err != nil {
		return nil, nil, solveError(StrategyEdgeFlow, err)
	}

	var selected []Edge
	for i, e := range sub.Edges {
		if sol.IsSet(x[i]) {
			selected = append(selected, e)
		}
	}
	return selected, sol, nil
}

func (p *EdgeFlow) buildModel(g *grid.Grid, start grid.Cell, sub Subgraph, moves int) (*milp.Model, []milp.Var) {
	m := milp.NewModel(milp.Maximize)
	x := make([]milp.Var, len(sub.Edges))
	in := make(map[grid.Cell][]int)
	out := make(map[grid.Cell][]int)
	var obj milp.Expr
	for i, e := range sub.Edges {
		x[i] = m.Binary(fmt.Sprintf("x_%d_%d_%d_%d", e.From.Row, e.From.Col, e.To.Row, e.To.Col))
		obj.Add(x[i], float64(g.Value(e.To)))
		out[e.From] = append(out[e.From], i)
		in[e.To] = append(in[e.To], i)
	}
	m.SetObjective(obj)

	var ends []milp.Var
	for _, c := range sub.Cells {
		var flow milp.Expr
		for _, i := range in[c] {
			flow.Add(x[i], 1)
		}
		for _, i := range out[c] {
			flow.Add(x[i], -1)
		}
		if c == start {
			var leave milp.Expr
			for _, i := range out[c] {
				leave.Add(x[i], 1)
			}
			m.Constrain("leave_start", leave, milp.EQ, 1)
			continue
		}
		// The last cell of the walk absorbs one unit of flow.
		end := m.Binary(fmt.Sprintf("end_%d_%d", c.Row, c.Col))
		ends = append(ends, end)
		flow.Add(end, -1)
		m.Constrain(fmt.Sprintf("conserve_%d_%d", c.Row, c.Col), flow, milp.EQ, 0)
	}
	if len(ends) > 0 {
		m.Constrain("single_end", milp.Sum(ends...), milp.LE, 1)
	}
	m.Constrain("budget", milp.Sum(x...), milp.EQ, float64(moves))

	if p.cfg.Connected {
		k := float64(moves)
		f := make([]milp.Var, len(sub.Edges))
		for i, e := range sub.Edges {
			f[i] = m.Continuous(fmt.Sprintf("f_%d_%d_%d_%d", e.From.Row, e.From.Col, e.To.Row, e.To.Col), 0, math.Inf(1))
			var limit milp.Expr
			limit.Add(f[i], 1).Add(x[i], -k)
			m.Constrain(fmt.Sprintf("flow_cap_%d", i), limit, milp.LE, 0)
		}
		// Every arrival consumes one unit shipped from the start.
		for _, c := range sub.Cells {
			var bal milp.Expr
			for _, i := range in[c] {
				bal.Add(f[i], 1).Add(x[i], -1)
			}
			for _, i := range out[c] {
				bal.Add(f[i], -1)
			}
			rhs := 0.0
			if c == start {
				rhs = -k
			}
			m.Constrain(fmt.Sprintf("flow_balance_%d_%d", c.Row, c.Col), bal, milp.EQ, rhs)
		}
	}
	return m, x
}

// decodeTrail orders the selected edges into a walk from start using
// Hierholzer's algorithm. Edges not reachable from start are dropped, so the
// walk may be shorter than the selection.
func decodeTrail(start grid.Cell, edges []Edge) []grid.Cell {
	adj := make(map[grid.Cell][]grid.Cell)
	for _, e := range edges {
		adj[e.From] = append(adj[e.From], e.To)
	}
	for c := range adj {
		next := adj[c]
		sort.Slice(next, func(i, j int) bool { return next[i].Less(next[j]) })
	}
	used := make(map[grid.Cell]int)
	stack := []grid.Cell{start}
	var trail []grid.Cell
	for len(stack) > 0 {
		v := stack[len(stack)-1]
		if i := used[v]; i < len(adj[v]) {
			used[v] = i + 1
			stack = append(stack, adj[v][i])
			continue
		}
		trail = append(trail, v)
		stack = stack[:len(stack)-1]
	}
	for i, j := 0, len(trail)-1; i < j; i, j = i+1, j-1 {
		trail[i], trail[j] = trail[j], trail[i]
	}
	return trail
}
