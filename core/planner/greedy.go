package planner

import (
	"github.com/kilianp07/gridwalk/core/grid"
	"github.com/kilianp07/gridwalk/core/logger"
	"github.com/kilianp07/gridwalk/core/model"
)

// Greedy walks to the best immediate neighbour after every collection. It
// looks exactly one hop ahead and never revisits a decision.
type Greedy struct {
	log logger.Logger
}

// NewGreedy returns a greedy planner. A nil logger discards output.
func NewGreedy(log logger.Logger) *Greedy { return &Greedy{log: orNop(log)} }

func (p *Greedy) setLogger(l logger.Logger) { p.log = orNop(l) }

// Name implements Planner.
func (p *Greedy) Name() string { return StrategyGreedy }

// Plan implements Planner.
func (p *Greedy) Plan(g *grid.Grid, req model.Request) (model.Result, error) {
	if err := req.Validate(g); err != nil {
		return model.Result{}, err
	}
	res := PlanGreedy(g, req)
	p.log.Debugw("greedy walk", map[string]any{
		"steps":     res.Len(),
		"score":     res.Score(),
		"truncated": res.Truncated(),
	})
	return res, nil
}

// PlanGreedy runs the greedy walker on a copy of g. The request must be
// valid for g. On a grid without neighbours the walk stops after the start
// cell and the result reports itself as truncated.
func PlanGreedy(g *grid.Grid, req model.Request) model.Result {
	work := g.Clone()
	res := model.NewResult(StrategyGreedy, req.StepBudget)
	current := req.Start
	for remaining := req.StepBudget; remaining > 0; remaining-- {
		res.Append(current, work.Value(current))
		work.Visit(current)
		work.Recover(req.RecoveryRate, current)

		next, ok := bestNeighbor(work, current)
		if !ok {
			break
		}
		current = next
	}
	return res
}

// bestNeighbor returns the neighbour holding the strictly greatest reward.
// Neighbours come in row-major order so ties go to the first one.
func bestNeighbor(g *grid.Grid, c grid.Cell) (grid.Cell, bool) {
	var (
		best  grid.Cell
		value grid.Reward = -1
	)
	for _, n := range g.Neighbors(c) {
		if v := g.Value(n); v > value {
			best, value = n, v
		}
	}
	return best, value >= 0
}
