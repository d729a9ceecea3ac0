// Package planner implements the walk planning strategies over a reward
// grid: a one-step greedy walker and two exact integer programs.
package planner

import (
	"errors"
	"fmt"

	"github.com/kilianp07/gridwalk/core/grid"
	"github.com/kilianp07/gridwalk/core/logger"
	"github.com/kilianp07/gridwalk/core/milp"
	"github.com/kilianp07/gridwalk/core/model"
)

// Strategy names used in configuration and results.
const (
	StrategyGreedy      = "greedy"
	StrategyEdgeFlow    = "edge_flow"
	StrategyTimeIndexed = "time_indexed"
)

// Planner computes a walk for a request. Implementations never mutate g.
type Planner interface {
	Name() string
	Plan(g *grid.Grid, req model.Request) (model.Result, error)
}

type loggerSetter interface {
	setLogger(logger.Logger)
}

func orNop(l logger.Logger) logger.Logger {
	if l == nil {
		return logger.Nop{}
	}
	return l
}

// solveError maps a milp failure onto the planning error taxonomy.
func solveError(strategy string, err error) error {
	if errors.Is(err, milp.ErrInfeasible) {
		return fmt.Errorf("%s: %w: %w", strategy, model.ErrInfeasible, err)
	}
	return fmt.Errorf("%s: %w: %w", strategy, model.ErrSolver, err)
}

// replay walks path on a private copy of g and records the reward collected
// at each arrival under the grid dynamics.
func replay(strategy string, g *grid.Grid, path []grid.Cell, budget int, rate grid.Reward) model.Result {
	work := g.Clone()
	res := model.NewResult(strategy, budget)
	for _, c := range path {
		if res.Len() == budget {
			break
		}
		res.Append(c, work.Value(c))
		work.Visit(c)
		work.Recover(rate, c)
	}
	return res
}
