package model

import "github.com/kilianp07/gridwalk/core/grid"

// Step is one cell of a planned walk together with the reward collected on
// arrival. Index is 1-based.
type Step struct {
	Cell   grid.Cell   `json:"cell"`
	Reward grid.Reward `json:"reward"`
	Index  int         `json:"step"`
}

// Result is the trajectory produced by a planning strategy.
type Result struct {
	Strategy string `json:"strategy"`
	Budget   int    `json:"step_budget"`
	Steps    []Step `json:"steps"`
}

// NewResult returns an empty result for the given strategy and budget.
func NewResult(strategy string, budget int) Result {
	return Result{Strategy: strategy, Budget: budget, Steps: make([]Step, 0, budget)}
}

// Append adds the next step of the walk and returns its index.
func (r *Result) Append(c grid.Cell, reward grid.Reward) int {
	idx := len(r.Steps) + 1
	r.Steps = append(r.Steps, Step{Cell: c, Reward: reward, Index: idx})
	return idx
}

// Score returns the total collected reward.
func (r Result) Score() grid.Reward {
	var s grid.Reward
	for _, st := range r.Steps {
		s = grid.SaturatingAdd(s, st.Reward)
	}
	return s
}

// StepsAt returns every step that touched c.
func (r Result) StepsAt(c grid.Cell) []Step {
	var out []Step
	for _, st := range r.Steps {
		if st.Cell == c {
			out = append(out, st)
		}
	}
	return out
}

// Path returns the visited cells in order.
func (r Result) Path() []grid.Cell {
	out := make([]grid.Cell, len(r.Steps))
	for i, st := range r.Steps {
		out[i] = st.Cell
	}
	return out
}

// Len returns the number of steps.
func (r Result) Len() int { return len(r.Steps) }

// Truncated reports whether the walk stopped before using its budget.
func (r Result) Truncated() bool { return len(r.Steps) < r.Budget }
