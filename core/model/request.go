package model

import (
	"errors"
	"fmt"

	"github.com/kilianp07/gridwalk/core/grid"
)

var (
	// ErrInvalidInput marks requests rejected before planning starts.
	ErrInvalidInput = errors.New("invalid planning input")
	// ErrInfeasible indicates an exact planner could not satisfy its constraints.
	ErrInfeasible = errors.New("planning infeasible")
	// ErrSolver wraps unexpected failures of the optimisation backend.
	ErrSolver = errors.New("solver failure")
)

// Request describes one planning invocation.
type Request struct {
	Start        grid.Cell   `json:"start"`
	StepBudget   int         `json:"step_budget"`
	RecoveryRate grid.Reward `json:"recovery_rate"`
}

// Validate checks the request against g.
func (r Request) Validate(g *grid.Grid) error {
	if g == nil {
		return fmt.Errorf("nil grid: %w", ErrInvalidInput)
	}
	if g.Size() == 0 {
		return fmt.Errorf("empty grid: %w", ErrInvalidInput)
	}
	if !g.Contains(r.Start) {
		return fmt.Errorf("start %v outside %dx%d grid: %w", r.Start, g.Size(), g.Size(), ErrInvalidInput)
	}
	if r.StepBudget < 0 {
		return fmt.Errorf("negative step budget %d: %w", r.StepBudget, ErrInvalidInput)
	}
	if r.RecoveryRate < 0 {
		return fmt.Errorf("negative recovery rate %d: %w", r.RecoveryRate, ErrInvalidInput)
	}
	return nil
}
