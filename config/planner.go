package config

import (
	"fmt"
	"time"

	"github.com/kilianp07/gridwalk/core/factory"
	"github.com/kilianp07/gridwalk/core/grid"
	"github.com/kilianp07/gridwalk/core/milp"
	"github.com/kilianp07/gridwalk/core/model"
	"github.com/kilianp07/gridwalk/core/planner"
)

// PlannerConfig holds the defaults of a planning request and the tuning of
// the exact strategies.
type PlannerConfig struct {
	// Strategy is one of planner.Strategies().
	Strategy     string    `json:"strategy"`
	Start        grid.Cell `json:"start"`
	StepBudget   int       `json:"step_budget"`
	RecoveryRate int64     `json:"recovery_rate"`
	// TimeoutMS bounds a single run. Zero selects the 30s default.
	TimeoutMS int `json:"timeout_ms"`
	// Connected forbids edge-flow selections detached from the start.
	Connected bool         `json:"connected"`
	MILP      milp.Options `json:"milp"`
}

// SetDefaults applies sane defaults.
func (c *PlannerConfig) SetDefaults() {
	if c.Strategy == "" {
		c.Strategy = planner.StrategyGreedy
	}
	if c.StepBudget == 0 {
		c.StepBudget = 10
	}
	if c.TimeoutMS == 0 {
		c.TimeoutMS = 30000
	}
	d := milp.DefaultOptions()
	if c.MILP.MaxNodes == 0 {
		c.MILP.MaxNodes = d.MaxNodes
	}
	if c.MILP.Tolerance == 0 {
		c.MILP.Tolerance = d.Tolerance
	}
	if c.MILP.IntegralityTol == 0 {
		c.MILP.IntegralityTol = d.IntegralityTol
	}
}

// Validate checks mandatory fields.
func (c PlannerConfig) Validate() error {
	known := false
	for _, s := range planner.Strategies() {
		if s == c.Strategy {
			known = true
			break
		}
	}
	if !known {
		return fmt.Errorf("unknown strategy %s", c.Strategy)
	}
	if c.StepBudget < 0 {
		return fmt.Errorf("step_budget must be >= 0, got %d", c.StepBudget)
	}
	if c.RecoveryRate < 0 {
		return fmt.Errorf("recovery_rate must be >= 0, got %d", c.RecoveryRate)
	}
	if c.TimeoutMS < 0 {
		return fmt.Errorf("timeout_ms must be >= 0, got %d", c.TimeoutMS)
	}
	return nil
}

// Timeout returns TimeoutMS as a duration.
func (c PlannerConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutMS) * time.Millisecond
}

// Request returns the default planning request.
func (c PlannerConfig) Request() model.Request {
	return model.Request{Start: c.Start, StepBudget: c.StepBudget, RecoveryRate: c.RecoveryRate}
}

// Module returns the registry entry for strategy with the tuning of this
// section.
func (c PlannerConfig) Module(strategy string) factory.ModuleConfig {
	milpConf := map[string]any{
		"tolerance":             c.MILP.Tolerance,
		"integrality_tolerance": c.MILP.IntegralityTol,
		"max_nodes":             c.MILP.MaxNodes,
	}
	switch strategy {
	case planner.StrategyEdgeFlow:
		return factory.ModuleConfig{Type: strategy, Conf: map[string]any{"connected": c.Connected, "milp": milpConf}}
	case planner.StrategyTimeIndexed:
		return factory.ModuleConfig{Type: strategy, Conf: map[string]any{"milp": milpConf}}
	}
	return factory.ModuleConfig{Type: strategy}
}
