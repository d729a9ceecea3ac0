package planner

import (
	"fmt"

	"github.com/kilianp07/gridwalk/core/factory"
	"github.com/kilianp07/gridwalk/core/grid"
	"github.com/kilianp07/gridwalk/core/logger"
	"github.com/kilianp07/gridwalk/core/model"
)

var registry = factory.NewRegistry[Planner]()

func init() {
	registry.MustRegister(StrategyGreedy, func(map[string]any) (Planner, error) {
		return NewGreedy(nil), nil
	})
	registry.MustRegister(StrategyEdgeFlow, func(conf map[string]any) (Planner, error) {
		var cfg EdgeFlowConfig
		if err := factory.Decode(conf, &cfg); err != nil {
			return nil, fmt.Errorf("edge_flow config: %w", err)
		}
		return NewEdgeFlow(cfg, nil), nil
	})
	registry.MustRegister(StrategyTimeIndexed, func(conf map[string]any) (Planner, error) {
		var cfg TimeIndexedConfig
		if err := factory.Decode(conf, &cfg); err != nil {
			return nil, fmt.Errorf("time_indexed config: %w", err)
		}
		return NewTimeIndexed(cfg, nil), nil
	})
}

// Register makes an additional strategy available to New.
func Register(name string, f factory.Factory[Planner]) error {
	return registry.Register(name, f)
}

// Strategies lists the registered strategy names.
func Strategies() []string { return registry.Names() }

// New builds the planner described by cfg and attaches log to it when the
// implementation accepts one.
func New(cfg factory.ModuleConfig, log logger.Logger) (Planner, error) {
	p, err := registry.Create(cfg)
	if err != nil {
		return nil, err
	}
	if s, ok := p.(loggerSetter); ok {
		s.setLogger(log)
	}
	return p, nil
}

// PlanEdgeFlow runs the edge-flow planner with default options.
func PlanEdgeFlow(g *grid.Grid, req model.Request) (model.Result, error) {
	return NewEdgeFlow(EdgeFlowConfig{}, nil).Plan(g, req)
}

// PlanTimeIndexed runs the time-indexed planner with default options.
func PlanTimeIndexed(g *grid.Grid, req model.Request) (model.Result, error) {
	return NewTimeIndexed(TimeIndexedConfig{}, nil).Plan(g, req)
}
