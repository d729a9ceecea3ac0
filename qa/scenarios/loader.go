package scenarios

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/kilianp07/gridwalk/core/grid"
	"github.com/kilianp07/gridwalk/core/model"
)

// Expected describes the outcome of one strategy on a scenario.
type Expected struct {
	// Outcome is a metrics outcome label; "ok" when empty.
	Outcome string `yaml:"outcome,omitempty"`
	Score   int64  `yaml:"score"`
	// Path lists the visited cells as [row, col] pairs. It is only checked
	// when set.
	Path [][2]int `yaml:"path,omitempty"`
}

type Scenario struct {
	Name         string              `yaml:"name"`
	Description  string              `yaml:"description,omitempty"`
	Grid         string              `yaml:"grid"`
	Start        [2]int              `yaml:"start"`
	StepBudget   int                 `yaml:"step_budget"`
	RecoveryRate int64               `yaml:"recovery_rate"`
	Expected     map[string]Expected `yaml:"expected"`
}

// Request returns the planning request described by the scenario.
func (s *Scenario) Request() model.Request {
	return model.Request{
		Start:        grid.Cell{Row: s.Start[0], Col: s.Start[1]},
		StepBudget:   s.StepBudget,
		RecoveryRate: s.RecoveryRate,
	}
}

// Field parses the scenario grid.
func (s *Scenario) Field() (*grid.Grid, error) {
	return grid.Parse(strings.NewReader(s.Grid))
}

func Load(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var sc Scenario
	if err := yaml.Unmarshal(data, &sc); err != nil {
		return nil, err
	}
	if sc.Name == "" {
		return nil, fmt.Errorf("%s: scenario without name", path)
	}
	if len(sc.Expected) == 0 {
		return nil, fmt.Errorf("%s: scenario %q has no expectation", path, sc.Name)
	}
	return &sc, nil
}

func cells(path [][2]int) []grid.Cell {
	out := make([]grid.Cell, len(path))
	for i, p := range path {
		out[i] = grid.Cell{Row: p[0], Col: p[1]}
	}
	return out
}

func samePath(a, b []grid.Cell) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
