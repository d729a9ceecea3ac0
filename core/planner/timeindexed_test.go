package planner

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/gridwalk/core/grid"
	"github.com/kilianp07/gridwalk/core/model"
)

func TestTimeIndexedScenario(t *testing.T) {
	g := scenarioGrid(t)
	res, err := PlanTimeIndexed(g, scenarioRequest())
	require.NoError(t, err)

	assert.Equal(t, StrategyTimeIndexed, res.Strategy)
	assert.Equal(t, []grid.Cell{{Row: 0, Col: 0}, {Row: 1, Col: 1}, {Row: 2, Col: 1}}, res.Path())
	assert.Equal(t, grid.Reward(20), res.Score())
	assert.Equal(t, 3, res.Len())
}

func TestTimeIndexedBeatsGreedy(t *testing.T) {
	g, err := grid.FromRows([][]grid.Reward{
		{0, 5, 0},
		{4, 0, 0},
		{9, 0, 0},
	})
	require.NoError(t, err)
	req := model.Request{StepBudget: 3}

	res, err := PlanTimeIndexed(g, req)
	require.NoError(t, err)
	assert.Equal(t, []grid.Cell{{Row: 0, Col: 0}, {Row: 1, Col: 0}, {Row: 2, Col: 0}}, res.Path())
	assert.Equal(t, grid.Reward(13), res.Score())
}

func TestTimeIndexedNeverBelowGreedy(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	for i := 0; i < 3; i++ {
		g := grid.New(3)
		for _, c := range g.Cells() {
			g.Set(c, grid.Reward(rng.Intn(10)))
		}
		req := model.Request{
			Start:        grid.Cell{Row: rng.Intn(3), Col: rng.Intn(3)},
			StepBudget:   3,
			RecoveryRate: grid.Reward(rng.Intn(3)),
		}
		res, err := PlanTimeIndexed(g, req)
		require.NoError(t, err)
		assert.Equal(t, req.StepBudget, res.Len())
		assert.GreaterOrEqual(t, res.Score(), PlanGreedy(g, req).Score(), "grid %v request %+v", g.Rows(), req)
	}
}

func TestTimeIndexedInfeasibleOnSingleCell(t *testing.T) {
	g, err := grid.FromRows([][]grid.Reward{{3}})
	require.NoError(t, err)
	_, err = PlanTimeIndexed(g, model.Request{StepBudget: 2})
	assert.ErrorIs(t, err, model.ErrInfeasible)
}

func TestTimeIndexedSmallBudgets(t *testing.T) {
	g := scenarioGrid(t)
	res, err := PlanTimeIndexed(g, model.Request{StepBudget: 0})
	require.NoError(t, err)
	assert.Equal(t, 0, res.Len())

	res, err = PlanTimeIndexed(g, model.Request{Start: grid.Cell{Row: 1, Col: 1}, StepBudget: 1})
	require.NoError(t, err)
	assert.Equal(t, grid.Reward(7), res.Score())
}
