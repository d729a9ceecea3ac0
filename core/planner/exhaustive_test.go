package planner

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/gridwalk/core/grid"
	"github.com/kilianp07/gridwalk/core/model"
)

func randomGrid(rng *rand.Rand, size int) *grid.Grid {
	g := grid.New(size)
	for _, c := range g.Cells() {
		g.Set(c, grid.Reward(rng.Intn(12)))
	}
	return g
}

// bestWalk enumerates every walk of req.StepBudget cells and returns the
// highest score under the grid dynamics.
func bestWalk(g *grid.Grid, req model.Request) grid.Reward {
	best := grid.Reward(-1)
	path := []grid.Cell{req.Start}
	var extend func()
	extend = func() {
		if len(path) == req.StepBudget {
			if s := replay("", g, path, req.StepBudget, req.RecoveryRate).Score(); s > best {
				best = s
			}
			return
		}
		for _, n := range g.Neighbors(path[len(path)-1]) {
			path = append(path, n)
			extend()
			path = path[:len(path)-1]
		}
	}
	extend()
	return best
}

// bestTrail returns the largest static reward of a walk of moves edges that
// never repeats an edge and leaves the start only once.
func bestTrail(g *grid.Grid, start grid.Cell, moves int) float64 {
	best := -1.0
	used := make(map[Edge]bool)
	var walk func(at grid.Cell, left int, sum float64)
	walk = func(at grid.Cell, left int, sum float64) {
		if left == 0 {
			if sum > best {
				best = sum
			}
			return
		}
		if at == start && left < moves {
			return
		}
		for _, n := range g.Neighbors(at) {
			e := Edge{From: at, To: n}
			if used[e] {
				continue
			}
			used[e] = true
			walk(n, left-1, sum+float64(g.Value(n)))
			used[e] = false
		}
	}
	walk(start, moves, 0)
	return best
}

func TestTimeIndexedMatchesExhaustiveSearch(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	cases := []struct{ size, budget int }{
		{2, 2}, {2, 3}, {2, 4}, {2, 4},
		{3, 2}, {3, 3}, {3, 3}, {3, 3},
	}
	for _, tc := range cases {
		g := randomGrid(rng, tc.size)
		req := model.Request{
			Start:        grid.Cell{Row: rng.Intn(tc.size), Col: rng.Intn(tc.size)},
			StepBudget:   tc.budget,
			RecoveryRate: grid.Reward(rng.Intn(3)),
		}
		res, err := PlanTimeIndexed(g, req)
		require.NoError(t, err, "grid %v request %+v", g.Rows(), req)
		assert.Equal(t, req.StepBudget, res.Len())
		assert.Equal(t, bestWalk(g, req), res.Score(), "grid %v request %+v path %v", g.Rows(), req, res.Path())
	}
}

func TestEdgeFlowObjectiveAgainstBestTrail(t *testing.T) {
	rng := rand.New(rand.NewSource(11))
	cases := []struct{ size, moves int }{
		{2, 2}, {2, 3}, {3, 2}, {3, 2}, {3, 3}, {3, 3},
	}
	for _, tc := range cases {
		g := randomGrid(rng, tc.size)
		req := model.Request{
			Start:      grid.Cell{Row: rng.Intn(tc.size), Col: rng.Intn(tc.size)},
			StepBudget: tc.moves + 1,
		}
		want := bestTrail(g, req.Start, tc.moves)

		_, loose, err := NewEdgeFlow(EdgeFlowConfig{}, nil).solve(g, req)
		require.NoError(t, err, "grid %v request %+v", g.Rows(), req)
		assert.GreaterOrEqual(t, loose.Objective, want-1e-6, "grid %v request %+v", g.Rows(), req)

		selected, tight, err := NewEdgeFlow(EdgeFlowConfig{Connected: true}, nil).solve(g, req)
		require.NoError(t, err, "grid %v request %+v", g.Rows(), req)
		assert.InDelta(t, want, tight.Objective, 1e-6, "grid %v request %+v", g.Rows(), req)
		assert.Len(t, decodeTrail(req.Start, selected), tc.moves+1)
	}
}

func TestEdgeFlowConnectedIllConditionedGrid(t *testing.T) {
	g, err := grid.FromRows([][]grid.Reward{
		{3, 3, 7, 7},
		{7, 10, 4, 11},
		{3, 6, 1, 7},
		{6, 10, 4, 3},
	})
	require.NoError(t, err)
	req := model.Request{Start: grid.Cell{Row: 1, Col: 1}, StepBudget: 4}
	require.InDelta(t, 25, bestTrail(g, req.Start, 3), 1e-9)

	p := NewEdgeFlow(EdgeFlowConfig{Connected: true}, nil)
	selected, sol, err := p.solve(g, req)
	require.NoError(t, err)
	assert.InDelta(t, 25, sol.Objective, 1e-6)

	path := decodeTrail(req.Start, selected)
	require.Len(t, path, 4)
	res, err := p.Plan(g, req)
	require.NoError(t, err)
	assert.False(t, res.Truncated())
	assert.Equal(t, req.Start, res.Path()[0])
}
