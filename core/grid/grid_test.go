package grid

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNeighbors(t *testing.T) {
	g := New(3)
	cases := []struct {
		name string
		cell Cell
		want []Cell
	}{
		{"top left", Cell{0, 0}, []Cell{{0, 1}, {1, 0}, {1, 1}}},
		{"top middle", Cell{0, 1}, []Cell{{0, 0}, {0, 2}, {1, 0}, {1, 1}, {1, 2}}},
		{"top right", Cell{0, 2}, []Cell{{0, 1}, {1, 1}, {1, 2}}},
		{"middle left", Cell{1, 0}, []Cell{{0, 0}, {0, 1}, {1, 1}, {2, 0}, {2, 1}}},
		{"center", Cell{1, 1}, []Cell{{0, 0}, {0, 1}, {0, 2}, {1, 0}, {1, 2}, {2, 0}, {2, 1}, {2, 2}}},
		{"middle right", Cell{1, 2}, []Cell{{0, 1}, {0, 2}, {1, 1}, {2, 1}, {2, 2}}},
		{"bottom left", Cell{2, 0}, []Cell{{1, 0}, {1, 1}, {2, 1}}},
		{"bottom middle", Cell{2, 1}, []Cell{{1, 0}, {1, 1}, {1, 2}, {2, 0}, {2, 2}}},
		{"bottom right", Cell{2, 2}, []Cell{{1, 1}, {1, 2}, {2, 1}}},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			assert.Equal(t, c.want, g.Neighbors(c.cell))
		})
	}
}

func TestNeighborsBounds(t *testing.T) {
	for size := 1; size <= 6; size++ {
		g := New(size)
		for _, c := range g.Cells() {
			ns := g.Neighbors(c)
			assert.LessOrEqual(t, len(ns), 8)
			for _, n := range ns {
				assert.True(t, g.Contains(n), "neighbor %v of %v outside %d grid", n, c, size)
				assert.NotEqual(t, c, n)
				assert.Equal(t, 1, c.Distance(n))
			}
		}
	}
	assert.Empty(t, New(1).Neighbors(Cell{0, 0}))
}

func TestVisitAndRecover(t *testing.T) {
	g, err := FromRows([][]Reward{{1, 2}, {3, 4}})
	require.NoError(t, err)

	g.Visit(Cell{1, 1})
	g.Recover(2, Cell{1, 1})
	assert.Equal(t, [][]Reward{{3, 4}, {5, 0}}, g.Rows())
}

func TestRewardsStayNonNegative(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	g := New(5)
	for _, c := range g.Cells() {
		g.Set(c, Reward(rng.Intn(20)))
	}
	for i := 0; i < 500; i++ {
		c := Cell{rng.Intn(5), rng.Intn(5)}
		if rng.Intn(2) == 0 {
			g.Visit(c)
		} else {
			g.Recover(Reward(rng.Intn(4)), c)
		}
		for _, cell := range g.Cells() {
			require.GreaterOrEqual(t, g.Value(cell), Reward(0))
		}
	}
}

func TestRecoverSaturates(t *testing.T) {
	g := New(2)
	g.Set(Cell{0, 0}, math.MaxInt64-1)
	g.Recover(5, Cell{1, 1})
	assert.Equal(t, Reward(math.MaxInt64), g.Value(Cell{0, 0}))
	assert.Equal(t, Reward(5), g.Value(Cell{0, 1}))
	assert.Equal(t, Reward(0), g.Value(Cell{1, 1}))
}

func TestCloneIsIndependent(t *testing.T) {
	g := New(2)
	g.Set(Cell{0, 1}, 9)
	cp := g.Clone()
	cp.Visit(Cell{0, 1})
	assert.Equal(t, Reward(9), g.Value(Cell{0, 1}))
	assert.Equal(t, Reward(0), cp.Value(Cell{0, 1}))
}

func TestOutOfRangePanics(t *testing.T) {
	g := New(2)
	assert.Panics(t, func() { g.Value(Cell{2, 0}) })
	assert.Panics(t, func() { g.Visit(Cell{0, -1}) })
	assert.Panics(t, func() { g.Neighbors(Cell{5, 5}) })
	assert.Panics(t, func() { g.Set(Cell{0, 0}, -1) })
}

func TestCellOrderAndDistance(t *testing.T) {
	assert.True(t, Cell{0, 5}.Less(Cell{1, 0}))
	assert.True(t, Cell{1, 0}.Less(Cell{1, 1}))
	assert.False(t, Cell{1, 1}.Less(Cell{1, 1}))
	assert.Equal(t, 3, Cell{0, 0}.Distance(Cell{3, 1}))
	assert.Equal(t, "(2,3)", Cell{2, 3}.String())
}
