// Package grid models a square field of collectible rewards and the
// dynamics applied to it while a walker moves across it.
package grid

import (
	"fmt"
	"math"
)

// Reward is the collectible value held by a cell. Rewards are never negative
// and additions saturate at math.MaxInt64.
type Reward = int64

// moves lists the Moore neighbourhood offsets in row-major order.
var moves = [8][2]int{
	{-1, -1}, {-1, 0}, {-1, 1},
	{0, -1}, {0, 1},
	{1, -1}, {1, 0}, {1, 1},
}

// Grid is a square reward field. The zero value is not usable; create grids
// with New or Parse.
type Grid struct {
	size    int
	rewards []Reward
}

// New returns a size×size grid with all rewards set to zero.
func New(size int) *Grid {
	if size < 0 {
		panic(fmt.Sprintf("grid: negative size %d", size))
	}
	return &Grid{size: size, rewards: make([]Reward, size*size)}
}

// FromRows builds a grid from row-major values. Rows must form a square and
// contain no negative value.
func FromRows(rows [][]Reward) (*Grid, error) {
	if len(rows) == 0 {
		return nil, ErrEmpty
	}
	width := len(rows[0])
	for i, r := range rows {
		if len(r) != width {
			return nil, fmt.Errorf("row %d has %d values, want %d: %w", i+1, len(r), width, ErrRagged)
		}
	}
	if width != len(rows) {
		return nil, fmt.Errorf("%d rows of %d values: %w", len(rows), width, ErrNotSquare)
	}
	g := New(len(rows))
	for i, r := range rows {
		for j, v := range r {
			if v < 0 {
				return nil, fmt.Errorf("negative reward %d at %v: %w", v, Cell{i, j}, ErrMalformed)
			}
			g.rewards[i*g.size+j] = v
		}
	}
	return g, nil
}

// Size returns the number of rows (and columns).
func (g *Grid) Size() int { return g.size }

// Contains reports whether c lies inside the grid.
func (g *Grid) Contains(c Cell) bool {
	return c.Row >= 0 && c.Row < g.size && c.Col >= 0 && c.Col < g.size
}

func (g *Grid) index(c Cell) int {
	if !g.Contains(c) {
		panic(fmt.Sprintf("grid: cell %v outside %dx%d grid", c, g.size, g.size))
	}
	return c.Row*g.size + c.Col
}

// Value returns the reward currently held by c.
func (g *Grid) Value(c Cell) Reward { return g.rewards[g.index(c)] }

// Set assigns reward r to c. A negative reward panics.
func (g *Grid) Set(c Cell, r Reward) {
	if r < 0 {
		panic(fmt.Sprintf("grid: negative reward %d at %v", r, c))
	}
	g.rewards[g.index(c)] = r
}

// Visit collects the reward at c, leaving zero behind.
func (g *Grid) Visit(c Cell) { g.rewards[g.index(c)] = 0 }

// Recover adds rate to every cell except the excluded one.
func (g *Grid) Recover(rate Reward, except Cell) {
	if rate < 0 {
		panic(fmt.Sprintf("grid: negative recovery rate %d", rate))
	}
	skip := -1
	if g.Contains(except) {
		skip = g.index(except)
	}
	for i := range g.rewards {
		if i == skip {
			continue
		}
		g.rewards[i] = SaturatingAdd(g.rewards[i], rate)
	}
}

// Neighbors returns the 8-connected neighbours of c clipped to the grid, in
// row-major order.
func (g *Grid) Neighbors(c Cell) []Cell {
	g.index(c)
	out := make([]Cell, 0, len(moves))
	for _, m := range moves {
		n := Cell{Row: c.Row + m[0], Col: c.Col + m[1]}
		if g.Contains(n) {
			out = append(out, n)
		}
	}
	return out
}

// Cells returns every cell in row-major order.
func (g *Grid) Cells() []Cell {
	out := make([]Cell, 0, len(g.rewards))
	for i := 0; i < g.size; i++ {
		for j := 0; j < g.size; j++ {
			out = append(out, Cell{Row: i, Col: j})
		}
	}
	return out
}

// Rows returns a copy of the rewards as row-major slices.
func (g *Grid) Rows() [][]Reward {
	rows := make([][]Reward, g.size)
	for i := range rows {
		rows[i] = append([]Reward(nil), g.rewards[i*g.size:(i+1)*g.size]...)
	}
	return rows
}

// Max returns the largest reward on the grid.
func (g *Grid) Max() Reward {
	var m Reward
	for _, r := range g.rewards {
		if r > m {
			m = r
		}
	}
	return m
}

// Clone returns an independent copy of the grid.
func (g *Grid) Clone() *Grid {
	return &Grid{size: g.size, rewards: append([]Reward(nil), g.rewards...)}
}

// SaturatingAdd returns a+b clamped to math.MaxInt64. Both operands must be
// non-negative.
func SaturatingAdd(a, b Reward) Reward {
	if a > math.MaxInt64-b {
		return math.MaxInt64
	}
	return a + b
}
