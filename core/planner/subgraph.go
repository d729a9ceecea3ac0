package planner

import (
	"sort"

	"github.com/kilianp07/gridwalk/core/grid"
)

// Edge is a legal move between two adjacent cells.
type Edge struct {
	From grid.Cell `json:"from"`
	To   grid.Cell `json:"to"`
}

func (e Edge) less(o Edge) bool {
	if e.From != o.From {
		return e.From.Less(o.From)
	}
	return e.To.Less(o.To)
}

// Subgraph is the set of edges discovered from a start cell and the cells
// they touch, both in row-major order.
type Subgraph struct {
	Edges []Edge
	Cells []grid.Cell
}

// BuildSubgraph collects every edge reachable from start by alternating the
// outgoing edges of newly reached cells and the incoming edges of cells
// already reached.
func BuildSubgraph(g *grid.Grid, start grid.Cell) Subgraph {
	return BuildSubgraphWithin(g, start, -1)
}

// BuildSubgraphWithin is BuildSubgraph restricted to cells at most radius
// moves away from start. A negative radius disables the restriction.
func BuildSubgraphWithin(g *grid.Grid, start grid.Cell, radius int) Subgraph {
	inside := func(c grid.Cell) bool { return radius < 0 || start.Distance(c) <= radius }
	seen := make(map[Edge]struct{})
	cells := map[grid.Cell]struct{}{start: {}}
	var stack []Edge
	push := func(e Edge) {
		if !inside(e.From) || !inside(e.To) {
			return
		}
		if _, ok := seen[e]; ok {
			return
		}
		seen[e] = struct{}{}
		stack = append(stack, e)
	}

	for _, n := range g.Neighbors(start) {
		push(Edge{From: start, To: n})
	}
	for len(stack) > 0 {
		e := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		cells[e.From] = struct{}{}
		cells[e.To] = struct{}{}
		for _, n := range g.Neighbors(e.To) {
			push(Edge{From: e.To, To: n})
		}
		for _, n := range g.Neighbors(e.From) {
			push(Edge{From: n, To: e.From})
		}
	}

	sub := Subgraph{
		Edges: make([]Edge, 0, len(seen)),
		Cells: make([]grid.Cell, 0, len(cells)),
	}
	for e := range seen {
		sub.Edges = append(sub.Edges, e)
	}
	for c := range cells {
		sub.Cells = append(sub.Cells, c)
	}
	sort.Slice(sub.Edges, func(i, j int) bool { return sub.Edges[i].less(sub.Edges[j]) })
	sort.Slice(sub.Cells, func(i, j int) bool { return sub.Cells[i].Less(sub.Cells[j]) })
	return sub
}
