package grid

import "fmt"

// Cell identifies a grid position by row and column.
type Cell struct {
	Row int `json:"row"`
	Col int `json:"col"`
}

// Less reports whether c precedes o in row-major order.
func (c Cell) Less(o Cell) bool {
	if c.Row != o.Row {
		return c.Row < o.Row
	}
	return c.Col < o.Col
}

// Distance returns the Chebyshev distance between two cells, i.e. the
// minimum number of 8-connected moves needed to go from c to o.
func (c Cell) Distance(o Cell) int {
	dr := abs(c.Row - o.Row)
	dc := abs(c.Col - o.Col)
	if dr > dc {
		return dr
	}
	return dc
}

func (c Cell) String() string { return fmt.Sprintf("(%d,%d)", c.Row, c.Col) }

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
