package transform

import "github.com/pkg/errors"

// Table is a per-pixel correspondence table. Entry i belongs to pixel i, in raster order,
// of the grid the table was built for; the entry value is a coordinate in another space.
type Table[P any] struct {
	grid   Grid
	points []P
}

// NewTable takes ownership of points, which must have exactly one entry per grid pixel.
func NewTable[P any](grid Grid, points []P) (*Table[P], error) {
	if grid.Empty() {
		return nil, errors.Errorf("correspondence table needs a non-empty grid, got %dx%d", grid.Width, grid.Height)
	}
	if len(points) != grid.Area() {
		return nil, errors.Errorf("correspondence table for %dx%d grid needs %d entries, got %d",
			grid.Width, grid.Height, grid.Area(), len(points))
	}
	return &Table[P]{grid: grid, points: points}, nil
}

// Grid returns the grid the table is indexed by.
func (t *Table[P]) Grid() Grid {
	return t.grid
}

// Len is the number of entries; always Grid().Area().
func (t *Table[P]) Len() int {
	return len(t.points)
}

// At returns entry i.
func (t *Table[P]) At(i int) P {
	return t.points[i]
}
