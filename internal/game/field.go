package game

import (
	"errors"
	"fmt"

	"bomb-arena/internal/game/spatial"
)

// Cell is an integral arena coordinate.
type Cell = spatial.Cell

var (
	// ErrEmptyLayout is returned for a layout without rows or columns.
	ErrEmptyLayout = errors.New("arena layout is empty")
	// ErrRaggedLayout is returned when layout rows differ in length.
	ErrRaggedLayout = errors.New("arena layout rows differ in length")
)

// DefaultLayout is the stock arena. A space is open floor, anything else is a wall.
var DefaultLayout = []string{
	"wwwwwwwwwwwwwwwwwwwwwwwwwwwwwwwwwwwwwww",
	"w                                     w",
	"w w w w w w w w w w w w w w w w w w w w",
	"w                                     w",
	"w w w w w  ggggggggggggggggg  w w w w w",
	"w          ggggggggggggggggg          w",
	"w w w w w  gg             gg  w w w w w",
	"w          gg             gg          w",
	"w w w w w  gg             gg  w w w w w",
	"w          gg   ggg  ggg  gg          w",
	"w w w w w  gg   ggg  ggg  gg  w w w w w",
	"w          gg   ggg  ggg  gg          w",
	"w w w w w  gg             gg  w w w w w",
	"w          gg             gg          w",
	"w w w w w  gg             gg  w w w w w",
	"w          gg    ggggggggggg          w",
	"w w w w w  gg    ggggggggggg  w w w w w",
	"w          gg        gg               w",
	"w w w w w  gg        gg   w w w w w w w",
	"w          gg        gg               w",
	"w w w w w  gg        gg   w w w w w w w",
	"w          gg        gg               w",
	"w w w w w                 w w w w w w w",
	"w                                     w",
	"wwwwwwwwwwwwwwwwwwwwwwwwwwwwwwwwwwwwwww",
}

// Field is the immutable walkability grid of the arena.
// Cells are stored in row-major order (open[y*width+x]).
type Field struct {
	width, height int
	open          []bool
	rows          []string
}

// NewField builds a field from text rows. ' ' is open, every other rune is a wall.
func NewField(rows []string) (*Field, error) {
	if len(rows) == 0 || len(rows[0]) == 0 {
		return nil, ErrEmptyLayout
	}

	width := len([]rune(rows[0]))
	f := &Field{
		width:  width,
		height: len(rows),
		open:   make([]bool, width*len(rows)),
		rows:   make([]string, len(rows)),
	}

	for y, row := range rows {
		runes := []rune(row)
		if len(runes) != width {
			return nil, fmt.Errorf("row %d has %d cells, want %d: %w", y, len(runes), width, ErrRaggedLayout)
		}
		for x, r := range runes {
			f.open[y*width+x] = r == ' '
		}
		f.rows[y] = row
	}

	return f, nil
}

// MustField is NewField for layouts known to be valid. It panics otherwise.
func MustField(rows []string) *Field {
	f, err := NewField(rows)
	if err != nil {
		panic(err)
	}
	return f
}

// CanMoveTo reports whether the cell nearest to (x, y) is inside the arena and open.
func (f *Field) CanMoveTo(x, y float64) bool {
	return f.IsOpen(spatial.RoundCell(x, y))
}

// IsOpen reports whether c is inside the arena and open.
func (f *Field) IsOpen(c Cell) bool {
	if c.X < 0 || c.X >= f.width || c.Y < 0 || c.Y >= f.height {
		return false
	}
	return f.open[c.Y*f.width+c.X]
}

// Width returns the number of columns.
func (f *Field) Width() int { return f.width }

// Height returns the number of rows.
func (f *Field) Height() int { return f.height }

// Rows returns a copy of the source layout.
func (f *Field) Rows() []string {
	out := make([]string, len(f.rows))
	copy(out, f.rows)
	return out
}

// OpenCells counts walkable cells.
func (f *Field) OpenCells() int {
	n := 0
	for _, o := range f.open {
		if o {
			n++
		}
	}
	return n
}
