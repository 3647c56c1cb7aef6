package grid

import (
	"errors"
	"fmt"
)

// MaxSide is the largest number of cells we'll accept along either axis.
// Anything bigger is a configuration error, not something to clip.
const MaxSide = 500

var ErrGridTooLarge = errors.New("Grid side exceeds maximum")
var ErrGridEmpty = errors.New("Grid side must be at least 1")

// Grid is a dense 2D array stored in a single contiguous slice.
// Cells are addressed as (row, col).
// Reads outside the grid return the zero value, and writes outside the grid are ignored.
type Grid[T any] struct {
	Width  int `json:"width"`  // Number of columns
	Height int `json:"height"` // Number of rows
	Cells  []T `json:"cells"`  // Row-major, len = Width*Height
}

// CheckSize returns an error if a grid of the given size cannot be created
func CheckSize(width, height int) error {
	if width < 1 || height < 1 {
		return fmt.Errorf("%w (got %v x %v)", ErrGridEmpty, width, height)
	}
	if width > MaxSide || height > MaxSide {
		return fmt.Errorf("%w %v (got %v x %v)", ErrGridTooLarge, MaxSide, width, height)
	}
	return nil
}

// New allocates a zero-filled grid
func New[T any](width, height int) (*Grid[T], error) {
	if err := CheckSize(width, height); err != nil {
		return nil, err
	}
	return &Grid[T]{
		Width:  width,
		Height: height,
		Cells:  make([]T, width*height),
	}, nil
}

// MustNew is New, but panics on an invalid size.
// Use it only where the size has already been validated.
func MustNew[T any](width, height int) *Grid[T] {
	g, err := New[T](width, height)
	if err != nil {
		panic(err)
	}
	return g
}

func (g *Grid[T]) InBounds(row, col int) bool {
	return row >= 0 && col >= 0 && row < g.Height && col < g.Width
}

// Index returns the offset of (row, col) inside Cells. The cell must be in bounds.
func (g *Grid[T]) Index(row, col int) int {
	return row*g.Width + col
}

func (g *Grid[T]) At(row, col int) T {
	if !g.InBounds(row, col) {
		var zero T
		return zero
	}
	return g.Cells[row*g.Width+col]
}

func (g *Grid[T]) Set(row, col int, v T) {
	if g.InBounds(row, col) {
		g.Cells[row*g.Width+col] = v
	}
}

// Ptr returns a pointer to the cell, or nil if (row, col) is outside the grid
func (g *Grid[T]) Ptr(row, col int) *T {
	if !g.InBounds(row, col) {
		return nil
	}
	return &g.Cells[row*g.Width+col]
}

func (g *Grid[T]) Fill(v T) {
	for i := range g.Cells {
		g.Cells[i] = v
	}
}

// Reset sets every cell to the zero value
func (g *Grid[T]) Reset() {
	clear(g.Cells)
}

// CopyFrom copies the contents of src, which must have the same dimensions
func (g *Grid[T]) CopyFrom(src *Grid[T]) {
	if src.Width != g.Width || src.Height != g.Height {
		panic(fmt.Sprintf("Grid.CopyFrom size mismatch: %vx%v vs %vx%v", g.Width, g.Height, src.Width, src.Height))
	}
	copy(g.Cells, src.Cells)
}

func (g *Grid[T]) Clone() *Grid[T] {
	c := &Grid[T]{
		Width:  g.Width,
		Height: g.Height,
		Cells:  make([]T, len(g.Cells)),
	}
	copy(c.Cells, g.Cells)
	return c
}

// IsBorder returns true if (row, col) lies on the outer ring of the grid
func (g *Grid[T]) IsBorder(row, col int) bool {
	return row == 0 || col == 0 || row == g.Height-1 || col == g.Width-1
}

// Count returns the number of cells for which pred is true
func (g *Grid[T]) Count(pred func(v T) bool) int {
	n := 0
	for _, v := range g.Cells {
		if pred(v) {
			n++
		}
	}
	return n
}
