package motion

import (
	"github.com/cyclopcam/motionwatch/pkg/grid"
)

// MorphOp is the value that erosion or dilation spreads
type MorphOp int8

const (
	MorphErode  MorphOp = 0
	MorphDilate MorphOp = 1
)

// Marks background cells reached from the border during hole filling
const floodSentinel = -1

var kernelCross = [3][3]int8{
	{0, 1, 0},
	{1, 1, 1},
	{0, 1, 0},
}

var kernelSquare = [3][3]int8{
	{1, 1, 1},
	{1, 1, 1},
	{1, 1, 1},
}

func kernelFor(el Element) *[3][3]int8 {
	if el == ElementSquare {
		return &kernelSquare
	}
	return &kernelCross
}

// Binarize sets mask to 1 wherever the tier is foreground, and 0 elsewhere
func Binarize(tiers *grid.Grid[Tier], mask *grid.Grid[int8]) {
	for i, t := range tiers.Cells {
		if t.IsForeground() {
			mask.Cells[i] = 1
		} else {
			mask.Cells[i] = 0
		}
	}
}

// ClearBorder zeroes the outer ring of cells. FillHoles depends on this.
func ClearBorder(mask *grid.Grid[int8]) {
	for col := 0; col < mask.Width; col++ {
		mask.Set(0, col, 0)
		mask.Set(mask.Height-1, col, 0)
	}
	for row := 0; row < mask.Height; row++ {
		mask.Set(row, 0, 0)
		mask.Set(row, mask.Width-1, 0)
	}
}

// FillHoles floods the background from (0,0). Any zero cell that the flood
// cannot reach is enclosed by foreground, and becomes foreground.
// The border must already be clear. stack is reusable scratch space.
func FillHoles(mask *grid.Grid[int8], stack *[]grid.Point) {
	if mask.At(0, 0) != 0 {
		return
	}
	s := append((*stack)[:0], grid.Point{X: 0, Y: 0})
	mask.Set(0, 0, floodSentinel)
	for len(s) != 0 {
		p := s[len(s)-1]
		s = s[:len(s)-1]
		for _, d := range searchDirections {
			x := p.X + d.X
			y := p.Y + d.Y
			if mask.InBounds(y, x) && mask.Cells[mask.Index(y, x)] == 0 {
				mask.Cells[mask.Index(y, x)] = floodSentinel
				s = append(s, grid.Point{X: x, Y: y})
			}
		}
	}
	*stack = s
	for i, v := range mask.Cells {
		switch v {
		case 0:
			mask.Cells[i] = 1
		case floodSentinel:
			mask.Cells[i] = 0
		}
	}
}

// RemoveIsolated writes src into dst, minus any interior foreground cell whose
// four direct neighbours are all background
func RemoveIsolated(src, dst *grid.Grid[int8]) {
	dst.CopyFrom(src)
	for row := 1; row < src.Height-1; row++ {
		for col := 1; col < src.Width-1; col++ {
			idx := src.Index(row, col)
			if src.Cells[idx] == 0 {
				continue
			}
			if src.Cells[idx-1] == 0 && src.Cells[idx+1] == 0 && src.Cells[idx-src.Width] == 0 && src.Cells[idx+src.Width] == 0 {
				dst.Cells[idx] = 0
			}
		}
	}
}

// ErodeDilate writes src into dst, with every interior cell set to op if any cell
// under the kernel already has the value op, and to the opposite of op otherwise.
// Border cells are copied unchanged.
func ErodeDilate(src, dst *grid.Grid[int8], op MorphOp, el Element) {
	dst.CopyFrom(src)
	k := kernelFor(el)
	val := int8(op)
	other := 1 - val
	for row := 1; row < src.Height-1; row++ {
		for col := 1; col < src.Width-1; col++ {
			hit := false
			for ky := 0; ky < 3 && !hit; ky++ {
				for kx := 0; kx < 3; kx++ {
					if k[ky][kx] != 0 && src.Cells[src.Index(row+ky-1, col+kx-1)] == val {
						hit = true
						break
					}
				}
			}
			if hit {
				dst.Cells[dst.Index(row, col)] = val
			} else {
				dst.Cells[dst.Index(row, col)] = other
			}
		}
	}
}

// Morphology cleans up a foreground mask. It owns the scratch space it needs,
// so one instance must not be shared between goroutines.
type Morphology struct {
	element Element
	tmp     *grid.Grid[int8]
	stack   []grid.Point
}

func NewMorphology(el Element, cols, rows int) *Morphology {
	return &Morphology{
		element: el,
		tmp:     grid.MustNew[int8](cols, rows),
	}
}

// Apply binarizes tiers into mask and cleans it: border clearing, hole filling,
// isolated-cell removal, then erosion followed by dilation
func (m *Morphology) Apply(tiers *grid.Grid[Tier], mask *grid.Grid[int8]) {
	Binarize(tiers, mask)
	ClearBorder(mask)
	FillHoles(mask, &m.stack)
	RemoveIsolated(mask, m.tmp)
	ErodeDilate(m.tmp, mask, MorphErode, m.element)
	ErodeDilate(mask, m.tmp, MorphDilate, m.element)
	mask.CopyFrom(m.tmp)
}
