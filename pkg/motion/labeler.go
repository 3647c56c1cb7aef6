package motion

import (
	"github.com/cyclopcam/motionwatch/pkg/grid"
)

// Label assigns 1,2,3... to the 4-connected foreground components of mask,
// scanning seeds in row-major order. Background cells get 0.
// Returns the number of components. stack is reusable scratch space.
func Label(mask *grid.Grid[int8], labels *grid.Grid[int32], stack *[]grid.Point) int {
	labels.Reset()
	next := int32(0)
	s := (*stack)[:0]
	for row := 0; row < mask.Height; row++ {
		for col := 0; col < mask.Width; col++ {
			idx := mask.Index(row, col)
			if mask.Cells[idx] <= 0 || labels.Cells[idx] != 0 {
				continue
			}
			next++
			labels.Cells[idx] = next
			s = append(s, grid.Point{X: col, Y: row})
			for len(s) != 0 {
				p := s[len(s)-1]
				s = s[:len(s)-1]
				for _, d := range searchDirections {
					x := p.X + d.X
					y := p.Y + d.Y
					if !mask.InBounds(y, x) {
						continue
					}
					n := mask.Index(y, x)
					if mask.Cells[n] > 0 && labels.Cells[n] == 0 {
						labels.Cells[n] = next
						s = append(s, grid.Point{X: x, Y: y})
					}
				}
			}
		}
	}
	*stack = s
	return int(next)
}
