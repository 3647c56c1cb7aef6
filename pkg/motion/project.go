package motion

import (
	"github.com/cyclopcam/motionwatch/pkg/grid"
)

// ProjectionWeight amplifies splatted vectors so that projected magnitudes
// end up comparable to raw magnitudes. Found by experiment.
const ProjectionWeight = 4.0

// ProjectionDirection is the sign applied to a vector before it is projected
type ProjectionDirection int

const (
	ProjectForward  ProjectionDirection = -1
	ProjectBackward ProjectionDirection = 1
)

// SplatWeights returns the bilinear area weights of the four cells around a
// destination that sits (xOffset, yOffset) pixels inside a cw x ch cell.
// The order is top-left, top-right, bottom-left, bottom-right, and the weights sum to 1.
func SplatWeights(xOffset, yOffset, cw, ch int) (aA, aB, aC, aD float32) {
	area := float32(cw * ch)
	aA = float32((cw-xOffset)*(ch-yOffset)) / area
	aB = float32(xOffset*(ch-yOffset)) / area
	aC = float32((cw-xOffset)*yOffset) / area
	aD = float32(xOffset*yOffset) / area
	return
}

// Project moves every vector of src to the place it lands when applied to its
// own cell, and splats it into dst. counts is scratch space of the same size.
// Cells in dst that receive more than one contribution hold the average.
func Project(src *grid.Grid[grid.Vec], dir ProjectionDirection, cw, ch int, dst *grid.Grid[grid.VecF], counts *grid.Grid[int32]) {
	dst.Reset()
	counts.Reset()
	maxX := src.Width * cw
	maxY := src.Height * ch
	sign := int(dir)

	splat := func(row, col int, v grid.VecF, weight float32) {
		if weight == 0 || !dst.InBounds(row, col) {
			return
		}
		idx := dst.Index(row, col)
		dst.Cells[idx] = dst.Cells[idx].Add(v.Scale(weight * ProjectionWeight))
		counts.Cells[idx]++
	}

	for row := 0; row < src.Height; row++ {
		for col := 0; col < src.Width; col++ {
			mv := src.Cells[src.Index(row, col)]
			if mv.IsZero() {
				continue
			}
			dx := sign * mv.X
			dy := sign * mv.Y
			px := col*cw + dx
			py := row*ch + dy
			if px < 0 || py < 0 || px > maxX || py > maxY {
				continue
			}
			tcol := px / cw
			trow := py / ch
			aA, aB, aC, aD := SplatWeights(px%cw, py%ch, cw, ch)
			v := grid.VecF{X: float32(dx), Y: float32(dy)}
			splat(trow, tcol, v, aA)
			splat(trow, tcol+1, v, aB)
			splat(trow+1, tcol, v, aC)
			splat(trow+1, tcol+1, v, aD)
		}
	}

	for i, n := range counts.Cells {
		if n > 1 {
			dst.Cells[i] = dst.Cells[i].Scale(1 / float32(n))
		}
	}
}
