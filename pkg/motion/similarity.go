package motion

import (
	"github.com/chewxy/math32"
	"github.com/cyclopcam/motionwatch/pkg/grid"
)

// VectorSimilarity is exp(-|a-b|² / (|a|+|b|)²), which lies in [1/e, 1].
// Two zero vectors are identical, so they score 1.
func VectorSimilarity(a, b grid.VecF) float32 {
	sum := a.Len() + b.Len()
	if sum == 0 {
		return 1
	}
	d := a.Sub(b)
	return math32.Exp(-(d.X*d.X + d.Y*d.Y) / (sum * sum))
}

// Similarity computes VectorSimilarity for every cell of a and b
func Similarity[A, B grid.Vector](a *grid.Grid[A], b *grid.Grid[B], out *grid.Grid[float32]) {
	for i := range out.Cells {
		out.Cells[i] = VectorSimilarity(a.Cells[i].Float(), b.Cells[i].Float())
	}
}

// Magnitude writes the length of every vector of src into out
func Magnitude[T grid.Vector](src *grid.Grid[T], out *grid.Grid[float32]) {
	for i := range out.Cells {
		out.Cells[i] = src.Cells[i].Float().Len()
	}
}
