package motion

import (
	"github.com/cyclopcam/motionwatch/pkg/grid"
)

// BuildStats counts what happened to the vectors of one frame
type BuildStats struct {
	Accepted int `json:"accepted"` // Written into the grid
	Ignored  int `json:"ignored"`  // Wrong reference direction for the frame type, or entirely off-grid
	Rejected int `json:"rejected"` // Malformed (unsupported block shape)
}

// Builder rasterizes motion vectors into a displacement grid
type Builder struct {
	geom     Geometry
	legacyDY bool
	flip     bool
	sum      *grid.Grid[grid.Vec]
	count    *grid.Grid[int32]
}

// If flipForward is set, vectors with a future reference are negated
func NewBuilder(geom Geometry, legacyDY, flipForward bool) *Builder {
	return &Builder{
		geom:     geom,
		legacyDY: legacyDY,
		flip:     flipForward,
		sum:      grid.MustNew[grid.Vec](geom.Cols, geom.Rows),
		count:    grid.MustNew[int32](geom.Cols, geom.Rows),
	}
}

// Displacement returns the vector that we store for mv, which is src - dst
func (b *Builder) Displacement(mv *MotionVector) grid.Vec {
	d := grid.Vec{
		X: mv.SrcX - mv.DstX,
		Y: mv.SrcY - mv.DstY,
	}
	if b.legacyDY {
		d.Y = mv.SrcX - mv.DstY
	}
	if b.flip && mv.Source > 0 {
		d.X = -d.X
		d.Y = -d.Y
	}
	return d
}

func floorDiv(a, b int) int {
	q := a / b
	if a%b != 0 && a < 0 {
		q--
	}
	return q
}

// Build writes the displacement of every applicable vector into all cells covered
// by its destination block. Cells covered by more than one vector get the average.
// Everything else in out is zero.
func (b *Builder) Build(frame *Frame, out *grid.Grid[grid.Vec]) BuildStats {
	stats := BuildStats{}
	out.Reset()
	if frame.Type == FrameI {
		stats.Ignored = len(frame.Vectors)
		return stats
	}
	b.sum.Reset()
	b.count.Reset()
	cw := b.geom.CellWidth
	ch := b.geom.CellHeight
	touched := false

	for i := range frame.Vectors {
		mv := &frame.Vectors[i]
		if !isSupportedBlockSide(mv.Width) || !isSupportedBlockSide(mv.Height) {
			stats.Rejected++
			continue
		}
		if !frame.Type.Accepts(mv.Source) {
			stats.Ignored++
			continue
		}
		col0 := max(floorDiv(mv.DstX, cw), 0)
		col1 := min(floorDiv(mv.DstX+mv.Width-1, cw), b.geom.Cols-1)
		row0 := max(floorDiv(mv.DstY, ch), 0)
		row1 := min(floorDiv(mv.DstY+mv.Height-1, ch), b.geom.Rows-1)
		if col0 > col1 || row0 > row1 {
			stats.Ignored++
			continue
		}
		d := b.Displacement(mv)
		for row := row0; row <= row1; row++ {
			for col := col0; col <= col1; col++ {
				idx := b.sum.Index(row, col)
				b.sum.Cells[idx].X += d.X
				b.sum.Cells[idx].Y += d.Y
				b.count.Cells[idx]++
			}
		}
		stats.Accepted++
		touched = true
	}

	if !touched {
		return stats
	}
	for i, n := range b.count.Cells {
		switch {
		case n == 1:
			out.Cells[i] = b.sum.Cells[i]
		case n > 1:
			s := b.sum.Cells[i].Float()
			out.Cells[i] = s.Scale(1 / float32(n)).Round()
		}
	}
	return stats
}
