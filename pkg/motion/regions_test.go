package motion

import (
	"math/rand"
	"testing"

	"github.com/cyclopcam/motionwatch/pkg/grid"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/stat"
)

func TestLabelTwoBlocks(t *testing.T) {
	mask := parseMask(
		"..........",
		".###..###.",
		".###..###.",
		".###..###.",
		"..........",
		"..........",
	)
	labels := grid.MustNew[int32](mask.Width, mask.Height)
	stack := []grid.Point{}
	require.Equal(t, 2, Label(mask, labels, &stack))
	require.Equal(t, int32(1), labels.At(1, 1))
	require.Equal(t, int32(2), labels.At(3, 8))
	require.Equal(t, int32(0), labels.At(1, 4))

	vectors := grid.MustNew[grid.Vec](mask.Width, mask.Height)
	vectors.Fill(grid.Vec{X: 2, Y: 0})
	geom := Geometry{Cols: mask.Width, Rows: mask.Height, CellWidth: 16, CellHeight: 16}
	regions := NewRegionAggregator(1).Aggregate(labels, vectors, &geom, 1, nil)
	require.Equal(t, 2, len(regions))

	require.Equal(t, 9, regions[0].Size)
	require.Equal(t, grid.Rect{MinX: 1, MinY: 1, MaxX: 3, MaxY: 3}, regions[0].Bounds)
	require.InDelta(t, 2, regions[0].Centroid.X, 1e-5)
	require.InDelta(t, 2, regions[0].Centroid.Y, 1e-5)
	require.Equal(t, grid.Rect{MinX: 16, MinY: 16, MaxX: 63, MaxY: 63}, regions[0].BoundsPx)
	// Center of cell 2, not 2 * 16
	require.InDelta(t, 40, regions[0].CentroidPx.X, 1e-4)
	require.InDelta(t, 40, regions[0].CentroidPx.Y, 1e-4)

	require.Equal(t, 9, regions[1].Size)
	require.Equal(t, grid.Rect{MinX: 6, MinY: 1, MaxX: 8, MaxY: 3}, regions[1].Bounds)
	require.InDelta(t, 7, regions[1].Centroid.X, 1e-5)

	for _, r := range regions {
		require.InDelta(t, 2, r.Direction.X, 1e-5)
		require.InDelta(t, 0, r.Direction.Y, 1e-5)
		require.InDelta(t, 0, r.Angle, 1e-5)
		require.InDelta(t, 2, r.Magnitude, 1e-5)
		require.InDelta(t, 0, r.Uniformity, 1e-5)
		require.NotEqual(t, uint32(0), r.ID)
		require.False(t, r.Tracked)
	}
	require.NotEqual(t, regions[0].ID, regions[1].ID)
}

func TestLabelingCompleteness(t *testing.T) {
	rng := rand.New(rand.NewSource(11))
	stack := []grid.Point{}
	for trial := 0; trial < 30; trial++ {
		mask := grid.MustNew[int8](1+rng.Intn(30), 1+rng.Intn(30))
		for i := range mask.Cells {
			if rng.Intn(3) == 0 {
				mask.Cells[i] = 1
			}
		}
		labels := grid.MustNew[int32](mask.Width, mask.Height)
		n := Label(mask, labels, &stack)
		seen := map[int32]bool{}
		for row := 0; row < mask.Height; row++ {
			for col := 0; col < mask.Width; col++ {
				l := labels.At(row, col)
				if mask.At(row, col) > 0 {
					require.Greater(t, l, int32(0))
					require.LessOrEqual(t, l, int32(n))
					seen[l] = true
					// 4-connected neighbours share our label
					if mask.At(row, col+1) > 0 {
						require.Equal(t, l, labels.At(row, col+1))
					}
					if mask.At(row+1, col) > 0 {
						require.Equal(t, l, labels.At(row+1, col))
					}
				} else {
					require.Equal(t, int32(0), l)
				}
			}
		}
		require.Equal(t, n, len(seen))
	}
}

func TestRegionDirectionStats(t *testing.T) {
	rng := rand.New(rand.NewSource(2))
	labels := grid.MustNew[int32](8, 8)
	vectors := grid.MustNew[grid.Vec](8, 8)
	xs := []float64{}
	ys := []float64{}
	sum := grid.VecF{}
	for row := 2; row < 6; row++ {
		for col := 1; col < 7; col++ {
			labels.Set(row, col, 1)
			v := grid.Vec{X: rng.Intn(11) - 5, Y: rng.Intn(11) - 5}
			if row == 2 && col == 1 {
				v = grid.Vec{}
			}
			vectors.Set(row, col, v)
			n := v.Float().Normalized()
			xs = append(xs, float64(n.X))
			ys = append(ys, float64(n.Y))
			sum = sum.Add(v.Float())
		}
	}
	geom := Geometry{Cols: 8, Rows: 8, CellWidth: 4, CellHeight: 4}
	regions := NewRegionAggregator(1).Aggregate(labels, vectors, &geom, 1, nil)
	require.Equal(t, 1, len(regions))
	r := regions[0]
	require.Equal(t, 24, r.Size)
	require.InDelta(t, sum.X/24, r.Direction.X, 1e-4)
	require.InDelta(t, sum.Y/24, r.Direction.Y, 1e-4)
	require.InDelta(t, stat.Variance(xs, nil), r.Variance.X, 1e-4)
	require.InDelta(t, stat.Variance(ys, nil), r.Variance.Y, 1e-4)
	require.InDelta(t, (stat.Variance(xs, nil)+stat.Variance(ys, nil))*100, r.Uniformity, 1e-2)
	require.GreaterOrEqual(t, r.Variance.X, float32(0))
	require.GreaterOrEqual(t, r.Variance.Y, float32(0))
	require.InDelta(t, 3.5, r.Centroid.X, 1e-4)
	require.InDelta(t, 3.5, r.Centroid.Y, 1e-4)
}

func TestRegionAngle(t *testing.T) {
	require.InDelta(t, 0, vectorAngle(grid.VecF{X: 4}), 1e-4)
	require.InDelta(t, 90, vectorAngle(grid.VecF{Y: 1}), 1e-4)
	require.InDelta(t, 180, vectorAngle(grid.VecF{X: -1}), 1e-4)
	require.InDelta(t, 270, vectorAngle(grid.VecF{Y: -3}), 1e-4)
	require.InDelta(t, 315, vectorAngle(grid.VecF{X: 1, Y: -1}), 1e-4)
	require.Equal(t, float32(0), vectorAngle(grid.VecF{}))
}

func TestRegionMinSize(t *testing.T) {
	mask := parseMask(
		"......",
		".#..##",
		"....##",
	)
	labels := grid.MustNew[int32](mask.Width, mask.Height)
	stack := []grid.Point{}
	require.Equal(t, 2, Label(mask, labels, &stack))
	vectors := grid.MustNew[grid.Vec](mask.Width, mask.Height)
	geom := Geometry{Cols: mask.Width, Rows: mask.Height, CellWidth: 16, CellHeight: 16}
	regions := NewRegionAggregator(1).Aggregate(labels, vectors, &geom, 2, nil)
	require.Equal(t, 1, len(regions))
	require.Equal(t, 4, regions[0].Size)
	require.Equal(t, int32(2), regions[0].Label)
	// Zero vectors everywhere mustn't produce NaN
	require.Equal(t, float32(0), regions[0].Uniformity)
	require.Equal(t, float32(0), regions[0].Magnitude)
	// The dropped region's cell is gone from the label grid
	require.Equal(t, int32(0), labels.At(1, 1))
	require.Equal(t, int32(2), labels.At(2, 5))
}
