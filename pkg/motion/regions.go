package motion

import (
	"github.com/chewxy/math32"
	"github.com/cyclopcam/motionwatch/pkg/grid"
	"github.com/cyclopcam/motionwatch/pkg/idgen"
	"github.com/cyclopcam/motionwatch/pkg/stats"
)

// Region is one connected blob of foreground cells in a single frame
type Region struct {
	ID          uint32    `json:"id"`          // Random id, unique across frames
	Label       int32     `json:"label"`       // Value in the frame's label grid
	Size        int       `json:"size"`        // Number of cells
	Direction   grid.VecF `json:"direction"`   // Mean displacement, in pixels
	Angle       float32   `json:"angle"`       // Angle of Direction, in degrees [0,360)
	Magnitude   float32   `json:"magnitude"`   // Length of Direction
	Variance    grid.VecF `json:"variance"`    // Per-axis variance of the normalized cell directions
	Uniformity  float32   `json:"uniformity"`  // (Variance.X + Variance.Y) * 100. Zero means all cells point the same way.
	Centroid    grid.VecF `json:"centroid"`    // Mean cell coordinate (X = column, Y = row)
	Bounds      grid.Rect `json:"bounds"`      // Cell bounding box
	CentroidPx  grid.VecF `json:"centroidPx"`  // Pixel center of the centroid cell, (Centroid + 0.5) * cell size
	BoundsPx    grid.Rect `json:"boundsPx"`    // Bounds in video pixels
	Tracked     bool      `json:"tracked"`     // Claimed by a tracker
	TrackID     uint32    `json:"trackID"`     // ID of the tracker that claimed us (0 = none)
	Appearances int       `json:"appearances"` // Number of frames the claiming tracker has been matched

	dirStats [2]stats.Welford
}

// Angle of v in degrees, in [0,360)
func vectorAngle(v grid.VecF) float32 {
	if v.IsZero() {
		return 0
	}
	deg := math32.Atan2(v.Y, v.X) * 180 / math32.Pi
	if deg < 0 {
		deg += 360
	}
	if deg >= 360 {
		deg -= 360
	}
	return deg
}

func (r *Region) addSample(d grid.VecF) {
	n := d.Normalized()
	r.dirStats[0].Add(float64(n.X))
	r.dirStats[1].Add(float64(n.Y))
}

// RegionAggregator turns a label grid into a list of regions
type RegionAggregator struct {
	ids     *idgen.Random32
	byLabel map[int32]int // label -> index into regions
}

func NewRegionAggregator(seed int64) *RegionAggregator {
	return &RegionAggregator{
		ids:     idgen.NewRandom32(seed),
		byLabel: map[int32]int{},
	}
}

// Aggregate visits every labelled cell once, in row-major order, and accumulates
// region statistics with running averages. Regions are appended to dst in the order
// their first cell was seen. Regions smaller than minSize are dropped, and their
// cells are cleared from labels.
func (a *RegionAggregator) Aggregate(labels *grid.Grid[int32], vectors *grid.Grid[grid.Vec], geom *Geometry, minSize int, dst []Region) []Region {
	clear(a.byLabel)
	first := len(dst)
	for row := 0; row < labels.Height; row++ {
		for col := 0; col < labels.Width; col++ {
			idx := labels.Index(row, col)
			label := labels.Cells[idx]
			if label == 0 {
				continue
			}
			v := vectors.Cells[idx].Float()
			pos := grid.VecF{X: float32(col), Y: float32(row)}
			ri, ok := a.byLabel[label]
			if !ok {
				a.byLabel[label] = len(dst)
				r := Region{
					Label:     label,
					Size:      1,
					Centroid:  pos,
					Direction: v,
					Bounds:    grid.PointRect(col, row),
				}
				r.addSample(v)
				dst = append(dst, r)
				continue
			}
			r := &dst[ri]
			// Update before incrementing size
			s := float32(r.Size)
			r.Bounds = r.Bounds.Expand(col, row)
			r.Centroid = pos.Add(r.Centroid.Scale(s)).Scale(1 / (s + 1))
			r.Direction = v.Add(r.Direction.Scale(s)).Scale(1 / (s + 1))
			r.Size++
			r.addSample(v)
		}
	}

	// Finalize, and drop small regions
	out := dst[:first]
	dropped := false
	for i := first; i < len(dst); i++ {
		r := dst[i]
		if r.Size < minSize {
			dropped = true
			a.byLabel[r.Label] = -1
			continue
		}
		r.Variance = grid.VecF{
			X: float32(max(r.dirStats[0].Variance(), 0)),
			Y: float32(max(r.dirStats[1].Variance(), 0)),
		}
		r.Uniformity = (r.Variance.X + r.Variance.Y) * 100
		r.Angle = vectorAngle(r.Direction)
		r.Magnitude = r.Direction.Len()
		r.ID = a.ids.Next()
		r.CentroidPx = geom.CellCenter(r.Centroid)
		r.BoundsPx = geom.CellRect(r.Bounds)
		out = append(out, r)
	}
	if dropped {
		for i, label := range labels.Cells {
			if label != 0 && a.byLabel[label] == -1 {
				labels.Cells[i] = 0
			}
		}
	}
	return out
}
