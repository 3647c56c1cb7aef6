package motion

import (
	"fmt"

	"github.com/cyclopcam/motionwatch/pkg/grid"
)

const MacroblockSize = 16

// Pixels per cell, per axis, in subblock granularity
const SubblockSize = 4

// Geometry maps between video pixels and grid cells
type Geometry struct {
	VideoWidth  int `json:"videoWidth"`
	VideoHeight int `json:"videoHeight"`
	BlocksX     int `json:"blocksX"`    // Macroblocks across
	BlocksY     int `json:"blocksY"`    // Macroblocks down
	Cols        int `json:"cols"`       // Grid width in cells
	Rows        int `json:"rows"`       // Grid height in cells
	CellWidth   int `json:"cellWidth"`  // Pixels per cell, horizontally
	CellHeight  int `json:"cellHeight"` // Pixels per cell, vertically
}

// NewGeometry derives the grid layout for a video of the given size.
// Grids that exceed grid.MaxSide are rejected rather than clipped.
func NewGeometry(cfg *Config, videoWidth, videoHeight int) (Geometry, error) {
	if videoWidth < 1 || videoHeight < 1 {
		return Geometry{}, fmt.Errorf("%w: invalid video size %v x %v", ErrBadConfig, videoWidth, videoHeight)
	}
	g := Geometry{
		VideoWidth:  videoWidth,
		VideoHeight: videoHeight,
		BlocksX:     (videoWidth + MacroblockSize - 1) / MacroblockSize,
		BlocksY:     (videoHeight + MacroblockSize - 1) / MacroblockSize,
	}
	switch cfg.Granularity {
	case GranularitySubblock:
		g.CellWidth = SubblockSize
		g.CellHeight = SubblockSize
		g.Cols = g.BlocksX * MacroblockSize / SubblockSize
		g.Rows = g.BlocksY * MacroblockSize / SubblockSize
	case GranularityMacroblock:
		g.CellWidth = MacroblockSize
		g.CellHeight = MacroblockSize
		g.Cols = g.BlocksX
		g.Rows = g.BlocksY
	case GranularitySectors:
		if cfg.Sectors > g.BlocksX || cfg.Sectors > g.BlocksY {
			return Geometry{}, fmt.Errorf("%w: %v sectors is more than the %v x %v macroblocks in the video", ErrBadConfig, cfg.Sectors, g.BlocksX, g.BlocksY)
		}
		g.CellWidth = MacroblockSize * (g.BlocksX / cfg.Sectors)
		g.CellHeight = MacroblockSize * (g.BlocksY / cfg.Sectors)
		g.Cols = cfg.Sectors
		g.Rows = cfg.Sectors
	default:
		return Geometry{}, fmt.Errorf("%w: unknown granularity '%v'", ErrBadConfig, cfg.Granularity)
	}
	if err := grid.CheckSize(g.Cols, g.Rows); err != nil {
		return Geometry{}, fmt.Errorf("Motion grid for %v x %v video: %w", videoWidth, videoHeight, err)
	}
	return g, nil
}

// CellCenter returns the pixel position of the center of a (fractional) cell coordinate
func (g *Geometry) CellCenter(c grid.VecF) grid.VecF {
	return grid.VecF{
		X: (c.X + 0.5) * float32(g.CellWidth),
		Y: (c.Y + 0.5) * float32(g.CellHeight),
	}
}

// CellRect returns the pixels covered by a rectangle of cells
func (g *Geometry) CellRect(r grid.Rect) grid.Rect {
	return r.Scale(g.CellWidth, g.CellHeight)
}

// GridRect is the rectangle of all cells
func (g *Geometry) GridRect() grid.Rect {
	return grid.Rect{MinX: 0, MinY: 0, MaxX: g.Cols - 1, MaxY: g.Rows - 1}
}
