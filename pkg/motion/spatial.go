package motion

import (
	"github.com/cyclopcam/motionwatch/pkg/grid"
)

// How far the spatial filter looks in each direction
const SpatialSearchRange = 2

var searchDirections = [4]grid.Point{
	{X: 0, Y: 1},  // down
	{X: 0, Y: -1}, // up
	{X: 1, Y: 0},  // right
	{X: -1, Y: 0}, // left
}

// SpatialFilter resolves every unknown cell by looking for the nearest classified
// cell in each of the four axis directions. Each neighbour found votes +1/distance
// (foreground) or -1/distance (background), and the votes are averaged.
// Votes are read from a snapshot of tiers, so cells resolved here do not vote.
// A cell with no votes, or a tied vote, is decided by unresolved.
func SpatialFilter(tiers, snapshot *grid.Grid[Tier], unresolved Unresolved) {
	snapshot.CopyFrom(tiers)
	for row := 0; row < tiers.Height; row++ {
		for col := 0; col < tiers.Width; col++ {
			if snapshot.Cells[snapshot.Index(row, col)] != TierUnknown {
				continue
			}
			score := float32(0)
			found := 0
			for _, d := range searchDirections {
				for dist := 1; dist <= SpatialSearchRange; dist++ {
					r := row + d.Y*dist
					c := col + d.X*dist
					if !snapshot.InBounds(r, c) {
						break
					}
					t := snapshot.Cells[snapshot.Index(r, c)]
					if t == TierUnknown {
						continue
					}
					if t > 0 {
						score += 1 / float32(dist)
					} else {
						score -= 1 / float32(dist)
					}
					found++
					break
				}
			}
			if found != 0 {
				score /= float32(found)
			}
			result := TierUnknown
			switch {
			case score > 0:
				result = TierSpatial
			case score < 0:
				result = -TierSpatial
			case unresolved == UnresolvedForeground:
				result = TierSpatial
			case unresolved == UnresolvedBackground:
				result = -TierSpatial
			}
			tiers.Cells[tiers.Index(row, col)] = result
		}
	}
}
