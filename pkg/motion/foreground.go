package motion

import (
	"github.com/cyclopcam/motionwatch/pkg/grid"
)

// ClassifierInput is the set of per-cell measurements used to decide foreground vs background
type ClassifierInput struct {
	Magnitude   *grid.Grid[float32]   // |current vector|
	SimBW       *grid.Grid[float32]   // current vs projection from the next frame
	SimFW       *grid.Grid[float32]   // current vs projection from the previous frame
	SimBWFW     *grid.Grid[float32]   // the two projections vs each other
	FWProjected *grid.Grid[grid.VecF] // projection from the previous frame
}

// ClassifyCell applies the decision cascade to one cell. The first matching rule wins.
func ClassifyCell(magnitude, simBW, simFW, simBWFW, fwProjectedLen, alpha, beta float32) Tier {
	bw := simBW > alpha
	fw := simFW > alpha
	switch {
	case bw && fw:
		if magnitude > beta {
			return TierStrong
		}
		return -TierStrong
	case bw || fw:
		s := max(simBW, simFW)
		if magnitude*s*s > beta {
			return TierSingle
		}
		return -TierSingle
	case simBWFW > alpha:
		if simBWFW*simBWFW*fwProjectedLen > beta {
			return TierProject
		}
		return -TierProject
	}
	return TierUnknown
}

func ClassifyForeground(in *ClassifierInput, alpha, beta float32, out *grid.Grid[Tier]) {
	for i := range out.Cells {
		out.Cells[i] = ClassifyCell(in.Magnitude.Cells[i], in.SimBW.Cells[i], in.SimFW.Cells[i], in.SimBWFW.Cells[i], in.FWProjected.Cells[i].Len(), alpha, beta)
	}
}
