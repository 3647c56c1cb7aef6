// Package mvrender draws detector results for humans to look at
package mvrender

import (
	"bufio"
	"fmt"
	"io"

	"github.com/cyclopcam/motionwatch/pkg/motion"
)

// TierGlyph is the console character for a tier
func TierGlyph(t motion.Tier) byte {
	switch t {
	case motion.TierUnknown:
		return '?'
	case motion.TierStrong:
		return '0'
	case -motion.TierStrong:
		return '.'
	case motion.TierSingle:
		return 'o'
	case -motion.TierSingle:
		return ','
	case motion.TierProject:
		return '8'
	case -motion.TierProject:
		return '_'
	case motion.TierSpatial:
		return '#'
	case -motion.TierSpatial:
		return '"'
	}
	return '!'
}

// WriteTierMap writes one line per grid row, with each cell as a glyph followed by a space
func WriteTierMap(w io.Writer, res *motion.FrameResult) error {
	b := bufio.NewWriter(w)
	fmt.Fprintf(b, "==== Frame %v (%v) ====\n", res.FrameNumber, res.FrameType)
	tiers := res.Tiers
	for row := 0; row < tiers.Height; row++ {
		for col := 0; col < tiers.Width; col++ {
			b.WriteByte(TierGlyph(tiers.At(row, col)))
			b.WriteByte(' ')
		}
		b.WriteByte('\n')
	}
	return b.Flush()
}

// WriteRegionSummary writes one line per region, followed by one line per live tracker
func WriteRegionSummary(w io.Writer, res *motion.FrameResult) error {
	b := bufio.NewWriter(w)
	fmt.Fprintf(b, "---- Regions ----\n")
	for i := range res.Regions {
		r := &res.Regions[i]
		fmt.Fprintf(b, "ID: %10d  Size: %5d  Center: (%5.2f %5.2f)  Mag/Angle: %6.2f %6.2f  Nonuniformity: %3.2f",
			r.ID, r.Size, r.CentroidPx.X, r.CentroidPx.Y, r.Magnitude, r.Angle, r.Uniformity)
		if r.Tracked {
			fmt.Fprintf(b, "  Track: %v (%v)", r.TrackID, r.Appearances)
		}
		b.WriteByte('\n')
	}
	if len(res.Tracked) != 0 {
		fmt.Fprintf(b, "---- Trackers ----\n")
		for i := range res.Tracked {
			o := &res.Tracked[i]
			fmt.Fprintf(b, "Track: %5d  Status: %-12v  Center: (%5.2f %5.2f)  Direction: (%5.2f %5.2f)  IoU: %4.2f  Hits: %v  Lifetime: %v\n",
				o.ID, o.Status, o.Center.X, o.Center.Y, o.Direction.X, o.Direction.Y, o.IoU, o.Hits, o.Lifetime)
		}
	}
	return b.Flush()
}
