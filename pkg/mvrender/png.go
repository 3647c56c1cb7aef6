package mvrender

import (
	"fmt"
	"io"

	"github.com/cyclopcam/motionwatch/pkg/motion"
	"github.com/fogleman/gg"
)

type rgb struct {
	r, g, b float64
}

// Foreground tiers are warm and background tiers are cool
var tierColors = map[motion.Tier]rgb{
	motion.TierUnknown:  {0.5, 0.5, 0.5},
	motion.TierStrong:   {1, 0.2, 0.1},
	motion.TierSingle:   {1, 0.5, 0.1},
	motion.TierProject:  {0.9, 0.8, 0.1},
	motion.TierSpatial:  {0.7, 0.6, 0.3},
	-motion.TierStrong:  {0.05, 0.05, 0.15},
	-motion.TierSingle:  {0.1, 0.1, 0.3},
	-motion.TierProject: {0.1, 0.2, 0.4},
	-motion.TierSpatial: {0.2, 0.3, 0.4},
}

// Draw renders a snapshot of res. scale is pixels per cell.
func Draw(res *motion.FrameResult, scale int) *gg.Context {
	if scale < 1 {
		scale = 1
	}
	tiers := res.Tiers
	s := float64(scale)
	dc := gg.NewContext(tiers.Width*scale, tiers.Height*scale)
	dc.SetRGB(0, 0, 0)
	dc.Clear()

	for row := 0; row < tiers.Height; row++ {
		for col := 0; col < tiers.Width; col++ {
			c := tierColors[tiers.At(row, col)]
			if res.Labels.At(row, col) != 0 {
				// Cells that survived morphology are brighter
				c = rgb{min(c.r*1.3, 1), min(c.g*1.3, 1), min(c.b*1.3, 1)}
			}
			dc.SetRGB(c.r, c.g, c.b)
			dc.DrawRectangle(float64(col)*s, float64(row)*s, s, s)
			dc.Fill()
		}
	}

	dc.SetLineWidth(max(1, s/8))
	for i := range res.Regions {
		r := &res.Regions[i]
		b := r.Bounds
		dc.SetRGB(1, 1, 1)
		dc.DrawRectangle(float64(b.MinX)*s, float64(b.MinY)*s, float64(b.Width())*s, float64(b.Height())*s)
		dc.Stroke()
	}

	for i := range res.Tracked {
		o := &res.Tracked[i]
		dc.SetRGB(0.2, 1, 0.3)
		for j := 1; j < len(o.Trajectory); j++ {
			a := o.Trajectory[j-1].Center
			b := o.Trajectory[j].Center
			dc.DrawLine((float64(a.X)+0.5)*s, (float64(a.Y)+0.5)*s, (float64(b.X)+0.5)*s, (float64(b.Y)+0.5)*s)
			dc.Stroke()
		}
		cx := (float64(o.Center.X) + 0.5) * s
		cy := (float64(o.Center.Y) + 0.5) * s
		dc.DrawStringAnchored(fmt.Sprintf("%v", o.ID), cx, cy, 0.5, 0.5)
	}
	return dc
}

// RenderPNG draws res and saves it to filename
func RenderPNG(res *motion.FrameResult, scale int, filename string) error {
	if err := Draw(res, scale).SavePNG(filename); err != nil {
		return fmt.Errorf("Failed to save %v: %w", filename, err)
	}
	return nil
}

// EncodePNG draws res and writes it to w
func EncodePNG(w io.Writer, res *motion.FrameResult, scale int) error {
	return Draw(res, scale).EncodePNG(w)
}
