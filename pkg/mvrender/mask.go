package mvrender

import (
	"bufio"
	"fmt"
	"io"

	"github.com/cyclopcam/motionwatch/pkg/grid"
	"github.com/cyclopcam/motionwatch/pkg/motion"
)

// Luma values of the mask video
const (
	MaskForeground = 255
	MaskBorder     = 128
	MaskBackground = 0
)

// MaskWriter writes a YUV4MPEG2 monochrome video of the foreground mask, at video resolution.
// Any player that understands y4m (ffplay, mpv) can show it, and ffmpeg can overlay it on the source.
type MaskWriter struct {
	w             *bufio.Writer
	width, height int
	fps           int
	plane         []byte
	headerWritten bool
}

func NewMaskWriter(w io.Writer, width, height, fps int) *MaskWriter {
	if fps <= 0 {
		fps = 25
	}
	return &MaskWriter{
		w:      bufio.NewWriter(w),
		width:  width,
		height: height,
		fps:    fps,
		plane:  make([]byte, width*height),
	}
}

// Render fills the luma plane for one result, without writing it
func (m *MaskWriter) Render(res *motion.FrameResult) []byte {
	clear(m.plane)
	g := res.Geometry
	labels := res.Labels
	for row := 0; row < labels.Height; row++ {
		for col := 0; col < labels.Width; col++ {
			if labels.At(row, col) == 0 {
				continue
			}
			m.fillRect(grid.Rect{MinX: col, MinY: row, MaxX: col, MaxY: row}.Scale(g.CellWidth, g.CellHeight), MaskForeground)
		}
	}
	for i := range res.Regions {
		m.strokeRect(res.Regions[i].BoundsPx, MaskBorder)
	}
	return m.plane
}

func (m *MaskWriter) fillRect(r grid.Rect, v byte) {
	r = r.Intersection(grid.Rect{MinX: 0, MinY: 0, MaxX: m.width - 1, MaxY: m.height - 1})
	for y := r.MinY; y <= r.MaxY; y++ {
		line := m.plane[y*m.width : (y+1)*m.width]
		for x := r.MinX; x <= r.MaxX; x++ {
			line[x] = v
		}
	}
}

func (m *MaskWriter) strokeRect(r grid.Rect, v byte) {
	m.fillRect(grid.Rect{MinX: r.MinX, MinY: r.MinY, MaxX: r.MaxX, MaxY: r.MinY}, v)
	m.fillRect(grid.Rect{MinX: r.MinX, MinY: r.MaxY, MaxX: r.MaxX, MaxY: r.MaxY}, v)
	m.fillRect(grid.Rect{MinX: r.MinX, MinY: r.MinY, MaxX: r.MinX, MaxY: r.MaxY}, v)
	m.fillRect(grid.Rect{MinX: r.MaxX, MinY: r.MinY, MaxX: r.MaxX, MaxY: r.MaxY}, v)
}

// WriteFrame renders res and appends it to the stream
func (m *MaskWriter) WriteFrame(res *motion.FrameResult) error {
	if !m.headerWritten {
		if _, err := fmt.Fprintf(m.w, "YUV4MPEG2 W%v H%v F%v:1 Ip A1:1 Cmono\n", m.width, m.height, m.fps); err != nil {
			return err
		}
		m.headerWritten = true
	}
	if _, err := m.w.WriteString("FRAME\n"); err != nil {
		return err
	}
	_, err := m.w.Write(m.Render(res))
	return err
}

// Flush must be called after the last frame
func (m *MaskWriter) Flush() error {
	return m.w.Flush()
}
