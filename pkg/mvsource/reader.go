// Package mvsource reads motion vectors that were dumped by ffmpeg's extract_mvs example
package mvsource

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/cyclopcam/motionwatch/pkg/motion"
)

var ErrBadHeader = errors.New("Invalid motion vector CSV header")

// Columns that must be present
var requiredColumns = []string{"framenum", "source", "blockw", "blockh", "srcx", "srcy", "dstx", "dsty"}

// Optional column that carries the picture type (I, P, or B)
const pictTypeColumn = "pict_type"

type columnMap struct {
	frame, source, blockW, blockH, srcX, srcY, dstX, dstY int
	pictType                                              int // -1 if absent
}

func parseHeader(header []string) (columnMap, error) {
	index := map[string]int{}
	for i, h := range header {
		index[strings.ToLower(strings.TrimSpace(h))] = i
	}
	var missing []string
	for _, c := range requiredColumns {
		if _, ok := index[c]; !ok {
			missing = append(missing, c)
		}
	}
	if len(missing) != 0 {
		return columnMap{}, fmt.Errorf("%w: missing columns %v", ErrBadHeader, strings.Join(missing, ", "))
	}
	m := columnMap{
		frame:    index["framenum"],
		source:   index["source"],
		blockW:   index["blockw"],
		blockH:   index["blockh"],
		srcX:     index["srcx"],
		srcY:     index["srcy"],
		dstX:     index["dstx"],
		dstY:     index["dsty"],
		pictType: -1,
	}
	if i, ok := index[pictTypeColumn]; ok {
		m.pictType = i
	}
	return m, nil
}

type row struct {
	frame    int
	pictType string
	mv       motion.MotionVector
}

// Reader turns a CSV stream into frames.
// Rows must be grouped by frame number, in ascending order.
// Frame numbers that have no rows (typically I-frames, which carry no motion)
// are emitted as I-frames without vectors, so the caller sees every frame.
type Reader struct {
	csv     *csv.Reader
	cols    columnMap
	line    int
	pending *row // First row of the next frame, already read
	next    int  // Number of the next frame to emit
	started bool
	eof     bool
	closer  io.Closer
}

// NewReader reads the header row, and returns a reader positioned at the first vector
func NewReader(r io.Reader) (*Reader, error) {
	c := csv.NewReader(r)
	c.ReuseRecord = true
	c.FieldsPerRecord = -1
	c.TrimLeadingSpace = true
	header, err := c.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("%w: file is empty", ErrBadHeader)
	} else if err != nil {
		return nil, fmt.Errorf("Failed to read motion vector CSV header: %w", err)
	}
	cols, err := parseHeader(header)
	if err != nil {
		return nil, err
	}
	return &Reader{
		csv:  c,
		cols: cols,
		line: 1,
	}, nil
}

// Open opens a CSV file. Close the reader when done.
func Open(filename string) (*Reader, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	r, err := NewReader(f)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("Failed to read %v: %w", filename, err)
	}
	r.closer = f
	return r, nil
}

func (r *Reader) Close() error {
	if r.closer != nil {
		return r.closer.Close()
	}
	return nil
}

// Line returns the number of CSV lines consumed so far, including the header
func (r *Reader) Line() int {
	return r.line
}

func (r *Reader) readRow() (*row, error) {
	rec, err := r.csv.Read()
	if err != nil {
		return nil, err
	}
	r.line++
	field := func(i int) string {
		if i < len(rec) {
			return rec[i]
		}
		return ""
	}
	out := &row{}
	parse := func(name string, col int, dst *int) error {
		v, err := strconv.Atoi(strings.TrimSpace(field(col)))
		if err != nil {
			return fmt.Errorf("Line %v: invalid %v '%v'", r.line, name, field(col))
		}
		*dst = v
		return nil
	}
	c := &r.cols
	var dstX, dstY, srcX, srcY int
	for _, p := range []struct {
		name string
		col  int
		dst  *int
	}{
		{"framenum", c.frame, &out.frame},
		{"source", c.source, &out.mv.Source},
		{"blockw", c.blockW, &out.mv.Width},
		{"blockh", c.blockH, &out.mv.Height},
		{"srcx", c.srcX, &srcX},
		{"srcy", c.srcY, &srcY},
		{"dstx", c.dstX, &dstX},
		{"dsty", c.dstY, &dstY},
	} {
		if err := parse(p.name, p.col, p.dst); err != nil {
			return nil, err
		}
	}
	if c.pictType >= 0 {
		out.pictType = field(c.pictType)
	}
	// ffmpeg reports block centers. Convert both ends to the top-left corner.
	hw := out.mv.Width / 2
	hh := out.mv.Height / 2
	out.mv.SrcX = srcX - hw
	out.mv.SrcY = srcY - hh
	out.mv.DstX = dstX - hw
	out.mv.DstY = dstY - hh
	return out, nil
}

// Next returns the next frame, or io.EOF when the stream is exhausted
func (r *Reader) Next() (*motion.Frame, error) {
	if r.pending == nil && !r.eof {
		p, err := r.readRow()
		if err == io.EOF {
			r.eof = true
		} else if err != nil {
			return nil, err
		} else {
			r.pending = p
		}
	}
	if r.pending == nil {
		return nil, io.EOF
	}
	if !r.started {
		// ffmpeg numbers frames from 1, and frame 1 is normally an I-frame with no vectors
		r.next = min(r.pending.frame, 1)
		r.started = true
	}
	if r.pending.frame < r.next {
		return nil, fmt.Errorf("Line %v: frame %v is out of order (expected %v or later)", r.line, r.pending.frame, r.next)
	}

	number := r.next
	r.next++
	if r.pending.frame > number {
		return &motion.Frame{Number: number, Type: motion.FrameI}, nil
	}

	frame := &motion.Frame{Number: number}
	pictType := r.pending.pictType
	frame.Vectors = append(frame.Vectors, r.pending.mv)
	r.pending = nil
	for {
		p, err := r.readRow()
		if err == io.EOF {
			r.eof = true
			break
		} else if err != nil {
			return nil, err
		}
		if p.frame != number {
			r.pending = p
			break
		}
		frame.Vectors = append(frame.Vectors, p.mv)
	}

	if pictType != "" {
		t, err := motion.ParseFrameType(pictType)
		if err != nil {
			return nil, fmt.Errorf("Frame %v: %w", number, err)
		}
		frame.Type = t
	} else {
		frame.Type = motion.FrameP
		for i := range frame.Vectors {
			if frame.Vectors[i].Source > 0 {
				frame.Type = motion.FrameB
				break
			}
		}
	}
	return frame, nil
}

// ReadAll reads every frame of the stream
func ReadAll(r io.Reader) ([]*motion.Frame, error) {
	rd, err := NewReader(r)
	if err != nil {
		return nil, err
	}
	frames := []*motion.Frame{}
	for {
		f, err := rd.Next()
		if err == io.EOF {
			return frames, nil
		} else if err != nil {
			return nil, err
		}
		frames = append(frames, f)
	}
}
