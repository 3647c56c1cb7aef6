package motion

import (
	"fmt"
	"slices"

	"github.com/bmharper/flatbush-go"
	"github.com/bmharper/ringbuffer"
	"github.com/cyclopcam/logs"
	"github.com/cyclopcam/motionwatch/pkg/grid"
	"github.com/cyclopcam/motionwatch/pkg/idgen"
)

// Status is a set of bit flags, although in practice only one is set at a time
type Status uint8

const (
	StatusNone       Status = 0
	StatusIntoFrame  Status = 1
	StatusOutOfFrame Status = 2
	StatusOcclusion  Status = 4
	StatusTracking   Status = 8
	StatusLost       Status = 16
)

func (s Status) String() string {
	switch s {
	case StatusNone:
		return "none"
	case StatusIntoFrame:
		return "into-frame"
	case StatusOutOfFrame:
		return "out-of-frame"
	case StatusOcclusion:
		return "occlusion"
	case StatusTracking:
		return "tracking"
	case StatusLost:
		return "lost"
	}
	return "mixed"
}

func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *Status) UnmarshalText(b []byte) error {
	for _, v := range []Status{StatusNone, StatusIntoFrame, StatusOutOfFrame, StatusOcclusion, StatusTracking, StatusLost} {
		if v.String() == string(b) {
			*s = v
			return nil
		}
	}
	return fmt.Errorf("Unknown tracker status '%v'", string(b))
}

// Must be a power of 2
const trajectoryHistorySize = 16

type TrackPoint struct {
	Frame  int       `json:"frame"`
	Center grid.VecF `json:"center"`
}

// TrackedObject is a snapshot of an object that persists across frames.
// All coordinates are in cells.
type TrackedObject struct {
	ID              uint32       `json:"id"`
	Status          Status       `json:"status"`
	Center          grid.VecF    `json:"center"`
	Bounds          grid.Rect    `json:"bounds"`
	Direction       grid.VecF    `json:"direction"` // Cells per frame
	CandidateID     uint32       `json:"candidateID"`
	CandidateLabel  int32        `json:"candidateLabel"`
	CandidateCenter grid.VecF    `json:"candidateCenter"`
	CandidateBounds grid.Rect    `json:"candidateBounds"`
	IoU             float32      `json:"iou"` // Best IoU of the most recent association
	Lifetime        int          `json:"lifetime"`
	FirstFrame      int          `json:"firstFrame"`
	LastFrame       int          `json:"lastFrame"` // Last frame in which we were matched
	Hits            int          `json:"hits"`      // Number of frames in which we were matched, including the one that spawned us
	Trajectory      []TrackPoint `json:"trajectory,omitempty"`
}

// Predicted returns our bounding box shifted by our direction
func (o *TrackedObject) Predicted() grid.Rect {
	shift := o.Direction.Round()
	return o.Bounds.Offset(shift.X, shift.Y)
}

type trackedObject struct {
	TrackedObject
	history ringbuffer.RingP[TrackPoint]
}

func (t *trackedObject) snapshot() TrackedObject {
	s := t.TrackedObject
	s.Trajectory = make([]TrackPoint, 0, t.history.Len())
	for i := 0; i < t.history.Len(); i++ {
		s.Trajectory = append(s.Trajectory, t.history.Peek(i))
	}
	return s
}

type candidatePair struct {
	object int
	region int
	iou    float32
}

// Tracker associates regions across frames
type Tracker struct {
	Log logs.Log

	lifetime  int
	threshold float32
	keepLost  bool
	geom      Geometry
	ids       idgen.Uint32
	objects   []*trackedObject
	pairs     []candidatePair
	nearby    []int
}

func NewTracker(log logs.Log, cfg *Config, geom Geometry) *Tracker {
	return &Tracker{
		Log:       log,
		lifetime:  cfg.TrackerLifetime,
		threshold: cfg.IoUThreshold,
		keepLost:  cfg.KeepLost,
		geom:      geom,
	}
}

// CellIoU measures the overlap between a predicted box and the cells of a region.
// Only cells inside the union of the two bounding boxes can contribute.
func CellIoU(predicted grid.Rect, region *Region, labels *grid.Grid[int32]) float32 {
	window := predicted.Union(region.Bounds)
	inter := 0
	union := 0
	for y := window.MinY; y <= window.MaxY; y++ {
		for x := window.MinX; x <= window.MaxX; x++ {
			inBox := predicted.Contains(x, y)
			inRegion := labels.At(y, x) == region.Label
			if inBox && inRegion {
				inter++
			}
			if inBox || inRegion {
				union++
			}
		}
	}
	if union == 0 {
		return 0
	}
	return float32(inter) / float32(union)
}

// Update runs one frame of tracking.
// previous holds the regions of frame prevFrame, the frame before this one (nil if there was none),
// and current/labels are the regions and label grid of this frame.
// Regions in both slices are modified to record which tracker claimed them.
func (t *Tracker) Update(frame, prevFrame int, previous []Region, current []Region, labels *grid.Grid[int32]) {
	t.predict()
	t.spawn(prevFrame, previous)
	t.associate(current, labels)
	t.commit(frame, current)
}

func (t *Tracker) predict() {
	gridRect := t.geom.GridRect()
	remain := t.objects[:0]
	for _, o := range t.objects {
		if o.Status&(StatusLost|StatusOcclusion) != 0 {
			newCenter := o.Center.Add(o.Direction)
			shift := newCenter.Round()
			old := o.Center.Round()
			o.Bounds = o.Bounds.Offset(shift.X-old.X, shift.Y-old.Y)
			o.Center = newCenter
			if !o.Bounds.Intersects(gridRect) {
				o.Status = StatusOutOfFrame
				o.Lifetime = 0
			}
		} else if o.CandidateID != 0 {
			o.Direction = o.CandidateCenter.Sub(o.Center)
			o.Center = o.CandidateCenter
			o.Bounds = o.CandidateBounds
		}
		o.CandidateID = 0
		o.CandidateLabel = 0
		o.CandidateCenter = grid.VecF{}
		o.CandidateBounds = grid.Rect{}
		o.Lifetime--
		if o.Lifetime > 0 {
			remain = append(remain, o)
		} else {
			t.Log.Debugf("Tracker %v expired (%v)", o.ID, o.Status)
		}
	}
	clear(t.objects[len(remain):])
	t.objects = remain
}

func (t *Tracker) spawn(frame int, previous []Region) {
	cw := float32(t.geom.CellWidth)
	ch := float32(t.geom.CellHeight)
	for i := range previous {
		r := &previous[i]
		if r.Tracked {
			continue
		}
		o := &trackedObject{
			TrackedObject: TrackedObject{
				ID:     t.ids.Next(),
				Status: StatusNone,
				Center: r.Centroid,
				Bounds: r.Bounds,
				// Displacement points back to where the block came from, so motion is the opposite
				Direction:  grid.VecF{X: -r.Direction.X / cw, Y: -r.Direction.Y / ch},
				Lifetime:   t.lifetime,
				FirstFrame: frame,
				LastFrame:  frame,
				Hits:       1,
			},
			history: ringbuffer.NewRingP[TrackPoint](trajectoryHistorySize),
		}
		o.history.Add(TrackPoint{Frame: frame, Center: r.Centroid})
		r.Tracked = true
		r.TrackID = o.ID
		r.Appearances = 1
		t.objects = append(t.objects, o)
		t.Log.Debugf("Tracker %v spawned from region %v (size %v) at %.1f,%.1f", o.ID, r.ID, r.Size, r.Centroid.X, r.Centroid.Y)
	}
}

func (t *Tracker) associate(current []Region, labels *grid.Grid[int32]) {
	t.pairs = t.pairs[:0]
	for _, o := range t.objects {
		o.IoU = 0
	}
	if len(current) == 0 || len(t.objects) == 0 {
		return
	}

	fb := flatbush.NewFlatbush[int32]()
	fb.Reserve(len(current))
	for i := range current {
		b := current[i].Bounds
		fb.Add(int32(b.MinX), int32(b.MinY), int32(b.MaxX), int32(b.MaxY))
	}
	fb.Finish()

	for i, o := range t.objects {
		p := o.Predicted()
		t.nearby = fb.SearchFast(int32(p.MinX), int32(p.MinY), int32(p.MaxX), int32(p.MaxY), t.nearby[:0])
		for _, j := range t.nearby {
			iou := CellIoU(p, &current[j], labels)
			if iou > o.IoU {
				o.IoU = iou
			}
			if iou > 0 {
				t.pairs = append(t.pairs, candidatePair{object: i, region: j, iou: iou})
			}
		}
	}

	// Best pairs first. Ties go to the older tracker, then the earlier region.
	slices.SortStableFunc(t.pairs, func(a, b candidatePair) int {
		if a.iou > b.iou {
			return -1
		} else if a.iou < b.iou {
			return 1
		}
		return 0
	})
}

func (t *Tracker) commit(frame int, current []Region) {
	matched := make([]bool, len(t.objects))
	blocked := make([]bool, len(t.objects))
	taken := make([]bool, len(current))
	regionOf := make([]int, len(t.objects))
	for _, p := range t.pairs {
		if p.iou <= t.threshold {
			break
		}
		if matched[p.object] {
			continue
		}
		if taken[p.region] {
			blocked[p.object] = true
			continue
		}
		matched[p.object] = true
		taken[p.region] = true
		regionOf[p.object] = p.region
		o := t.objects[p.object]
		r := &current[p.region]
		o.CandidateID = r.ID
		o.CandidateLabel = r.Label
		o.CandidateCenter = r.Centroid
		o.CandidateBounds = r.Bounds
		o.IoU = p.iou
	}

	remain := t.objects[:0]
	for i, o := range t.objects {
		if matched[i] {
			o.Lifetime = t.lifetime
			o.Hits++
			o.LastFrame = frame
			switch o.Status {
			case StatusNone:
				o.Status = StatusIntoFrame
			default:
				o.Status = StatusTracking
			}
			o.history.Add(TrackPoint{Frame: frame, Center: o.CandidateCenter})
			r := &current[regionOf[i]]
			r.Tracked = true
			r.TrackID = o.ID
			r.Appearances = o.Hits
			remain = append(remain, o)
		} else if t.keepLost {
			if blocked[i] {
				o.Status = StatusOcclusion
			} else {
				o.Status = StatusLost
			}
			remain = append(remain, o)
		} else {
			t.Log.Debugf("Tracker %v dropped (best IoU %.2f)", o.ID, o.IoU)
		}
	}
	clear(t.objects[len(remain):])
	t.objects = remain
}

// Objects returns a snapshot of the live trackers
func (t *Tracker) Objects() []TrackedObject {
	out := make([]TrackedObject, 0, len(t.objects))
	for _, o := range t.objects {
		out = append(out, o.snapshot())
	}
	return out
}

// Len returns the number of live trackers
func (t *Tracker) Len() int {
	return len(t.objects)
}
