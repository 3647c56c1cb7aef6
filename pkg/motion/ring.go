package motion

import (
	"github.com/cyclopcam/motionwatch/pkg/grid"
)

// RingSize is the number of frames we hold. Classifying a frame needs the one before and the one after it.
const RingSize = 3

type frameSlot struct {
	number    int
	frameType FrameType
	build     BuildStats
	vectors   *grid.Grid[grid.Vec]
	labels    *grid.Grid[int32]
	regions   []Region
	analyzed  bool // regions and labels are valid
}

// frameRing holds the last RingSize frames. Age 0 is the newest.
type frameRing struct {
	slots [RingSize]*frameSlot
	head  int // index of the newest slot
	count int // number of slots that have been written, up to RingSize
}

func newFrameRing(cols, rows int) *frameRing {
	r := &frameRing{
		head: RingSize - 1,
	}
	for i := range r.slots {
		r.slots[i] = &frameSlot{
			vectors: grid.MustNew[grid.Vec](cols, rows),
			labels:  grid.MustNew[int32](cols, rows),
		}
	}
	return r
}

// advance recycles the oldest slot and makes it the newest.
func (r *frameRing) advance(number int, frameType FrameType) *frameSlot {
	s := r.oldest()
	r.head = (r.head + 1) % RingSize
	if r.count < RingSize {
		r.count++
	}
	s.number = number
	s.frameType = frameType
	s.build = BuildStats{}
	s.regions = s.regions[:0]
	s.analyzed = false
	s.labels.Reset()
	return s
}

// at returns the slot that was written 'age' advances ago
func (r *frameRing) at(age int) *frameSlot {
	return r.slots[((r.head-age)%RingSize+RingSize)%RingSize]
}

// full is true once every slot holds a frame
func (r *frameRing) full() bool {
	return r.count == RingSize
}

// next is the newest frame, which is the future from the point of view of current
func (r *frameRing) next() *frameSlot {
	return r.at(0)
}

// current is the frame being classified
func (r *frameRing) current() *frameSlot {
	return r.at(1)
}

func (r *frameRing) previous() *frameSlot {
	return r.at(2)
}

// oldest is the slot that the next advance will overwrite.
// With a ring of 3 this is the same slot as previous.
func (r *frameRing) oldest() *frameSlot {
	return r.at(RingSize - 1)
}

func (r *frameRing) reset() {
	r.head = RingSize - 1
	r.count = 0
	for _, s := range r.slots {
		s.analyzed = false
		s.regions = s.regions[:0]
	}
}
