package motion

import (
	"fmt"
	"strings"
)

type FrameType int

const (
	FrameI FrameType = iota
	FrameP
	FrameB
)

func (t FrameType) String() string {
	switch t {
	case FrameI:
		return "I"
	case FrameP:
		return "P"
	case FrameB:
		return "B"
	}
	return "?"
}

func ParseFrameType(s string) (FrameType, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "I":
		return FrameI, nil
	case "P":
		return FrameP, nil
	case "B":
		return FrameB, nil
	}
	return FrameI, fmt.Errorf("Unknown frame type '%v'", s)
}

func (t FrameType) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

func (t *FrameType) UnmarshalText(b []byte) error {
	v, err := ParseFrameType(string(b))
	if err != nil {
		return err
	}
	*t = v
	return nil
}

// Accepts returns true if a vector with the given reference direction contributes to this frame.
// P-frames only reference the past. B-frames reference both directions.
func (t FrameType) Accepts(source int) bool {
	switch t {
	case FrameP:
		return source < 0
	case FrameB:
		return source != 0
	}
	return false
}

// MotionVector is one decoder-reported block displacement.
// Dst is the top-left corner of the block in the current frame,
// and Src is where the block came from in the reference frame.
type MotionVector struct {
	SrcX   int `json:"srcX"`
	SrcY   int `json:"srcY"`
	DstX   int `json:"dstX"`
	DstY   int `json:"dstY"`
	Width  int `json:"width"`
	Height int `json:"height"`
	Source int `json:"source"` // Negative = past reference, positive = future reference
}

// The block shapes that a codec can hand us
func isSupportedBlockSide(s int) bool {
	return s == 4 || s == 8 || s == 16
}

// Frame is the motion vector payload of one decoded frame
type Frame struct {
	Number  int            `json:"number"`
	Type    FrameType      `json:"type"`
	Vectors []MotionVector `json:"vectors"`
}

// Tier is a foreground/background classification.
// Positive is foreground, negative is background, and the magnitude says which rule made the decision.
// Zero means we have not decided.
type Tier int8

const (
	TierUnknown Tier = 0
	TierStrong  Tier = 1 // Consistent with both neighbouring frames
	TierSingle  Tier = 2 // Consistent with one neighbouring frame
	TierProject Tier = 3 // The two projections agree with each other
	TierSpatial Tier = 4 // Decided by neighbouring cells
)

func (t Tier) IsForeground() bool {
	return t > 0
}
