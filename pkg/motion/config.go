package motion

import (
	"errors"
	"fmt"

	"github.com/cyclopcam/motionwatch/pkg/grid"
)

var ErrBadConfig = errors.New("Invalid motion config")

// Granularity controls how many pixels are covered by one grid cell
type Granularity string

const (
	GranularitySubblock   Granularity = "subblock"   // 4x4 pixel cells, so 4x4 cells per macroblock
	GranularityMacroblock Granularity = "macroblock" // One cell per 16x16 macroblock
	GranularitySectors    Granularity = "sectors"    // Frame is split into Sectors x Sectors cells
)

// Unresolved decides what the spatial filter does with a cell that has no votes, or a tied vote
type Unresolved string

const (
	UnresolvedForeground Unresolved = "foreground"
	UnresolvedBackground Unresolved = "background" // What the old C tool did
	UnresolvedUnknown    Unresolved = "unknown"
)

// Element is the structuring element used for erosion and dilation
type Element string

const (
	ElementCross  Element = "cross"  // 4-connected
	ElementSquare Element = "square" // 8-connected
)

type Config struct {
	Granularity     Granularity `json:"granularity" yaml:"granularity"`         // subblock, macroblock, or sectors
	Sectors         int         `json:"sectors" yaml:"sectors"`                 // Cells per axis when Granularity = sectors
	Element         Element     `json:"element" yaml:"element"`                 // cross or square
	Alpha           float32     `json:"alpha" yaml:"alpha"`                     // Similarity threshold (0..1)
	Beta            float32     `json:"beta" yaml:"beta"`                       // Magnitude threshold, in pixels
	MinRegionSize   int         `json:"minRegionSize" yaml:"minRegionSize"`     // Regions with fewer cells than this are discarded
	IoUThreshold    float32     `json:"iouThreshold" yaml:"iouThreshold"`       // A tracker needs IoU above this to match a region
	TrackerLifetime int         `json:"trackerLifetime" yaml:"trackerLifetime"` // Frames a tracker survives without a match
	Unresolved      Unresolved  `json:"unresolved" yaml:"unresolved"`           // foreground, background, or unknown
	KeepLost        bool        `json:"keepLost" yaml:"keepLost"`               // Unmatched trackers coast as LOST until their lifetime runs out, instead of being dropped
	SkipIntraFrames bool        `json:"skipIntraFrames" yaml:"skipIntraFrames"` // Don't feed I-frames through the pipeline
	LegacyDY        bool        `json:"legacyDY" yaml:"legacyDY"`               // Compute dy as src_x - dst_y, like the old C tool did
	FlipForward     bool        `json:"flipForward" yaml:"flipForward"`         // Negate vectors with a future reference (source > 0), so they point the same way as past references
	RandomSeed      int64       `json:"randomSeed" yaml:"randomSeed"`           // Seed for region ids
}

func DefaultConfig() Config {
	return Config{
		Granularity:     GranularitySubblock,
		Element:         ElementCross,
		Alpha:           0.7,
		Beta:            4.0,
		MinRegionSize:   1,
		IoUThreshold:    0.5,
		TrackerLifetime: 3,
		Unresolved:      UnresolvedForeground,
		SkipIntraFrames: true,
	}
}

func (c *Config) Validate() error {
	switch c.Granularity {
	case GranularitySubblock, GranularityMacroblock:
	case GranularitySectors:
		if c.Sectors < 1 || c.Sectors > grid.MaxSide {
			return fmt.Errorf("%w: sectors must be between 1 and %v (got %v)", ErrBadConfig, grid.MaxSide, c.Sectors)
		}
	default:
		return fmt.Errorf("%w: unknown granularity '%v'", ErrBadConfig, c.Granularity)
	}
	if c.Element != ElementCross && c.Element != ElementSquare {
		return fmt.Errorf("%w: unknown structuring element '%v'", ErrBadConfig, c.Element)
	}
	switch c.Unresolved {
	case UnresolvedForeground, UnresolvedBackground, UnresolvedUnknown:
	default:
		return fmt.Errorf("%w: unknown unresolved cell policy '%v'", ErrBadConfig, c.Unresolved)
	}
	if c.Alpha <= 0 || c.Alpha > 1 {
		return fmt.Errorf("%w: alpha must be in (0,1] (got %v)", ErrBadConfig, c.Alpha)
	}
	if c.Beta < 0 {
		return fmt.Errorf("%w: beta may not be negative (got %v)", ErrBadConfig, c.Beta)
	}
	if c.MinRegionSize < 1 {
		return fmt.Errorf("%w: minRegionSize must be at least 1 (got %v)", ErrBadConfig, c.MinRegionSize)
	}
	if c.IoUThreshold < 0 || c.IoUThreshold >= 1 {
		return fmt.Errorf("%w: iouThreshold must be in [0,1) (got %v)", ErrBadConfig, c.IoUThreshold)
	}
	if c.TrackerLifetime < 1 {
		return fmt.Errorf("%w: trackerLifetime must be at least 1 (got %v)", ErrBadConfig, c.TrackerLifetime)
	}
	return nil
}
