package motion

import (
	"fmt"
	"time"

	"github.com/cyclopcam/logs"
	"github.com/cyclopcam/motionwatch/pkg/grid"
	"github.com/cyclopcam/motionwatch/pkg/perfstats"
)

// Names of the timed stages of the pipeline
const (
	StageBuild      = "build"
	StageClassify   = "classify"
	StageMorphology = "morphology"
	StageLabel      = "label"
	StageTrack      = "track"
)

// FrameResult is the output for one classified frame.
// Everything in here is a copy, so it remains valid after further calls to Push.
type FrameResult struct {
	FrameNumber int               `json:"frameNumber"`
	FrameType   FrameType         `json:"frameType"`
	Geometry    Geometry          `json:"geometry"`
	Build       BuildStats        `json:"build"`
	Tiers       *grid.Grid[Tier]  `json:"tiers"`
	Labels      *grid.Grid[int32] `json:"labels"`
	Regions     []Region          `json:"regions"`
	Tracked     []TrackedObject   `json:"tracked"`
}

// Stats are cumulative counters for the lifetime of a Detector
type Stats struct {
	FramesIn        int               `json:"framesIn"`
	FramesSkipped   int               `json:"framesSkipped"`
	FramesAnalyzed  int               `json:"framesAnalyzed"`
	VectorsAccepted int64             `json:"vectorsAccepted"`
	VectorsIgnored  int64             `json:"vectorsIgnored"`
	VectorsRejected int64             `json:"vectorsRejected"`
	Stages          *perfstats.Stages `json:"-"`
}

// analysisContext holds every working grid needed to classify one frame.
// It is allocated once, when the stream is opened.
type analysisContext struct {
	magnitude    *grid.Grid[float32]
	bwProjected  *grid.Grid[grid.VecF]
	fwProjected  *grid.Grid[grid.VecF]
	projCount    *grid.Grid[int32]
	simBW        *grid.Grid[float32]
	simFW        *grid.Grid[float32]
	simBWFW      *grid.Grid[float32]
	tiers        *grid.Grid[Tier]
	tierSnapshot *grid.Grid[Tier]
	mask         *grid.Grid[int8]
	stack        []grid.Point
}

func newAnalysisContext(cols, rows int) *analysisContext {
	return &analysisContext{
		magnitude:    grid.MustNew[float32](cols, rows),
		bwProjected:  grid.MustNew[grid.VecF](cols, rows),
		fwProjected:  grid.MustNew[grid.VecF](cols, rows),
		projCount:    grid.MustNew[int32](cols, rows),
		simBW:        grid.MustNew[float32](cols, rows),
		simFW:        grid.MustNew[float32](cols, rows),
		simBWFW:      grid.MustNew[float32](cols, rows),
		tiers:        grid.MustNew[Tier](cols, rows),
		tierSnapshot: grid.MustNew[Tier](cols, rows),
		mask:         grid.MustNew[int8](cols, rows),
	}
}

// Detector runs the motion segmentation and tracking pipeline over a stream of frames.
// It is not safe for concurrent use.
type Detector struct {
	Log logs.Log

	cfg        Config
	geom       Geometry
	builder    *Builder
	ring       *frameRing
	ctx        *analysisContext
	morphology *Morphology
	aggregator *RegionAggregator
	tracker    *Tracker
	stats      Stats
}

// NewDetector validates cfg, derives the grid from the video size, and allocates all working memory
func NewDetector(log logs.Log, cfg Config, videoWidth, videoHeight int) (*Detector, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	geom, err := NewGeometry(&cfg, videoWidth, videoHeight)
	if err != nil {
		return nil, err
	}
	log.Infof("Motion grid is %v x %v cells of %v x %v pixels, for %v x %v video", geom.Cols, geom.Rows, geom.CellWidth, geom.CellHeight, videoWidth, videoHeight)
	d := &Detector{
		Log:        log,
		cfg:        cfg,
		geom:       geom,
		builder:    NewBuilder(geom, cfg.LegacyDY, cfg.FlipForward),
		ring:       newFrameRing(geom.Cols, geom.Rows),
		ctx:        newAnalysisContext(geom.Cols, geom.Rows),
		morphology: NewMorphology(cfg.Element, geom.Cols, geom.Rows),
		aggregator: NewRegionAggregator(cfg.RandomSeed),
		tracker:    NewTracker(log, &cfg, geom),
	}
	d.stats.Stages = perfstats.NewStages(StageBuild, StageClassify, StageMorphology, StageLabel, StageTrack)
	return d, nil
}

func (d *Detector) Config() Config {
	return d.cfg
}

func (d *Detector) Geometry() Geometry {
	return d.geom
}

func (d *Detector) Stats() Stats {
	return d.stats
}

// Trackers returns a snapshot of the live tracked objects
func (d *Detector) Trackers() []TrackedObject {
	return d.tracker.Objects()
}

// Push adds the next frame of the stream. Once three frames have been seen,
// each push classifies the frame before it, and returns the result for that frame.
// Returns nil while the pipeline is filling up, and for skipped I-frames.
func (d *Detector) Push(frame *Frame) *FrameResult {
	d.stats.FramesIn++
	if frame.Type == FrameI && d.cfg.SkipIntraFrames {
		d.stats.FramesSkipped++
		return nil
	}

	start := time.Now()
	slot := d.ring.advance(frame.Number, frame.Type)
	slot.build = d.builder.Build(frame, slot.vectors)
	d.stats.VectorsAccepted += int64(slot.build.Accepted)
	d.stats.VectorsIgnored += int64(slot.build.Ignored)
	d.stats.VectorsRejected += int64(slot.build.Rejected)
	if slot.build.Rejected != 0 {
		d.Log.Debugf("Frame %v: rejected %v malformed motion vectors", frame.Number, slot.build.Rejected)
	}
	start = d.stats.Stages.Get(StageBuild).AddSince(start)

	if !d.ring.full() {
		return nil
	}
	return d.analyze(start)
}

func (d *Detector) analyze(start time.Time) *FrameResult {
	c := d.ctx
	curr := d.ring.current()
	prev := d.ring.previous()
	next := d.ring.next()
	cw := d.geom.CellWidth
	ch := d.geom.CellHeight

	// Both neighbours are projected with the same sign.
	Magnitude(curr.vectors, c.magnitude)
	Project(next.vectors, ProjectBackward, cw, ch, c.bwProjected, c.projCount)
	Project(prev.vectors, ProjectBackward, cw, ch, c.fwProjected, c.projCount)
	Similarity(curr.vectors, c.bwProjected, c.simBW)
	Similarity(curr.vectors, c.fwProjected, c.simFW)
	Similarity(c.bwProjected, c.fwProjected, c.simBWFW)
	ClassifyForeground(&ClassifierInput{
		Magnitude:   c.magnitude,
		SimBW:       c.simBW,
		SimFW:       c.simFW,
		SimBWFW:     c.simBWFW,
		FWProjected: c.fwProjected,
	}, d.cfg.Alpha, d.cfg.Beta, c.tiers)
	SpatialFilter(c.tiers, c.tierSnapshot, d.cfg.Unresolved)
	start = d.stats.Stages.Get(StageClassify).AddSince(start)

	d.morphology.Apply(c.tiers, c.mask)
	start = d.stats.Stages.Get(StageMorphology).AddSince(start)

	Label(c.mask, curr.labels, &c.stack)
	curr.regions = d.aggregator.Aggregate(curr.labels, curr.vectors, &d.geom, d.cfg.MinRegionSize, curr.regions[:0])
	curr.analyzed = true
	start = d.stats.Stages.Get(StageLabel).AddSince(start)

	var prevRegions []Region
	if prev.analyzed {
		prevRegions = prev.regions
	}
	d.tracker.Update(curr.number, prev.number, prevRegions, curr.regions, curr.labels)
	d.stats.Stages.Get(StageTrack).AddSince(start)
	d.stats.FramesAnalyzed++

	return &FrameResult{
		FrameNumber: curr.number,
		FrameType:   curr.frameType,
		Geometry:    d.geom,
		Build:       curr.build,
		Tiers:       c.tiers.Clone(),
		Labels:      curr.labels.Clone(),
		Regions:     append([]Region(nil), curr.regions...),
		Tracked:     d.tracker.Objects(),
	}
}

// Reset forgets all buffered frames and trackers, for example after a seek
func (d *Detector) Reset() {
	d.ring.reset()
	d.tracker = NewTracker(d.Log, &d.cfg, d.geom)
}

// Summary returns a one-line description of the counters
func (s *Stats) Summary() string {
	return fmt.Sprintf("frames in %v, analyzed %v, skipped %v; vectors accepted %v, ignored %v, rejected %v; %v",
		s.FramesIn, s.FramesAnalyzed, s.FramesSkipped, s.VectorsAccepted, s.VectorsIgnored, s.VectorsRejected, s.Stages.String())
}
