package perfstats

import (
	"fmt"
	"strings"
	"time"
)

// Two scalars (N samples and X total amount), which can measure total and average values.
type Accumulator struct {
	Samples int64   `json:"samples"`
	Total   float64 `json:"total"`
}

func (a *Accumulator) Reset() {
	a.Samples = 0
	a.Total = 0
}

func (a *Accumulator) AddSample(v float64) {
	a.Samples++
	a.Total += v
}

func (a *Accumulator) Average() float64 {
	if a.Samples == 0 {
		return 0
	}
	return a.Total / float64(a.Samples)
}

// Accumulate samples of how long something took
type TimeAccumulator struct {
	Samples int64         `json:"samples"`
	Total   time.Duration `json:"total"`
}

func (a *TimeAccumulator) Reset() {
	a.Samples = 0
	a.Total = 0
}

func (a *TimeAccumulator) AddSample(v time.Duration) {
	a.Samples++
	a.Total += v
}

// AddSince adds the time elapsed since start, and returns the current time,
// so that consecutive stages can be chained: t = acc.AddSince(t)
func (a *TimeAccumulator) AddSince(start time.Time) time.Time {
	now := time.Now()
	a.AddSample(now.Sub(start))
	return now
}

func (a *TimeAccumulator) Average() time.Duration {
	if a.Samples == 0 {
		return 0
	}
	return time.Duration(a.Total.Nanoseconds() / a.Samples)
}

// Stages is a named set of TimeAccumulators, reported in the order they were first used
type Stages struct {
	names []string
	accs  map[string]*TimeAccumulator
}

func NewStages(names ...string) *Stages {
	s := &Stages{
		accs: map[string]*TimeAccumulator{},
	}
	for _, n := range names {
		s.Get(n)
	}
	return s
}

// Get returns the accumulator for the named stage, creating it if necessary
func (s *Stages) Get(name string) *TimeAccumulator {
	if a, ok := s.accs[name]; ok {
		return a
	}
	a := &TimeAccumulator{}
	s.accs[name] = a
	s.names = append(s.names, name)
	return a
}

func (s *Stages) Names() []string {
	return append([]string(nil), s.names...)
}

// Total returns the sum of all stage totals
func (s *Stages) Total() time.Duration {
	total := time.Duration(0)
	for _, a := range s.accs {
		total += a.Total
	}
	return total
}

// String returns a one-line summary such as "build: 12µs, label: 3µs"
func (s *Stages) String() string {
	parts := []string{}
	for _, n := range s.names {
		parts = append(parts, fmt.Sprintf("%v: %v", n, s.accs[n].Average()))
	}
	return strings.Join(parts, ", ")
}
