package jsonbench

import (
	"time"
)

// Series holds the per-operation samples of one phase for one representation
type Series struct {
	Samples  []time.Duration `json:"samples"`
	Failures int             `json:"failures"`
	Skipped  int             `json:"skipped"` // Draws rejected because the document had no fields
}

// Append records one successful timed operation
func (s *Series) Append(d time.Duration) {
	s.Samples = append(s.Samples, d)
}

// Fail records one operation that returned an error
func (s *Series) Fail() {
	s.Failures++
}

// Skip records one rejected sample draw
func (s *Series) Skip() {
	s.Skipped++
}

// Count returns the number of recorded samples
func (s *Series) Count() int {
	return len(s.Samples)
}

// Mean returns the mean latency in milliseconds
func (s *Series) Mean() (float64, error) {
	return Mean(s.Samples)
}

// SeriesKey addresses a series inside Results
type SeriesKey struct {
	Representation Representation
	Phase          Phase
}

// Results accumulates every series of a run. A fresh value is built for each run.
type Results struct {
	series map[SeriesKey]*Series
}

// NewResults creates an empty results structure
func NewResults() *Results {
	return &Results{series: make(map[SeriesKey]*Series)}
}

// Series returns the series for rep and phase, creating it on first use
func (r *Results) Series(rep Representation, phase Phase) *Series {
	key := SeriesKey{Representation: rep, Phase: phase}
	s, ok := r.series[key]
	if !ok {
		s = &Series{}
		r.series[key] = s
	}
	return s
}

// Lookup returns the series for rep and phase without creating it
func (r *Results) Lookup(rep Representation, phase Phase) (*Series, bool) {
	s, ok := r.series[SeriesKey{Representation: rep, Phase: phase}]
	return s, ok
}

// Summary is the reported view of one series
type Summary struct {
	Representation Representation
	Phase          Phase
	Count          int
	Failures       int
	Skipped        int
	MeanMs         float64
	Err            error // ErrNoSamples when nothing was recorded
}

// Summarize returns one summary per representation that has a series for phase
func (r *Results) Summarize(phase Phase) []Summary {
	var out []Summary
	for _, rep := range Representations {
		s, ok := r.Lookup(rep, phase)
		if !ok {
			continue
		}
		mean, err := s.Mean()
		out = append(out, Summary{
			Representation: rep,
			Phase:          phase,
			Count:          s.Count(),
			Failures:       s.Failures,
			Skipped:        s.Skipped,
			MeanMs:         mean,
			Err:            err,
		})
	}
	return out
}

// SummarizeAll returns summaries for every phase in run order
func (r *Results) SummarizeAll() []Summary {
	var out []Summary
	for _, phase := range Phases {
		out = append(out, r.Summarize(phase)...)
	}
	return out
}
