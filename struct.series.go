package godro

import (
	"fmt"
	"math"
	"sort"
	"time"
)

// Series is an ordered sequence of (timestamp, value, provenance tag)
// triples for one variable. Timestamps are timezone-aware instants,
// insertion order is chronological, and duplicate timestamps are invalid.
// Missing values are NaN.
type Series struct {
	ts   []time.Time
	vs   []float64
	tags []string
	xr   map[int64]int // UnixNano to index
}

// NewSeries returns an empty series with capacity n.
func NewSeries(n int) *Series {
	return &Series{
		ts:   make([]time.Time, 0, n),
		vs:   make([]float64, 0, n),
		tags: make([]string, 0, n),
		xr:   make(map[int64]int, n),
	}
}

// Append adds a point; t must be strictly after the last timestamp.
func (s *Series) Append(t time.Time, v float64, tag string) error {
	if _, ok := s.xr[t.UnixNano()]; ok {
		return fmt.Errorf(" series.Append: duplicate timestamp %s", t.Format(time.RFC3339))
	}
	if n := len(s.ts); n > 0 && !t.After(s.ts[n-1]) {
		return fmt.Errorf(" series.Append: timestamp %s out of chronological order", t.Format(time.RFC3339))
	}
	s.xr[t.UnixNano()] = len(s.ts)
	s.ts = append(s.ts, t)
	s.vs = append(s.vs, v)
	s.tags = append(s.tags, tag)
	return nil
}

func (s *Series) Len() int             { return len(s.ts) }
func (s *Series) Time(i int) time.Time { return s.ts[i] }
func (s *Series) Value(i int) float64  { return s.vs[i] }
func (s *Series) Tag(i int) string     { return s.tags[i] }

// Times returns the timestamps in chronological order.
func (s *Series) Times() []time.Time { return append([]time.Time{}, s.ts...) }

// Values returns the values in chronological order.
func (s *Series) Values() []float64 { return append([]float64{}, s.vs...) }

// At returns the value at timestamp t.
func (s *Series) At(t time.Time) (float64, bool) {
	if i, ok := s.xr[t.UnixNano()]; ok {
		return s.vs[i], true
	}
	return math.NaN(), false
}

// Copy returns a deep copy.
func (s *Series) Copy() *Series {
	c := NewSeries(s.Len())
	c.ts = append(c.ts, s.ts...)
	c.vs = append(c.vs, s.vs...)
	c.tags = append(c.tags, s.tags...)
	for k, v := range s.xr {
		c.xr[k] = v
	}
	return c
}

// Merge folds o into s. Without overwrite, existing non-NaN values are
// preserved and only NaN or uncovered timestamps take the new values
// (fill-without-overwrite); with overwrite, o wins wherever it has a
// point.
func (s *Series) Merge(o *Series, overwrite bool) {
	resort := false
	for i := range o.ts {
		k := o.ts[i].UnixNano()
		if j, ok := s.xr[k]; ok {
			if overwrite || math.IsNaN(s.vs[j]) {
				s.vs[j] = o.vs[i]
				s.tags[j] = o.tags[i]
			}
			continue
		}
		s.xr[k] = len(s.ts)
		s.ts = append(s.ts, o.ts[i])
		s.vs = append(s.vs, o.vs[i])
		s.tags = append(s.tags, o.tags[i])
		if n := len(s.ts); n > 1 && s.ts[n-1].Before(s.ts[n-2]) {
			resort = true
		}
	}
	if resort {
		s.sortChrono()
	}
}

func (s *Series) sortChrono() {
	idx := make([]int, len(s.ts))
	for i := range idx {
		idx[i] = i
	}
	sort.Slice(idx, func(a, b int) bool { return s.ts[idx[a]].Before(s.ts[idx[b]]) })
	ts, vs, tags := make([]time.Time, len(idx)), make([]float64, len(idx)), make([]string, len(idx))
	for i, j := range idx {
		ts[i], vs[i], tags[i] = s.ts[j], s.vs[j], s.tags[j]
		s.xr[ts[i].UnixNano()] = i
	}
	s.ts, s.vs, s.tags = ts, vs, tags
}

// FirstNaN returns the chronologically earliest timestamp holding a
// missing value. When until is non-zero, only timestamps at or before it
// are inspected.
func (s *Series) FirstNaN(until time.Time) (time.Time, bool) {
	for i := range s.ts {
		if !until.IsZero() && s.ts[i].After(until) {
			break
		}
		if math.IsNaN(s.vs[i]) {
			return s.ts[i], true
		}
	}
	return time.Time{}, false
}

// DropNaN returns a copy with missing values removed.
func (s *Series) DropNaN() *Series {
	c := NewSeries(s.Len())
	for i := range s.ts {
		if !math.IsNaN(s.vs[i]) {
			c.Append(s.ts[i], s.vs[i], s.tags[i])
		}
	}
	return c
}

// Window returns a copy restricted to timestamps in [from,to]; a zero
// bound is open.
func (s *Series) Window(from, to time.Time) *Series {
	c := NewSeries(s.Len())
	for i := range s.ts {
		if !from.IsZero() && s.ts[i].Before(from) {
			continue
		}
		if !to.IsZero() && s.ts[i].After(to) {
			continue
		}
		c.Append(s.ts[i], s.vs[i], s.tags[i])
	}
	return c
}

// InnerJoin pairs sim against obs on timestamp equality (no tolerance
// window) and drops pairs where either value is missing.
func InnerJoin(sim, obs *Series) (simv, obsv []float64) {
	if sim == nil || obs == nil {
		return nil, nil
	}
	for i := range sim.ts {
		ov, ok := obs.At(sim.ts[i])
		if !ok {
			continue
		}
		if math.IsNaN(sim.vs[i]) || math.IsNaN(ov) {
			continue
		}
		simv = append(simv, sim.vs[i])
		obsv = append(obsv, ov)
	}
	return simv, obsv
}
