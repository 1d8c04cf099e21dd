package opt

import (
	"fmt"

	"github.com/maseology/mmaths"
)

// Range bounds one model parameter.
type Range struct{ Min, Max float64 }

// Scale maps a unit-interval sample onto the range.
func (r Range) Scale(u float64) float64 { return mmaths.LinearTransform(r.Min, r.Max, u) }

// ScaleLog maps a unit-interval sample onto the range log-linearly; Min
// must be positive.
func (r Range) ScaleLog(u float64) float64 { return mmaths.LogLinearTransform(r.Min, r.Max, u) }

// Clip limits v to [Min,Max].
func (r Range) Clip(v float64) float64 {
	if v < r.Min {
		return r.Min
	}
	if v > r.Max {
		return r.Max
	}
	return v
}

// ScaleU maps a unit-hypercube sample onto parameter space.
func ScaleU(ranges []Range, u []float64) ([]float64, error) {
	if len(u) != len(ranges) {
		return nil, fmt.Errorf(" opt.ScaleU: sample dimension %d does not match %d ranges", len(u), len(ranges))
	}
	p := make([]float64, len(u))
	for i, r := range ranges {
		p[i] = r.Scale(u[i])
	}
	return p, nil
}
