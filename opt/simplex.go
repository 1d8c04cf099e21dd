// Package opt holds the derivative-free search machinery used for model
// calibration: a Nelder-Mead downhill simplex and parameter-space
// transforms between the unit hypercube and model parameter ranges.
package opt

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
)

// reflection/expansion/contraction/shrink coefficients
const (
	alpha = 1.
	gamma = 2.
	rho   = -0.5
	sigma = 0.5
)

// Termination reasons reported by Simplex.Run.
const (
	TermStagnation = "stagnation"
	TermMaxIter    = "max_iter"
)

type point struct {
	x []float64
	f float64
}

// Simplex is a Nelder-Mead downhill simplex minimizer. The objective is
// always minimized; negate the score in F when a higher-is-better metric
// is wanted.
type Simplex struct {
	F              func([]float64) (float64, error)
	NoImproveThr   float64
	MaxStagnations int
	MaxIter        int

	Iters  int    // iterations performed by the last Run
	Reason string // termination reason of the last Run

	pts []point
}

// NewSimplex builds a minimizer over the given initial points. Points must
// number one more than the parameter dimension.
func NewSimplex(f func([]float64) (float64, error), points [][]float64, noImproveThr float64, maxStagnations, maxIter int) (*Simplex, error) {
	if len(points) < 2 {
		return nil, fmt.Errorf(" opt.NewSimplex: at least 2 points required, got %d", len(points))
	}
	dim := len(points[0])
	if len(points) != dim+1 {
		return nil, fmt.Errorf(" opt.NewSimplex: %d points given for dimension %d, need %d", len(points), dim, dim+1)
	}
	s := &Simplex{
		F:              f,
		NoImproveThr:   noImproveThr,
		MaxStagnations: maxStagnations,
		MaxIter:        maxIter,
	}
	s.pts = make([]point, len(points))
	for i, x := range points {
		if len(x) != dim {
			return nil, fmt.Errorf(" opt.NewSimplex: point %d has dimension %d, want %d", i, len(x), dim)
		}
		s.pts[i] = point{x: append([]float64{}, x...)}
	}
	return s, nil
}

func (s *Simplex) eval(x []float64) (float64, error) {
	f, err := s.F(x)
	if err != nil {
		return f, err
	}
	if math.IsNaN(f) {
		return f, fmt.Errorf(" opt.Simplex: objective evaluated to NaN at %v", x)
	}
	return f, nil
}

// Run drives the search to termination and returns the best point and its
// score. Iters and Reason are observable afterwards.
func (s *Simplex) Run() ([]float64, float64, error) {
	for i := range s.pts {
		f, err := s.eval(s.pts[i].x)
		if err != nil {
			return nil, math.NaN(), err
		}
		s.pts[i].f = f
	}

	dim := len(s.pts[0].x)
	s.Iters = 0
	noImprov := 0
	prevBest := math.Inf(1)

	for {
		sort.Slice(s.pts, func(i, j int) bool { return s.pts[i].f < s.pts[j].f })
		best := s.pts[0].f

		if s.Iters >= s.MaxIter {
			s.Reason = TermMaxIter
			return s.pts[0].x, s.pts[0].f, nil
		}
		s.Iters++

		if best < prevBest-s.NoImproveThr {
			noImprov = 0
			prevBest = best
		} else {
			noImprov++
		}
		if noImprov >= s.MaxStagnations {
			s.Reason = TermStagnation
			return s.pts[0].x, s.pts[0].f, nil
		}

		// centroid of all but the worst
		worst := &s.pts[dim]
		x0 := make([]float64, dim)
		for i := 0; i < dim; i++ {
			floats.Add(x0, s.pts[i].x)
		}
		floats.Scale(1./float64(dim), x0)

		// reflection
		xr := step(x0, worst.x, alpha)
		fr, err := s.eval(xr)
		if err != nil {
			return nil, math.NaN(), err
		}
		if s.pts[0].f <= fr && fr < s.pts[dim-1].f {
			*worst = point{xr, fr}
			continue
		}

		// expansion
		if fr < s.pts[0].f {
			xe := step(x0, worst.x, gamma)
			fe, err := s.eval(xe)
			if err != nil {
				return nil, math.NaN(), err
			}
			if fe < fr {
				*worst = point{xe, fe}
			} else {
				*worst = point{xr, fr}
			}
			continue
		}

		// contraction
		xc := step(x0, worst.x, rho)
		fc, err := s.eval(xc)
		if err != nil {
			return nil, math.NaN(), err
		}
		if fc < worst.f {
			*worst = point{xc, fc}
			continue
		}

		// shrink toward the best point
		x1 := s.pts[0].x
		for i := 1; i <= dim; i++ {
			xs := make([]float64, dim)
			copy(xs, x1)
			floats.AddScaled(xs, sigma, floats.SubTo(make([]float64, dim), s.pts[i].x, x1))
			fs, err := s.eval(xs)
			if err != nil {
				return nil, math.NaN(), err
			}
			s.pts[i] = point{xs, fs}
		}
	}
}

// step returns x0 + c*(x0 - xw).
func step(x0, xw []float64, c float64) []float64 {
	x := make([]float64, len(x0))
	copy(x, x0)
	floats.AddScaled(x, c, floats.SubTo(make([]float64, len(x0)), x0, xw))
	return x
}
