// Package stats computes error/agreement metrics over paired
// observed-simulated arrays. These metrics make up the objective surface
// used for calibration, so the formulas are fixed: note that StdevObs and
// StdevSim hold the mean squared deviation (population variance), while
// VarObs and VarSim hold its square root.
package stats

import (
	"fmt"
	"math"

	"github.com/maseology/godro/internal/log"
)

// Objectives is the closed set of metric names accepted as a calibration
// objective function.
var Objectives = []string{"rmse", "mse", "bias", "stdev_dif", "r", "nse", "cov", "oneminusr"}

// ValidObjective reports whether name is a member of Objectives.
func ValidObjective(name string) bool {
	for _, o := range Objectives {
		if o == name {
			return true
		}
	}
	return false
}

// ResultStatistics is an immutable-after-compute snapshot of fit metrics
// for one (obs, sim) pair. Metrics left undefined are NaN.
type ResultStatistics struct {
	Obs, Sim, Errors   []float64
	N                  int
	MSE, RMSE, Bias    float64
	MeanObs, MeanSim   float64
	StdevObs, StdevSim float64 // mean squared deviation
	StdevDif           float64
	VarObs, VarSim     float64 // sqrt of the above
	NSE                float64
	Cov, R, OneMinusR  float64
	Group              string // "cal" or "val"
	Computed           bool
}

func newEmpty() *ResultStatistics {
	nan := math.NaN()
	return &ResultStatistics{
		MSE: nan, RMSE: nan, Bias: nan,
		MeanObs: nan, MeanSim: nan,
		StdevObs: nan, StdevSim: nan, StdevDif: nan,
		VarObs: nan, VarSim: nan,
		NSE: nan, Cov: nan, R: nan, OneMinusR: nan,
	}
}

// Skipped returns an uncomputed snapshot for an output excluded from
// statistics computation. All metrics read NaN, never zero, so an
// objective addressing a skipped output cannot masquerade as a perfect
// fit.
func Skipped(group string) *ResultStatistics {
	r := newEmpty()
	r.Group = group
	return r
}

// Compute builds the statistics snapshot for one obs/sim pair. Indices
// where either value is NaN are dropped first. A zero-length input is not
// fatal: the snapshot is returned uncomputed with all metrics NaN.
func Compute(obs, sim []float64) *ResultStatistics {
	r := newEmpty()
	if len(sim) == 0 {
		log.Warnf("stats: no values found for statistics computation, skipping")
		return r
	}
	if len(obs) != len(sim) {
		log.Warnf("stats: length of obs (%d) and sim (%d) must be equal, skipping", len(obs), len(sim))
		return r
	}

	for i := range sim {
		if math.IsNaN(obs[i]) || math.IsNaN(sim[i]) {
			continue
		}
		r.Obs = append(r.Obs, obs[i])
		r.Sim = append(r.Sim, sim[i])
		r.Errors = append(r.Errors, sim[i]-obs[i])
	}
	r.N = len(r.Errors)
	if r.N == 0 {
		log.Warnf("stats: no obs/sim pairs found for error calculation")
		return r
	}

	fn := float64(r.N)
	sse, se, so, ss := 0., 0., 0., 0.
	for i := range r.Errors {
		sse += r.Errors[i] * r.Errors[i]
		se += r.Errors[i]
		so += r.Obs[i]
		ss += r.Sim[i]
	}
	r.MSE = sse / fn
	r.RMSE = math.Sqrt(r.MSE)
	r.Bias = se / fn
	r.MeanObs = so / fn
	r.MeanSim = ss / fn

	dso, dss, dc := 0., 0., 0.
	for i := range r.Obs {
		do, ds := r.Obs[i]-r.MeanObs, r.Sim[i]-r.MeanSim
		dso += do * do
		dss += ds * ds
		dc += do * ds
	}
	r.StdevObs = dso / fn
	r.StdevSim = dss / fn
	r.StdevDif = r.StdevSim - r.StdevObs
	r.VarObs = math.Sqrt(r.StdevObs)
	r.VarSim = math.Sqrt(r.StdevSim)
	r.Cov = dc / fn
	if r.StdevObs != 0. {
		r.NSE = 1. - r.MSE/r.StdevObs
	}
	if r.VarObs != 0. && r.VarSim != 0. {
		r.R = r.Cov / r.VarObs / r.VarSim
		r.OneMinusR = 1. - r.R
	}
	r.Computed = true
	return r
}

// Value returns the named metric. The name must be one of Objectives.
func (r *ResultStatistics) Value(name string) (float64, error) {
	switch name {
	case "rmse":
		return r.RMSE, nil
	case "mse":
		return r.MSE, nil
	case "bias":
		return r.Bias, nil
	case "stdev_dif":
		return r.StdevDif, nil
	case "r":
		return r.R, nil
	case "nse":
		return r.NSE, nil
	case "cov":
		return r.Cov, nil
	case "oneminusr":
		return r.OneMinusR, nil
	default:
		return math.NaN(), fmt.Errorf(" stats.Value: unknown objective function %q", name)
	}
}
