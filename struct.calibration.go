package godro

import (
	"fmt"
	"math"
	"math/rand"
	"runtime"
	"time"

	"github.com/maseology/glbopt"
	"github.com/maseology/godro/internal/log"
	"github.com/maseology/godro/opt"
	"github.com/maseology/godro/stats"
	mrg63k3a "github.com/maseology/goRNG/MRG63k3a"
)

// CalibrationConfig declares the search configuration of a procedure
// calibration.
type CalibrationConfig struct {
	Calibrate         bool        `yaml:"calibrate"`
	ResultIndex       int         `yaml:"result_index"`
	ObjectiveFunction string      `yaml:"objective_function"`
	Limit             *bool       `yaml:"limit"`
	Sigma             float64     `yaml:"sigma"`
	Ranges            [][]float64 `yaml:"ranges"`
	NoImproveThr      float64     `yaml:"no_improve_thr"`
	MaxStagnations    int         `yaml:"max_stagnations"`
	MaxIter           int         `yaml:"max_iter"`
	SaveResult        string      `yaml:"save_result"`
	CalibrationPeriod []time.Time `yaml:"calibration_period"`
	Method            string      `yaml:"method"` // "downhill_simplex" (default) or "sce"
	Seed              int64       `yaml:"seed"`   // 0: seed from the clock
}

// SimplexPoint is one scored candidate parameter vector.
type SimplexPoint struct {
	Parameters []float64 `json:"parameters"`
	Score      float64   `json:"score"`
}

// CalibrationResult is the persisted best point.
type CalibrationResult struct {
	Parameters []float64 `json:"parameters"`
	Score      float64   `json:"score"`
	Iters      int       `json:"-"`
	Reason     string    `json:"-"`
}

// Calibration wraps a procedure with a derivative-free parameter search.
// Scores follow the minimizer's convention: the higher-is-better
// objectives r, nse and cov are negated before being handed to the
// optimizer.
type Calibration struct {
	Calibrate      bool
	ResultIndex    int
	Objective      string
	Limit          bool
	Sigma          float64
	Ranges         []opt.Range // nil: variant-provided defaults
	NoImproveThr   float64
	MaxStagnations int
	MaxIter        int
	SaveResult     string
	Method         string

	Simplex []SimplexPoint
	Result  *CalibrationResult

	proc *Procedure
	rng  *rand.Rand
}

// NewCalibration validates the search configuration against the
// procedure. Unknown objective names and malformed ranges are rejected
// here, not at run time.
func NewCalibration(p *Procedure, cfg *CalibrationConfig) (*Calibration, error) {
	c := &Calibration{
		Calibrate:      cfg.Calibrate,
		ResultIndex:    cfg.ResultIndex,
		Objective:      cfg.ObjectiveFunction,
		Limit:          true,
		Sigma:          cfg.Sigma,
		NoImproveThr:   cfg.NoImproveThr,
		MaxStagnations: cfg.MaxStagnations,
		MaxIter:        cfg.MaxIter,
		SaveResult:     cfg.SaveResult,
		Method:         cfg.Method,
		proc:           p,
	}
	if c.Objective == "" {
		c.Objective = "rmse"
	}
	if !stats.ValidObjective(c.Objective) {
		return nil, configErrf("objective_function must be one of %v, got %q", stats.Objectives, c.Objective)
	}
	if cfg.Limit != nil {
		c.Limit = *cfg.Limit
	}
	if c.Sigma == 0 {
		c.Sigma = 0.25
	}
	if c.NoImproveThr == 0 {
		c.NoImproveThr = 1e-7
	}
	if c.MaxStagnations == 0 {
		c.MaxStagnations = 10
	}
	if c.MaxIter == 0 {
		c.MaxIter = 5000
	}
	if c.Method == "" {
		c.Method = "downhill_simplex"
	}
	if c.Method != "downhill_simplex" && c.Method != "sce" {
		return nil, configErrf("calibration method must be downhill_simplex or sce, got %q", c.Method)
	}
	if c.ResultIndex >= len(p.OutputBoundaries) {
		return nil, configErrf("result_index %d out of range: procedure %s declares %d outputs", c.ResultIndex, p.ID, len(p.OutputBoundaries))
	}
	if !p.OutputBoundaries[c.ResultIndex].ComputeStatistics {
		return nil, configErrf("result_index %d of procedure %s points at an output with compute_statistics disabled", c.ResultIndex, p.ID)
	}
	if cfg.Ranges != nil {
		np := len(p.Function.Parameters())
		if len(cfg.Ranges) != np {
			return nil, configErrf("ranges length must equal the number of parameters of the procedure function (%d), got %d", np, len(cfg.Ranges))
		}
		c.Ranges = make([]opt.Range, len(cfg.Ranges))
		for i, r := range cfg.Ranges {
			if len(r) < 2 {
				return nil, configErrf("ranges item %d must be of length 2, got %d", i, len(r))
			}
			c.Ranges[i] = opt.Range{Min: r[0], Max: r[1]}
		}
	}
	if len(cfg.CalibrationPeriod) > 0 {
		if len(cfg.CalibrationPeriod) < 2 {
			return nil, configErrf("calibration_period must be a list of length 2")
		}
		p.CalPeriodFrom, p.CalPeriodTo = cfg.CalibrationPeriod[0], cfg.CalibrationPeriod[1]
	}
	c.rng = rand.New(mrg63k3a.New())
	if cfg.Seed != 0 {
		c.rng.Seed(cfg.Seed)
	} else {
		c.rng.Seed(time.Now().UnixNano())
	}
	return c, nil
}

// Procedure returns the procedure under calibration.
func (c *Calibration) Procedure() *Procedure { return c.proc }

// minimized maps a metric value onto the minimizer's convention.
func minimized(objective string, v float64) float64 {
	switch objective {
	case "r", "nse", "cov":
		return -v
	}
	return v
}

// RunReturnScore substitutes the parameter vector, re-runs the procedure
// (input and observed output must already be loaded, the graph is not
// written) and returns the objective value.
func (c *Calibration) RunReturnScore(parameters []float64) (float64, error) {
	if err := c.proc.Function.SetParameters(parameters); err != nil {
		return math.NaN(), err
	}
	if err := c.proc.run(false, false, false); err != nil {
		return math.NaN(), err
	}
	if c.ResultIndex >= len(c.proc.Results.Statistics) {
		return math.NaN(), configErrf("result_index %d out of range: procedure %s has %d output statistics", c.ResultIndex, c.proc.ID, len(c.proc.Results.Statistics))
	}
	v, err := c.proc.Results.Statistics[c.ResultIndex].Value(c.Objective)
	if err != nil {
		return math.NaN(), err
	}
	log.Debugf("runReturnScore: %v -> %v", parameters, v)
	return minimized(c.Objective, v), nil
}

// MakeSimplex generates and scores the initial simplex: P+1 candidate
// vectors for P parameters. A candidate scoring NaN means the model is
// unrunnable at that point; that is a fatal setup error, never silently
// dropped.
func (c *Calibration) MakeSimplex() ([]SimplexPoint, error) {
	points, err := c.proc.Function.MakeSimplex(c.rng, c.Sigma, c.Limit, c.Ranges)
	if err != nil {
		return nil, err
	}
	scores, err := c.scoreBatch(points, runtime.GOMAXPROCS(0))
	if err != nil {
		return nil, err
	}
	simplex := make([]SimplexPoint, len(points))
	for i, p := range points {
		if math.IsNaN(scores[i]) {
			return nil, &NumericDegeneracyError{Item: i, Objective: c.Objective}
		}
		simplex[i] = SimplexPoint{Parameters: p, Score: scores[i]}
	}
	c.Simplex = simplex
	return simplex, nil
}

// Run executes the calibration: load input and observed outputs once,
// build the initial simplex, drive the search to termination, persist
// and leave the best parameters on the procedure function.
func (c *Calibration) Run() (*CalibrationResult, error) {
	input, err := c.proc.LoadInput()
	if err != nil {
		return nil, err
	}
	c.proc.Input = input
	c.proc.OutputObs = c.proc.LoadOutputObs()

	if c.Method == "sce" {
		return c.runSCE()
	}

	simplex, err := c.MakeSimplex()
	if err != nil {
		return nil, err
	}
	points := make([][]float64, len(simplex))
	for i, sp := range simplex {
		points[i] = sp.Parameters
	}
	f := func(x []float64) (float64, error) {
		v, err := c.RunReturnScore(x)
		if err != nil {
			return v, err
		}
		if math.IsNaN(v) {
			return v, &NumericDegeneracyError{Item: -1, Objective: c.Objective}
		}
		return v, nil
	}
	ds, err := opt.NewSimplex(f, points, c.NoImproveThr, c.MaxStagnations, c.MaxIter)
	if err != nil {
		return nil, err
	}
	pars, score, err := ds.Run()
	if err != nil {
		return nil, fmt.Errorf(" calibration of procedure %s: %w", c.proc.ID, err)
	}
	log.Debugf("downhill simplex finished at iteration %d (%s)", ds.Iters, ds.Reason)

	return c.finish(pars, score, ds.Iters, ds.Reason)
}

// runSCE searches the full parameter ranges with the shuffled complex
// evolution global optimizer. Explicit or default ranges are required.
func (c *Calibration) runSCE() (*CalibrationResult, error) {
	ranges := c.Ranges
	if ranges == nil {
		ranges = c.proc.Function.DefaultRanges()
	}
	if ranges == nil {
		return nil, configErrf("sce calibration of procedure %s requires parameter ranges", c.proc.ID)
	}
	gen := func(u []float64) float64 {
		pars, err := opt.ScaleU(ranges, u)
		if err != nil {
			log.Errorf("sce: %v", err)
			return math.Inf(1)
		}
		v, err := c.RunReturnScore(pars)
		if err != nil || math.IsNaN(v) {
			log.Warnf("sce: unrunnable candidate %v: %v", pars, err)
			return math.Inf(1)
		}
		return v
	}
	uFinal, score := glbopt.SCE(runtime.GOMAXPROCS(0), len(ranges), c.rng, gen, true)
	pars, err := opt.ScaleU(ranges, uFinal)
	if err != nil {
		return nil, err
	}
	return c.finish(pars, score, 0, "sce")
}

func (c *Calibration) finish(pars []float64, score float64, iters int, reason string) (*CalibrationResult, error) {
	if err := c.proc.Function.SetParameters(pars); err != nil {
		return nil, err
	}
	c.Result = &CalibrationResult{
		Parameters: append([]float64{}, pars...),
		Score:      score,
		Iters:      iters,
		Reason:     reason,
	}
	if c.SaveResult != "" {
		if err := saveCalibrationResult(c.SaveResult, c.Result); err != nil {
			return nil, err
		}
	}
	return c.Result, nil
}
