package godro

import (
	"math"
	"sync"

	"github.com/maseology/godro/stats"
)

// scorer evaluates candidate parameter vectors against a cloned procedure
// function so candidates can run concurrently. The loaded input and
// observed-output series are shared read-only; parameters and states live
// on the clone, never the shared graph.
type scorer struct {
	fn          ProcedureFunction
	input, obs  []*Series
	resultIndex int
	objective   string
}

func (c *Calibration) newScorer() *scorer {
	return &scorer{
		fn:          c.proc.Function.Clone(),
		input:       c.proc.Input,
		obs:         c.proc.OutputObs,
		resultIndex: c.ResultIndex,
		objective:   c.Objective,
	}
}

func (s *scorer) score(c *Calibration, pars []float64) (float64, error) {
	if err := s.fn.SetParameters(pars); err != nil {
		return math.NaN(), err
	}
	out, _, err := s.fn.Run(s.input)
	if err != nil {
		return math.NaN(), err
	}
	if s.resultIndex >= len(out) || s.resultIndex >= len(s.obs) {
		return math.NaN(), configErrf("result_index %d out of range for %d outputs", s.resultIndex, len(out))
	}
	sim := out[s.resultIndex]
	if !c.proc.CalPeriodFrom.IsZero() || !c.proc.CalPeriodTo.IsZero() {
		sim = sim.Window(c.proc.CalPeriodFrom, c.proc.CalPeriodTo)
	}
	sv, ov := InnerJoin(sim, s.obs[s.resultIndex])
	rs := stats.Compute(ov, sv)
	v, err := rs.Value(s.objective)
	if err != nil {
		return math.NaN(), err
	}
	return minimized(s.objective, v), nil
}

// scoreBatch scores independent candidate vectors concurrently, one
// cloned function per worker. Scores are returned aligned with points.
func (c *Calibration) scoreBatch(points [][]float64, nwrkrs int) ([]float64, error) {
	n := len(points)
	if nwrkrs < 1 {
		nwrkrs = 1
	}
	if nwrkrs > n {
		nwrkrs = n
	}

	scores := make([]float64, n)
	errs := make([]error, nwrkrs)
	jobs := make(chan int, n)
	for i := 0; i < n; i++ {
		jobs <- i
	}
	close(jobs)

	var wg sync.WaitGroup
	wg.Add(nwrkrs)
	for w := 0; w < nwrkrs; w++ {
		go func(w int) {
			defer wg.Done()
			s := c.newScorer()
			for i := range jobs {
				v, err := s.score(c, points[i])
				if err != nil {
					errs[w] = err
					return
				}
				scores[i] = v
			}
		}(w)
	}
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}
	return scores, nil
}
