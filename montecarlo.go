package godro

import (
	"fmt"
	"sort"

	"github.com/gosuri/uiprogress"
	"github.com/maseology/godro/opt"
	"github.com/maseology/mmio"
	"github.com/maseology/montecarlo/smpln"
)

// MonteCarlo screens n Latin-hypercube samples of the parameter ranges,
// scoring each candidate concurrently, and returns them ranked best
// first. When outfp is given the ranked samples are written as CSV.
// Useful as a cheap pre-screen before a simplex search.
func (c *Calibration) MonteCarlo(n, nwrkrs int, outfp string) ([]SimplexPoint, error) {
	ranges := c.Ranges
	if ranges == nil {
		ranges = c.proc.Function.DefaultRanges()
	}
	if ranges == nil {
		return nil, configErrf("monte carlo screening of procedure %s requires parameter ranges", c.proc.ID)
	}

	input, err := c.proc.LoadInput()
	if err != nil {
		return nil, err
	}
	c.proc.Input = input
	c.proc.OutputObs = c.proc.LoadOutputObs()

	np := len(ranges)
	sp := smpln.NewLHC(c.rng, n, np, false)
	points := make([][]float64, n)
	for k := 0; k < n; k++ {
		ut := make([]float64, np)
		for j := 0; j < np; j++ {
			ut[j] = sp.U[j][k]
		}
		if points[k], err = opt.ScaleU(ranges, ut); err != nil {
			return nil, err
		}
	}

	uiprogress.Start()
	bar := uiprogress.AddBar(n).AppendCompleted().PrependElapsed()
	if nwrkrs < 1 {
		nwrkrs = 1
	}
	ranked := make([]SimplexPoint, 0, n)
	for start := 0; start < n; start += nwrkrs {
		end := start + nwrkrs
		if end > n {
			end = n
		}
		scores, err := c.scoreBatch(points[start:end], nwrkrs)
		if err != nil {
			uiprogress.Stop()
			return nil, err
		}
		for i, s := range scores {
			ranked = append(ranked, SimplexPoint{Parameters: points[start+i], Score: s})
			bar.Incr()
		}
	}
	uiprogress.Stop()

	sort.Slice(ranked, func(i, j int) bool { return ranked[i].Score < ranked[j].Score })

	if outfp != "" {
		lns := make([]string, n+1)
		hdr := "rank,score"
		for j := 0; j < np; j++ {
			hdr += fmt.Sprintf(",p%d", j)
		}
		lns[0] = hdr
		for i, r := range ranked {
			ln := fmt.Sprintf("%d,%f", i+1, r.Score)
			for _, p := range r.Parameters {
				ln += fmt.Sprintf(",%f", p)
			}
			lns[i+1] = ln
		}
		mmio.WriteLines(outfp, lns)
	}
	return ranked, nil
}
