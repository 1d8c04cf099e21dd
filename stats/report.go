package stats

import (
	"fmt"

	"github.com/maseology/objfunc"
)

// Summary returns a one-line fit report in the form printed after a model
// run. KGE is computed here for reporting only; it is not a calibration
// objective.
func (r *ResultStatistics) Summary() string {
	if !r.Computed {
		return "  no statistics computed"
	}
	kge := objfunc.KGE(r.Obs, r.Sim)
	return fmt.Sprintf("  KGE: %.3f  NSE: %.3f  RMSE: %.3f  Bias: %.3f  r: %.3f  n: %d",
		kge, r.NSE, r.RMSE, r.Bias, r.R, r.N)
}
