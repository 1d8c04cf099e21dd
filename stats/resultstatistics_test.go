package stats

import (
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
)

const tol = 1e-9

func TestComputeScenario(t *testing.T) {
	obs := []float64{1, 2, 3, 4}
	sim := []float64{1.5, 2, 2.5, 4.5}
	r := Compute(obs, sim)
	if !r.Computed {
		t.Fatal("expected computed statistics")
	}
	if d := cmp.Diff([]float64{0.5, 0, -0.5, 0.5}, r.Errors, cmpopts.EquateApprox(0, tol)); d != "" {
		t.Errorf("errors mismatch:\n%s", d)
	}
	if math.Abs(r.MSE-0.1875) > tol {
		t.Errorf("mse: got %v, want 0.1875", r.MSE)
	}
	if math.Abs(r.Bias-0.125) > tol {
		t.Errorf("bias: got %v, want 0.125", r.Bias)
	}
	if math.Abs(r.RMSE-math.Sqrt(0.1875)) > tol {
		t.Errorf("rmse: got %v", r.RMSE)
	}
}

func TestRMSESquaredIsMSE(t *testing.T) {
	obs := []float64{3.2, 1.1, 0.4, 7.7, 2.2}
	sim := []float64{3.0, 1.5, 0.2, 8.1, 1.9}
	r := Compute(obs, sim)
	if r.RMSE < 0 {
		t.Errorf("rmse must be non-negative, got %v", r.RMSE)
	}
	if math.Abs(r.RMSE*r.RMSE-r.MSE) > tol {
		t.Errorf("rmse² (%v) != mse (%v)", r.RMSE*r.RMSE, r.MSE)
	}
}

func TestPerfectFit(t *testing.T) {
	obs := []float64{1, 2, 3, 4, 5}
	r := Compute(obs, obs)
	for n, v := range map[string]float64{"mse": r.MSE, "rmse": r.RMSE, "bias": r.Bias} {
		if math.Abs(v) > tol {
			t.Errorf("%s: got %v, want 0", n, v)
		}
	}
	if math.Abs(r.R-1) > tol {
		t.Errorf("r: got %v, want 1", r.R)
	}
	if math.Abs(r.NSE-1) > tol {
		t.Errorf("nse: got %v, want 1", r.NSE)
	}
	if math.Abs(r.OneMinusR-(1-r.R)) > tol {
		t.Errorf("oneminusr (%v) != 1-r (%v)", r.OneMinusR, 1-r.R)
	}
}

func TestZeroVariance(t *testing.T) {
	obs := []float64{2, 2, 2}
	sim := []float64{1, 2, 3}
	r := Compute(obs, sim)
	if !math.IsNaN(r.NSE) {
		t.Errorf("nse must be undefined when stdev_obs is 0, got %v", r.NSE)
	}
	if !math.IsNaN(r.R) || !math.IsNaN(r.OneMinusR) {
		t.Errorf("r and oneminusr must be undefined when var_obs is 0, got %v, %v", r.R, r.OneMinusR)
	}
}

func TestNaNPairsDropped(t *testing.T) {
	nan := math.NaN()
	obs := []float64{1, nan, 3, 4}
	sim := []float64{1.5, 2, nan, 4.5}
	r := Compute(obs, sim)
	if r.N != 2 {
		t.Fatalf("n: got %d, want 2", r.N)
	}
	if d := cmp.Diff([]float64{1, 4}, r.Obs); d != "" {
		t.Errorf("obs after drop:\n%s", d)
	}
}

func TestEmptyInputSkipped(t *testing.T) {
	r := Compute(nil, nil)
	if r.Computed {
		t.Error("zero-length input must leave statistics uncomputed")
	}
	if !math.IsNaN(r.MSE) {
		t.Errorf("uncomputed mse must be NaN, got %v", r.MSE)
	}
}

func TestValueClosedSet(t *testing.T) {
	r := Compute([]float64{1, 2}, []float64{1, 3})
	for _, name := range Objectives {
		if _, err := r.Value(name); err != nil {
			t.Errorf("Value(%q): %v", name, err)
		}
	}
	if _, err := r.Value("kge"); err == nil {
		t.Error("expected error for unknown objective name")
	}
	if ValidObjective("kge") {
		t.Error("kge must not be a valid objective")
	}
}
