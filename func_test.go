package godro

import (
	"math"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
)

func runFunction(t *testing.T, cfg *FunctionConfig, input ...*Series) *Series {
	t.Helper()
	fn, err := NewFunction(cfg)
	if err != nil {
		t.Fatal(err)
	}
	out, _, err := fn.Run(input)
	if err != nil {
		t.Fatal(err)
	}
	return out[0]
}

func TestJunctionSum(t *testing.T) {
	out := runFunction(t, &FunctionConfig{Type: "Junction"},
		seriesOf(t, "obs", 1, 1, 2, 3),
		seriesOf(t, "obs", 1, 10, 20, 30),
		seriesOf(t, "obs", 1, 100, 200, 300))
	if d := cmp.Diff([]float64{111, 222, 333}, out.Values()); d != "" {
		t.Errorf("junction:\n%s", d)
	}
}

func TestJunctionMissingTimestamp(t *testing.T) {
	out := runFunction(t, &FunctionConfig{Type: "Junction"},
		seriesOf(t, "obs", 1, 1, 2, 3),
		seriesOf(t, "obs", 2, 20, 30)) // days 2-3 only
	if !math.IsNaN(out.Value(0)) {
		t.Error("missing second input must yield missing output")
	}
	if out.Value(1) != 22 || out.Value(2) != 33 {
		t.Errorf("aligned sums: %v, %v", out.Value(1), out.Value(2))
	}
}

func TestLinearCombination2BArity(t *testing.T) {
	_, err := NewFunction(&FunctionConfig{
		Type:       "LinearCombination2B",
		Parameters: []float64{1, 2}, // needs intercept plus two coefficients
	})
	if err == nil {
		t.Error("expected parameter-count error")
	}
}

func TestPolynomial(t *testing.T) {
	// 1 + 2x + x^2 = (x+1)^2
	out := runFunction(t, &FunctionConfig{Type: "Polynomial", Parameters: []float64{1, 2, 1}},
		seriesOf(t, "obs", 1, 0, 1, 2, math.NaN()))
	want := []float64{1, 4, 9}
	if d := cmp.Diff(want, out.Values()[:3], cmpopts.EquateApprox(0, 1e-12)); d != "" {
		t.Errorf("polynomial:\n%s", d)
	}
	if !math.IsNaN(out.Value(3)) {
		t.Error("missing input must stay missing")
	}
}

func TestMuskingumSteadyState(t *testing.T) {
	// constant inflow passes through unchanged
	out := runFunction(t, &FunctionConfig{Type: "MuskingumChannel", Parameters: []float64{2, 0.2}},
		seriesOf(t, "obs", 1, 5, 5, 5, 5, 5))
	for i := 0; i < out.Len(); i++ {
		if math.Abs(out.Value(i)-5) > 1e-12 {
			t.Fatalf("steady state at step %d: %v", i, out.Value(i))
		}
	}
}

func TestMuskingumAttenuation(t *testing.T) {
	in := seriesOf(t, "obs", 1, 0, 0, 10, 30, 20, 10, 5, 0, 0, 0, 0, 0)
	out := runFunction(t, &FunctionConfig{Type: "MuskingumChannel", Parameters: []float64{2, 0.1}}, in)

	peakIn, peakInAt := maxAt(in)
	peakOut, peakOutAt := maxAt(out)
	if peakOut >= peakIn {
		t.Errorf("routed peak not attenuated: %v >= %v", peakOut, peakIn)
	}
	if !peakOutAt.After(peakInAt) {
		t.Errorf("routed peak not delayed: %v vs %v", peakOutAt, peakInAt)
	}

	// mass balance: volume converges once the wave has passed
	vi, vo := 0., 0.
	for i := 0; i < in.Len(); i++ {
		vi += in.Value(i)
		vo += out.Value(i)
	}
	if math.Abs(vi-vo)/vi > 0.05 {
		t.Errorf("volume not conserved: in %v, out %v", vi, vo)
	}
}

func TestMuskingumShortK(t *testing.T) {
	// K below the stability bound forces substepping; output stays finite
	out := runFunction(t, &FunctionConfig{Type: "MuskingumChannel", Parameters: []float64{0.25, 0.4}},
		seriesOf(t, "obs", 1, 0, 10, 20, 10, 0, 0))
	for i := 0; i < out.Len(); i++ {
		if math.IsNaN(out.Value(i)) || math.IsInf(out.Value(i), 0) {
			t.Fatalf("unstable routing at step %d: %v", i, out.Value(i))
		}
		if out.Value(i) < -1e-9 {
			t.Fatalf("negative outflow at step %d: %v", i, out.Value(i))
		}
	}
}

func TestMuskingumInvalidParameters(t *testing.T) {
	fn, err := NewFunction(&FunctionConfig{Type: "MuskingumChannel", Parameters: []float64{2, 0.2}})
	if err != nil {
		t.Fatal(err)
	}
	if err := fn.SetParameters([]float64{-1, 0.2}); err != nil {
		t.Fatal(err)
	}
	if _, _, err := fn.Run([]*Series{seriesOf(t, "obs", 1, 1, 2)}); err == nil {
		t.Error("expected error for K<=0")
	}
}

func maxAt(s *Series) (float64, time.Time) {
	mv, mt := math.Inf(-1), time.Time{}
	for i := 0; i < s.Len(); i++ {
		if s.Value(i) > mv {
			mv, mt = s.Value(i), s.Time(i)
		}
	}
	return mv, mt
}
