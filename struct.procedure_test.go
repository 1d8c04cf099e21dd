package godro

import (
	"errors"
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
)

// junctionSetup builds a two-node topology with two inflow variables at
// node 1 and the junction output at node 2.
func junctionSetup(t *testing.T, in1, in2, obs *Series) (*Topology, *Procedure) {
	t.Helper()
	n1, n2 := NewNode(1, "upstream"), NewNode(2, "outlet")
	v1, v2, vo := NewVariable(40), NewVariable(41), NewVariable(40)
	v1.SetData(in1)
	v2.SetData(in2)
	if obs != nil {
		vo.SetData(obs)
	}
	n1.AddVariable(v1)
	n1.AddVariable(v2)
	n2.AddVariable(vo)
	top := &Topology{Nodes: []*Node{n1, n2}, ForecastDate: day(10)}

	p, err := NewProcedure(&ProcedureConfig{
		ID: "j1",
		Function: &FunctionConfig{
			Type: "Junction",
			Boundaries: []BoundaryConfig{
				{NodeID: 1, VarID: 40},
				{NodeID: 1, VarID: 41},
			},
			Outputs: []BoundaryConfig{{NodeID: 2, VarID: 40}},
		},
	}, top)
	if err != nil {
		t.Fatal(err)
	}
	return top, p
}

func TestProcedureRun(t *testing.T) {
	in1 := seriesOf(t, "obs", 1, 1, 2, 3, 4)
	in2 := seriesOf(t, "obs", 1, 10, 20, 30, 40)
	obs := seriesOf(t, "obs", 1, 11, 22, 33, 44)
	top, p := junctionSetup(t, in1, in2, obs)

	if err := p.Run(); err != nil {
		t.Fatal(err)
	}
	if d := cmp.Diff([]float64{11, 22, 33, 44}, p.Output[0].Values()); d != "" {
		t.Errorf("output:\n%s", d)
	}
	rs := p.Results.Statistics[0]
	if !rs.Computed || rs.N != 4 {
		t.Fatalf("statistics not computed over 4 pairs: %+v", rs)
	}
	if rs.RMSE > 1e-12 {
		t.Errorf("perfect fit rmse: got %v", rs.RMSE)
	}
	// write-back landed on the output variable under the sim tag
	vo := top.Nodes[1].Variables[40]
	if v, ok := vo.Data.At(day(4)); !ok || v != 44 {
		t.Errorf("write-back value at day 4: %v %v", v, ok)
	}
}

func TestProcedureRequiredBoundaryWithNaN(t *testing.T) {
	in1 := seriesOf(t, "obs", 1, 1, math.NaN(), 3)
	in2 := seriesOf(t, "obs", 1, 10, 20, 30)
	obs := seriesOf(t, "obs", 1, 11, 22, 33)
	top, p := junctionSetup(t, in1, in2, obs)
	before := top.Nodes[1].Variables[40].Data.Values()

	err := p.Run()
	var dce *DataCompletenessError
	if !errors.As(err, &dce) {
		t.Fatalf("expected DataCompletenessError, got %v", err)
	}
	if !dce.First.Equal(day(2)) {
		t.Errorf("offending timestamp: got %v, want %v", dce.First, day(2))
	}
	// the graph is untouched by the failed run
	after := top.Nodes[1].Variables[40].Data.Values()
	if d := cmp.Diff(before, after); d != "" {
		t.Errorf("output variable mutated by failed run:\n%s", d)
	}
	if p.Output != nil {
		t.Error("output set by failed run")
	}
}

func TestProcedureOptionalBoundaryPassesNaNThrough(t *testing.T) {
	in1 := seriesOf(t, "obs", 1, 1, 2, 3)
	in2 := seriesOf(t, "obs", 1, 10, math.NaN(), 30)
	obs := seriesOf(t, "obs", 1, 11, 22, 33)
	n1, n2 := NewNode(1, "upstream"), NewNode(2, "outlet")
	v1, v2, vo := NewVariable(40), NewVariable(41), NewVariable(40)
	v1.SetData(in1)
	v2.SetData(in2)
	vo.SetData(obs)
	n1.AddVariable(v1)
	n1.AddVariable(v2)
	n2.AddVariable(vo)
	top := &Topology{Nodes: []*Node{n1, n2}, ForecastDate: day(10)}

	p, err := NewProcedure(&ProcedureConfig{
		ID: "j1",
		Function: &FunctionConfig{
			Type: "Junction",
			Boundaries: []BoundaryConfig{
				{NodeID: 1, VarID: 40},
				{NodeID: 1, VarID: 41, Optional: true},
			},
			Outputs: []BoundaryConfig{{NodeID: 2, VarID: 40}},
		},
	}, top)
	if err != nil {
		t.Fatal(err)
	}
	if err := p.Run(); err != nil {
		t.Fatal(err)
	}
	if !math.IsNaN(p.Input[1].Value(1)) {
		t.Error("optional boundary NaN not passed through to the function")
	}
	if !math.IsNaN(p.Output[0].Value(1)) {
		t.Error("junction output at the missing step must be NaN")
	}
	// fill-without-overwrite keeps the existing observed value at day 2
	if v, _ := top.Nodes[1].Variables[40].Data.At(day(2)); v != 22 {
		t.Errorf("existing value overwritten: got %v, want 22", v)
	}
}

func TestProcedureWriteBackFillWithoutOverwrite(t *testing.T) {
	in1 := seriesOf(t, "obs", 1, 1, 2, 3, 4, 5, 6)
	in2 := seriesOf(t, "obs", 1, 0, 0, 0, 0, 0, 0)
	obs := seriesOf(t, "obs", 1, 100, 200) // observed only on days 1-2
	top, p := junctionSetup(t, in1, in2, obs)

	if err := p.Run(); err != nil {
		t.Fatal(err)
	}
	vo := top.Nodes[1].Variables[40]
	want := []float64{100, 200, 3, 4, 5, 6}
	if d := cmp.Diff(want, vo.Data.Values(), cmpopts.EquateApprox(0, 1e-12)); d != "" {
		t.Errorf("fill-without-overwrite:\n%s", d)
	}
}

func TestProcedureNoObservedOutput(t *testing.T) {
	in1 := seriesOf(t, "obs", 1, 1, 2)
	in2 := seriesOf(t, "obs", 1, 3, 4)
	_, p := junctionSetup(t, in1, in2, nil)

	// missing observed truth is tolerated: pure forecasting
	if err := p.Run(); err != nil {
		t.Fatal(err)
	}
	if p.Results.Statistics[0].Computed {
		t.Error("statistics must be skipped with no observed output")
	}
}

func TestProcedureSkippedStatisticsStayNaN(t *testing.T) {
	in1 := seriesOf(t, "obs", 1, 1, 2, 3)
	in2 := seriesOf(t, "obs", 1, 10, 20, 30)
	obs := seriesOf(t, "obs", 1, 11, 22, 33)
	n1, n2 := NewNode(1, ""), NewNode(2, "")
	v1, v2, vo := NewVariable(40), NewVariable(41), NewVariable(40)
	v1.SetData(in1)
	v2.SetData(in2)
	vo.SetData(obs)
	n1.AddVariable(v1)
	n1.AddVariable(v2)
	n2.AddVariable(vo)
	top := &Topology{Nodes: []*Node{n1, n2}}

	off := false
	p, err := NewProcedure(&ProcedureConfig{
		ID: "j1",
		Function: &FunctionConfig{
			Type: "Junction",
			Boundaries: []BoundaryConfig{
				{NodeID: 1, VarID: 40},
				{NodeID: 1, VarID: 41},
			},
			Outputs: []BoundaryConfig{{NodeID: 2, VarID: 40, ComputeStatistics: &off}},
		},
	}, top)
	if err != nil {
		t.Fatal(err)
	}
	if err := p.Run(); err != nil {
		t.Fatal(err)
	}
	rs := p.Results.Statistics[0]
	if rs.Computed {
		t.Fatal("skipped output must stay uncomputed")
	}
	// metrics of a skipped output read NaN, never a spurious perfect zero
	for name, v := range map[string]float64{"mse": rs.MSE, "rmse": rs.RMSE, "bias": rs.Bias, "nse": rs.NSE} {
		if !math.IsNaN(v) {
			t.Errorf("%s of skipped output: got %v, want NaN", name, v)
		}
	}
	if v, err := rs.Value("rmse"); err != nil || !math.IsNaN(v) {
		t.Errorf("Value on skipped output: got %v, %v", v, err)
	}
}

type shortOutput struct{ FunctionBase }

func (f *shortOutput) BoundarySlots() []FunctionSlot { return []FunctionSlot{{Name: "input"}} }
func (f *shortOutput) AdditionalBoundaries() bool    { return false }
func (f *shortOutput) OutputSlots() []FunctionSlot {
	return []FunctionSlot{{Name: "out_1"}, {Name: "out_2"}}
}
func (f *shortOutput) Clone() ProcedureFunction { return &shortOutput{f.cloneBase()} }
func (f *shortOutput) Run(input []*Series) ([]*Series, *FunctionResults, error) {
	return []*Series{input[0]}, nil, nil // one series for two declared slots
}

func TestProcedureOutputCountMismatch(t *testing.T) {
	RegisterFunction("shortOutput", func(cfg *FunctionConfig) (ProcedureFunction, error) {
		return &shortOutput{newFunctionBase("shortOutput", cfg, nil)}, nil
	})
	n1, n2 := NewNode(1, ""), NewNode(2, "")
	v1, o1, o2 := NewVariable(40), NewVariable(41), NewVariable(42)
	v1.SetData(seriesOf(t, "obs", 1, 1, 2))
	n1.AddVariable(v1)
	n2.AddVariable(o1)
	n2.AddVariable(o2)
	top := &Topology{Nodes: []*Node{n1, n2}}

	p, err := NewProcedure(&ProcedureConfig{
		ID: "bad",
		Function: &FunctionConfig{
			Type:       "shortOutput",
			Boundaries: []BoundaryConfig{{NodeID: 1, VarID: 40}},
			Outputs:    []BoundaryConfig{{NodeID: 2, VarID: 41}, {NodeID: 2, VarID: 42}},
		},
	}, top)
	if err != nil {
		t.Fatal(err)
	}
	var ce *ConfigurationError
	if err := p.Run(); !errors.As(err, &ce) {
		t.Errorf("expected ConfigurationError for output-count mismatch, got %v", err)
	}
}

func TestUnknownFunctionType(t *testing.T) {
	top := &Topology{}
	_, err := NewProcedure(&ProcedureConfig{
		ID:       "x",
		Function: &FunctionConfig{Type: "NoSuchModel"},
	}, top)
	var ce *ConfigurationError
	if !errors.As(err, &ce) {
		t.Errorf("expected ConfigurationError for unknown type, got %v", err)
	}
}
