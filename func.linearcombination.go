package godro

import (
	"math"

	"github.com/maseology/godro/opt"
)

func init() {
	RegisterFunction("LinearCombination", func(cfg *FunctionConfig) (ProcedureFunction, error) {
		return newLinearCombination(cfg, "LinearCombination", nil)
	})
	RegisterFunction("LinearCombination2B", func(cfg *FunctionConfig) (ProcedureFunction, error) {
		return newLinearCombination(cfg, "LinearCombination2B", []FunctionSlot{
			{Name: "input_1", WarmupOnly: true},
			{Name: "input_2", WarmupOnly: true},
		})
	})
}

// linearCombination computes output[t] = intercept + sum(c_b * input_b[t])
// over its boundaries. Parameters are [intercept, c_1 .. c_B].
type linearCombination struct {
	FunctionBase
	slots []FunctionSlot // nil: open arity
}

func newLinearCombination(cfg *FunctionConfig, typeName string, slots []FunctionSlot) (*linearCombination, error) {
	if len(cfg.Parameters) < 2 {
		return nil, configErrf("%s requires at least 2 parameters (intercept plus one coefficient), got %d", typeName, len(cfg.Parameters))
	}
	if slots != nil && len(cfg.Parameters) != len(slots)+1 {
		return nil, configErrf("%s requires %d parameters, got %d", typeName, len(slots)+1, len(cfg.Parameters))
	}
	ranges := make([]opt.Range, len(cfg.Parameters))
	for i := range ranges {
		ranges[i] = opt.Range{Min: -10, Max: 10}
	}
	return &linearCombination{
		FunctionBase: newFunctionBase(typeName, cfg, ranges),
		slots:        slots,
	}, nil
}

func (f *linearCombination) BoundarySlots() []FunctionSlot {
	if f.slots != nil {
		return f.slots
	}
	return []FunctionSlot{{Name: "input_1"}}
}
func (f *linearCombination) AdditionalBoundaries() bool { return f.slots == nil }
func (f *linearCombination) OutputSlots() []FunctionSlot {
	return []FunctionSlot{{Name: "output"}}
}

func (f *linearCombination) Clone() ProcedureFunction {
	return &linearCombination{FunctionBase: f.cloneBase(), slots: f.slots}
}

func (f *linearCombination) Run(input []*Series) ([]*Series, *FunctionResults, error) {
	if len(f.params) != len(input)+1 {
		return nil, nil, configErrf("%s: %d parameters for %d boundaries, need %d", f.typeName, len(f.params), len(input), len(input)+1)
	}
	out := NewSeries(input[0].Len())
	for i := 0; i < input[0].Len(); i++ {
		t := input[0].Time(i)
		v := f.params[0]
		for b, s := range input {
			x, ok := s.At(t)
			if !ok || math.IsNaN(x) {
				v = math.NaN()
				break
			}
			v += f.params[b+1] * x
		}
		out.Append(t, v, "sim")
	}
	return []*Series{out}, &FunctionResults{Data: []*Series{out}}, nil
}
