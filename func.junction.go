package godro

import (
	"math"
)

func init() {
	RegisterFunction("Junction", func(cfg *FunctionConfig) (ProcedureFunction, error) {
		return newJunction(cfg)
	})
}

// junction adds two or more upstream series into a single downstream
// series. A timestep where any input is missing yields a missing output.
type junction struct {
	FunctionBase
}

func newJunction(cfg *FunctionConfig) (*junction, error) {
	return &junction{FunctionBase: newFunctionBase("Junction", cfg, nil)}, nil
}

func (f *junction) BoundarySlots() []FunctionSlot {
	return []FunctionSlot{{Name: "input_1"}, {Name: "input_2"}}
}
func (f *junction) AdditionalBoundaries() bool { return true }
func (f *junction) OutputSlots() []FunctionSlot {
	return []FunctionSlot{{Name: "output"}}
}

func (f *junction) Clone() ProcedureFunction {
	return &junction{FunctionBase: f.cloneBase()}
}

func (f *junction) Run(input []*Series) ([]*Series, *FunctionResults, error) {
	if len(input) < 2 {
		return nil, nil, configErrf("Junction requires at least 2 boundaries, got %d", len(input))
	}
	out := NewSeries(input[0].Len())
	for i := 0; i < input[0].Len(); i++ {
		t := input[0].Time(i)
		sum := input[0].Value(i)
		for _, s := range input[1:] {
			v, ok := s.At(t)
			if !ok || math.IsNaN(v) {
				sum = math.NaN()
				break
			}
			sum += v
		}
		out.Append(t, sum, "sim")
	}
	return []*Series{out}, &FunctionResults{Data: []*Series{out}}, nil
}
