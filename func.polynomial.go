package godro

import (
	"math"

	"github.com/maseology/godro/opt"
)

func init() {
	RegisterFunction("Polynomial", func(cfg *FunctionConfig) (ProcedureFunction, error) {
		return newPolynomial(cfg)
	})
}

// polynomial transforms its single boundary elementwise:
// output[t] = sum(c_i * input[t]^i), parameters are the coefficients in
// ascending order.
type polynomial struct {
	FunctionBase
}

func newPolynomial(cfg *FunctionConfig) (*polynomial, error) {
	if len(cfg.Parameters) == 0 {
		return nil, configErrf("Polynomial requires at least 1 coefficient")
	}
	ranges := make([]opt.Range, len(cfg.Parameters))
	for i := range ranges {
		ranges[i] = opt.Range{Min: -5, Max: 5}
	}
	return &polynomial{FunctionBase: newFunctionBase("Polynomial", cfg, ranges)}, nil
}

func (f *polynomial) BoundarySlots() []FunctionSlot {
	return []FunctionSlot{{Name: "input"}}
}
func (f *polynomial) AdditionalBoundaries() bool { return false }
func (f *polynomial) OutputSlots() []FunctionSlot {
	return []FunctionSlot{{Name: "output"}}
}

func (f *polynomial) Clone() ProcedureFunction {
	return &polynomial{FunctionBase: f.cloneBase()}
}

func (f *polynomial) Run(input []*Series) ([]*Series, *FunctionResults, error) {
	if len(input) != 1 {
		return nil, nil, configErrf("Polynomial takes exactly 1 boundary, got %d", len(input))
	}
	in := input[0]
	out := NewSeries(in.Len())
	for i := 0; i < in.Len(); i++ {
		x := in.Value(i)
		if math.IsNaN(x) {
			out.Append(in.Time(i), math.NaN(), "sim")
			continue
		}
		v, xp := 0., 1.
		for _, c := range f.params {
			v += c * xp
			xp *= x
		}
		out.Append(in.Time(i), v, "sim")
	}
	return []*Series{out}, &FunctionResults{Data: []*Series{out}}, nil
}
