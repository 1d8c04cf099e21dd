package godro

import (
	"math/rand"
	"sort"

	"github.com/maseology/godro/opt"
	"github.com/maseology/godro/stats"
)

// FunctionSlot declares one named boundary or output slot of a procedure
// function.
type FunctionSlot struct {
	Name       string
	Optional   bool
	WarmupOnly bool
}

// FunctionResults bundles the raw trace, final states and per-output
// statistics of one procedure run.
type FunctionResults struct {
	Data          []*Series
	States        []float64
	Statistics    []*stats.ResultStatistics
	ValStatistics []*stats.ResultStatistics // validation group, when a calibration period is set
}

// ProcedureFunction is the pluggable numeric model contract. A variant
// consumes the bound input series it is handed and must not reach into
// the graph itself. Parameters and states mutate only between runs.
type ProcedureFunction interface {
	Type() string
	BoundarySlots() []FunctionSlot
	AdditionalBoundaries() bool // variable arity: extra boundaries beyond the declared slots
	OutputSlots() []FunctionSlot
	Parameters() []float64
	SetParameters(p []float64) error
	InitialStates() []float64
	DefaultRanges() []opt.Range
	MakeSimplex(rng *rand.Rand, sigma float64, limit bool, ranges []opt.Range) ([][]float64, error)
	Clone() ProcedureFunction
	Run(input []*Series) ([]*Series, *FunctionResults, error)
}

// FunctionConfig is the parameter bag a variant is constructed from.
type FunctionConfig struct {
	Type          string                 `yaml:"type"`
	Parameters    []float64              `yaml:"parameters"`
	InitialStates []float64              `yaml:"initial_states"`
	ExtraPars     map[string]interface{} `yaml:"extra_pars"`
	Boundaries    []BoundaryConfig       `yaml:"boundaries"`
	Outputs       []BoundaryConfig       `yaml:"outputs"`
}

// FunctionFactory builds a concrete variant from its configuration.
type FunctionFactory func(cfg *FunctionConfig) (ProcedureFunction, error)

var functionRegistry = map[string]FunctionFactory{}

// RegisterFunction adds a variant to the closed type-name registry.
func RegisterFunction(name string, f FunctionFactory) { functionRegistry[name] = f }

// RegisteredFunctions lists the registered type names, sorted.
func RegisteredFunctions() []string {
	names := make([]string, 0, len(functionRegistry))
	for n := range functionRegistry {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// NewFunction dispatches on the symbolic type name. An unknown name is a
// configuration error, never a silent fallback.
func NewFunction(cfg *FunctionConfig) (ProcedureFunction, error) {
	fac, ok := functionRegistry[cfg.Type]
	if !ok {
		return nil, configErrf("unknown procedure function type %q", cfg.Type)
	}
	return fac(cfg)
}

// FunctionBase carries the state shared by all variants: ordered
// parameters/initial states, the free-form extra_pars bag and default
// parameter ranges.
type FunctionBase struct {
	typeName      string
	params        []float64
	states        []float64
	extra         map[string]interface{}
	defaultRanges []opt.Range
}

func newFunctionBase(typeName string, cfg *FunctionConfig, defaultRanges []opt.Range) FunctionBase {
	return FunctionBase{
		typeName:      typeName,
		params:        append([]float64{}, cfg.Parameters...),
		states:        append([]float64{}, cfg.InitialStates...),
		extra:         cfg.ExtraPars,
		defaultRanges: defaultRanges,
	}
}

func (f *FunctionBase) Type() string             { return f.typeName }
func (f *FunctionBase) Parameters() []float64    { return f.params }
func (f *FunctionBase) InitialStates() []float64 { return f.states }
func (f *FunctionBase) DefaultRanges() []opt.Range {
	return f.defaultRanges
}

// SetParameters replaces the parameter vector; the length is fixed at
// construction.
func (f *FunctionBase) SetParameters(p []float64) error {
	if len(p) != len(f.params) {
		return configErrf("parameter vector length %d does not match function parameter count %d", len(p), len(f.params))
	}
	copy(f.params, p)
	return nil
}

// extraFloat reads a numeric entry of the extra_pars bag.
func (f *FunctionBase) extraFloat(key string, def float64) float64 {
	if v, ok := f.extra[key]; ok {
		switch x := v.(type) {
		case float64:
			return x
		case int:
			return float64(x)
		}
	}
	return def
}

func (f *FunctionBase) cloneBase() FunctionBase {
	c := *f
	c.params = append([]float64{}, f.params...)
	c.states = append([]float64{}, f.states...)
	return c
}

// MakeSimplex generates P+1 candidate parameter vectors for a P-parameter
// function: the current vector, then one vector per parameter perturbed by
// a normal offset with standard deviation sigma*0.5*(max-min), clipped to
// the range when limit is set.
func (f *FunctionBase) MakeSimplex(rng *rand.Rand, sigma float64, limit bool, ranges []opt.Range) ([][]float64, error) {
	if ranges == nil {
		ranges = f.defaultRanges
	}
	np := len(f.params)
	if np == 0 {
		return nil, configErrf("procedure function %s has no parameters to calibrate", f.typeName)
	}
	if len(ranges) != np {
		return nil, configErrf("ranges length must equal the number of parameters of the procedure function (%d), got %d", np, len(ranges))
	}
	points := make([][]float64, np+1)
	points[0] = append([]float64{}, f.params...)
	for i := 1; i <= np; i++ {
		p := append([]float64{}, f.params...)
		r := ranges[i-1]
		p[i-1] += rng.NormFloat64() * sigma * 0.5 * (r.Max - r.Min)
		points[i] = p
	}
	if limit {
		for _, p := range points {
			for j, r := range ranges {
				p[j] = r.Clip(p[j])
			}
		}
	}
	return points, nil
}
