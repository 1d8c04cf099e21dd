package godro

import (
	"fmt"
	"time"

	"github.com/maseology/godro/internal/log"
	"github.com/maseology/godro/stats"
)

// BoundaryConfig declares one boundary/output binding of a procedure.
type BoundaryConfig struct {
	NodeID            int    `yaml:"node_id"`
	VarID             int    `yaml:"var_id"`
	Name              string `yaml:"name"`
	Optional          bool   `yaml:"optional"`
	WarmupOnly        bool   `yaml:"warmup_only"`
	ComputeStatistics *bool  `yaml:"compute_statistics"`
}

// ProcedureConfig declares one procedure of a plan.
type ProcedureConfig struct {
	ID          string             `yaml:"id"`
	Function    *FunctionConfig    `yaml:"function"`
	Overwrite   bool               `yaml:"overwrite"`
	Calibration *CalibrationConfig `yaml:"calibration"`
}

// Procedure pairs one procedure function with its boundary/output
// bindings and orchestrates load-input, run, load-observed-output,
// statistics and write-back. Created once per plan; re-run during
// calibration with different parameters but unchanged bindings.
type Procedure struct {
	ID               string
	Function         ProcedureFunction
	Boundaries       []*ProcedureBoundary
	OutputBoundaries []*ProcedureBoundary
	Overwrite        bool

	// optional calibration/validation period split
	CalPeriodFrom, CalPeriodTo time.Time

	// last-run state
	Input     []*Series
	Output    []*Series
	OutputObs []*Series
	States    []float64
	Results   *FunctionResults
}

// NewProcedure builds the function from the registry, binds the
// configured boundaries against the declared slots, and resolves them
// against the topology. Configuration and binding errors are fatal here.
func NewProcedure(cfg *ProcedureConfig, top *Topology) (*Procedure, error) {
	if cfg.Function == nil {
		return nil, configErrf("procedure %s: no function configured", cfg.ID)
	}
	fn, err := NewFunction(cfg.Function)
	if err != nil {
		return nil, fmt.Errorf(" procedure %s: %w", cfg.ID, err)
	}
	p := &Procedure{ID: cfg.ID, Function: fn, Overwrite: cfg.Overwrite}

	p.Boundaries, err = bindSlots(cfg.Function.Boundaries, fn.BoundarySlots(), fn.AdditionalBoundaries(), top)
	if err != nil {
		return nil, fmt.Errorf(" procedure %s boundaries: %w", cfg.ID, err)
	}
	p.OutputBoundaries, err = bindSlots(cfg.Function.Outputs, fn.OutputSlots(), false, top)
	if err != nil {
		return nil, fmt.Errorf(" procedure %s outputs: %w", cfg.ID, err)
	}
	return p, nil
}

func bindSlots(cfgs []BoundaryConfig, slots []FunctionSlot, additional bool, top *Topology) ([]*ProcedureBoundary, error) {
	if len(cfgs) < len(slots) {
		return nil, configErrf("%d boundaries configured for %d declared slots", len(cfgs), len(slots))
	}
	if len(cfgs) > len(slots) && !additional {
		return nil, configErrf("%d boundaries configured but the function declares exactly %d slots", len(cfgs), len(slots))
	}
	bs := make([]*ProcedureBoundary, len(cfgs))
	for i, c := range cfgs {
		b := &ProcedureBoundary{
			NodeID:            c.NodeID,
			VarID:             c.VarID,
			Name:              c.Name,
			Optional:          c.Optional,
			WarmupOnly:        c.WarmupOnly,
			ComputeStatistics: true,
		}
		if i < len(slots) {
			s := slots[i]
			if b.Name == "" {
				b.Name = s.Name
			}
			b.Optional = b.Optional || s.Optional
			b.WarmupOnly = b.WarmupOnly || s.WarmupOnly
		} else if b.Name == "" {
			b.Name = fmt.Sprintf("%d_%d", c.NodeID, c.VarID)
		}
		if c.ComputeStatistics != nil {
			b.ComputeStatistics = *c.ComputeStatistics
		}
		if err := b.Resolve(top); err != nil {
			return nil, err
		}
		bs[i] = b
	}
	return bs, nil
}

// LoadInput validates data completeness on every non-optional boundary
// and collects copies of the bound series in declaration order. An
// optional boundary with missing data is passed through with the missing
// values intact.
func (p *Procedure) LoadInput() ([]*Series, error) {
	data := make([]*Series, len(p.Boundaries))
	for i, b := range p.Boundaries {
		log.Debugf("loading boundary %s: node %d, variable %d, optional: %v, warmup_only: %v", b.Name, b.NodeID, b.VarID, b.Optional, b.WarmupOnly)
		if !b.Optional {
			if err := b.AssertNoNaN(b.WarmupOnly); err != nil {
				return nil, fmt.Errorf(" load input error at procedure %s, node %d, variable %d: %w", p.ID, b.NodeID, b.VarID, err)
			}
		}
		if b.Variable().Data == nil {
			data[i] = NewSeries(0)
		} else {
			data[i] = b.Variable().Data.Copy()
		}
	}
	return data, nil
}

// LoadOutputObs collects the observed series bound to the output slots
// for error computation. Missing observed data is tolerated: the truth
// may be partial or absent during pure forecasting.
func (p *Procedure) LoadOutputObs() []*Series {
	data := make([]*Series, len(p.OutputBoundaries))
	for i, o := range p.OutputBoundaries {
		if o.Variable().Data == nil || o.Variable().Data.Len() == 0 {
			log.Warnf("loadOutputObs: procedure %s, output %d with no data, skipped", p.ID, i)
			data[i] = NewSeries(0)
			continue
		}
		data[i] = o.Variable().Data.DropNaN()
	}
	return data
}

// ComputeStatistics inner-joins each simulated output against its
// observed series on timestamp equality and computes the fit snapshot.
// When a calibration period is set the snapshots are split into "cal"
// and "val" groups.
func (p *Procedure) ComputeStatistics() ([]*stats.ResultStatistics, error) {
	result := make([]*stats.ResultStatistics, len(p.OutputBoundaries))
	var valResult []*stats.ResultStatistics
	split := !p.CalPeriodFrom.IsZero() || !p.CalPeriodTo.IsZero()
	if split {
		valResult = make([]*stats.ResultStatistics, len(p.OutputBoundaries))
	}
	for i, o := range p.OutputBoundaries {
		if len(p.Output) < i+1 {
			return nil, configErrf("list of sim outputs is shorter than the declared output slots (%d < %d)", len(p.Output), len(p.OutputBoundaries))
		}
		if !o.ComputeStatistics {
			result[i] = stats.Skipped("cal")
			if split {
				valResult[i] = stats.Skipped("val")
			}
			continue
		}
		sim, obs := p.Output[i], p.OutputObs[i]
		if split {
			simCal := sim.Window(p.CalPeriodFrom, p.CalPeriodTo)
			sv, ov := InnerJoin(simCal, obs)
			result[i] = stats.Compute(ov, sv)
			result[i].Group = "cal"
			sv, ov = InnerJoin(windowComplement(sim, p.CalPeriodFrom, p.CalPeriodTo), obs)
			valResult[i] = stats.Compute(ov, sv)
			valResult[i].Group = "val"
		} else {
			sv, ov := InnerJoin(sim, obs)
			result[i] = stats.Compute(ov, sv)
			result[i].Group = "cal"
		}
	}
	if p.Results != nil {
		p.Results.Statistics = result
		p.Results.ValStatistics = valResult
	}
	return result, nil
}

// windowComplement returns the points of s outside [from,to].
func windowComplement(s *Series, from, to time.Time) *Series {
	c := NewSeries(s.Len())
	for i := 0; i < s.Len(); i++ {
		t := s.Time(i)
		if (from.IsZero() || !t.Before(from)) && (to.IsZero() || !t.After(to)) {
			continue
		}
		c.Append(t, s.Value(i), s.Tag(i))
	}
	return c
}

// Run performs one full pass: load input, execute the function, load
// observed outputs, compute statistics and write results back onto the
// graph. A failed run leaves the graph untouched.
func (p *Procedure) Run() error { return p.run(true, true, true) }

func (p *Procedure) run(loadInput, loadOutputObs, writeBack bool) error {
	if loadInput {
		input, err := p.LoadInput()
		if err != nil {
			return err
		}
		p.Input = input
	}
	output, res, err := p.Function.Run(p.Input)
	if err != nil {
		return err
	}
	if len(output) < len(p.OutputBoundaries) {
		return configErrf("procedure %s returned %d output series for %d declared output slots", p.ID, len(output), len(p.OutputBoundaries))
	}
	if res == nil {
		res = &FunctionResults{Data: output}
	}
	p.Output, p.Results = output, res
	if res.States != nil {
		p.States = res.States
	}
	if loadOutputObs {
		p.OutputObs = p.LoadOutputObs()
	}
	if _, err := p.ComputeStatistics(); err != nil {
		return err
	}
	if writeBack {
		p.OutputToNodes()
	}
	return nil
}

// OutputToNodes merges the simulated output series into the bound output
// variables under the "sim" provenance tag, preserving existing values
// unless overwrite mode is set.
func (p *Procedure) OutputToNodes() {
	if p.Output == nil {
		log.Errorf("procedure %s output is nil, the procedure wasn't run yet; can't write back", p.ID)
		return
	}
	for i, o := range p.OutputBoundaries {
		if i+1 > len(p.Output) {
			log.Errorf("procedure %s output for node %d variable %d not found, skipping", p.ID, o.NodeID, o.VarID)
			continue
		}
		o.Variable().Concatenate(p.Output[i], p.Overwrite)
	}
}
