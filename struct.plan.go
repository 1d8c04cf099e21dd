package godro

import (
	"fmt"
	"math"
	"time"

	"github.com/maseology/godro/internal/log"
	"github.com/maseology/mmio"
)

// PlanConfig is the full plan declaration: topology, procedures and their
// calibrations.
type PlanConfig struct {
	ID           int                `yaml:"id"`
	Name         string             `yaml:"name"`
	ForecastDate time.Time          `yaml:"forecast_date"`
	Topology     TopologyConfig     `yaml:"topology"`
	Procedures   []*ProcedureConfig `yaml:"procedures"`
}

type TopologyConfig struct {
	Nodes []NodeConfig `yaml:"nodes"`
}

type NodeConfig struct {
	ID        int              `yaml:"id"`
	Name      string           `yaml:"name"`
	Variables []VariableConfig `yaml:"variables"`
}

type VariableConfig struct {
	ID     int            `yaml:"id"`
	Series []SeriesConfig `yaml:"series"`
}

type SeriesConfig struct {
	Tag    string        `yaml:"tag"`
	Points []PointConfig `yaml:"points"`
}

type PointConfig struct {
	Date  time.Time `yaml:"date"`
	Value *float64  `yaml:"value"` // null: missing
}

// Plan sequences procedures in configured order over a shared topology.
// Each procedure reads the current graph state, so earlier write-backs
// feed later procedures.
type Plan struct {
	ID           int
	Name         string
	Topology     *Topology
	Procedures   []*Procedure
	Calibrations []*Calibration // aligned with Procedures; nil where not configured
}

// NewPlan builds the topology and all procedures/calibrations, resolving
// every boundary. Any binding or configuration error aborts construction.
func NewPlan(cfg *PlanConfig) (*Plan, error) {
	top := &Topology{ForecastDate: cfg.ForecastDate}
	seen := map[int]bool{}
	for _, nc := range cfg.Topology.Nodes {
		if seen[nc.ID] {
			return nil, configErrf("duplicate node id %d in topology", nc.ID)
		}
		seen[nc.ID] = true
		n := NewNode(nc.ID, nc.Name)
		for _, vc := range nc.Variables {
			v := NewVariable(vc.ID)
			for _, sc := range vc.Series {
				s := NewSeries(len(sc.Points))
				for _, pt := range sc.Points {
					val := math.NaN()
					if pt.Value != nil {
						val = *pt.Value
					}
					if err := s.Append(pt.Date, val, sc.Tag); err != nil {
						return nil, fmt.Errorf(" plan %s, node %d, variable %d: %w", cfg.Name, nc.ID, vc.ID, err)
					}
				}
				v.Series = append(v.Series, s)
				v.Data.Merge(s, false) // first listed series wins
			}
			n.AddVariable(v)
		}
		top.Nodes = append(top.Nodes, n)
	}

	pl := &Plan{ID: cfg.ID, Name: cfg.Name, Topology: top}
	for _, pc := range cfg.Procedures {
		p, err := NewProcedure(pc, top)
		if err != nil {
			return nil, err
		}
		var cal *Calibration
		if pc.Calibration != nil {
			if cal, err = NewCalibration(p, pc.Calibration); err != nil {
				return nil, fmt.Errorf(" procedure %s: %w", p.ID, err)
			}
		}
		pl.Procedures = append(pl.Procedures, p)
		pl.Calibrations = append(pl.Calibrations, cal)
	}
	return pl, nil
}

// Execute runs every procedure in plan order, calibrating first where
// configured. A procedure failure surfaces immediately; prior procedures'
// write-backs are not rolled back.
func (pl *Plan) Execute() error {
	tt := mmio.NewTimer()
	defer tt.Lap(fmt.Sprintf("plan %s complete", pl.Name))
	for i, p := range pl.Procedures {
		if cal := pl.Calibrations[i]; cal != nil && cal.Calibrate {
			res, err := cal.Run()
			if err != nil {
				return err
			}
			log.Infof("procedure %s calibrated: score %f, parameters %v", p.ID, res.Score, res.Parameters)
		}
		if err := p.Run(); err != nil {
			return err
		}
		for j, rs := range p.Results.Statistics {
			log.Infof("procedure %s output %d:%s", p.ID, j, rs.Summary())
		}
	}
	return nil
}
