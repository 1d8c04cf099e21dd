package godro

import (
	"encoding/gob"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"strings"

	"github.com/maseology/mmio"
	mmplt "github.com/maseology/mmPlot"
)

// saveCalibrationResult persists the best point as a JSON record
// {parameters, score}; a .gob path is written as a GOB instead.
func saveCalibrationResult(fp string, res *CalibrationResult) error {
	if strings.HasSuffix(fp, ".gob") {
		f, err := os.Create(fp)
		if err != nil {
			return fmt.Errorf(" saveCalibrationResult %s: %v", fp, err)
		}
		if err := gob.NewEncoder(f).Encode(res); err != nil {
			f.Close()
			return fmt.Errorf(" saveCalibrationResult %s: %v", fp, err)
		}
		return f.Close()
	}
	b, err := json.MarshalIndent(res, "", "    ")
	if err != nil {
		return fmt.Errorf(" saveCalibrationResult %s: %v", fp, err)
	}
	if err := os.WriteFile(fp, b, 0644); err != nil {
		return fmt.Errorf(" saveCalibrationResult %s: %v", fp, err)
	}
	return nil
}

// LoadCalibrationResult reads a previously saved GOB best point.
func LoadCalibrationResult(fp string) (*CalibrationResult, error) {
	var res CalibrationResult
	f, err := os.Open(fp)
	if err != nil {
		return nil, fmt.Errorf(" LoadCalibrationResult %s: %v", fp, err)
	}
	defer f.Close()
	if err := gob.NewDecoder(f).Decode(&res); err != nil {
		return nil, fmt.Errorf(" LoadCalibrationResult %s: %v", fp, err)
	}
	return &res, nil
}

// ExportHydrograph writes the obs/sim pairing of one procedure output as
// a date,obs,sim CSV aligned on the simulated timestamps.
func ExportHydrograph(fp string, p *Procedure, index int) error {
	if p.Output == nil || index >= len(p.Output) {
		return configErrf("procedure %s has no output at index %d to export", p.ID, index)
	}
	sim := p.Output[index]
	var obs *Series
	if p.OutputObs != nil && index < len(p.OutputObs) {
		obs = p.OutputObs[index]
	}
	dt, ov, sv := sim.Times(), make([]float64, sim.Len()), sim.Values()
	for i := range dt {
		ov[i] = math.NaN()
		if obs != nil {
			if v, ok := obs.At(dt[i]); ok {
				ov[i] = v
			}
		}
	}
	mmio.WriteCsvDateFloats(fp, "date,obs,sim", dt, ov, sv)
	return nil
}

// PlotHydrograph writes an obs/sim comparison plot for one procedure
// output.
func PlotHydrograph(fp string, p *Procedure, index int) error {
	if p.Results == nil || index >= len(p.Results.Statistics) {
		return configErrf("procedure %s has no statistics at index %d to plot", p.ID, index)
	}
	rs := p.Results.Statistics[index]
	if !rs.Computed {
		return configErrf("procedure %s output %d statistics not computed", p.ID, index)
	}
	mmplt.ObsSim(fp, rs.Obs, rs.Sim)
	return nil
}
