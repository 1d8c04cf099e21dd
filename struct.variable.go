package godro

// Variable is a hydrologic property tracked at a node. It owns zero or
// more input series and zero or more simulated series, plus the resolved
// data table used as procedure boundary/output.
type Variable struct {
	ID        int
	Series    []*Series // observed/input
	SeriesSim []*Series // simulated outputs
	Data      *Series   // resolved table addressed by timestamp
}

// NewVariable returns a variable with an empty data table.
func NewVariable(id int) *Variable {
	return &Variable{ID: id, Data: NewSeries(0)}
}

// SetData replaces the resolved data table.
func (v *Variable) SetData(s *Series) { v.Data = s }

// Concatenate merges a simulated series into the authoritative data table
// and records it among the simulated series. Without overwrite, existing
// non-missing values are preserved.
func (v *Variable) Concatenate(sim *Series, overwrite bool) {
	if v.Data == nil {
		v.Data = NewSeries(sim.Len())
	}
	v.Data.Merge(sim, overwrite)
	v.SeriesSim = append(v.SeriesSim, sim)
}
