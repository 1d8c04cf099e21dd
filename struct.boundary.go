package godro

import (
	"time"

	"github.com/maseology/godro/internal/log"
)

// ProcedureBoundary binds a (node, variable) pair from the topology to a
// named slot of a procedure function.
type ProcedureBoundary struct {
	NodeID, VarID     int
	Name              string
	Optional          bool // missing values tolerated
	WarmupOnly        bool // missing values tolerated after the forecast cutoff
	ComputeStatistics bool

	top  *Topology
	node *Node
	vr   *Variable
}

// Resolve walks the topology's node list; the first node matching NodeID
// must contain VarID among its variables, else a BindingError is
// returned.
func (b *ProcedureBoundary) Resolve(top *Topology) error {
	n, ok := top.Node(b.NodeID)
	if ok {
		if v, ok := n.Variables[b.VarID]; ok {
			b.top, b.node, b.vr = top, n, v
			return nil
		}
	}
	return &BindingError{NodeID: b.NodeID, VarID: b.VarID}
}

// Variable returns the bound variable, nil before Resolve.
func (b *ProcedureBoundary) Variable() *Variable { return b.vr }

// AssertNoNaN fails with a DataCompletenessError when the bound data
// table holds missing values. With warmupOnly, only timestamps at or
// before the forecast cutoff are checked.
func (b *ProcedureBoundary) AssertNoNaN(warmupOnly bool) error {
	if b.vr == nil || b.vr.Data == nil || b.vr.Data.Len() == 0 {
		return &DataCompletenessError{NodeID: b.NodeID, VarID: b.VarID, Name: b.Name, Empty: true}
	}
	var until time.Time
	if warmupOnly {
		until = b.top.ForecastDate
	}
	if first, found := b.vr.Data.FirstNaN(until); found {
		return &DataCompletenessError{NodeID: b.NodeID, VarID: b.VarID, Name: b.Name, First: first}
	}
	log.Debugf("boundary %s: node %d, variable %d complete", b.Name, b.NodeID, b.VarID)
	return nil
}
