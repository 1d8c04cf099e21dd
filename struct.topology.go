package godro

import "time"

// Topology is the ordered node list procedures are bound against, with
// the plan's forecast cutoff: missing data on warmup-only boundaries is
// tolerated after this instant.
type Topology struct {
	Nodes        []*Node
	ForecastDate time.Time
}

// Node returns the first node matching id. Node ids are expected to be
// unique; first match wins.
func (t *Topology) Node(id int) (*Node, bool) {
	for _, n := range t.Nodes {
		if n.ID == id {
			return n, true
		}
	}
	return nil, false
}
