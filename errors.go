package godro

import (
	"fmt"
	"time"
)

// BindingError reports a procedure boundary that cannot be resolved
// against the topology. Fatal: aborts plan construction.
type BindingError struct {
	NodeID, VarID int
}

func (e *BindingError) Error() string {
	return fmt.Sprintf("node with id %d, variable %d not found in topology", e.NodeID, e.VarID)
}

// DataCompletenessError reports missing values on a required boundary.
// Fatal for the procedure run; the graph is left unmodified.
type DataCompletenessError struct {
	NodeID, VarID int
	Name          string
	First         time.Time // earliest offending timestamp
	Empty         bool      // no data table at all
}

func (e *DataCompletenessError) Error() string {
	if e.Empty {
		return fmt.Sprintf("boundary %s (node %d, variable %d) has no data", e.Name, e.NodeID, e.VarID)
	}
	return fmt.Sprintf("boundary %s (node %d, variable %d) has missing values starting at %s", e.Name, e.NodeID, e.VarID, e.First.Format(time.RFC3339))
}

// ConfigurationError reports an invalid plan/procedure/calibration
// configuration. Raised as early as possible, at construction.
type ConfigurationError struct {
	Msg string
}

func (e *ConfigurationError) Error() string { return e.Msg }

func configErrf(format string, args ...interface{}) error {
	return &ConfigurationError{Msg: fmt.Sprintf(format, args...)}
}

// NumericDegeneracyError reports an objective function evaluating to NaN
// during simplex construction or iteration: the parameter region is
// unusable and the candidate must not be silently dropped.
type NumericDegeneracyError struct {
	Item      int
	Objective string
}

func (e *NumericDegeneracyError) Error() string {
	if e.Item < 0 {
		return fmt.Sprintf("objective function %s evaluated to NaN during simplex iteration", e.Objective)
	}
	return fmt.Sprintf("simplex item %d returned NaN to objective function %s", e.Item, e.Objective)
}
