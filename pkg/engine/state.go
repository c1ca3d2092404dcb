package engine

import (
	"fmt"

	"github.com/ChrisMcGann/DeconKey/pkg/core"
)

// State is a step of the deconvolution pipeline
type State int

const (
	StateEmpty State = iota
	StateConfigured
	StatePreprocessed
	StateSolved
	StatePeaksPicked
	StateConvolved
)

var stateNames = [...]string{
	StateEmpty:        "empty",
	StateConfigured:   "configured",
	StatePreprocessed: "preprocessed",
	StateSolved:       "solved",
	StatePeaksPicked:  "peaks picked",
	StateConvolved:    "convolved",
}

func (s State) String() string {
	if s >= 0 && int(s) < len(stateNames) {
		return stateNames[s]
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// require fails with a StateError unless the engine reached want
func (e *Engine) require(op string, want State) error {
	if e.state < want {
		return &core.StateError{Op: op, State: e.state.String(), Want: want.String()}
	}
	return nil
}
