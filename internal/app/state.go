package service

import (
	"fmt"

	"github.com/okian/footelo/pkg/metrics"
)

// State is a step of a multi-season run.
type State int

// Orchestrator states.
const (
	StateAwaitingSeason State = iota
	StateProcessingSeason
	StateTransferring
	StateDecaying
	StateDone
)

func (s State) String() string {
	switch s {
	case StateAwaitingSeason:
		return "awaiting-season"
	case StateProcessingSeason:
		return "processing-season"
	case StateTransferring:
		return "transferring"
	case StateDecaying:
		return "decaying"
	case StateDone:
		return "done"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

var transitions = map[State][]State{
	StateAwaitingSeason:   {StateTransferring, StateProcessingSeason, StateDone},
	StateTransferring:     {StateProcessingSeason},
	StateProcessingSeason: {StateDecaying},
	StateDecaying:         {StateAwaitingSeason, StateDone},
}

// machine tracks the state of one run.
type machine struct {
	state State
	hook  func(from, to State)
}

func (m *machine) to(next State) error {
	for _, allowed := range transitions[m.state] {
		if allowed == next {
			from := m.state
			m.state = next
			metrics.UpdateOrchestratorState(int(next))
			if m.hook != nil {
				m.hook(from, next)
			}
			return nil
		}
	}
	return fmt.Errorf("%w: %s -> %s", ErrIllegalTransition, m.state, next)
}
