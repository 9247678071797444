// Package session owns the query-lifecycle state machine. The machine is
// process-scoped and single-writer: the engine instance that created it
// performs every transition, all other readers only observe.
package session

import (
	"fmt"
	"sync"

	"github.com/Foundup/Foundups-Agent-sub010/pkg/types"
)

// transitions lists the legal successor states. Terminal states return to
// INDEX_READY when their bundle has been emitted, so a query cycle can reach
// at most one terminal state and a subsequent query is never wedged.
var transitions = map[types.SessionState][]types.SessionState{
	types.StateBootstrap:  {types.StateIndexReady},
	types.StateIndexReady: {types.StateSearchExecuting},
	types.StateSearchExecuting: {
		types.StateResultFound,
		types.StateResultMissing,
		types.StateError,
	},
	types.StateResultFound:   {types.StateIndexReady},
	types.StateResultMissing: {types.StateIndexReady},
	types.StateError:         {types.StateIndexReady},
}

// Machine tracks the engine lifecycle state.
type Machine struct {
	mu    sync.RWMutex
	state types.SessionState
}

// NewMachine creates a machine in BOOTSTRAP.
func NewMachine() *Machine {
	return &Machine{state: types.StateBootstrap}
}

// State returns the current state.
func (m *Machine) State() types.SessionState {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state
}

// CanTransition checks whether moving to the given state is legal from the
// current state. Returns a descriptive error if not.
func (m *Machine) CanTransition(to types.SessionState) error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return canTransition(m.state, to)
}

// Transition validates and applies a state change.
func (m *Machine) Transition(to types.SessionState) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := canTransition(m.state, to); err != nil {
		return err
	}
	m.state = to
	return nil
}

func canTransition(from, to types.SessionState) error {
	if !to.Valid() {
		return fmt.Errorf("%w: unknown state %q", types.ErrInvalidTransition, to)
	}
	for _, legal := range transitions[from] {
		if legal == to {
			return nil
		}
	}
	return fmt.Errorf("%w: %s -> %s", types.ErrInvalidTransition, from, to)
}
