package types

// SessionState is the engine lifecycle state. Process-scoped, single-writer:
// only the session machine transitions it, everything else reads.
type SessionState string

const (
	// StateBootstrap is the initial state before backends are initialized.
	StateBootstrap SessionState = "BOOTSTRAP"
	// StateIndexReady means backends initialized, possibly partially, and the
	// engine accepts queries.
	StateIndexReady SessionState = "INDEX_READY"
	// StateSearchExecuting means a query cycle is in flight.
	StateSearchExecuting SessionState = "SEARCH_EXECUTING"
	// StateResultFound is the terminal state of a cycle with surviving hits.
	StateResultFound SessionState = "RESULT_FOUND"
	// StateResultMissing is the terminal state of a cycle with zero surviving
	// hits. First-class outcome, not an error: it triggers creation guidance.
	StateResultMissing SessionState = "RESULT_MISSING"
	// StateError is the terminal state of an unrecoverable cycle failure.
	StateError SessionState = "ERROR"
)

// Valid reports whether the state is known.
func (s SessionState) Valid() bool {
	switch s {
	case StateBootstrap, StateIndexReady, StateSearchExecuting,
		StateResultFound, StateResultMissing, StateError:
		return true
	}
	return false
}

// Terminal reports whether the state ends a query cycle.
func (s SessionState) Terminal() bool {
	switch s {
	case StateResultFound, StateResultMissing, StateError:
		return true
	}
	return false
}
