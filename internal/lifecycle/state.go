package lifecycle

import "fmt"

// State is a position in the manager's lifecycle.
//
//	Closed -> Opening -> Checking -> (Migrating ->) Querying -> Closing -> Closed
//
// Errored is reachable from any non-terminal state and holds until the next
// OpenAndRun.
type State int

const (
	Closed State = iota
	Opening
	Checking
	Migrating
	Querying
	Closing
	Errored
)

func (s State) String() string {
	switch s {
	case Closed:
		return "CLOSED"
	case Opening:
		return "OPENING"
	case Checking:
		return "CHECKING"
	case Migrating:
		return "MIGRATING"
	case Querying:
		return "QUERYING"
	case Closing:
		return "CLOSING"
	case Errored:
		return "ERROR"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// HoldsHandle reports whether the store handle must be held in state s.
func (s State) HoldsHandle() bool {
	switch s {
	case Checking, Migrating, Querying, Closing:
		return true
	default:
		return false
	}
}

// Transition is delivered to a state observer on every state change.
type Transition struct {
	From       State
	To         State
	HandleHeld bool
	RunID      string
}
