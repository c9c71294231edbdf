package listing

import "github.com/custodia-labs/patientforms/internal/core/domain"

// displayMachine tracks the list display mode.
//
//	Loading   -> Ready | Empty        first result
//	any       -> Searching            committed term awaiting its result
//	Searching -> Ready | Empty        result arrives
//	any       -> Error                fetch failure; lastGood is kept
//
// lastGood only ever holds Ready or Empty, or Loading before the first result.
type displayMachine struct {
	state    domain.DisplayState
	lastGood domain.DisplayState
}

func newDisplayMachine() *displayMachine {
	return &displayMachine{state: domain.DisplayLoading, lastGood: domain.DisplayLoading}
}

// displayInput is what the machine needs to decide the next state.
type displayInput struct {
	received  bool
	loading   bool
	searching bool
	rows      int
	failed    bool
}

func (m *displayMachine) step(in displayInput) domain.DisplayState {
	switch {
	case in.failed:
		m.state = domain.DisplayError
		return m.state
	case in.searching:
		m.state = domain.DisplaySearching
	case !in.received || (in.loading && in.rows == 0):
		m.state = domain.DisplayLoading
	case in.rows > 0:
		m.state = domain.DisplayReady
	default:
		m.state = domain.DisplayEmpty
	}
	if m.state == domain.DisplayReady || m.state == domain.DisplayEmpty {
		m.lastGood = m.state
	}
	return m.state
}
