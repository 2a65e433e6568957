package pipeline

// State is a stage of one pipeline run. ABORTED and RANKED are terminal.
type State string

// Pipeline states
const (
	StateInit         State = "INIT"
	StateReset        State = "RESET"
	StateFetchPending State = "FETCH_PENDING"
	StateValidated    State = "VALIDATED"
	StateSimulating   State = "SIMULATING"
	StateRanked       State = "RANKED"
	StateAborted      State = "ABORTED"
)

var transitions = map[State][]State{
	StateInit:         {StateReset, StateAborted},
	StateReset:        {StateFetchPending, StateAborted},
	StateFetchPending: {StateValidated, StateAborted},
	StateValidated:    {StateSimulating, StateAborted},
	StateSimulating:   {StateRanked, StateAborted},
}

// CanTransition reports whether a run may move from one state to another.
func CanTransition(from, to State) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Terminal reports whether no further transition is possible.
func (s State) Terminal() bool {
	return s == StateRanked || s == StateAborted
}
