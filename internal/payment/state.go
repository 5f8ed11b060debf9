package payment

import "fmt"

// State is a step of the payment phase.
type State string

const (
	AwaitingInput State = "AWAITING_INPUT"
	Submitting    State = "SUBMITTING"
	Succeeded     State = "SUCCEEDED"
	Failed        State = "FAILED"
)

// transitions lists the states reachable from each state.  Succeeded is
// terminal; Failed only leads back to AwaitingInput so the payer can retry.
var transitions = map[State][]State{
	AwaitingInput: {Submitting},
	Submitting:    {Succeeded, Failed},
	Failed:        {AwaitingInput},
	Succeeded:     {},
}

func canTransition(from, to State) bool {
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

type transitionError struct {
	from, to State
}

func (e *transitionError) Error() string {
	return fmt.Sprintf("payment: invalid transition %s -> %s", e.from, e.to)
}
