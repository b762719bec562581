package selector

import (
	"fmt"
	"sync"

	apperrors "github.com/kbukum/standin/errors"
)

// State is a step of the per-session response pipeline.
type State string

const (
	StateIdle         State = "idle"
	StateListening    State = "listening"
	StateTranscribing State = "transcribing"
	StateMatching     State = "matching"
	StateDeciding     State = "deciding"
	StateDelivering   State = "delivering"
)

// transitions lists the states reachable from each state. Failed windows
// and NoAction decisions fall back to Idle; the session re-enters
// Listening for the next window.
var transitions = map[State][]State{
	StateIdle:         {StateListening},
	StateListening:    {StateTranscribing, StateIdle},
	StateTranscribing: {StateMatching, StateIdle},
	StateMatching:     {StateDeciding, StateIdle},
	StateDeciding:     {StateDelivering, StateIdle},
	StateDelivering:   {StateListening, StateIdle},
}

// CanTransition reports whether from -> to is allowed.
func CanTransition(from, to State) bool {
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// Machine tracks the state of one session. It is safe for concurrent use,
// although a session drives it from a single goroutine.
type Machine struct {
	mu           sync.Mutex
	state        State
	onTransition func(from, to State)
}

// NewMachine creates a machine in Idle. onTransition, if set, is called
// after every transition while the machine lock is held.
func NewMachine(onTransition func(from, to State)) *Machine {
	return &Machine{state: StateIdle, onTransition: onTransition}
}

// State returns the current state.
func (m *Machine) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Transition moves to next or returns a CONFLICT error naming the illegal
// edge.
func (m *Machine) Transition(next State) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !CanTransition(m.state, next) {
		return apperrors.Conflict(fmt.Sprintf("illegal transition %s -> %s", m.state, next))
	}
	from := m.state
	m.state = next
	if m.onTransition != nil {
		m.onTransition(from, next)
	}
	return nil
}
