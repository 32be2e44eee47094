package statemachine

import (
	"slices"
	"sync"
)

// Transition moves the machine to To when Event fires in any of From.
type Transition[S, E ~string] struct {
	From  []S
	Event E
	To    S
}

// Listener observes committed transitions. It runs with the machine lock
// released, after the state has changed.
type Listener[S, E ~string] func(from, to S, event E)

// Machine is a thread-safe finite state machine over string-like state and
// event types. The transition table is fixed at construction time.
type Machine[S, E ~string] struct {
	initial     S
	current     S
	transitions map[S]map[E]S
	terminal    map[S]struct{}
	listeners   []Listener[S, E]
	mu          sync.RWMutex
}

// Current returns the current state.
func (m *Machine[S, E]) Current() S {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.current
}

// Is reports whether the current state is one of states.
func (m *Machine[S, E]) Is(states ...S) bool {
	return slices.Contains(states, m.Current())
}

// CanFire reports whether event has a transition from the current state.
func (m *Machine[S, E]) CanFire(event E) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, err := m.next(event)
	return err == nil
}

// Fire applies event and returns the state it left and the state it entered.
func (m *Machine[S, E]) Fire(event E) (from, to S, err error) {
	m.mu.Lock()
	from = m.current
	to, err = m.next(event)
	if err != nil {
		m.mu.Unlock()
		return from, from, err
	}
	m.current = to
	listeners := m.listeners
	m.mu.Unlock()

	for _, l := range listeners {
		l(from, to, event)
	}
	return from, to, nil
}

// Reset returns the machine to its initial state unless it is terminal.
func (m *Machine[S, E]) Reset() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, done := m.terminal[m.current]; done {
		return &TransitionError{State: string(m.current), Terminal: true}
	}
	m.current = m.initial
	return nil
}

func (m *Machine[S, E]) next(event E) (S, error) {
	if _, done := m.terminal[m.current]; done {
		return m.current, &TransitionError{State: string(m.current), Event: string(event), Terminal: true}
	}
	to, ok := m.transitions[m.current][event]
	if !ok {
		return m.current, &TransitionError{State: string(m.current), Event: string(event)}
	}
	return to, nil
}
