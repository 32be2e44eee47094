package statemachine

import "fmt"

// Option configures a Machine during construction.
type Option[S, E ~string] func(*Machine[S, E]) error

// WithTransition registers event as moving every state in from to to.
// Registering the same from/event pair twice is an error.
func WithTransition[S, E ~string](event E, to S, from ...S) Option[S, E] {
	return func(m *Machine[S, E]) error {
		if len(from) == 0 {
			return ErrInvalidTransition
		}
		for _, f := range from {
			if _, ok := m.transitions[f]; !ok {
				m.transitions[f] = make(map[E]S)
			}
			if _, dup := m.transitions[f][event]; dup {
				return fmt.Errorf("%w: duplicate transition from %q on %q", ErrInvalidTransition, f, event)
			}
			m.transitions[f][event] = to
		}
		return nil
	}
}

// WithTransitions registers a batch of transitions.
func WithTransitions[S, E ~string](ts ...Transition[S, E]) Option[S, E] {
	return func(m *Machine[S, E]) error {
		for _, t := range ts {
			if err := WithTransition(t.Event, t.To, t.From...)(m); err != nil {
				return err
			}
		}
		return nil
	}
}

// WithTerminal marks states from which no event is accepted.
func WithTerminal[S, E ~string](states ...S) Option[S, E] {
	return func(m *Machine[S, E]) error {
		for _, s := range states {
			m.terminal[s] = struct{}{}
		}
		return nil
	}
}

// WithListener registers a callback invoked after every committed transition.
func WithListener[S, E ~string](l Listener[S, E]) Option[S, E] {
	return func(m *Machine[S, E]) error {
		if l != nil {
			m.listeners = append(m.listeners, l)
		}
		return nil
	}
}

// New creates a machine in the initial state.
func New[S, E ~string](initial S, opts ...Option[S, E]) (*Machine[S, E], error) {
	if initial == "" {
		return nil, ErrInvalidState
	}

	m := &Machine[S, E]{
		initial:     initial,
		current:     initial,
		transitions: make(map[S]map[E]S),
		terminal:    make(map[S]struct{}),
	}
	for _, opt := range opts {
		if err := opt(m); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// MustNew is like New but panics on misconfiguration.
func MustNew[S, E ~string](initial S, opts ...Option[S, E]) *Machine[S, E] {
	m, err := New(initial, opts...)
	if err != nil {
		panic(err)
	}
	return m
}
