// Package statemachine provides a small, generic finite state machine over
// string-like state and event types.
//
// The transition table is built once with functional options and never
// changes afterwards, which keeps Fire a pair of map lookups under a mutex.
// A transition may list several source states, so "any of these states on
// this event goes here" is one declaration. Terminal states accept no
// further events and cannot be Reset.
//
// # Usage
//
//	type phase string
//	type signal string
//
//	m := statemachine.MustNew[phase, signal]("idle",
//	    statemachine.WithTransition[phase, signal]("request", "loading", "idle", "ready"),
//	    statemachine.WithTransition[phase, signal]("succeed", "ready", "loading"),
//	    statemachine.WithTerminal[phase, signal]("closed"),
//	)
//
//	from, to, err := m.Fire("request")
//
// # Error Handling
//
//	if statemachine.IsNoTransitionAvailableError(err) { /* event not valid here */ }
//	if statemachine.IsTerminalStateError(err)         { /* machine is finished */ }
//
// Listeners registered with WithListener run after the state is committed
// and outside the machine's lock, so they may call Current safely.
package statemachine
