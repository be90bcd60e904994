// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

// Package flight provides the in-flight request guard used to suppress
// re-entrant generation and save triggers.
package flight

import "sync"

// State is the request state tracked by a Guard.
type State int

const (
	// Idle means no request is outstanding.
	Idle State = iota
	// InFlight means a request has started and not yet completed.
	InFlight
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case InFlight:
		return "in_flight"
	default:
		return "unknown"
	}
}

// Guard admits at most one outstanding request at a time.
// The zero value is an idle guard ready for use.
type Guard struct {
	mu    sync.Mutex
	state State
}

// transition moves the guard from one state to another and reports whether
// the guard was in the expected state. It is the only place state changes.
func (g *Guard) transition(from, to State) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.state != from {
		return false
	}
	g.state = to
	return true
}

// TryBegin marks the guard in flight. It returns false when a request is
// already outstanding, in which case the caller must drop its trigger.
func (g *Guard) TryBegin() bool {
	return g.transition(Idle, InFlight)
}

// Finish returns the guard to Idle. Calling Finish on an idle guard is a no-op.
func (g *Guard) Finish() {
	g.transition(InFlight, Idle)
}

// State returns the current request state.
func (g *Guard) State() State {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.state
}
