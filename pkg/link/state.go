// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

// Package link owns the transport to the irrigation controller: connection
// lifecycle, the background read loop and outbound command delivery.
package link

import "fmt"

// State is the connection lifecycle state
type State int

const (
	Disconnected State = iota
	Scanning
	Connecting
	Connected
	Failed
)

// String returns the state name
func (s State) String() string {
	switch s {
	case Disconnected:
		return "DISCONNECTED"
	case Scanning:
		return "SCANNING"
	case Connecting:
		return "CONNECTING"
	case Connected:
		return "CONNECTED"
	case Failed:
		return "FAILED"
	default:
		return fmt.Sprintf("STATE(%d)", int(s))
	}
}

// transitions lists the states reachable from each state.
// Connecting is the only way into Connected.
var transitions = map[State][]State{
	Disconnected: {Scanning, Connecting},
	Scanning:     {Disconnected},
	Connecting:   {Connected, Failed},
	Connected:    {Disconnected, Failed},
	Failed:       {Scanning, Connecting},
}

// CanTransition reports whether from -> to is a legal transition
func CanTransition(from, to State) bool {
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}
