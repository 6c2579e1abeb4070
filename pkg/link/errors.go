// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package link

import (
	"errors"
	"fmt"
)

var (
	// ErrCapabilityDenied is returned when the transport permission is missing.
	// The state is left unchanged.
	ErrCapabilityDenied = errors.New("transport permission denied")

	// ErrConnectInProgress is returned when a connect or scan is already running
	ErrConnectInProgress = errors.New("connect already in progress")

	// ErrNotConnected is returned by Send outside the Connected state
	ErrNotConnected = errors.New("not connected")

	// ErrScanUnsupported is returned by Scan when the transport cannot list devices
	ErrScanUnsupported = errors.New("transport does not support scanning")

	// ErrInvalidTransition is returned when a lifecycle request is illegal in the current state
	ErrInvalidTransition = errors.New("invalid state transition")
)

// TransportError is an I/O failure on the transport. It drives the state to Failed.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("transport %s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}
