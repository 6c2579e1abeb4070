// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package link

import (
	"context"
	"io"
)

// Transport opens byte streams to a controller
type Transport interface {
	// Open performs the handshake with deviceID and returns the live stream
	Open(ctx context.Context, deviceID string) (io.ReadWriteCloser, error)
}

// Lister is implemented by transports that can enumerate candidate devices
type Lister interface {
	List(ctx context.Context) ([]string, error)
}

// PermissionFunc checks that the process may open deviceID.
// A non-nil error rejects the connect request.
type PermissionFunc func(deviceID string) error

// AllowAll is a PermissionFunc that never denies
func AllowAll(string) error { return nil }
