// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

//go:build unix

package link

import (
	"fmt"
	"strings"

	"golang.org/x/sys/unix"
)

// DevicePermission checks read/write access to a serial device node.
// URLs are not device nodes and always pass.
func DevicePermission(deviceID string) error {
	if strings.Contains(deviceID, "://") {
		return nil
	}
	if err := unix.Access(deviceID, unix.R_OK|unix.W_OK); err != nil {
		return fmt.Errorf("%s: %w", deviceID, err)
	}
	return nil
}
