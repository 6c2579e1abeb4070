// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

//go:build !unix

package link

// DevicePermission is permissive where device nodes have no access bits to check
func DevicePermission(deviceID string) error {
	return nil
}
