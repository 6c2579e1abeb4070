// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/Thermoquad/irrigator/pkg/link"
	"github.com/spf13/cobra"
)

var scanTimeout int

var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "List candidate serial devices",
	Long: `List the serial ports the controller may be attached to.

Each port is checked against the device permission before it is printed, so a
port that is listed but not accessible is marked as such.

Examples:
  irrigator scan
  irrigator scan --timeout 2

Exit codes:
  0 - At least one device found
  1 - No devices found
  2 - Scan error`,
	RunE: runScan,
}

func init() {
	rootCmd.AddCommand(scanCmd)
	scanCmd.Flags().IntVar(&scanTimeout, "timeout", 5, "Timeout in seconds for the scan")
}

func runScan(cmd *cobra.Command, args []string) error {
	mgr := newSerialManager()
	defer mgr.Close()

	ctx, cancel := context.WithTimeout(cmd.Context(), time.Duration(scanTimeout)*time.Second)
	defer cancel()

	fmt.Printf("Irrigator - Device Scan\n\n")

	devices, err := mgr.Scan(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Scan error: %v\n", err)
		os.Exit(2)
	}

	if len(devices) == 0 {
		fmt.Println("No devices found")
		os.Exit(1)
	}

	fmt.Printf("Found %d device(s):\n", len(devices))
	for i, dev := range devices {
		note := ""
		if err := link.DevicePermission(dev); err != nil {
			note = " (no access)"
			if !errors.Is(err, os.ErrPermission) {
				note = fmt.Sprintf(" (%v)", err)
			}
		}
		fmt.Printf("  %d. %s%s\n", i+1, dev, note)
	}
	return nil
}
