// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/Thermoquad/irrigator/pkg/controller"
	"github.com/Thermoquad/irrigator/pkg/irrlink"
	"github.com/spf13/cobra"
)

var (
	frameTestRefresh bool
	frameTestWait    int
)

var frameTestCmd = &cobra.Command{
	Use:   "frametest",
	Short: "Print the wire lines a sync would send",
	Long: `Print the command lines for the current forecast and settings without
touching the device.

The cached forecast is used when present; --refresh fetches a new one first.
With --wait N the command then opens the link and waits up to N seconds for the
first well-formed status line, which checks the receive path as well.

Exit codes:
  0 - Lines printed (and a status line received with --wait)
  1 - Timeout reached without a status line
  2 - Forecast or connection error`,
	RunE: runFrameTest,
}

func init() {
	rootCmd.AddCommand(frameTestCmd)
	frameTestCmd.Flags().BoolVar(&frameTestRefresh, "refresh", false, "Fetch a fresh forecast first")
	frameTestCmd.Flags().IntVar(&frameTestWait, "wait", 0, "Wait this many seconds for a status line (0 = don't connect)")
}

func runFrameTest(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	ctrl, cleanup, err := openController(ctx, appOptions{})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(2)
	}
	defer cleanup()

	if frameTestRefresh || len(ctrl.Forecast()) == 0 {
		if _, err := ctrl.RefreshForecast(ctx); err != nil {
			fmt.Fprintf(os.Stderr, "Forecast error: %s\n", controller.UserMessage(err))
			os.Exit(2)
		}
	}

	cmds, err := ctrl.DeviceCommands()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", controller.UserMessage(err))
		os.Exit(2)
	}

	fmt.Printf("Irrigator - Frame Test\n")
	fmt.Printf("Location: %s, Season: %s\n\n", ctrl.Location().Name, ctrl.Season())
	for _, c := range cmds {
		fmt.Println(irrlink.FormatCommand(c))
	}

	if frameTestWait <= 0 {
		return nil
	}

	frames := make(chan irrlink.StatusFrame, 1)
	mgr, deviceID, connInfo, err := newManager(func(f irrlink.Frame) {
		if status, ok := f.(irrlink.StatusFrame); ok {
			select {
			case frames <- status:
			default:
			}
		}
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Connection error: %v\n", err)
		os.Exit(2)
	}
	defer mgr.Close()

	fmt.Printf("\nConnection: %s\n", connInfo)
	fmt.Printf("Waiting up to %d seconds for a status line...\n\n", frameTestWait)

	if err := connect(ctx, mgr, deviceID); err != nil {
		fmt.Fprintf(os.Stderr, "Connection error: %s\n", controller.UserMessage(err))
		os.Exit(2)
	}

	select {
	case f := <-frames:
		stats := mgr.Stats()
		fmt.Printf("SUCCESS: Received status line %q\n", f.Raw)
		fmt.Print(irrlink.FormatReading(f.Reading))
		if skipped := stats.TotalLines - stats.StatusFrames; skipped > 0 {
			fmt.Printf("(skipped %d other lines first)\n", skipped)
		}
		return nil

	case <-time.After(time.Duration(frameTestWait) * time.Second):
		fmt.Fprintf(os.Stderr, "TIMEOUT: No status line received within %d seconds\n", frameTestWait)
		_ = mgr.Close()
		os.Exit(1)
	}
	return nil
}
