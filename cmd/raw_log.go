// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Thermoquad/irrigator/pkg/irrlink"
	"github.com/Thermoquad/irrigator/pkg/link"
	"github.com/spf13/cobra"
)

var rawLogCmd = &cobra.Command{
	Use:   "raw_log",
	Short: "Display decoded controller lines in human-readable format",
	Long: `Continuously decode and display controller lines as they arrive.

Each line is shown with a timestamp and its frame kind. Status frames are
expanded into humidity, light, pump state, day index and rain probability.
Malformed status lines are counted but not shown; the decoder statistics are
printed on exit.

Supports both serial and WebSocket connections.`,
	RunE: runRawLog,
}

func init() {
	rootCmd.AddCommand(rawLogCmd)
}

func runRawLog(cmd *cobra.Command, args []string) error {
	mgr, deviceID, connInfo, err := newManager(func(f irrlink.Frame) {
		fmt.Print(irrlink.FormatFrame(f, time.Now()))
	})
	if err != nil {
		return err
	}
	defer mgr.Close()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	fmt.Printf("Irrigator - Raw Line Log\n")
	fmt.Printf("Connection: %s\n", connInfo)
	fmt.Printf("Press Ctrl+C to exit\n\n")

	if err := connect(ctx, mgr, deviceID); err != nil {
		return err
	}

	state := waitForLoss(ctx, mgr)
	stats := mgr.Stats()
	fmt.Println()
	fmt.Print(stats.String())

	if state == link.Failed && ctx.Err() == nil {
		fmt.Fprintln(os.Stderr, "Connection closed")
	}
	return nil
}
