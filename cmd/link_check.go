// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/Thermoquad/irrigator/pkg/irrlink"
	"github.com/Thermoquad/irrigator/pkg/link"
	"github.com/spf13/cobra"
)

var linkCheckDuration int

var linkCheckCmd = &cobra.Command{
	Use:   "link_check",
	Short: "Test connection stability without sending commands",
	Long: `Open the link and listen for the given duration without sending anything.

Every received line is logged with its frame kind, and a heartbeat is printed
each second. Useful for debugging serial noise or a WebSocket bridge that
drops idle connections.

Exit codes:
  0 - Link stayed up for the whole duration
  1 - Link failed during the test
  2 - Connection error`,
	RunE: runLinkCheck,
}

func init() {
	rootCmd.AddCommand(linkCheckCmd)
	linkCheckCmd.Flags().IntVar(&linkCheckDuration, "duration", 30, "Test duration in seconds")
}

func runLinkCheck(cmd *cobra.Command, args []string) error {
	lines := make(chan irrlink.Frame, 100)
	mgr, deviceID, connInfo, err := newManager(func(f irrlink.Frame) {
		select {
		case lines <- f:
		default:
		}
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Connection error: %v\n", err)
		os.Exit(2)
	}
	defer mgr.Close()

	fmt.Printf("Link Stability Test\n")
	fmt.Printf("Connection: %s\n", connInfo)
	fmt.Printf("Duration: %d seconds\n\n", linkCheckDuration)

	if err := connect(cmd.Context(), mgr, deviceID); err != nil {
		fmt.Fprintf(os.Stderr, "Connection error: %v\n", err)
		os.Exit(2)
	}

	states, cancel := mgr.WatchState(4)
	defer cancel()

	ctx, stop := context.WithTimeout(cmd.Context(), time.Duration(linkCheckDuration)*time.Second)
	defer stop()

	heartbeat := time.NewTicker(time.Second)
	defer heartbeat.Stop()

	start := time.Now()
	fmt.Printf("Listening for data...\n\n")

	for {
		select {
		case f := <-lines:
			fmt.Printf("[%s] %s %q\n", time.Now().Format("15:04:05.000"), f.Kind(), f.Line())

		case s := <-states:
			if s == link.Connected {
				continue
			}
			fmt.Printf("\n[%s] Link %s\n", time.Now().Format("15:04:05.000"), s)
			printLinkCheckResults(mgr.Stats(), time.Since(start))
			fmt.Printf("Result: FAILED (connection lost)\n")
			os.Exit(1)

		case <-heartbeat.C:
			remaining := time.Until(start.Add(time.Duration(linkCheckDuration) * time.Second)).Seconds()
			fmt.Printf("[%s] Still connected... (%.0fs remaining)\n",
				time.Now().Format("15:04:05.000"), remaining)

		case <-ctx.Done():
			printLinkCheckResults(mgr.Stats(), time.Since(start))
			fmt.Printf("Result: PASSED (connection stable)\n")
			return nil
		}
	}
}

func printLinkCheckResults(stats irrlink.Statistics, elapsed time.Duration) {
	fmt.Printf("\n--- Test Results ---\n")
	fmt.Printf("Duration: %v\n", elapsed.Round(time.Second))
	fmt.Printf("Lines received: %d\n", stats.TotalLines)
	fmt.Printf("Bytes received: %d\n", stats.BytesReceived)
}
