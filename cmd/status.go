// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/Thermoquad/irrigator/pkg/controller"
	"github.com/Thermoquad/irrigator/pkg/irrlink"
	"github.com/spf13/cobra"
)

var (
	statusTimeout int
	statusCount   int
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Query the controller for a sensor reading",
	Long: `Send the status query (S:) and wait for the controller's status line.

This verifies the full round trip: the link is open, the controller accepts
commands and its reply decodes into a sensor reading. With --count the query
is repeated and a round-trip summary is printed.

Exit codes:
  0 - Every query answered
  1 - One or more queries failed or timed out
  2 - Connection error`,
	RunE: runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
	statusCmd.Flags().IntVar(&statusTimeout, "timeout", 5, "Timeout in seconds for each query")
	statusCmd.Flags().IntVar(&statusCount, "count", 1, "Number of queries to send")
}

func runStatus(cmd *cobra.Command, args []string) error {
	mgr, deviceID, connInfo, err := newManager(nil)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Connection error: %v\n", err)
		os.Exit(2)
	}
	defer mgr.Close()

	ctx := cmd.Context()
	if err := connect(ctx, mgr, deviceID); err != nil {
		fmt.Fprintf(os.Stderr, "Connection error: %s\n", controller.UserMessage(err))
		os.Exit(2)
	}

	ctrl := controller.New(controller.Options{Link: mgr, Logger: log.Named("controller")})
	defer ctrl.Close()

	fmt.Printf("Irrigator - Status Query\n")
	fmt.Printf("Connection: %s\n", connInfo)
	fmt.Printf("Timeout: %d seconds per query\n\n", statusTimeout)

	successCount := 0
	for i := 1; i <= statusCount; i++ {
		if statusCount > 1 {
			fmt.Printf("Query %d/%d: ", i, statusCount)
		}

		start := time.Now()
		qctx, cancel := context.WithTimeout(ctx, time.Duration(statusTimeout)*time.Second)
		reading, err := ctrl.QueryStatus(qctx)
		cancel()

		if err != nil {
			fmt.Printf("FAILED: %s\n", controller.UserMessage(err))
		} else {
			successCount++
			fmt.Printf("reply in %v\n", time.Since(start).Round(time.Millisecond))
			fmt.Print(irrlink.FormatReading(reading))
		}

		// Small delay between queries
		if i < statusCount {
			time.Sleep(100 * time.Millisecond)
		}
	}

	if statusCount > 1 {
		fmt.Printf("\n--- Status statistics ---\n")
		fmt.Printf("%d queries sent, %d replies received, %.0f%% loss\n",
			statusCount, successCount, float64(statusCount-successCount)/float64(statusCount)*100)
	}

	if successCount < statusCount {
		_ = mgr.Close()
		os.Exit(1)
	}
	return nil
}
