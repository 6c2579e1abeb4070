// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Thermoquad/irrigator/pkg/irrlink"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
)

var (
	showAll       bool
	statsInterval int
	useTUI        bool
)

var errorDetectionCmd = &cobra.Command{
	Use:   "error_detection",
	Short: "Detect and analyze malformed lines and implausible readings",
	Long: `Track malformed status lines and anomalous sensor values with statistics.

This command checks each received line and detects:
  - Malformed status lines (fewer than 5 fields)
  - Non-numeric fields and pump values other than 0/1
  - Anomalous readings (humidity or light outside 0-1023, day index outside
    0-6, rain probability above 100%)
  - Statistics and trends (line rate, error rate, status share)

By default, only problems are displayed. Use --show-all to display valid lines too.

Lines are validated in real-time, with errors highlighted immediately and
periodic statistics summaries displayed at configurable intervals.`,
	RunE: runErrorDetection,
}

func init() {
	rootCmd.AddCommand(errorDetectionCmd)
	errorDetectionCmd.Flags().BoolVar(&showAll, "show-all", false, "Show all lines (not just errors)")
	errorDetectionCmd.Flags().IntVar(&statsInterval, "stats-interval", 10, "Statistics update interval (seconds)")
	errorDetectionCmd.Flags().BoolVar(&useTUI, "tui", true, "Use terminal UI (false for text mode)")
}

// lineEvent is one received line after parsing and validation
type lineEvent struct {
	at        time.Time
	line      string
	frame     irrlink.Frame
	parseErr  error
	anomalies []irrlink.ValidationError
}

// lineBatchMsg carries the lines completed by one read
type lineBatchMsg struct {
	bytes  int
	events []lineEvent
}

// readErrMsg ends the session
type readErrMsg struct{ err error }

func runErrorDetection(cmd *cobra.Command, args []string) error {
	transport, deviceID, err := openTransport()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	openCtx, cancel := context.WithTimeout(ctx, connectTimeout)
	conn, err := transport.Open(openCtx, deviceID)
	cancel()
	if err != nil {
		return fmt.Errorf("failed to open %s: %v", transport.Describe(deviceID), err)
	}
	defer conn.Close()

	if useTUI {
		return runTUIMode(conn, transport.Describe(deviceID))
	}
	return runTextMode(ctx, conn, transport.Describe(deviceID))
}

// readLines reads conn until it fails, handing every chunk's lines to emit
func readLines(conn io.Reader, emit func(lineBatchMsg)) error {
	decoder := irrlink.NewDecoder()
	buf := make([]byte, 128)
	for {
		n, err := conn.Read(buf)
		if n > 0 {
			batch := lineBatchMsg{bytes: n}
			for _, line := range decoder.Lines(buf[:n]) {
				batch.events = append(batch.events, checkLine(line, time.Now()))
			}
			emit(batch)
		}
		if err != nil {
			return err
		}
	}
}

// checkLine parses and validates one line
func checkLine(line string, at time.Time) lineEvent {
	ev := lineEvent{at: at, line: line}
	ev.frame, ev.parseErr = irrlink.ParseLine(line)
	if status, ok := ev.frame.(irrlink.StatusFrame); ok {
		ev.anomalies = irrlink.ValidateStatus(status)
	}
	return ev
}

// printLineError prints a malformed line in highlighted format
func printLineError(ev lineEvent) {
	timestamp := ev.at.Format("15:04:05.000")
	fmt.Printf("[%s] \033[1;31mMALFORMED:\033[0m %q\n", timestamp, ev.line)
	fmt.Printf("  %v\n", ev.parseErr)
	fmt.Printf("  >>> LINE DROPPED <<<\n\n")
}

// printValidationErrors prints the anomalies of an accepted status line
func printValidationErrors(ev lineEvent) {
	timestamp := ev.at.Format("15:04:05.000")
	fmt.Printf("[%s] \033[1;33mANOMALY:\033[0m %q\n", timestamp, ev.line)
	for i, a := range ev.anomalies {
		switch a.Type {
		case irrlink.AnomalyNonNumeric, irrlink.AnomalyInvalidPump:
			fmt.Printf("  Issue %d: \033[1;31m%s\033[0m\n", i+1, a.Message)
		default:
			fmt.Printf("  Issue %d: \033[1;33m%s\033[0m\n", i+1, a.Message)
		}
	}
	if status, ok := ev.frame.(irrlink.StatusFrame); ok {
		fmt.Print(irrlink.FormatReading(status.Reading))
	}
	fmt.Printf("  >>> READING ACCEPTED AS DECODED <<<\n\n")
}

// runTUIMode runs error detection in TUI mode
func runTUIMode(conn io.ReadWriteCloser, connInfo string) error {
	m := initialModel(connInfo, statsInterval, showAll)
	p := tea.NewProgram(m)

	go func() {
		err := readLines(conn, func(batch lineBatchMsg) { p.Send(batch) })
		p.Send(readErrMsg{err: err})
	}()

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("TUI error: %v", err)
	}
	return nil
}

// runTextMode runs error detection in text mode
func runTextMode(ctx context.Context, conn io.ReadWriteCloser, connInfo string) error {
	fmt.Printf("Irrigator - Error Detection Mode\n")
	fmt.Printf("Connection: %s\n", connInfo)
	fmt.Printf("Statistics interval: %d seconds\n", statsInterval)
	if showAll {
		fmt.Printf("Mode: All lines\n")
	} else {
		fmt.Printf("Mode: Errors only\n")
	}
	fmt.Printf("Press Ctrl+C to exit\n\n")

	stats := irrlink.NewStatistics()

	statsTicker := time.NewTicker(time.Duration(statsInterval) * time.Second)
	defer statsTicker.Stop()

	batches := make(chan lineBatchMsg, 10)
	readErr := make(chan error, 1)
	go func() {
		readErr <- readLines(conn, func(batch lineBatchMsg) { batches <- batch })
	}()

	for {
		select {
		case batch := <-batches:
			stats.BytesReceived += uint64(batch.bytes)
			for _, ev := range batch.events {
				stats.Update(ev.frame, ev.parseErr)

				switch {
				case ev.parseErr != nil:
					printLineError(ev)
				case len(ev.anomalies) > 0:
					printValidationErrors(ev)
				case showAll:
					fmt.Print(irrlink.FormatFrame(ev.frame, ev.at))
				}
			}

		case <-statsTicker.C:
			fmt.Println()
			fmt.Print(stats.String())
			fmt.Println()

		case err := <-readErr:
			fmt.Println()
			fmt.Print(stats.String())
			return fmt.Errorf("read failed: %w", err)

		case <-ctx.Done():
			fmt.Println()
			fmt.Print(stats.String())
			return nil
		}
	}
}
