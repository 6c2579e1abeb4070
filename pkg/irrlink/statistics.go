// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package irrlink

import (
	"fmt"
	"time"
)

// Statistics tracks line and frame counts for a decoded stream.
// It is a plain value; owners serialize access.
type Statistics struct {
	StartTime      time.Time
	LastUpdateTime time.Time

	// Counters
	BytesReceived   uint64
	TotalLines      uint64
	StatusFrames    uint64
	UnknownFrames   uint64
	MalformedFrames uint64

	// Rates (calculated)
	LineRate  float64 // lines/sec
	ErrorRate float64 // malformed/sec
}

// NewStatistics creates a new statistics tracker
func NewStatistics() *Statistics {
	now := time.Now()
	return &Statistics{
		StartTime:      now,
		LastUpdateTime: now,
	}
}

// Update updates statistics for one parsed line
func (s *Statistics) Update(frame Frame, parseErr error) {
	s.TotalLines++

	switch {
	case parseErr != nil:
		s.MalformedFrames++
	case frame.Kind() == KindStatus:
		s.StatusFrames++
	default:
		s.UnknownFrames++
	}

	s.LastUpdateTime = time.Now()
}

// CalculateRates calculates line and error rates
func (s *Statistics) CalculateRates() {
	elapsed := time.Since(s.StartTime).Seconds()
	if elapsed > 0 {
		s.LineRate = float64(s.TotalLines) / elapsed
		s.ErrorRate = float64(s.MalformedFrames) / elapsed
	}
}

// String returns a formatted statistics summary
func (s *Statistics) String() string {
	s.CalculateRates()

	var statusPercent, malformedPercent float64
	if s.TotalLines > 0 {
		statusPercent = float64(s.StatusFrames) * 100.0 / float64(s.TotalLines)
		malformedPercent = float64(s.MalformedFrames) * 100.0 / float64(s.TotalLines)
	}

	elapsed := time.Since(s.StartTime)

	result := fmt.Sprintf("=== Statistics (%.0f seconds) ===\n", elapsed.Seconds())
	result += fmt.Sprintf("Bytes Received:  %8d\n", s.BytesReceived)
	result += fmt.Sprintf("Total Lines:     %8d\n", s.TotalLines)
	result += fmt.Sprintf("Status Frames:   %8d (%.1f%%)\n", s.StatusFrames, statusPercent)
	if s.UnknownFrames > 0 {
		result += fmt.Sprintf("Unknown Lines:   %8d\n", s.UnknownFrames)
	}
	if s.MalformedFrames > 0 {
		result += fmt.Sprintf("Malformed:       %8d (%.1f%%)\n", s.MalformedFrames, malformedPercent)
	}
	result += fmt.Sprintf("Line Rate:       %8.1f lines/sec\n", s.LineRate)
	result += fmt.Sprintf("Error Rate:      %8.1f errors/sec\n", s.ErrorRate)
	result += "================================\n"

	return result
}

// Reset resets all statistics counters
func (s *Statistics) Reset() {
	*s = *NewStatistics()
}
