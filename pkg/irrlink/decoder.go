// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package irrlink

import (
	"bytes"
	"errors"
	"strconv"
	"strings"
)

// ErrMalformedStatus is returned by ParseLine for a status line with too few fields
var ErrMalformedStatus = errors.New("malformed status frame")

// Decoder splits an arbitrarily chunked byte stream into lines and classifies them.
// A trailing partial line is carried over to the next call.
// Decoder is not safe for concurrent use; one read loop owns it.
type Decoder struct {
	pending []byte
	stats   *Statistics
}

// NewDecoder creates a new line decoder
func NewDecoder() *Decoder {
	return &Decoder{
		pending: make([]byte, 0, 256),
		stats:   NewStatistics(),
	}
}

// Reset discards any buffered partial line
func (d *Decoder) Reset() {
	d.pending = d.pending[:0]
}

// Pending returns the buffered partial line
func (d *Decoder) Pending() []byte {
	return d.pending
}

// Statistics returns the decoder's statistics tracker
func (d *Decoder) Statistics() *Statistics {
	return d.stats
}

// Lines appends chunk to the carry-over buffer and returns every complete line,
// trimmed of surrounding whitespace. Lines that are empty after trimming are skipped.
func (d *Decoder) Lines(chunk []byte) []string {
	d.stats.BytesReceived += uint64(len(chunk))
	d.pending = append(d.pending, chunk...)

	var lines []string
	start := 0
	for {
		idx := bytes.IndexByte(d.pending[start:], Delimiter)
		if idx < 0 {
			break
		}
		line := strings.TrimSpace(string(d.pending[start : start+idx]))
		start += idx + 1
		if line != "" {
			lines = append(lines, line)
		}
	}

	// Move the partial line to the front of the buffer
	if start > 0 {
		n := copy(d.pending, d.pending[start:])
		d.pending = d.pending[:n]
	}

	return lines
}

// Feed decodes a chunk and returns the frames completed by it, in stream order.
// Malformed status lines are counted and dropped; they never stop decoding.
func (d *Decoder) Feed(chunk []byte) []Frame {
	lines := d.Lines(chunk)
	frames := make([]Frame, 0, len(lines))
	for _, line := range lines {
		frame, err := ParseLine(line)
		d.stats.Update(frame, err)
		if err != nil {
			continue
		}
		frames = append(frames, frame)
	}
	return frames
}

// ParseLine classifies a single trimmed line.
// Status lines need at least StatusFieldCount fields; extra fields are ignored.
// Non-numeric fields read as 0.
func ParseLine(line string) (Frame, error) {
	if !strings.HasPrefix(line, TagStatus) {
		return UnknownFrame{Raw: line}, nil
	}

	parts := strings.Split(line[len(TagStatus):], ",")
	if len(parts) < StatusFieldCount {
		return nil, ErrMalformedStatus
	}

	reading := SensorReading{
		Humidity:        atoiOrZero(parts[fieldHumidity]),
		Light:           atoiOrZero(parts[fieldLight]),
		PumpOn:          strings.TrimSpace(parts[fieldPump]) == "1",
		DayIndex:        atoiOrZero(parts[fieldDayIndex]),
		RainProbability: atoiOrZero(parts[fieldRainProbability]),
	}
	return StatusFrame{Reading: reading, Raw: line}, nil
}

func atoiOrZero(s string) int {
	v, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0
	}
	return v
}
