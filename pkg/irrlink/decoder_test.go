// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package irrlink

import (
	"errors"
	"reflect"
	"testing"
)

// ============================================================
// Line Splitting Tests
// ============================================================

func TestDecoderLines_CompleteLines(t *testing.T) {
	d := NewDecoder()
	lines := d.Lines([]byte("S:1,2,3,4,5\nHELLO\n"))

	want := []string{"S:1,2,3,4,5", "HELLO"}
	if !reflect.DeepEqual(lines, want) {
		t.Errorf("Lines() = %q, want %q", lines, want)
	}
	if len(d.Pending()) != 0 {
		t.Errorf("Pending() = %q, want empty", d.Pending())
	}
}

func TestDecoderLines_PartialLineCarriedOver(t *testing.T) {
	d := NewDecoder()

	if lines := d.Lines([]byte("S:512,3")); len(lines) != 0 {
		t.Fatalf("expected no lines from partial chunk, got %q", lines)
	}
	if string(d.Pending()) != "S:512,3" {
		t.Fatalf("Pending() = %q, want %q", d.Pending(), "S:512,3")
	}

	lines := d.Lines([]byte("00,1,2,40\nS:"))
	if !reflect.DeepEqual(lines, []string{"S:512,300,1,2,40"}) {
		t.Errorf("Lines() = %q", lines)
	}
	if string(d.Pending()) != "S:" {
		t.Errorf("Pending() = %q, want %q", d.Pending(), "S:")
	}
}

func TestDecoderLines_TrimsAndSkipsEmpty(t *testing.T) {
	d := NewDecoder()
	lines := d.Lines([]byte("  \n\r\n  S:1,2,0,3,4 \r\n\n"))

	want := []string{"S:1,2,0,3,4"}
	if !reflect.DeepEqual(lines, want) {
		t.Errorf("Lines() = %q, want %q", lines, want)
	}
}

func TestDecoderLines_DelimiterAloneInChunk(t *testing.T) {
	d := NewDecoder()
	d.Lines([]byte("ABC\r"))
	lines := d.Lines([]byte("\n"))

	if !reflect.DeepEqual(lines, []string{"ABC"}) {
		t.Errorf("Lines() = %q, want [ABC]", lines)
	}
}

func TestDecoderReset(t *testing.T) {
	d := NewDecoder()
	d.Lines([]byte("S:1,2"))
	d.Reset()

	lines := d.Lines([]byte("X\n"))
	if !reflect.DeepEqual(lines, []string{"X"}) {
		t.Errorf("Lines() after Reset = %q, want [X]", lines)
	}
}

// ============================================================
// Line Classification Tests
// ============================================================

func TestParseLine(t *testing.T) {
	tests := []struct {
		name    string
		line    string
		want    Frame
		wantErr error
	}{
		{
			name: "status frame",
			line: "S:612,340,1,2,35",
			want: StatusFrame{
				Reading: SensorReading{Humidity: 612, Light: 340, PumpOn: true, DayIndex: 2, RainProbability: 35},
				Raw:     "S:612,340,1,2,35",
			},
		},
		{
			name: "pump off",
			line: "S:100,200,0,0,0",
			want: StatusFrame{
				Reading: SensorReading{Humidity: 100, Light: 200},
				Raw:     "S:100,200,0,0,0",
			},
		},
		{
			name: "non numeric fields default to zero",
			line: "S:abc,200,x,?,7",
			want: StatusFrame{
				Reading: SensorReading{Light: 200, RainProbability: 7},
				Raw:     "S:abc,200,x,?,7",
			},
		},
		{
			name: "extra fields ignored",
			line: "S:1,2,1,3,4,99",
			want: StatusFrame{
				Reading: SensorReading{Humidity: 1, Light: 2, PumpOn: true, DayIndex: 3, RainProbability: 4},
				Raw:     "S:1,2,1,3,4,99",
			},
		},
		{
			name:    "too few fields",
			line:    "S:1,2,3,4",
			wantErr: ErrMalformedStatus,
		},
		{
			name:    "bare status tag",
			line:    "S:",
			wantErr: ErrMalformedStatus,
		},
		{
			name: "unknown line",
			line: "BOOT v1.2",
			want: UnknownFrame{Raw: "BOOT v1.2"},
		},
		{
			name: "lowercase tag is not status",
			line: "s:1,2,3,4,5",
			want: UnknownFrame{Raw: "s:1,2,3,4,5"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseLine(tt.line)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("ParseLine() error = %v, want %v", err, tt.wantErr)
				}
				if got != nil {
					t.Errorf("ParseLine() frame = %#v, want nil", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseLine() unexpected error: %v", err)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("ParseLine() = %#v, want %#v", got, tt.want)
			}
		})
	}
}

// ============================================================
// Feed Tests
// ============================================================

func TestDecoderFeed_MalformedDoesNotHaltDecoding(t *testing.T) {
	d := NewDecoder()
	frames := d.Feed([]byte("S:1,2,3\nS:10,20,1,1,30\nREADY\n"))

	if len(frames) != 2 {
		t.Fatalf("Feed() returned %d frames, want 2", len(frames))
	}
	status, ok := frames[0].(StatusFrame)
	if !ok {
		t.Fatalf("frames[0] = %T, want StatusFrame", frames[0])
	}
	if status.Reading.Humidity != 10 || !status.Reading.PumpOn {
		t.Errorf("unexpected reading: %+v", status.Reading)
	}
	if frames[1].Kind() != KindUnknown {
		t.Errorf("frames[1].Kind() = %v, want UNKNOWN", frames[1].Kind())
	}

	stats := d.Statistics()
	if stats.TotalLines != 3 || stats.MalformedFrames != 1 || stats.StatusFrames != 1 || stats.UnknownFrames != 1 {
		t.Errorf("unexpected statistics: %+v", *stats)
	}
}

func TestDecoderFeed_ShortStatusNeverProducesReading(t *testing.T) {
	d := NewDecoder()
	last := SensorReading{Humidity: 700, Light: 10, DayIndex: 1, RainProbability: 20}

	for _, chunk := range []string{"S:1\n", "S:1,2\n", "S:1,2,3\n", "S:1,2,3,4\n", "S:\n"} {
		for _, f := range d.Feed([]byte(chunk)) {
			if s, ok := f.(StatusFrame); ok {
				last = s.Reading
			}
		}
	}

	want := SensorReading{Humidity: 700, Light: 10, DayIndex: 1, RainProbability: 20}
	if last != want {
		t.Errorf("reading changed to %+v, want %+v", last, want)
	}
}

func TestDecoderFeed_CountsBytes(t *testing.T) {
	d := NewDecoder()
	d.Feed([]byte("abc"))
	d.Feed([]byte("de\n"))

	if got := d.Statistics().BytesReceived; got != 6 {
		t.Errorf("BytesReceived = %d, want 6", got)
	}
}
