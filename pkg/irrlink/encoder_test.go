// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package irrlink

import "testing"

func TestEncode(t *testing.T) {
	tests := []struct {
		name string
		cmd  Command
		want string
	}{
		{
			name: "rainfall full week",
			cmd:  NewSetRainfall(10, 20, 30, 40, 50, 60, 70),
			want: "W:10,20,30,40,50,60,70",
		},
		{
			name: "rainfall truncated to a week",
			cmd:  NewSetRainfall(10, 20, 30, 40, 50, 60, 70, 80),
			want: "W:10,20,30,40,50,60,70",
		},
		{
			name: "rainfall short array not padded",
			cmd:  NewSetRainfall(5, 0, 15),
			want: "W:5,0,15",
		},
		{
			name: "rainfall empty",
			cmd:  NewSetRainfall(),
			want: "W:",
		},
		{
			name: "temperature",
			cmd:  NewSetTemperature(25, 26, 24, 23, 22, 21, 20, 19, 18),
			want: "T:25,26,24,23,22,21,20",
		},
		{
			name: "negative temperature",
			cmd:  NewSetTemperature(-3, 0, 2),
			want: "T:-3,0,2",
		},
		{
			name: "season",
			cmd:  NewSetSeason(2),
			want: "M:2",
		},
		{
			name: "humidity threshold",
			cmd:  NewSetHumidityThreshold(600),
			want: "N:600",
		},
		{
			name: "threshold out of range is not validated here",
			cmd:  NewSetHumidityThreshold(5000),
			want: "N:5000",
		},
		{
			name: "query status",
			cmd:  NewQueryStatus(),
			want: "S:",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Encode(tt.cmd); got != tt.want {
				t.Errorf("Encode() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestEncode_TruncationEquivalence(t *testing.T) {
	long := Encode(NewSetRainfall(10, 20, 30, 40, 50, 60, 70, 80))
	exact := Encode(NewSetRainfall(10, 20, 30, 40, 50, 60, 70))

	if long != exact || exact != "W:10,20,30,40,50,60,70" {
		t.Errorf("long=%q exact=%q", long, exact)
	}
}

func TestEncode_DoesNotMutateInput(t *testing.T) {
	values := []int{1, 2, 3, 4, 5, 6, 7, 8, 9}
	Encode(SetRainfall{Values: values})

	if len(values) != 9 || values[8] != 9 {
		t.Errorf("input slice modified: %v", values)
	}
}

func TestEncodeLine(t *testing.T) {
	got := string(EncodeLine(NewSetSeason(4)))
	if got != "M:4\n" {
		t.Errorf("EncodeLine() = %q, want %q", got, "M:4\n")
	}
}

func TestEncodedStatusQueryIsNotAStatusFrame(t *testing.T) {
	// The S: query echoed back must not be mistaken for a reading
	_, err := ParseLine(Encode(NewQueryStatus()))
	if err != ErrMalformedStatus {
		t.Errorf("ParseLine(S:) error = %v, want ErrMalformedStatus", err)
	}
}

func TestFormatCommandName(t *testing.T) {
	if got := FormatCommandName(NewSetHumidityThreshold(1)); got != "SET_HUMIDITY_THRESHOLD" {
		t.Errorf("FormatCommandName() = %q", got)
	}
	if got := FormatCommand(NewQueryStatus()); got != `QUERY_STATUS "S:"` {
		t.Errorf("FormatCommand() = %q", got)
	}
}
