// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package advisory

import (
	"errors"
	"testing"
)

func TestExtractObject(t *testing.T) {
	tests := []struct {
		name    string
		text    string
		want    string
		wantErr error
	}{
		{name: "bare object", text: `{"a":1}`, want: `{"a":1}`},
		{name: "leading and trailing prose", text: "Here you go:\n```json\n{\"a\":1}\n```\nEnjoy!", want: `{"a":1}`},
		{name: "nested braces keep outer span", text: `x {"a":{"b":2}} y`, want: `{"a":{"b":2}}`},
		{name: "no braces", text: "sorry, I can't help", wantErr: ErrNoObject},
		{name: "closing before opening", text: "} oops {", wantErr: ErrNoObject},
		{name: "empty", text: "", wantErr: ErrNoObject},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ExtractObject(tt.text)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("ExtractObject() error = %v, want %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ExtractObject() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestDecode(t *testing.T) {
	var v struct {
		Valid bool `json:"valid"`
		Days  int  `json:"frequency_days"`
	}
	if err := Decode("Answer: {\"valid\": true, \"frequency_days\": 2} done", &v); err != nil {
		t.Fatalf("Decode() error: %v", err)
	}
	if !v.Valid || v.Days != 2 {
		t.Errorf("Decode() = %+v", v)
	}

	if err := Decode("{not json}", &v); err == nil || errors.Is(err, ErrNoObject) {
		t.Errorf("Decode() error = %v, want syntax error", err)
	}
}
