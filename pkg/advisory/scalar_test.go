// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package advisory

import (
	"encoding/json"
	"testing"
)

func TestIntUnmarshal(t *testing.T) {
	tests := []struct {
		name string
		json string
		want Int
	}{
		{name: "integer", json: `{"v": 2}`, want: Int{Value: 2, Set: true}},
		{name: "float truncated", json: `{"v": 2.9}`, want: Int{Value: 2, Set: true}},
		{name: "negative float", json: `{"v": -1.5}`, want: Int{Value: -1, Set: true}},
		{name: "numeric string", json: `{"v": "3"}`, want: Int{Value: 3, Set: true}},
		{name: "float string", json: `{"v": " 4.0 "}`, want: Int{Value: 4, Set: true}},
		{name: "word string", json: `{"v": "often"}`},
		{name: "bool", json: `{"v": true}`},
		{name: "null", json: `{"v": null}`},
		{name: "object", json: `{"v": {"n": 1}}`},
		{name: "huge", json: `{"v": 1e40}`},
		{name: "missing", json: `{}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var doc struct {
				V Int `json:"v"`
			}
			if err := json.Unmarshal([]byte(tt.json), &doc); err != nil {
				t.Fatalf("Unmarshal() error: %v", err)
			}
			if doc.V != tt.want {
				t.Errorf("Int = %+v, want %+v", doc.V, tt.want)
			}
		})
	}
}

func TestBoolUnmarshal(t *testing.T) {
	tests := []struct {
		name string
		json string
		want Bool
	}{
		{name: "true", json: `{"v": true}`, want: Bool{Value: true, Set: true}},
		{name: "false", json: `{"v": false}`, want: Bool{Value: false, Set: true}},
		{name: "string false", json: `{"v": "false"}`, want: Bool{Value: false, Set: true}},
		{name: "string TRUE", json: `{"v": "TRUE"}`, want: Bool{Value: true, Set: true}},
		{name: "string yes", json: `{"v": "yes"}`},
		{name: "number", json: `{"v": 0}`},
		{name: "null", json: `{"v": null}`},
		{name: "missing", json: `{}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var doc struct {
				V Bool `json:"v"`
			}
			if err := json.Unmarshal([]byte(tt.json), &doc); err != nil {
				t.Fatalf("Unmarshal() error: %v", err)
			}
			if doc.V != tt.want {
				t.Errorf("Bool = %+v, want %+v", doc.V, tt.want)
			}
		})
	}
}

func TestStringUnmarshal(t *testing.T) {
	tests := []struct {
		name string
		json string
		want String
	}{
		{name: "string", json: `{"v": "22:00"}`, want: String{Value: "22:00", Set: true}},
		{name: "empty", json: `{"v": ""}`},
		{name: "number", json: `{"v": 12}`, want: String{Value: "12", Set: true}},
		{name: "bool", json: `{"v": false}`, want: String{Value: "false", Set: true}},
		{name: "array", json: `{"v": ["a"]}`},
		{name: "null", json: `{"v": null}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var doc struct {
				V String `json:"v"`
			}
			if err := json.Unmarshal([]byte(tt.json), &doc); err != nil {
				t.Fatalf("Unmarshal() error: %v", err)
			}
			if doc.V != tt.want {
				t.Errorf("String = %+v, want %+v", doc.V, tt.want)
			}
		})
	}
}

func TestScalarOr(t *testing.T) {
	if got := (Int{}).Or(7); got != 7 {
		t.Errorf("unset Int.Or(7) = %d", got)
	}
	if got := (Int{Value: 0, Set: true}).Or(7); got != 0 {
		t.Errorf("set Int.Or(7) = %d, want 0", got)
	}
	if got := (Bool{}).Or(true); !got {
		t.Error("unset Bool.Or(true) = false")
	}
	if got := (String{}).Or("x"); got != "x" {
		t.Errorf("unset String.Or(x) = %q", got)
	}
}
