// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package advisory

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// Generated answers are loose about JSON types. The field types below coerce
// what they can and stay unset otherwise, so one odd field never fails the
// whole object.

// Int accepts a number (fractions truncated) or a numeric string
type Int struct {
	Value int
	Set   bool
}

func (i *Int) UnmarshalJSON(data []byte) error {
	*i = Int{}
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}

	var f float64
	switch x := v.(type) {
	case float64:
		f = x
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(x), 64)
		if err != nil {
			return nil
		}
		f = parsed
	default:
		return nil
	}
	if math.IsNaN(f) || math.Abs(f) > math.MaxInt32 {
		return nil
	}
	*i = Int{Value: int(f), Set: true}
	return nil
}

// Or returns the value, or def when unset
func (i Int) Or(def int) int {
	if !i.Set {
		return def
	}
	return i.Value
}

// Bool accepts true/false or the strings "true"/"false" in any case
type Bool struct {
	Value bool
	Set   bool
}

func (b *Bool) UnmarshalJSON(data []byte) error {
	*b = Bool{}
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}

	switch x := v.(type) {
	case bool:
		*b = Bool{Value: x, Set: true}
	case string:
		switch strings.ToLower(strings.TrimSpace(x)) {
		case "true":
			*b = Bool{Value: true, Set: true}
		case "false":
			*b = Bool{Value: false, Set: true}
		}
	}
	return nil
}

// Or returns the value, or def when unset
func (b Bool) Or(def bool) bool {
	if !b.Set {
		return def
	}
	return b.Value
}

// String accepts a string, or a number or bool in its JSON text form.
// An empty string counts as unset.
type String struct {
	Value string
	Set   bool
}

func (s *String) UnmarshalJSON(data []byte) error {
	*s = String{}
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}

	switch x := v.(type) {
	case string:
		if x != "" {
			*s = String{Value: x, Set: true}
		}
	case float64, bool:
		*s = String{Value: string(data), Set: true}
	}
	return nil
}

// Or returns the value, or def when unset
func (s String) Or(def string) string {
	if !s.Set {
		return def
	}
	return s.Value
}
