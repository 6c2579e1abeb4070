// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package advisory

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ErrNoObject is returned when text contains no {...} span
var ErrNoObject = errors.New("no JSON object in advisory text")

// ExtractObject returns the span from the first '{' to the last '}'.
// Prose before and after the object is discarded.
func ExtractObject(text string) (string, error) {
	start := strings.IndexByte(text, '{')
	end := strings.LastIndexByte(text, '}')
	if start < 0 || end <= start {
		return "", ErrNoObject
	}
	return text[start : end+1], nil
}

// Decode extracts the embedded object from text and unmarshals it into v
func Decode(text string, v any) error {
	obj, err := ExtractObject(text)
	if err != nil {
		return err
	}
	if err := json.Unmarshal([]byte(obj), v); err != nil {
		return fmt.Errorf("decode advisory object: %w", err)
	}
	return nil
}
