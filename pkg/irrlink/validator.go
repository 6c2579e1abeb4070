// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package irrlink

import (
	"fmt"
	"strconv"
	"strings"
)

// Plausible ranges of status frame values
const (
	MaxAnalogValue     = 1023
	MaxRainProbability = 100
)

// AnomalyType represents different kinds of status frame anomalies
type AnomalyType int

const (
	AnomalyNonNumeric AnomalyType = iota
	AnomalyInvalidPump
	AnomalyHumidityRange
	AnomalyLightRange
	AnomalyDayIndexRange
	AnomalyRainRange
)

// ValidationError describes one implausible field of a status frame
type ValidationError struct {
	Type    AnomalyType
	Field   string
	Message string
}

// Error implements the error interface
func (v *ValidationError) Error() string {
	return v.Message
}

var statusFieldNames = [StatusFieldCount]string{"humidity", "light", "pump", "day_index", "rain_probability"}

// ValidateStatus checks a decoded status frame for values the firmware should
// never send. The decoder accepts such frames anyway; this is for diagnostics.
// Returns an empty slice for a plausible frame.
func ValidateStatus(f StatusFrame) []ValidationError {
	errors := []ValidationError{}

	raw := strings.TrimPrefix(f.Raw, TagStatus)
	parts := strings.Split(raw, ",")
	for i := 0; i < StatusFieldCount && i < len(parts); i++ {
		field := strings.TrimSpace(parts[i])
		if _, err := strconv.Atoi(field); err != nil {
			errors = append(errors, ValidationError{
				Type:    AnomalyNonNumeric,
				Field:   statusFieldNames[i],
				Message: fmt.Sprintf("Non-numeric %s=%q (read as 0)", statusFieldNames[i], field),
			})
			continue
		}
		if i == fieldPump && field != "0" && field != "1" {
			errors = append(errors, ValidationError{
				Type:    AnomalyInvalidPump,
				Field:   statusFieldNames[i],
				Message: fmt.Sprintf("Invalid pump=%s (expected 0 or 1)", field),
			})
		}
	}

	r := f.Reading
	if r.Humidity < 0 || r.Humidity > MaxAnalogValue {
		errors = append(errors, ValidationError{
			Type:    AnomalyHumidityRange,
			Field:   "humidity",
			Message: fmt.Sprintf("Humidity=%d out of range (0-%d)", r.Humidity, MaxAnalogValue),
		})
	}
	if r.Light < 0 || r.Light > MaxAnalogValue {
		errors = append(errors, ValidationError{
			Type:    AnomalyLightRange,
			Field:   "light",
			Message: fmt.Sprintf("Light=%d out of range (0-%d)", r.Light, MaxAnalogValue),
		})
	}
	if r.DayIndex < 0 || r.DayIndex >= WeekLength {
		errors = append(errors, ValidationError{
			Type:    AnomalyDayIndexRange,
			Field:   "day_index",
			Message: fmt.Sprintf("Day index=%d out of range (0-%d)", r.DayIndex, WeekLength-1),
		})
	}
	if r.RainProbability < 0 || r.RainProbability > MaxRainProbability {
		errors = append(errors, ValidationError{
			Type:    AnomalyRainRange,
			Field:   "rain_probability",
			Message: fmt.Sprintf("Rain probability=%d out of range (0-%d)", r.RainProbability, MaxRainProbability),
		})
	}

	return errors
}
