// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package irrlink

import (
	"fmt"
	"time"
)

// FormatFrame formats a decoded frame into a human-readable string
func FormatFrame(f Frame, at time.Time) string {
	timestamp := at.Format("15:04:05.000")

	switch frame := f.(type) {
	case StatusFrame:
		return fmt.Sprintf("[%s] %s %q\n%s", timestamp, frame.Kind(), frame.Raw, FormatReading(frame.Reading))
	default:
		return fmt.Sprintf("[%s] %s %q\n", timestamp, f.Kind(), f.Line())
	}
}

// FormatReading formats a sensor reading as indented lines
func FormatReading(r SensorReading) string {
	pump := "OFF"
	if r.PumpOn {
		pump = "ON"
	}
	return fmt.Sprintf("  Humidity: %d, Light: %d, Pump: %s\n  Day: %d, Rain: %d%%\n",
		r.Humidity, r.Light, pump, r.DayIndex, r.RainProbability)
}

// FormatCommand returns the command name and its wire line
func FormatCommand(c Command) string {
	return fmt.Sprintf("%s %q", FormatCommandName(c), Encode(c))
}

// FormatCommandName returns the human-readable name for a command
func FormatCommandName(c Command) string {
	switch c.(type) {
	case SetRainfall:
		return "SET_RAINFALL"
	case SetTemperature:
		return "SET_TEMPERATURE"
	case SetSeason:
		return "SET_SEASON"
	case SetHumidityThreshold:
		return "SET_HUMIDITY_THRESHOLD"
	case QueryStatus:
		return "QUERY_STATUS"
	default:
		return "UNKNOWN"
	}
}
