// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

// Package irrlink implements the line-oriented ASCII protocol spoken by the
// irrigation controller firmware.
//
// Every message is a single line terminated by '\n'. The controller reports
// sensor state with status frames (S:) and accepts weekly forecast arrays,
// the season code and the soil humidity threshold from the host.
package irrlink

// Framing
const (
	Delimiter = '\n'
)

// Message tags
const (
	TagStatus      = "S:"
	TagRainfall    = "W:"
	TagTemperature = "T:"
	TagSeason      = "M:"
	TagThreshold   = "N:"
)

// WeekLength is the number of daily values carried by W: and T: commands.
const WeekLength = 7

// StatusFieldCount is the minimum number of comma separated fields in a status frame.
const StatusFieldCount = 5

// Status frame field positions
const (
	fieldHumidity = iota
	fieldLight
	fieldPump
	fieldDayIndex
	fieldRainProbability
)

// Humidity threshold range accepted by the controller's analog input.
const (
	MinHumidityThreshold = 0
	MaxHumidityThreshold = 1023
)
