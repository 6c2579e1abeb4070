// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package irrlink

// Command builders create outbound commands ready for encoding.
// No range validation happens here; callers produce in-range values.

// Command is an outbound message to the controller
type Command interface {
	// Tag returns the wire tag of the command
	Tag() string
}

// SetRainfall carries the weekly rain probability array (W:)
type SetRainfall struct {
	Values []int
}

// SetTemperature carries the weekly maximum temperature array (T:)
type SetTemperature struct {
	Values []int
}

// SetSeason carries the season code, 1=spring 2=summer 3=autumn 4=winter (M:)
type SetSeason struct {
	Season int
}

// SetHumidityThreshold carries the soil humidity threshold, 0-1023 (N:)
type SetHumidityThreshold struct {
	Threshold int
}

// QueryStatus asks the controller to report a status frame (S:)
type QueryStatus struct{}

func (SetRainfall) Tag() string          { return TagRainfall }
func (SetTemperature) Tag() string       { return TagTemperature }
func (SetSeason) Tag() string            { return TagSeason }
func (SetHumidityThreshold) Tag() string { return TagThreshold }
func (QueryStatus) Tag() string          { return TagStatus }

// NewSetRainfall creates a W: command from daily rain probabilities
func NewSetRainfall(values ...int) SetRainfall {
	return SetRainfall{Values: values}
}

// NewSetTemperature creates a T: command from daily maximum temperatures
func NewSetTemperature(values ...int) SetTemperature {
	return SetTemperature{Values: values}
}

// NewSetSeason creates an M: command
func NewSetSeason(season int) SetSeason {
	return SetSeason{Season: season}
}

// NewSetHumidityThreshold creates an N: command
func NewSetHumidityThreshold(threshold int) SetHumidityThreshold {
	return SetHumidityThreshold{Threshold: threshold}
}

// NewQueryStatus creates an S: command
func NewQueryStatus() QueryStatus {
	return QueryStatus{}
}
