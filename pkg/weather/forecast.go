// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

// Package weather fetches daily forecasts from Open-Meteo.
package weather

import "time"

// ForecastDays is the forecast length requested and sent to the controller
const ForecastDays = 7

// ForecastDay is one day of forecast. Index 0 of a forecast is today.
type ForecastDay struct {
	Date            time.Time `json:"date"`
	TempMaxC        float64   `json:"temp_max_c"`
	TempMinC        float64   `json:"temp_min_c"`
	RainProbability int       `json:"rain_probability"`
	RainMm          float64   `json:"rain_mm"`
}

// Location is a point to forecast for
type Location struct {
	Latitude  float64 `json:"latitude" mapstructure:"latitude"`
	Longitude float64 `json:"longitude" mapstructure:"longitude"`
	Name      string  `json:"name" mapstructure:"name"`
}

// DefaultLocation is used when no location is configured
var DefaultLocation = Location{Latitude: 39.93, Longitude: 32.86, Name: "Ankara"}

// RainProbabilities returns the daily rain probabilities in order
func RainProbabilities(days []ForecastDay) []int {
	out := make([]int, len(days))
	for i, d := range days {
		out[i] = d.RainProbability
	}
	return out
}

// MaxTemperatures returns the daily maximum temperatures truncated toward zero
func MaxTemperatures(days []ForecastDay) []int {
	out := make([]int, len(days))
	for i, d := range days {
		out[i] = int(d.TempMaxC)
	}
	return out
}
