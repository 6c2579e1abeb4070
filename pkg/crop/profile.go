// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

// Package crop resolves a free-text crop name into a watering profile, asking
// the advisory service first and falling back to a built-in table.
package crop

import (
	"errors"
	"fmt"

	"github.com/Thermoquad/irrigator/pkg/irrigation"
	"github.com/Thermoquad/irrigator/pkg/irrlink"
)

// Water need levels
const (
	WaterLow        = "Low"
	WaterLowMedium  = "Low-Medium"
	WaterMedium     = "Medium"
	WaterMediumHigh = "Medium-High"
	WaterHigh       = "High"
)

// ErrImplausible is returned for profiles that break a watering invariant
var ErrImplausible = errors.New("implausible crop profile")

// Profile is the care profile of one crop.
// An empty CropName means nothing was resolved.
type Profile struct {
	CropName          string `json:"crop_name"`
	WaterNeed         string `json:"water_need"`
	FrequencyDays     int    `json:"frequency_days"`
	HumidityThreshold int    `json:"humidity_threshold"`
	WateringTime      string `json:"watering_time"`
	DurationSeconds   int    `json:"duration_seconds"`
	Note              string `json:"note"`
	SeasonalNote      string `json:"seasonal_note"`
}

// Validate checks that the profile can become irrigation settings
func (p Profile) Validate() error {
	switch {
	case p.FrequencyDays < 1:
		return fmt.Errorf("%w: frequency %d", ErrImplausible, p.FrequencyDays)
	case p.HumidityThreshold < irrlink.MinHumidityThreshold || p.HumidityThreshold > irrlink.MaxHumidityThreshold:
		return fmt.Errorf("%w: humidity threshold %d", ErrImplausible, p.HumidityThreshold)
	case !irrigation.ValidWateringTime(p.WateringTime):
		return fmt.Errorf("%w: watering time %q", ErrImplausible, p.WateringTime)
	case p.DurationSeconds < 0:
		return fmt.Errorf("%w: duration %d", ErrImplausible, p.DurationSeconds)
	}
	return nil
}

// Apply turns a resolved profile into settings. Settings the user edited by
// hand are kept as they are.
func Apply(current irrigation.Settings, p Profile) irrigation.Settings {
	if current.UserOverridden {
		return current
	}
	return irrigation.Settings{
		CropName:          p.CropName,
		FrequencyDays:     p.FrequencyDays,
		WateringTime:      p.WateringTime,
		DurationSeconds:   p.DurationSeconds,
		HumidityThreshold: p.HumidityThreshold,
	}
}
