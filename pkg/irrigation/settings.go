// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package irrigation

import (
	"errors"
	"fmt"
	"time"

	"github.com/Thermoquad/irrigator/pkg/irrlink"
)

var (
	ErrInvalidFrequency    = errors.New("watering frequency must be at least 1 day")
	ErrInvalidThreshold    = fmt.Errorf("humidity threshold must be within %d-%d", irrlink.MinHumidityThreshold, irrlink.MaxHumidityThreshold)
	ErrInvalidWateringTime = errors.New("watering time must be HH:MM")
	ErrInvalidDuration     = errors.New("watering duration must not be negative")
)

// Settings are the user's irrigation parameters
type Settings struct {
	CropName          string `json:"crop_name" cbor:"1,keyasint"`
	FrequencyDays     int    `json:"frequency_days" cbor:"2,keyasint"`
	WateringTime      string `json:"watering_time" cbor:"3,keyasint"`
	DurationSeconds   int    `json:"duration_seconds" cbor:"4,keyasint"`
	HumidityThreshold int    `json:"humidity_threshold" cbor:"5,keyasint"`
	UserOverridden    bool   `json:"user_overridden" cbor:"6,keyasint"`
}

// DefaultSettings returns the settings used before anything is configured
func DefaultSettings() Settings {
	return Settings{
		FrequencyDays:     1,
		WateringTime:      "22:00",
		DurationSeconds:   30,
		HumidityThreshold: 600,
	}
}

// Validate checks the invariants every consumer relies on
func (s Settings) Validate() error {
	if s.FrequencyDays < 1 {
		return fmt.Errorf("%w: got %d", ErrInvalidFrequency, s.FrequencyDays)
	}
	if s.HumidityThreshold < irrlink.MinHumidityThreshold || s.HumidityThreshold > irrlink.MaxHumidityThreshold {
		return fmt.Errorf("%w: got %d", ErrInvalidThreshold, s.HumidityThreshold)
	}
	if !ValidWateringTime(s.WateringTime) {
		return fmt.Errorf("%w: got %q", ErrInvalidWateringTime, s.WateringTime)
	}
	if s.DurationSeconds < 0 {
		return fmt.Errorf("%w: got %d", ErrInvalidDuration, s.DurationSeconds)
	}
	return nil
}

// ValidWateringTime reports whether v is a 24-hour HH:MM time
func ValidWateringTime(v string) bool {
	if len(v) != len("15:04") {
		return false
	}
	_, err := time.Parse("15:04", v)
	return err == nil
}
