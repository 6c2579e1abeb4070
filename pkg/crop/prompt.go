// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package crop

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/Thermoquad/irrigator/pkg/advisory"
	"github.com/Thermoquad/irrigator/pkg/irrigation"
)

// ErrUnparsable is returned when advisory text holds no usable profile object
var ErrUnparsable = errors.New("crop advisory unparsable")

// Prompt builds the crop lookup request for the advisory service
func Prompt(name string, season irrigation.Season) string {
	quoted, _ := json.Marshal(name)
	return fmt.Sprintf(`You are an agricultural expert. Check whether the given name is a real plant or crop and give watering advice.

Name: %s
Current season: %s

First decide whether %s is a real plant, vegetable, fruit or agricultural product.
- If it is NOT a real crop (random letters, meaningless words, object names): valid = false
- If it is a real crop: valid = true and fill in the watering fields

Respond ONLY with JSON in this format:
{
    "valid": true,
    "water_need": "Low/Medium/High",
    "frequency_days": <number>,
    "humidity_threshold": <number>,
    "watering_time": "HH:MM",
    "duration_seconds": <number>,
    "note": "short explanation",
    "seasonal_note": "note for the current season"
}

Fields:
- frequency_days: water every N days
- humidity_threshold: soil humidity sensor threshold, 0-1023
- watering_time: best time of day to water, 24-hour clock
- duration_seconds: pump run time in seconds

Return ONLY the JSON, nothing else.`, name, season, quoted)
}

type advisoryProfile struct {
	Valid             advisory.Bool   `json:"valid"`
	WaterNeed         advisory.String `json:"water_need"`
	FrequencyDays     advisory.Int    `json:"frequency_days"`
	HumidityThreshold advisory.Int    `json:"humidity_threshold"`
	WateringTime      advisory.String `json:"watering_time"`
	DurationSeconds   advisory.Int    `json:"duration_seconds"`
	Note              advisory.String `json:"note"`
	SeasonalNote      advisory.String `json:"seasonal_note"`
}

// ParseProfile reads the advisory answer for name.
// It returns ErrRejected when the service says the name is not a crop,
// ErrUnparsable when no object can be decoded and ErrImplausible when the
// values break a watering invariant. Missing or unreadable fields take defaults.
func ParseProfile(name, text string) (Profile, error) {
	var raw advisoryProfile
	if err := advisory.Decode(text, &raw); err != nil {
		return Profile{}, fmt.Errorf("%w: %v", ErrUnparsable, err)
	}
	if !raw.Valid.Or(true) {
		return Profile{}, ErrRejected
	}

	defaults := irrigation.DefaultSettings()
	p := Profile{
		CropName:          name,
		WaterNeed:         raw.WaterNeed.Or(WaterMedium),
		FrequencyDays:     raw.FrequencyDays.Or(defaults.FrequencyDays),
		HumidityThreshold: raw.HumidityThreshold.Or(defaults.HumidityThreshold),
		WateringTime:      raw.WateringTime.Or(defaults.WateringTime),
		DurationSeconds:   raw.DurationSeconds.Or(defaults.DurationSeconds),
		Note:              raw.Note.Value,
		SeasonalNote:      raw.SeasonalNote.Value,
	}
	if err := p.Validate(); err != nil {
		return Profile{}, err
	}
	return p, nil
}
