// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package irrigation

import (
	"github.com/Thermoquad/irrigator/pkg/weather"
)

// RainThreshold is the rain probability (percent) at which a day counts as rainy
const RainThreshold = 50

// Source tells where a day's decision came from
type Source int

const (
	SourceRuleBased Source = iota
	SourceAdvisory
)

func (s Source) String() string {
	if s == SourceAdvisory {
		return "advisory"
	}
	return "rule"
}

// MarshalText encodes the source by name
func (s Source) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Rule-based reasons
const (
	ReasonScheduled    = "scheduled watering day"
	ReasonOffSchedule  = "not a scheduled watering day"
	ReasonRainToday    = "rain expected today"
	ReasonRainTomorrow = "rain expected tomorrow"
	ReasonRainFell     = "rain expected yesterday, soil still moist"
)

// DayDecision is the watering decision for one forecast day
type DayDecision struct {
	Index       int                 `json:"index"`
	Day         weather.ForecastDay `json:"day"`
	ShouldWater bool                `json:"should_water"`
	Source      Source              `json:"source"`
	Reason      string              `json:"reason,omitempty"`
}

// BuildPlan decides every forecast day. The result always has one entry per
// forecast day. Days present in advisory are taken from it verbatim; all other
// days use the rule-based schedule. advisory may be nil.
func BuildPlan(forecast []weather.ForecastDay, settings Settings, advisory *AdvisoryPlan) ([]DayDecision, error) {
	if settings.FrequencyDays < 1 {
		return nil, ErrInvalidFrequency
	}

	plan := make([]DayDecision, len(forecast))
	for i, day := range forecast {
		if entry, ok := advisory.Day(i); ok {
			plan[i] = DayDecision{
				Index:       i,
				Day:         day,
				ShouldWater: entry.ShouldWater,
				Source:      SourceAdvisory,
				Reason:      entry.Reason,
			}
			continue
		}

		water, reason := ruleDecision(forecast, i, settings.FrequencyDays)
		plan[i] = DayDecision{
			Index:       i,
			Day:         day,
			ShouldWater: water,
			Source:      SourceRuleBased,
			Reason:      reason,
		}
	}
	return plan, nil
}

// ruleDecision waters day i on schedule unless rain is expected today,
// tomorrow, or was expected yesterday.
func ruleDecision(forecast []weather.ForecastDay, i, frequencyDays int) (bool, string) {
	if i%frequencyDays != 0 {
		return false, ReasonOffSchedule
	}
	if forecast[i].RainProbability >= RainThreshold {
		return false, ReasonRainToday
	}
	if i+1 < len(forecast) && forecast[i+1].RainProbability >= RainThreshold {
		return false, ReasonRainTomorrow
	}
	if i > 0 && forecast[i-1].RainProbability >= RainThreshold {
		return false, ReasonRainFell
	}
	return true, ReasonScheduled
}

// WateringDays returns the indices of days to water
func WateringDays(plan []DayDecision) []int {
	var days []int
	for _, d := range plan {
		if d.ShouldWater {
			days = append(days, d.Index)
		}
	}
	return days
}
