// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package irrigation

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Thermoquad/irrigator/pkg/advisory"
	"github.com/Thermoquad/irrigator/pkg/weather"
)

// ErrPlanParse is returned when advisory text does not hold a usable plan
var ErrPlanParse = errors.New("advisory plan unparsable")

// AdvisoryDayDecision is the advisory service's verdict for one day
type AdvisoryDayDecision struct {
	DayIndex    int    `json:"day"`
	ShouldWater bool   `json:"should_water"`
	Reason      string `json:"reason"`
}

// AdvisoryPlan holds per-day overrides. A nil or empty plan overrides nothing.
type AdvisoryPlan struct {
	Days    map[int]AdvisoryDayDecision `json:"days"`
	Summary string                      `json:"summary"`
}

// Day returns the override for day i, if any
func (p *AdvisoryPlan) Day(i int) (AdvisoryDayDecision, bool) {
	if p == nil {
		return AdvisoryDayDecision{}, false
	}
	d, ok := p.Days[i]
	return d, ok
}

// Len returns the number of overridden days
func (p *AdvisoryPlan) Len() int {
	if p == nil {
		return 0
	}
	return len(p.Days)
}

type planDocument struct {
	Days []struct {
		Day   advisory.Int    `json:"day"`
		Water advisory.Bool   `json:"sula"`
		Why   advisory.String `json:"sebep"`
	} `json:"days"`
	Summary advisory.String `json:"summary"`
}

// ParsePlan extracts a plan for a forecast of dayCount days from advisory text.
// Any defect rejects the whole plan; a plan is never partially applied.
func ParsePlan(text string, dayCount int) (*AdvisoryPlan, error) {
	var doc planDocument
	if err := advisory.Decode(text, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPlanParse, err)
	}
	if len(doc.Days) == 0 {
		return nil, fmt.Errorf("%w: no days", ErrPlanParse)
	}

	plan := &AdvisoryPlan{
		Days:    make(map[int]AdvisoryDayDecision, len(doc.Days)),
		Summary: doc.Summary.Value,
	}
	for _, entry := range doc.Days {
		if !entry.Day.Set || !entry.Water.Set {
			return nil, fmt.Errorf("%w: entry missing day or sula", ErrPlanParse)
		}
		day := entry.Day.Value
		if day < 0 || day >= dayCount {
			return nil, fmt.Errorf("%w: day %d out of range", ErrPlanParse, day)
		}
		if _, dup := plan.Days[day]; dup {
			return nil, fmt.Errorf("%w: day %d repeated", ErrPlanParse, day)
		}
		plan.Days[day] = AdvisoryDayDecision{DayIndex: day, ShouldWater: entry.Water.Value, Reason: entry.Why.Value}
	}
	return plan, nil
}

// PlanPrompt renders the weekly plan request for the advisory service
func PlanPrompt(forecast []weather.ForecastDay, settings Settings, season Season) string {
	var b strings.Builder

	crop := settings.CropName
	if crop == "" {
		crop = "unspecified"
	}

	b.WriteString("You are an agricultural irrigation expert. Plan watering for the next days.\n\n")
	fmt.Fprintf(&b, "Crop: %s\n", crop)
	fmt.Fprintf(&b, "Season: %s\n", season)
	fmt.Fprintf(&b, "Watering every %d day(s) at %s for %d seconds, soil humidity threshold %d (0-1023)\n\n",
		settings.FrequencyDays, settings.WateringTime, settings.DurationSeconds, settings.HumidityThreshold)
	b.WriteString("Forecast:\n")
	for i, d := range forecast {
		fmt.Fprintf(&b, "Day %d (%s): max %.1f°C, min %.1f°C, rain probability %d%%, rain %.1f mm\n",
			i, d.Date.Format("2006-01-02"), d.TempMaxC, d.TempMinC, d.RainProbability, d.RainMm)
	}
	b.WriteString(`
Respond ONLY with JSON in this format:
{
    "days": [{"day": 0, "sula": true, "sebep": "short reason"}],
    "summary": "one sentence summary"
}
Include every day index exactly once.`)
	return b.String()
}

// RequestPlan asks the advisory service for a plan. On any failure it returns
// an empty plan with the error, so every day falls through to the rule-based
// schedule.
func RequestPlan(ctx context.Context, gen advisory.Generator, forecast []weather.ForecastDay, settings Settings, season Season) (*AdvisoryPlan, error) {
	text, err := gen.Generate(ctx, PlanPrompt(forecast, settings, season))
	if err != nil {
		return &AdvisoryPlan{}, err
	}
	plan, err := ParsePlan(text, len(forecast))
	if err != nil {
		return &AdvisoryPlan{}, err
	}
	return plan, nil
}
