// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package irrigation

import (
	"errors"

	"github.com/Thermoquad/irrigator/pkg/irrlink"
	"github.com/Thermoquad/irrigator/pkg/weather"
)

// ErrNoForecast is returned when device commands are requested without a forecast
var ErrNoForecast = errors.New("no forecast available")

// DeviceCommands builds the sync sequence sent to the controller: weekly rain
// probabilities, weekly maximum temperatures, season and humidity threshold.
// Settings are validated first so no out-of-range value reaches the wire.
func DeviceCommands(forecast []weather.ForecastDay, settings Settings, season Season) ([]irrlink.Command, error) {
	if len(forecast) == 0 {
		return nil, ErrNoForecast
	}
	if err := settings.Validate(); err != nil {
		return nil, err
	}

	rain := weather.RainProbabilities(forecast)
	for i, v := range rain {
		rain[i] = clamp(v, 0, 100)
	}

	return []irrlink.Command{
		irrlink.NewSetRainfall(rain...),
		irrlink.NewSetTemperature(weather.MaxTemperatures(forecast)...),
		irrlink.NewSetSeason(season.Code()),
		irrlink.NewSetHumidityThreshold(settings.HumidityThreshold),
	}, nil
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
