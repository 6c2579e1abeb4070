// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package irrigation

// Advisable is the general watering advisability shown next to each forecast
// day. It is independent of the weekly plan.
//
// Lower humidity thresholds mean thirstier crops and tolerate more rain
// probability. Outside summer the tolerance drops by 10 points.
func Advisable(rainProbability, humidityThreshold int, season Season) bool {
	if rainProbability > RainThreshold {
		return false
	}

	limit := aggressiveness(humidityThreshold)
	if season == Summer {
		return rainProbability < limit
	}
	return rainProbability < limit-10
}

func aggressiveness(humidityThreshold int) int {
	switch {
	case humidityThreshold <= 500:
		return 30
	case humidityThreshold <= 600:
		return 25
	default:
		return 15
	}
}
