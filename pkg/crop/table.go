// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package crop

import "strings"

// OfflineSuffix marks notes that came from the built-in table
const OfflineSuffix = " (offline)"

type offlineEntry struct {
	key     string
	profile Profile
}

// offlineTable is searched in order; the first match wins.
var offlineTable = []offlineEntry{
	{"domates", Profile{
		CropName: "Domates", WaterNeed: WaterHigh, FrequencyDays: 1, HumidityThreshold: 550,
		WateringTime: "21:00", DurationSeconds: 45,
		Note:         "Tomatoes want regular watering; water in the evening to prevent root rot.",
		SeasonalNote: "In summer, watering twice a day may be needed.",
	}},
	{"biber", Profile{
		CropName: "Biber", WaterNeed: WaterMediumHigh, FrequencyDays: 1, HumidityThreshold: 580,
		WateringTime: "21:00", DurationSeconds: 40,
		Note:         "Peppers like steady moisture; avoid overwatering.",
		SeasonalNote: "In hot weather a light morning watering also helps.",
	}},
	{"salatalık", Profile{
		CropName: "Salatalık", WaterNeed: WaterHigh, FrequencyDays: 1, HumidityThreshold: 500,
		WateringTime: "20:00", DurationSeconds: 50,
		Note:         "Cucumbers need a lot of water; keep the soil moist at all times.",
		SeasonalNote: "Water twice a day in summer.",
	}},
	{"marul", Profile{
		CropName: "Marul", WaterNeed: WaterMedium, FrequencyDays: 2, HumidityThreshold: 600,
		WateringTime: "22:00", DurationSeconds: 30,
		Note:         "Lettuce likes cool, moist soil; do not wet the leaves.",
		SeasonalNote: "Keep it shaded in hot weather.",
	}},
	{"havuç", Profile{
		CropName: "Havuç", WaterNeed: WaterMedium, FrequencyDays: 2, HumidityThreshold: 620,
		WateringTime: "21:00", DurationSeconds: 35,
		Note:         "Carrots need deep watering; shallow watering stunts the roots.",
		SeasonalNote: "Reduce watering before harvest.",
	}},
	{"soğan", Profile{
		CropName: "Soğan", WaterNeed: WaterLowMedium, FrequencyDays: 3, HumidityThreshold: 680,
		WateringTime: "22:00", DurationSeconds: 25,
		Note:         "Onions dislike excess water; overwatering causes rot.",
		SeasonalNote: "Stop watering two weeks before harvest.",
	}},
	{"patates", Profile{
		CropName: "Patates", WaterNeed: WaterMedium, FrequencyDays: 2, HumidityThreshold: 600,
		WateringTime: "21:00", DurationSeconds: 40,
		Note:         "Potatoes need steady moisture, most of all while tubers form.",
		SeasonalNote: "Increase watering during flowering.",
	}},
	{"patlıcan", Profile{
		CropName: "Patlıcan", WaterNeed: WaterHigh, FrequencyDays: 1, HumidityThreshold: 550,
		WateringTime: "21:00", DurationSeconds: 45,
		Note:         "Eggplants love water and heat; regular watering is essential.",
		SeasonalNote: "Do not skip watering while fruiting.",
	}},
	{"fasulye", Profile{
		CropName: "Fasulye", WaterNeed: WaterMedium, FrequencyDays: 2, HumidityThreshold: 620,
		WateringTime: "21:00", DurationSeconds: 30,
		Note:         "Beans need water during flowering and pod set.",
		SeasonalNote: "Avoid wetting the leaves.",
	}},
	{"kavun", Profile{
		CropName: "Kavun", WaterNeed: WaterMediumHigh, FrequencyDays: 2, HumidityThreshold: 580,
		WateringTime: "20:00", DurationSeconds: 45,
		Note:         "Melons root deep; prefer deep watering.",
		SeasonalNote: "Water less while ripening for better flavour.",
	}},
	{"karpuz", Profile{
		CropName: "Karpuz", WaterNeed: WaterHigh, FrequencyDays: 1, HumidityThreshold: 550,
		WateringTime: "20:00", DurationSeconds: 50,
		Note:         "Watermelons need a lot of water, especially while the fruit grows.",
		SeasonalNote: "Stop watering one week before harvest.",
	}},
	{"çilek", Profile{
		CropName: "Çilek", WaterNeed: WaterMediumHigh, FrequencyDays: 1, HumidityThreshold: 550,
		WateringTime: "08:00", DurationSeconds: 30,
		Note:         "Water strawberries in the morning and keep the fruit dry.",
		SeasonalNote: "Drip irrigation works best.",
	}},
}

// Lookup finds name in the offline table. A normalized query matches when it
// contains a normalized key or a key contains it. The returned profile carries
// name as given and the offline note suffix.
func Lookup(name string) (Profile, bool) {
	query := Normalize(name)
	if query == "" {
		return Profile{}, false
	}

	for _, e := range offlineTable {
		key := Normalize(e.key)
		if strings.Contains(query, key) || strings.Contains(key, query) {
			p := e.profile
			p.CropName = name
			p.Note += OfflineSuffix
			return p, true
		}
	}
	return Profile{}, false
}

// Known returns the offline crop names in table order
func Known() []string {
	names := make([]string, len(offlineTable))
	for i, e := range offlineTable {
		names[i] = e.profile.CropName
	}
	return names
}
