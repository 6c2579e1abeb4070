// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

// Package irrigation decides, day by day, whether to water.
//
// Every input is explicit: forecast, settings, season and the optional
// advisory plan are parameters, never read from the clock or globals.
package irrigation

import (
	"fmt"
	"time"
)

// Season is the controller's season code
type Season int

const (
	Spring Season = 1
	Summer Season = 2
	Autumn Season = 3
	Winter Season = 4
)

// SeasonOf returns the meteorological season of t (northern hemisphere)
func SeasonOf(t time.Time) Season {
	switch t.Month() {
	case time.March, time.April, time.May:
		return Spring
	case time.June, time.July, time.August:
		return Summer
	case time.September, time.October, time.November:
		return Autumn
	default:
		return Winter
	}
}

// Code returns the wire code sent with M:
func (s Season) Code() int {
	return int(s)
}

func (s Season) String() string {
	switch s {
	case Spring:
		return "spring"
	case Summer:
		return "summer"
	case Autumn:
		return "autumn"
	case Winter:
		return "winter"
	default:
		return fmt.Sprintf("season(%d)", int(s))
	}
}
