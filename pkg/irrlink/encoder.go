// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package irrlink

import (
	"fmt"
	"strconv"
	"strings"
)

// Encode serializes a command to a single line without the delimiter.
// Weekly arrays are truncated to WeekLength values; shorter arrays are sent as given.
func Encode(c Command) string {
	switch cmd := c.(type) {
	case SetRainfall:
		return TagRainfall + joinWeek(cmd.Values)
	case SetTemperature:
		return TagTemperature + joinWeek(cmd.Values)
	case SetSeason:
		return TagSeason + strconv.Itoa(cmd.Season)
	case SetHumidityThreshold:
		return TagThreshold + strconv.Itoa(cmd.Threshold)
	case QueryStatus:
		return TagStatus
	default:
		panic(fmt.Sprintf("irrlink: unsupported command %T", c))
	}
}

// EncodeLine serializes a command and appends the line delimiter
func EncodeLine(c Command) []byte {
	line := Encode(c)
	buf := make([]byte, 0, len(line)+1)
	buf = append(buf, line...)
	return append(buf, Delimiter)
}

func joinWeek(values []int) string {
	if len(values) > WeekLength {
		values = values[:WeekLength]
	}
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = strconv.Itoa(v)
	}
	return strings.Join(parts, ",")
}
