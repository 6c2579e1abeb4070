// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad
//
// Irrigator - weather-aware irrigation controller host
//
// A CLI tool and bridge service that plans weekly watering from a weather
// forecast and crop profile and keeps a soil moisture controller in sync.

package main

import (
	"os"

	"github.com/Thermoquad/irrigator/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
