// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"fmt"
	"strconv"

	"github.com/Thermoquad/irrigator/pkg/irrigation"
	"github.com/Thermoquad/irrigator/pkg/weather"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
)

var (
	waterStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("12")).Bold(true)
	dryStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	tableStyle = lipgloss.NewStyle().BorderForeground(lipgloss.Color("240"))
)

// planTable renders one row per forecast day. advisable may be shorter than
// plan; missing entries are shown blank.
func planTable(plan []irrigation.DayDecision, advisable []bool) string {
	rows := make([][]string, 0, len(plan))
	for i, d := range plan {
		water := dryStyle.Render("no")
		if d.ShouldWater {
			water = waterStyle.Render("WATER")
		}
		ok := ""
		if i < len(advisable) {
			ok = yesNo(advisable[i])
		}
		rows = append(rows, []string{
			d.Day.Date.Format("Mon 02 Jan"),
			strconv.Itoa(d.Day.RainProbability) + "%",
			fmt.Sprintf("%.1f / %.1f", d.Day.TempMinC, d.Day.TempMaxC),
			water,
			d.Source.String(),
			d.Reason,
			ok,
		})
	}

	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(tableStyle).
		Headers("Day", "Rain", "Temp °C", "Plan", "Source", "Reason", "Advisable").
		Rows(rows...).
		String()
}

// forecastSummary is the one-line header above a plan table
func forecastSummary(loc weather.Location, season irrigation.Season, settings irrigation.Settings) string {
	crop := settings.CropName
	if crop == "" {
		crop = "(none)"
	}
	return fmt.Sprintf("%s | %s | crop: %s | every %d day(s) at %s for %ds | threshold %d",
		loc.Name, season, crop, settings.FrequencyDays, settings.WateringTime,
		settings.DurationSeconds, settings.HumidityThreshold)
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
