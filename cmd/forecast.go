// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"errors"
	"fmt"

	"github.com/Thermoquad/irrigator/pkg/controller"
	"github.com/spf13/cobra"
)

var (
	forecastAdvisory bool
	forecastCached   bool
)

var forecastCmd = &cobra.Command{
	Use:   "forecast",
	Short: "Fetch the 7-day forecast and print the watering plan",
	Long: `Fetch the forecast for the configured location and print the weekly plan
built from the saved irrigation settings, alongside the general watering
advisability of each day.

With --advisory the advisory service is asked for a plan first; its decisions
replace the rule-based ones for the days it covers. If the service fails the
rule-based plan is printed with a warning.

With --cached the last fetched forecast is used instead of fetching.`,
	RunE: runForecast,
}

func init() {
	rootCmd.AddCommand(forecastCmd)
	forecastCmd.Flags().BoolVar(&forecastAdvisory, "advisory", false, "Ask the advisory service for the plan")
	forecastCmd.Flags().BoolVar(&forecastCached, "cached", false, "Use the cached forecast")
}

func runForecast(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	ctrl, cleanup, err := openController(ctx, appOptions{})
	if err != nil {
		return err
	}
	defer cleanup()

	if !forecastCached || len(ctrl.Forecast()) == 0 {
		if _, err := ctrl.RefreshForecast(ctx); err != nil {
			return errors.New(controller.UserMessage(err))
		}
	}

	if forecastAdvisory {
		plan, err := ctrl.RequestAdvisoryPlan(ctx)
		if err != nil {
			fmt.Printf("Advisory plan unavailable: %s\n\n", controller.UserMessage(err))
		} else if plan.Summary != "" {
			fmt.Printf("Advisory: %s\n\n", plan.Summary)
		}
	}

	fmt.Println(forecastSummary(ctrl.Location(), ctrl.Season(), ctrl.Settings()))
	fmt.Println(planTable(ctrl.Plan(), ctrl.Advisability()))
	return nil
}
