// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Thermoquad/irrigator/pkg/controller"
	"github.com/Thermoquad/irrigator/pkg/crop"
	"github.com/Thermoquad/irrigator/pkg/irrigation"
	"github.com/spf13/cobra"
)

var (
	cropApply bool
	cropReset bool
)

var cropCmd = &cobra.Command{
	Use:   "crop NAME",
	Short: "Resolve a crop's irrigation profile",
	Long: `Look up the irrigation profile of a crop.

The advisory service is asked first when an API key is configured. If it is
unreachable or answers with something unusable, the built-in offline table is
searched instead. A crop the service rejects is reported as such and the
offline table is not consulted.

With --apply the profile becomes the saved irrigation settings, unless the
settings were edited by hand; reset them with "irrigator crop --reset".`,
	Args: func(cmd *cobra.Command, args []string) error {
		if cropReset {
			return cobra.NoArgs(cmd, args)
		}
		return cobra.MinimumNArgs(1)(cmd, args)
	},
	RunE: runCrop,
}

func init() {
	rootCmd.AddCommand(cropCmd)
	cropCmd.Flags().BoolVar(&cropApply, "apply", false, "Save the profile as irrigation settings")
	cropCmd.Flags().BoolVar(&cropReset, "reset", false, "Reset irrigation settings to defaults")
}

func runCrop(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	if cropReset {
		ctrl, cleanup, err := openController(ctx, appOptions{})
		if err != nil {
			return err
		}
		defer cleanup()
		if err := ctrl.ResetSettings(ctx); err != nil {
			return err
		}
		fmt.Println("Settings reset to defaults")
		return nil
	}

	name := strings.Join(args, " ")
	season := irrigation.SeasonOf(time.Now())

	var res crop.Resolution
	var settings irrigation.Settings
	if cropApply {
		ctrl, cleanup, err := openController(ctx, appOptions{})
		if err != nil {
			return err
		}
		defer cleanup()
		res, err = ctrl.ResolveCrop(ctx, name)
		if err != nil {
			return errors.New(controller.UserMessage(err))
		}
		settings = ctrl.Settings()
		season = ctrl.Season()
	} else {
		var err error
		res, err = crop.NewResolver(newAdvisory(), log.Named("crop")).Resolve(ctx, name, season)
		if err != nil {
			return errors.New(controller.UserMessage(err))
		}
	}

	p := res.Profile
	fmt.Printf("%s (%s, source: %s)\n", p.CropName, season, res.Source)
	fmt.Printf("  Water need:  %s\n", p.WaterNeed)
	fmt.Printf("  Frequency:   every %d day(s)\n", p.FrequencyDays)
	fmt.Printf("  Time:        %s for %ds\n", p.WateringTime, p.DurationSeconds)
	fmt.Printf("  Threshold:   %d\n", p.HumidityThreshold)
	if p.Note != "" {
		fmt.Printf("  Note:        %s\n", p.Note)
	}
	if p.SeasonalNote != "" {
		fmt.Printf("  Season note: %s\n", p.SeasonalNote)
	}

	if cropApply {
		if settings.UserOverridden {
			fmt.Println("\nSettings were edited by hand and were kept.")
		} else {
			fmt.Println("\nSettings updated.")
		}
	}
	return nil
}
