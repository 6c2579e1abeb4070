// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"errors"
	"fmt"

	"github.com/Thermoquad/irrigator/pkg/controller"
	"github.com/Thermoquad/irrigator/pkg/irrlink"
	"github.com/spf13/cobra"
)

var syncRefresh bool

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Send the forecast, season and threshold to the controller",
	Long: `Connect to the controller, send the weekly rain probabilities (W:), the
maximum temperatures (T:), the season code (M:) and the humidity threshold (N:),
then disconnect.

The cached forecast is used unless --refresh is given or nothing is cached.`,
	RunE: runSync,
}

func init() {
	rootCmd.AddCommand(syncCmd)
	syncCmd.Flags().BoolVar(&syncRefresh, "refresh", false, "Fetch a fresh forecast first")
}

func runSync(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	mgr, deviceID, connInfo, err := newManager(nil)
	if err != nil {
		return err
	}
	defer mgr.Close()

	ctrl, cleanup, err := openController(ctx, appOptions{link: mgr})
	if err != nil {
		return err
	}
	defer cleanup()

	if syncRefresh || len(ctrl.Forecast()) == 0 {
		if _, err := ctrl.RefreshForecast(ctx); err != nil {
			return errors.New(controller.UserMessage(err))
		}
	}

	cmds, err := ctrl.DeviceCommands()
	if err != nil {
		return errors.New(controller.UserMessage(err))
	}

	if err := connect(ctx, mgr, deviceID); err != nil {
		return errors.New(controller.UserMessage(err))
	}
	if err := ctrl.SyncDevice(ctx); err != nil {
		return errors.New(controller.UserMessage(err))
	}

	fmt.Printf("Synced %s\n", connInfo)
	for _, c := range cmds {
		fmt.Printf("  %s\n", irrlink.FormatCommand(c))
	}
	return mgr.Disconnect()
}
