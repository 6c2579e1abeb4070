// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"github.com/Thermoquad/irrigator/pkg/config"
	"github.com/Thermoquad/irrigator/pkg/link"
	"github.com/Thermoquad/irrigator/pkg/logger"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	cfgFile string

	// v holds flags, environment and the config file; cfg is decoded from it
	// before every command runs.
	v   = config.New()
	cfg config.Config
	log = logger.Nop()
)

var rootCmd = &cobra.Command{
	Use:   "irrigator",
	Short: "Weather-aware irrigation controller host",
	Long: `Irrigator - host side of a soil moisture irrigation controller.

Fetches a 7-day forecast, builds a weekly watering plan from crop profiles and
rain probability, and keeps the controller in sync over a line-based link.

Connection modes:
  Serial:    --port /dev/ttyUSB0 [--baud 9600]
  WebSocket: --url ws://host/path [--username user]

For WebSocket authentication, the password is read from the IRRIGATOR_PASSWORD
environment variable, or prompted interactively if not set. The --password
flag is intentionally not provided to avoid leaking credentials in shell history.

Every flag can also be set in irrigator.yaml or as IRRIGATOR_<SECTION>_<KEY>.`,
	Version:           "1.0.0",
	SilenceUsage:      true,
	PersistentPreRunE: loadConfig,
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&cfgFile, "config", "", "Config file (default ./irrigator.yaml or ~/.config/irrigator/irrigator.yaml)")

	// Serial connection flags
	flags.StringP("port", "p", "", "Serial port device")
	flags.IntP("baud", "b", link.DefaultBaudRate, "Baud rate (serial only)")

	// WebSocket connection flags
	flags.StringP("url", "u", "", "WebSocket URL (ws:// or wss://)")
	flags.String("username", "", "Username for HTTP Basic auth")
	flags.Bool("no-ssl-verify", false, "Skip TLS certificate verification (wss:// only)")

	flags.String("log-level", logger.InfoLevel, "Log level (debug, info, warn, error)")
	flags.String("db", "", "Settings database path")

	bindFlag(v, "link.port", "port")
	bindFlag(v, "link.baud", "baud")
	bindFlag(v, "link.url", "url")
	bindFlag(v, "link.username", "username")
	bindFlag(v, "link.no_ssl_verify", "no-ssl-verify")
	bindFlag(v, "log.level", "log-level")
	bindFlag(v, "store.path", "db")
}

func bindFlag(v *viper.Viper, key, flag string) {
	if err := v.BindPFlag(key, rootCmd.PersistentFlags().Lookup(flag)); err != nil {
		panic(err)
	}
}

func loadConfig(cmd *cobra.Command, args []string) error {
	loaded, err := config.Load(v, cfgFile)
	if err != nil {
		return err
	}
	cfg = loaded
	log = logger.Get(cfg.Log.Level)
	return nil
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}
