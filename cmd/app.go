// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"context"
	"net/http"
	"time"

	"github.com/Thermoquad/irrigator/pkg/advisory"
	"github.com/Thermoquad/irrigator/pkg/controller"
	"github.com/Thermoquad/irrigator/pkg/store"
	"github.com/Thermoquad/irrigator/pkg/telemetry"
	"github.com/Thermoquad/irrigator/pkg/weather"
)

const httpTimeout = 20 * time.Second

// appOptions selects the optional parts wired into a controller
type appOptions struct {
	link    controller.Link
	sink    telemetry.Sink
	metrics *telemetry.Metrics

	// ephemeral skips the settings database
	ephemeral bool
}

// newAdvisory returns the advisory client, or nil without an API key
func newAdvisory() advisory.Generator {
	if cfg.Advisory.APIKey == "" {
		return nil
	}
	return advisory.NewClient(advisory.Options{
		BaseURL:         cfg.Advisory.BaseURL,
		Model:           cfg.Advisory.Model,
		APIKey:          cfg.Advisory.APIKey,
		HTTPClient:      &http.Client{Timeout: httpTimeout},
		BreakerFailures: cfg.Advisory.BreakerFailures,
		BreakerTimeout:  cfg.Advisory.BreakerTimeout,
		Logger:          log.Named("advisory"),
	})
}

// openController wires the configured services into a controller and loads the
// saved settings and cached forecast. The returned func releases everything.
func openController(ctx context.Context, o appOptions) (*controller.Controller, func(), error) {
	opts := controller.Options{
		Link:     o.link,
		Weather:  weather.NewClient(cfg.Weather.BaseURL, cfg.Weather.Timezone, &http.Client{Timeout: httpTimeout}),
		Advisory: newAdvisory(),
		Sink:     o.sink,
		Metrics:  o.metrics,
		Location: cfg.Location,
		Logger:   log.Named("controller"),
	}

	var st *store.SQLiteStore
	if !o.ephemeral {
		db, err := store.InitDB(cfg.Store.Path)
		if err != nil {
			return nil, nil, err
		}
		st = store.NewSQLiteStore(db)
		opts.Store = st
	}

	ctrl := controller.New(opts)
	cleanup := func() {
		ctrl.Close()
		if st != nil {
			if err := st.Close(); err != nil {
				log.Warnw("store_close_failed", "err", err)
			}
		}
	}

	if err := ctrl.LoadSettings(ctx); err != nil {
		cleanup()
		return nil, nil, err
	}
	if ok, err := ctrl.LoadCachedForecast(ctx); err != nil {
		log.Warnw("forecast_cache_unreadable", "err", err)
	} else if ok {
		log.Debugw("forecast_cache_loaded")
	}

	return ctrl, cleanup, nil
}
