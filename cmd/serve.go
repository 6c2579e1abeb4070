// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Thermoquad/irrigator/pkg/api"
	"github.com/Thermoquad/irrigator/pkg/controller"
	"github.com/Thermoquad/irrigator/pkg/link"
	"github.com/Thermoquad/irrigator/pkg/logger"
	"github.com/Thermoquad/irrigator/pkg/telemetry"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
)

const shutdownTimeout = 10 * time.Second

var (
	serveRefreshInterval time.Duration
	serveAutoSync        bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the long-lived irrigation bridge",
	Long: `Keep the controller connected and serve the HTTP API.

The bridge:
  - reconnects to the controller with backoff whenever the link fails
  - refreshes the forecast periodically and syncs the controller after each
    refresh and each reconnect (disable with --auto-sync=false)
  - serves the REST API, the /ws reading stream and /metrics
  - publishes readings and plans to MQTT and InfluxDB when configured

Without --port or --url the API is served without a controller link.`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().String("addr", ":8080", "HTTP listen address")
	serveCmd.Flags().DurationVar(&serveRefreshInterval, "refresh-interval", 3*time.Hour, "Forecast refresh interval (0 disables)")
	serveCmd.Flags().BoolVar(&serveAutoSync, "auto-sync", true, "Sync the controller after refreshes and reconnects")
	if err := v.BindPFlag("http.addr", serveCmd.Flags().Lookup("addr")); err != nil {
		panic(err)
	}
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	metrics := telemetry.NewMetrics(reg)

	sink, closeSinks, err := openSinks(ctx)
	if err != nil {
		return err
	}
	defer closeSinks()

	// A nil *link.Manager must not reach the interface fields
	var (
		mgr      *link.Manager
		deviceID string
		ctrlLink controller.Link
		apiLink  api.Link
	)
	mgr, deviceID, connInfo, err := newManager(metrics.ObserveFrame)
	switch {
	case errors.Is(err, errNoDevice):
		log.Warnw("serve_without_link")
	case err != nil:
		return err
	default:
		defer mgr.Close()
		ctrlLink, apiLink = mgr, mgr
		log.Infow("serve_link", "device", connInfo)
	}

	ctrl, cleanup, err := openController(ctx, appOptions{link: ctrlLink, sink: sink, metrics: metrics})
	if err != nil {
		return err
	}
	defer cleanup()

	go func() {
		if err := ctrl.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			log.Errorw("controller_stopped", "err", err)
		}
	}()

	if mgr != nil {
		go superviseLink(ctx, mgr, deviceID, ctrl)
	}
	go refreshLoop(ctx, ctrl, mgr)

	handler := api.NewHandler(ctrl, apiLink, reg, log.Named("api"))
	srv := api.NewServer(cfg.HTTP.Addr, handler.InitRoutes())
	serverErr := make(chan error, 1)
	go func() {
		log.Infow("http_listening", "addr", api.NormalizeAddr(cfg.HTTP.Addr))
		if err := srv.Run(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	// graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	var runErr error
	select {
	case <-quit:
		log.Infow("shutting_down")
	case err := <-serverErr:
		runErr = fmt.Errorf("http server: %w", err)
	}

	// stop background goroutines
	cancel()

	// allow in-flight requests to complete
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Errorw("server_forced_shutdown", "err", err)
	}
	return runErr
}

// openSinks connects the configured MQTT and InfluxDB sinks.
// The result is nil when neither is configured.
func openSinks(ctx context.Context) (telemetry.Sink, func(), error) {
	var (
		sinks   telemetry.Fanout
		closers []func()
	)
	closeAll := func() {
		for _, c := range closers {
			c()
		}
	}

	if cfg.MQTT.Broker != "" {
		m, err := telemetry.DialMQTT(ctx, telemetry.MQTTOptions{
			Broker:      cfg.MQTT.Broker,
			Username:    cfg.MQTT.Username,
			Password:    cfg.MQTT.Password,
			TopicPrefix: cfg.MQTT.TopicPrefix,
			Logger:      log.Named("mqtt"),
		})
		if err != nil {
			return nil, nil, fmt.Errorf("mqtt: %w", err)
		}
		sinks = append(sinks, m)
		closers = append(closers, m.Close)
	}

	if cfg.Influx.URL != "" {
		s, err := telemetry.NewInfluxSink(telemetry.InfluxOptions{
			URL:    cfg.Influx.URL,
			Token:  cfg.Influx.Token,
			Org:    cfg.Influx.Org,
			Bucket: cfg.Influx.Bucket,
			Device: cfg.Link.DeviceID(),
		})
		if err != nil {
			closeAll()
			return nil, nil, fmt.Errorf("influx: %w", err)
		}
		sinks = append(sinks, s)
		closers = append(closers, s.Close)
	}

	if len(sinks) == 0 {
		return nil, closeAll, nil
	}
	return sinks, closeAll, nil
}

// superviseLink keeps the link up and syncs the controller after each connect
func superviseLink(ctx context.Context, mgr *link.Manager, deviceID string, ctrl *controller.Controller) {
	l := log.Named("link")
	states, cancel := mgr.WatchState(8)
	defer cancel()

	for {
		select {
		case <-ctx.Done():
			return
		case st, ok := <-states:
			if !ok {
				return
			}
			switch st {
			case link.Disconnected, link.Failed:
				err := reconnect(ctx, mgr, func() string { return deviceID }, func(attempt int, err error, wait time.Duration) {
					l.Warnw("link_reconnect_failed", "attempt", attempt, "err", err, "wait", wait)
				})
				if err != nil {
					if ctx.Err() == nil {
						l.Errorw("link_reconnect_abandoned", "err", err)
					}
					return
				}
			case link.Connected:
				if serveAutoSync {
					syncQuietly(ctx, ctrl, l)
				}
			}
		}
	}
}

// refreshLoop refreshes the forecast on start and then every interval
func refreshLoop(ctx context.Context, ctrl *controller.Controller, mgr *link.Manager) {
	l := log.Named("forecast")
	refresh := func() {
		rctx, cancel := context.WithTimeout(ctx, actionTimeout)
		defer cancel()
		if _, err := ctrl.RefreshForecast(rctx); err != nil {
			l.Warnw("forecast_refresh_failed", "err", err)
			return
		}
		if serveAutoSync && mgr != nil && mgr.State() == link.Connected {
			syncQuietly(ctx, ctrl, l)
		}
	}

	refresh()
	if serveRefreshInterval <= 0 {
		return
	}
	ticker := time.NewTicker(serveRefreshInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			refresh()
		}
	}
}

// syncQuietly syncs the controller when a forecast is available, logging failures
func syncQuietly(ctx context.Context, ctrl *controller.Controller, l *logger.Logger) {
	if len(ctrl.Forecast()) == 0 {
		return
	}
	sctx, cancel := context.WithTimeout(ctx, actionTimeout)
	defer cancel()
	if err := ctrl.SyncDevice(sctx); err != nil {
		l.Warnw("device_sync_failed", "err", err)
	}
}
