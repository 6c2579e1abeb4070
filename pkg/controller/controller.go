// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

// Package controller coordinates the forecast, settings, advisory plan and the
// device link. Every change to an input recomputes the whole weekly plan.
package controller

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/Thermoquad/irrigator/pkg/advisory"
	"github.com/Thermoquad/irrigator/pkg/crop"
	"github.com/Thermoquad/irrigator/pkg/irrigation"
	"github.com/Thermoquad/irrigator/pkg/irrlink"
	"github.com/Thermoquad/irrigator/pkg/link"
	"github.com/Thermoquad/irrigator/pkg/logger"
	"github.com/Thermoquad/irrigator/pkg/telemetry"
	"github.com/Thermoquad/irrigator/pkg/weather"
)

// ErrForecastChanged is returned when the forecast was replaced while an
// advisory plan for the previous one was being requested
var ErrForecastChanged = errors.New("forecast changed during advisory request")

// Store persists settings and the last fetched forecast
type Store interface {
	LoadSettings(ctx context.Context) (irrigation.Settings, bool, error)
	SaveSettings(ctx context.Context, settings irrigation.Settings) error
	LoadForecast(ctx context.Context) ([]weather.ForecastDay, bool, error)
	SaveForecast(ctx context.Context, days []weather.ForecastDay) error
}

// Link is the device connection as seen by the controller
type Link interface {
	State() link.State
	Reading() irrlink.SensorReading
	Send(ctx context.Context, cmds ...irrlink.Command) error
	WatchState(buffer int) (<-chan link.State, func())
	WatchReadings(buffer int) (<-chan irrlink.SensorReading, func())
}

// CropResolver resolves free-text crop names
type CropResolver interface {
	Resolve(ctx context.Context, name string, season irrigation.Season) (crop.Resolution, error)
}

// Options configures a Controller. Only Weather is required for forecasts and
// Link for device operations.
type Options struct {
	Store    Store
	Link     Link
	Weather  weather.Source
	Advisory advisory.Generator
	// Crops defaults to a crop.Resolver over Advisory
	Crops   CropResolver
	Sink    telemetry.Sink
	Metrics *telemetry.Metrics

	Location weather.Location
	Now      func() time.Time
	Logger   *logger.Logger
}

// Controller holds the current inputs and the plan derived from them
type Controller struct {
	store    Store
	link     Link
	weather  weather.Source
	advisory advisory.Generator
	crops    CropResolver
	sink     telemetry.Sink
	metrics  *telemetry.Metrics
	location weather.Location
	now      func() time.Time
	log      *logger.Logger

	// settingsMu serializes settings read-modify-save sequences, including the
	// store write. Taken before mu.
	settingsMu sync.Mutex

	// mu serializes input changes so each recompute sees a consistent set
	mu          sync.Mutex
	hasSettings bool
	// forecastGen counts forecast replacements
	forecastGen uint64

	forecast     *link.Cell[[]weather.ForecastDay]
	settings     *link.Cell[irrigation.Settings]
	advisoryPlan *link.Cell[*irrigation.AdvisoryPlan]
	plan         *link.Cell[[]irrigation.DayDecision]
}

// New creates a controller with default settings not yet loaded
func New(opts Options) *Controller {
	log := logger.OrNop(opts.Logger)

	now := opts.Now
	if now == nil {
		now = time.Now
	}
	location := opts.Location
	if location == (weather.Location{}) {
		location = weather.DefaultLocation
	}
	crops := opts.Crops
	if crops == nil {
		crops = crop.NewResolver(opts.Advisory, log)
	}

	return &Controller{
		store:        opts.Store,
		link:         opts.Link,
		weather:      opts.Weather,
		advisory:     opts.Advisory,
		crops:        crops,
		sink:         opts.Sink,
		metrics:      opts.Metrics,
		location:     location,
		now:          now,
		log:          log,
		forecast:     link.NewCell[[]weather.ForecastDay](nil),
		settings:     link.NewCell(irrigation.DefaultSettings()),
		advisoryPlan: link.NewCell[*irrigation.AdvisoryPlan](nil),
		plan:         link.NewCell[[]irrigation.DayDecision](nil),
	}
}

// Location returns the forecast location
func (c *Controller) Location() weather.Location { return c.location }

// Season returns the season at the injected clock
func (c *Controller) Season() irrigation.Season { return irrigation.SeasonOf(c.now()) }

func (c *Controller) Forecast() []weather.ForecastDay { return c.forecast.Get() }

func (c *Controller) Settings() irrigation.Settings { return c.settings.Get() }

// AdvisoryPlan returns the last advisory plan, or nil when none was requested
func (c *Controller) AdvisoryPlan() *irrigation.AdvisoryPlan { return c.advisoryPlan.Get() }

// Plan returns the weekly plan, or nil until both forecast and settings exist
func (c *Controller) Plan() []irrigation.DayDecision { return c.plan.Get() }

// WatchPlan subscribes to plan changes; the current plan is delivered first
func (c *Controller) WatchPlan(buffer int) (<-chan []irrigation.DayDecision, func()) {
	return c.plan.Watch(buffer)
}

// LoadSettings restores persisted settings. Without a store or a valid saved
// row the defaults are used.
func (c *Controller) LoadSettings(ctx context.Context) error {
	c.settingsMu.Lock()
	defer c.settingsMu.Unlock()

	settings := irrigation.DefaultSettings()
	if c.store != nil {
		saved, ok, err := c.store.LoadSettings(ctx)
		if err != nil {
			return fmt.Errorf("load settings: %w", err)
		}
		switch {
		case !ok:
		case saved.Validate() != nil:
			c.log.Warnw("stored_settings_invalid", "err", saved.Validate())
		default:
			settings = saved
		}
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.settings.Set(settings)
	c.hasSettings = true
	c.recompute()
	return nil
}

// LoadCachedForecast installs the last persisted forecast if none is held yet
func (c *Controller) LoadCachedForecast(ctx context.Context) (bool, error) {
	if c.store == nil {
		return false, nil
	}
	days, ok, err := c.store.LoadForecast(ctx)
	if err != nil || !ok {
		return false, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.forecast.Get() != nil {
		return false, nil
	}
	c.forecast.Set(days)
	c.forecastGen++
	c.recompute()
	return true, nil
}

// UpdateSettings validates and stores hand-edited settings. They are marked as
// user overridden so crop profiles no longer replace them.
func (c *Controller) UpdateSettings(ctx context.Context, settings irrigation.Settings) error {
	if err := settings.Validate(); err != nil {
		return err
	}
	settings.UserOverridden = true

	c.settingsMu.Lock()
	defer c.settingsMu.Unlock()
	if err := c.save(ctx, settings); err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.settings.Set(settings)
	c.hasSettings = true
	c.recompute()
	c.log.Infow("settings_updated", "crop", settings.CropName, "frequency_days", settings.FrequencyDays)
	return nil
}

// ResetSettings clears the user override and returns to the defaults
func (c *Controller) ResetSettings(ctx context.Context) error {
	settings := irrigation.DefaultSettings()

	c.settingsMu.Lock()
	defer c.settingsMu.Unlock()
	if err := c.save(ctx, settings); err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.settings.Set(settings)
	c.hasSettings = true
	c.recompute()
	return nil
}

// ResolveCrop resolves name for the current season and applies the profile to
// the settings unless they are user overridden.
func (c *Controller) ResolveCrop(ctx context.Context, name string) (crop.Resolution, error) {
	res, err := c.crops.Resolve(ctx, name, c.Season())
	if err != nil {
		return crop.Resolution{}, err
	}

	c.settingsMu.Lock()
	defer c.settingsMu.Unlock()

	current := c.settings.Get()
	next := crop.Apply(current, res.Profile)
	if next == current {
		return res, nil
	}
	if err := c.save(ctx, next); err != nil {
		return res, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.settings.Set(next)
	c.hasSettings = true
	c.recompute()
	c.log.Infow("crop_applied", "crop", res.Profile.CropName, "source", res.Source.String())
	return res, nil
}

// RefreshForecast fetches the forecast for the configured location.
// A fetched forecast replaces the previous one and invalidates the advisory plan.
func (c *Controller) RefreshForecast(ctx context.Context) ([]weather.ForecastDay, error) {
	if c.weather == nil {
		return nil, errors.New("no weather source configured")
	}
	days, err := c.weather.Fetch(ctx, c.location.Latitude, c.location.Longitude)
	if err != nil {
		return nil, fmt.Errorf("fetch forecast: %w", err)
	}

	if c.store != nil {
		if err := c.store.SaveForecast(ctx, days); err != nil {
			c.log.Warnw("forecast_cache_failed", "err", err)
		}
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.forecast.Set(days)
	c.forecastGen++
	c.advisoryPlan.Set(nil)
	c.recompute()
	c.log.Infow("forecast_refreshed", "days", len(days), "location", c.location.Name)
	return days, nil
}

// RequestAdvisoryPlan asks the advisory service for a weekly plan. On failure
// the held plan becomes empty so every day uses the rule-based schedule, and
// the error is returned. A plan for a forecast that was replaced meanwhile is
// discarded with ErrForecastChanged.
func (c *Controller) RequestAdvisoryPlan(ctx context.Context) (*irrigation.AdvisoryPlan, error) {
	c.mu.Lock()
	forecast, settings, gen := c.forecast.Get(), c.settings.Get(), c.forecastGen
	c.mu.Unlock()

	if forecast == nil {
		return nil, irrigation.ErrNoForecast
	}
	if c.advisory == nil {
		return nil, advisory.ErrUnavailable
	}

	plan, err := irrigation.RequestPlan(ctx, c.advisory, forecast, settings, c.Season())
	if c.metrics != nil {
		c.metrics.ObserveAdvisory(err)
	}
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		c.log.Warnw("advisory_plan_failed", "err", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.forecastGen != gen {
		c.log.Infow("advisory_plan_discarded", "reason", "forecast changed")
		return nil, ErrForecastChanged
	}
	c.advisoryPlan.Set(plan)
	c.recompute()
	return plan, err
}

// ClearAdvisoryPlan drops the advisory plan; every day returns to the rule-based schedule
func (c *Controller) ClearAdvisoryPlan() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.advisoryPlan.Set(nil)
	c.recompute()
}

// Advisability returns the general watering advisability for each forecast day
func (c *Controller) Advisability() []bool {
	c.mu.Lock()
	forecast, settings := c.forecast.Get(), c.settings.Get()
	c.mu.Unlock()

	season := c.Season()
	out := make([]bool, len(forecast))
	for i, day := range forecast {
		out[i] = irrigation.Advisable(day.RainProbability, settings.HumidityThreshold, season)
	}
	return out
}

// DeviceCommands returns the commands SyncDevice would send
func (c *Controller) DeviceCommands() ([]irrlink.Command, error) {
	c.mu.Lock()
	forecast, settings := c.forecast.Get(), c.settings.Get()
	c.mu.Unlock()
	return irrigation.DeviceCommands(forecast, settings, c.Season())
}

// SyncDevice sends the forecast, season and humidity threshold to the controller
func (c *Controller) SyncDevice(ctx context.Context) error {
	if c.link == nil {
		return link.ErrNotConnected
	}
	cmds, err := c.DeviceCommands()
	if err != nil {
		return err
	}
	if err := c.link.Send(ctx, cmds...); err != nil {
		return err
	}
	if c.metrics != nil {
		c.metrics.ObserveSend(cmds...)
	}
	c.log.Infow("device_synced", "commands", len(cmds))
	return nil
}

// QueryStatus sends S: and waits for the next reading
func (c *Controller) QueryStatus(ctx context.Context) (irrlink.SensorReading, error) {
	if c.link == nil {
		return irrlink.SensorReading{}, link.ErrNotConnected
	}
	readings, cancel := c.link.WatchReadings(4)
	defer cancel()
	// The current reading is delivered first
	<-readings

	if err := c.link.Send(ctx, irrlink.QueryStatus{}); err != nil {
		return irrlink.SensorReading{}, err
	}
	if c.metrics != nil {
		c.metrics.ObserveSend(irrlink.QueryStatus{})
	}

	select {
	case r, ok := <-readings:
		if !ok {
			return irrlink.SensorReading{}, link.ErrNotConnected
		}
		return r, nil
	case <-ctx.Done():
		return irrlink.SensorReading{}, ctx.Err()
	}
}

// Run forwards readings, plans and link states to the sink and metrics until
// ctx is done. The zero reading held before the first status frame is skipped.
func (c *Controller) Run(ctx context.Context) error {
	var readings <-chan irrlink.SensorReading
	var states <-chan link.State
	if c.link != nil {
		r, cancelReadings := c.link.WatchReadings(16)
		defer cancelReadings()
		s, cancelStates := c.link.WatchState(16)
		defer cancelStates()
		readings, states = r, s
	}
	plans, cancelPlans := c.plan.Watch(4)
	defer cancelPlans()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case r, ok := <-readings:
			if !ok {
				readings = nil
				continue
			}
			if r == (irrlink.SensorReading{}) {
				continue
			}
			c.publishReading(ctx, r)

		case s, ok := <-states:
			if !ok {
				states = nil
				continue
			}
			if c.metrics != nil {
				c.metrics.ObserveState(s)
			}

		case p, ok := <-plans:
			if !ok {
				plans = nil
				continue
			}
			if p == nil {
				continue
			}
			c.publishPlan(ctx, p)
		}
	}
}

func (c *Controller) publishReading(ctx context.Context, r irrlink.SensorReading) {
	at := c.now()
	if c.metrics != nil {
		_ = c.metrics.PublishReading(ctx, at, r)
	}
	if c.sink != nil {
		if err := c.sink.PublishReading(ctx, at, r); err != nil {
			c.log.Warnw("reading_publish_failed", "err", err)
		}
	}
}

func (c *Controller) publishPlan(ctx context.Context, plan []irrigation.DayDecision) {
	at := c.now()
	if c.metrics != nil {
		_ = c.metrics.PublishPlan(ctx, at, plan)
	}
	if c.sink != nil {
		if err := c.sink.PublishPlan(ctx, at, plan); err != nil {
			c.log.Warnw("plan_publish_failed", "err", err)
		}
	}
}

// Close releases the controller's watchers
func (c *Controller) Close() {
	c.forecast.Close()
	c.settings.Close()
	c.advisoryPlan.Close()
	c.plan.Close()
}

func (c *Controller) save(ctx context.Context, settings irrigation.Settings) error {
	if c.store == nil {
		return nil
	}
	if err := c.store.SaveSettings(ctx, settings); err != nil {
		return fmt.Errorf("save settings: %w", err)
	}
	return nil
}

// recompute rebuilds the plan from the held inputs. Caller holds mu.
func (c *Controller) recompute() {
	forecast := c.forecast.Get()
	if forecast == nil || !c.hasSettings {
		return
	}
	plan, err := irrigation.BuildPlan(forecast, c.settings.Get(), c.advisoryPlan.Get())
	if err != nil {
		// Never leave a plan built from older inputs in place
		c.log.Errorw("plan_failed", "err", err)
		c.plan.Set(nil)
		return
	}
	c.plan.Set(plan)
}
