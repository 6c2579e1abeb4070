// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package api

import (
	"context"

	"github.com/Thermoquad/irrigator/pkg/crop"
	"github.com/Thermoquad/irrigator/pkg/irrigation"
	"github.com/Thermoquad/irrigator/pkg/irrlink"
	"github.com/Thermoquad/irrigator/pkg/link"
	"github.com/Thermoquad/irrigator/pkg/weather"
)

type mockService struct {
	forecast     []weather.ForecastDay
	settings     irrigation.Settings
	plan         []irrigation.DayDecision
	advisoryPlan *irrigation.AdvisoryPlan
	advisable    []bool

	updateErr   error
	resolution  crop.Resolution
	resolveErr  error
	refreshErr  error
	advisoryErr error
	syncErr     error

	lastSettings irrigation.Settings
	lastCrop     string
	syncCalls    int
	clearCalls   int
}

func (m *mockService) Location() weather.Location             { return weather.DefaultLocation }
func (m *mockService) Season() irrigation.Season              { return irrigation.Summer }
func (m *mockService) Forecast() []weather.ForecastDay        { return m.forecast }
func (m *mockService) Settings() irrigation.Settings          { return m.settings }
func (m *mockService) Plan() []irrigation.DayDecision         { return m.plan }
func (m *mockService) AdvisoryPlan() *irrigation.AdvisoryPlan { return m.advisoryPlan }
func (m *mockService) Advisability() []bool                   { return m.advisable }
func (m *mockService) ClearAdvisoryPlan()                     { m.clearCalls++ }

func (m *mockService) UpdateSettings(_ context.Context, s irrigation.Settings) error {
	m.lastSettings = s
	if m.updateErr != nil {
		return m.updateErr
	}
	s.UserOverridden = true
	m.settings = s
	return nil
}

func (m *mockService) ResetSettings(context.Context) error {
	m.settings = irrigation.DefaultSettings()
	return nil
}

func (m *mockService) ResolveCrop(_ context.Context, name string) (crop.Resolution, error) {
	m.lastCrop = name
	return m.resolution, m.resolveErr
}

func (m *mockService) RefreshForecast(context.Context) ([]weather.ForecastDay, error) {
	return m.forecast, m.refreshErr
}

func (m *mockService) RequestAdvisoryPlan(context.Context) (*irrigation.AdvisoryPlan, error) {
	return m.advisoryPlan, m.advisoryErr
}

func (m *mockService) SyncDevice(context.Context) error {
	m.syncCalls++
	return m.syncErr
}

type mockLink struct {
	state   link.State
	reading *link.Cell[irrlink.SensorReading]
}

func newMockLink() *mockLink {
	return &mockLink{state: link.Connected, reading: link.NewCell(irrlink.SensorReading{})}
}

func (m *mockLink) State() link.State              { return m.state }
func (m *mockLink) Reading() irrlink.SensorReading { return m.reading.Get() }
func (m *mockLink) Stats() irrlink.Statistics      { return irrlink.Statistics{StatusFrames: 3} }

func (m *mockLink) WatchReadings(buffer int) (<-chan irrlink.SensorReading, func()) {
	return m.reading.Watch(buffer)
}
