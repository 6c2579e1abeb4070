// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/Thermoquad/irrigator/pkg/weather"
)

func TestLoad_Defaults(t *testing.T) {
	wd, err := os.Getwd()
	if err != nil {
		t.Fatalf("Getwd() error: %v", err)
	}
	if err := os.Chdir(t.TempDir()); err != nil {
		t.Fatalf("Chdir() error: %v", err)
	}
	t.Cleanup(func() { _ = os.Chdir(wd) })

	cfg, err := Load(New(), "")
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if cfg.Location != weather.DefaultLocation {
		t.Errorf("Location = %+v, want %+v", cfg.Location, weather.DefaultLocation)
	}
	if cfg.Link.Baud != 9600 || cfg.HTTP.Addr != ":8080" || cfg.Log.Level != "info" {
		t.Errorf("unexpected defaults: %+v", cfg)
	}
	if cfg.Advisory.BreakerFailures != 3 || cfg.Advisory.BreakerTimeout != 30*time.Second {
		t.Errorf("advisory defaults = %+v", cfg.Advisory)
	}
	if cfg.Weather.Timezone != weather.DefaultTimezone {
		t.Errorf("Weather.Timezone = %q", cfg.Weather.Timezone)
	}
}

func TestLoad_FileAndEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "irrigator.yaml")
	yaml := `
link:
  port: /dev/ttyUSB0
  baud: 115200
location:
  latitude: 41.01
  longitude: 28.97
  name: Istanbul
advisory:
  breaker_timeout: 5s
mqtt:
  broker: tcp://localhost:1883
`
	if err := os.WriteFile(path, []byte(yaml), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("IRRIGATOR_ADVISORY_API_KEY", "secret")
	t.Setenv("IRRIGATOR_LOG_LEVEL", "debug")

	cfg, err := Load(New(), path)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if cfg.Link.Port != "/dev/ttyUSB0" || cfg.Link.Baud != 115200 {
		t.Errorf("Link = %+v", cfg.Link)
	}
	if cfg.Location.Name != "Istanbul" || cfg.Location.Latitude != 41.01 {
		t.Errorf("Location = %+v", cfg.Location)
	}
	if cfg.Advisory.APIKey != "secret" || cfg.Advisory.BreakerTimeout != 5*time.Second {
		t.Errorf("Advisory = %+v", cfg.Advisory)
	}
	if cfg.Log.Level != "debug" {
		t.Errorf("Log.Level = %q", cfg.Log.Level)
	}
	if cfg.MQTT.Broker != "tcp://localhost:1883" || cfg.MQTT.TopicPrefix != "irrigator" {
		t.Errorf("MQTT = %+v", cfg.MQTT)
	}
}

func TestLoad_ExplicitMissingFile(t *testing.T) {
	if _, err := Load(New(), filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("Load() with a missing explicit file should fail")
	}
}

func TestDeviceID(t *testing.T) {
	if got := (LinkConfig{Port: "/dev/ttyACM0"}).DeviceID(); got != "/dev/ttyACM0" {
		t.Errorf("DeviceID() = %q", got)
	}
	if got := (LinkConfig{Port: "/dev/ttyACM0", URL: "ws://bridge/link"}).DeviceID(); got != "ws://bridge/link" {
		t.Errorf("DeviceID() = %q", got)
	}
}
