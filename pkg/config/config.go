// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

// Package config loads irrigator settings from an optional YAML file and
// IRRIGATOR_* environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/Thermoquad/irrigator/pkg/advisory"
	"github.com/Thermoquad/irrigator/pkg/link"
	"github.com/Thermoquad/irrigator/pkg/logger"
	"github.com/Thermoquad/irrigator/pkg/weather"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment override, e.g. IRRIGATOR_ADVISORY_API_KEY
const EnvPrefix = "IRRIGATOR"

// Config is the full application configuration
type Config struct {
	Link     LinkConfig       `mapstructure:"link"`
	Location weather.Location `mapstructure:"location"`
	Weather  WeatherConfig    `mapstructure:"weather"`
	Advisory AdvisoryConfig   `mapstructure:"advisory"`
	Store    StoreConfig      `mapstructure:"store"`
	MQTT     MQTTConfig       `mapstructure:"mqtt"`
	Influx   InfluxConfig     `mapstructure:"influx"`
	HTTP     HTTPConfig       `mapstructure:"http"`
	Log      LogConfig        `mapstructure:"log"`
}

type LinkConfig struct {
	Port        string `mapstructure:"port"`
	Baud        int    `mapstructure:"baud"`
	URL         string `mapstructure:"url"`
	Username    string `mapstructure:"username"`
	NoSSLVerify bool   `mapstructure:"no_ssl_verify"`
}

type WeatherConfig struct {
	BaseURL  string `mapstructure:"base_url"`
	Timezone string `mapstructure:"timezone"`
}

type AdvisoryConfig struct {
	BaseURL         string        `mapstructure:"base_url"`
	Model           string        `mapstructure:"model"`
	APIKey          string        `mapstructure:"api_key"`
	BreakerFailures uint32        `mapstructure:"breaker_failures"`
	BreakerTimeout  time.Duration `mapstructure:"breaker_timeout"`
}

type StoreConfig struct {
	Path string `mapstructure:"path"`
}

type MQTTConfig struct {
	Broker      string `mapstructure:"broker"`
	TopicPrefix string `mapstructure:"topic_prefix"`
	Username    string `mapstructure:"username"`
	Password    string `mapstructure:"password"`
}

type InfluxConfig struct {
	URL    string `mapstructure:"url"`
	Token  string `mapstructure:"token"`
	Org    string `mapstructure:"org"`
	Bucket string `mapstructure:"bucket"`
}

type HTTPConfig struct {
	Addr string `mapstructure:"addr"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
}

// New returns a viper instance with defaults and environment overrides set up
func New() *viper.Viper {
	v := viper.New()
	SetDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// SetDefaults registers a default for every key. Keys without a default are
// invisible to environment overrides during Unmarshal.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("link.port", "")
	v.SetDefault("link.baud", link.DefaultBaudRate)
	v.SetDefault("link.url", "")
	v.SetDefault("link.username", "")
	v.SetDefault("link.no_ssl_verify", false)

	v.SetDefault("location.latitude", weather.DefaultLocation.Latitude)
	v.SetDefault("location.longitude", weather.DefaultLocation.Longitude)
	v.SetDefault("location.name", weather.DefaultLocation.Name)

	v.SetDefault("weather.base_url", weather.DefaultBaseURL)
	v.SetDefault("weather.timezone", weather.DefaultTimezone)

	v.SetDefault("advisory.base_url", advisory.DefaultBaseURL)
	v.SetDefault("advisory.model", advisory.DefaultModel)
	v.SetDefault("advisory.api_key", "")
	v.SetDefault("advisory.breaker_failures", 3)
	v.SetDefault("advisory.breaker_timeout", 30*time.Second)

	v.SetDefault("store.path", "irrigator.db")

	v.SetDefault("mqtt.broker", "")
	v.SetDefault("mqtt.topic_prefix", "irrigator")
	v.SetDefault("mqtt.username", "")
	v.SetDefault("mqtt.password", "")

	v.SetDefault("influx.url", "")
	v.SetDefault("influx.token", "")
	v.SetDefault("influx.org", "")
	v.SetDefault("influx.bucket", "irrigation")

	v.SetDefault("http.addr", ":8080")
	v.SetDefault("log.level", logger.InfoLevel)
}

// Load reads the config file into v and decodes the result.
// An explicit path must exist; without one the default locations are searched
// and a missing file is not an error.
func Load(v *viper.Viper, path string) (Config, error) {
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("irrigator")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".config", "irrigator"))
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	return cfg, nil
}

// DeviceID returns the configured link target: the WebSocket URL when set,
// otherwise the serial port.
func (c LinkConfig) DeviceID() string {
	if c.URL != "" {
		return c.URL
	}
	return c.Port
}
