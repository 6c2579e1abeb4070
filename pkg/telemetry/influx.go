// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package telemetry

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/Thermoquad/irrigator/pkg/irrigation"
	"github.com/Thermoquad/irrigator/pkg/irrlink"
	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"
	"github.com/influxdata/influxdb-client-go/v2/api/write"
)

const (
	MeasurementReading = "soil_reading"
	MeasurementPlan    = "irrigation_plan"
)

var ErrInfluxConfig = errors.New("influx config incomplete")

// InfluxOptions configures NewInfluxSink
type InfluxOptions struct {
	URL    string
	Token  string
	Org    string
	Bucket string
	// Device tags every point
	Device string
}

// InfluxSink writes readings and plans as InfluxDB points
type InfluxSink struct {
	client   influxdb2.Client
	writeAPI api.WriteAPIBlocking
	device   string
}

// NewInfluxSink creates a sink writing synchronously to one bucket
func NewInfluxSink(opts InfluxOptions) (*InfluxSink, error) {
	if opts.URL == "" || opts.Token == "" || opts.Org == "" || opts.Bucket == "" {
		return nil, ErrInfluxConfig
	}
	client := influxdb2.NewClient(opts.URL, opts.Token)
	return &InfluxSink{
		client:   client,
		writeAPI: client.WriteAPIBlocking(opts.Org, opts.Bucket),
		device:   opts.Device,
	}, nil
}

func (s *InfluxSink) PublishReading(ctx context.Context, at time.Time, r irrlink.SensorReading) error {
	if err := s.writeAPI.WritePoint(ctx, readingPoint(s.device, at, r)); err != nil {
		return fmt.Errorf("influx write %s: %w", MeasurementReading, err)
	}
	return nil
}

func (s *InfluxSink) PublishPlan(ctx context.Context, at time.Time, plan []irrigation.DayDecision) error {
	points := make([]*write.Point, 0, len(plan))
	for _, d := range plan {
		points = append(points, planPoint(s.device, at, d))
	}
	if len(points) == 0 {
		return nil
	}
	if err := s.writeAPI.WritePoint(ctx, points...); err != nil {
		return fmt.Errorf("influx write %s: %w", MeasurementPlan, err)
	}
	return nil
}

// Close releases the client
func (s *InfluxSink) Close() {
	if s.client != nil {
		s.client.Close()
	}
}

func readingPoint(device string, at time.Time, r irrlink.SensorReading) *write.Point {
	tags := map[string]string{"device": device}
	fields := map[string]any{
		"humidity":         r.Humidity,
		"light":            r.Light,
		"pump_on":          r.PumpOn,
		"day_index":        r.DayIndex,
		"rain_probability": r.RainProbability,
	}
	return influxdb2.NewPoint(MeasurementReading, tags, fields, at)
}

func planPoint(device string, at time.Time, d irrigation.DayDecision) *write.Point {
	tags := map[string]string{
		"device": device,
		"day":    strconv.Itoa(d.Index),
		"source": d.Source.String(),
	}
	fields := map[string]any{
		"should_water":     d.ShouldWater,
		"rain_probability": d.Day.RainProbability,
		"temp_max":         d.Day.TempMaxC,
	}
	return influxdb2.NewPoint(MeasurementPlan, tags, fields, at)
}
