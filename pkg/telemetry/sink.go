// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

// Package telemetry forwards sensor readings and watering plans to external
// systems and exposes Prometheus metrics for the bridge.
package telemetry

import (
	"context"
	"errors"
	"time"

	"github.com/Thermoquad/irrigator/pkg/irrigation"
	"github.com/Thermoquad/irrigator/pkg/irrlink"
)

// Sink receives readings and plans. Implementations must be safe for
// concurrent use.
type Sink interface {
	PublishReading(ctx context.Context, at time.Time, r irrlink.SensorReading) error
	PublishPlan(ctx context.Context, at time.Time, plan []irrigation.DayDecision) error
}

// Fanout publishes to every sink and joins their errors
type Fanout []Sink

func (f Fanout) PublishReading(ctx context.Context, at time.Time, r irrlink.SensorReading) error {
	var errs []error
	for _, s := range f {
		if err := s.PublishReading(ctx, at, r); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (f Fanout) PublishPlan(ctx context.Context, at time.Time, plan []irrigation.DayDecision) error {
	var errs []error
	for _, s := range f {
		if err := s.PublishPlan(ctx, at, plan); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

type readingMessage struct {
	Time time.Time `json:"time"`
	irrlink.SensorReading
}

type planMessage struct {
	Time         time.Time                `json:"time"`
	WateringDays []int                    `json:"watering_days"`
	Days         []irrigation.DayDecision `json:"days"`
}
