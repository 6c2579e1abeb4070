// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package telemetry

import (
	"context"
	"time"

	"github.com/Thermoquad/irrigator/pkg/irrigation"
	"github.com/Thermoquad/irrigator/pkg/irrlink"
	"github.com/Thermoquad/irrigator/pkg/link"
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "irrigator"

var allStates = []link.State{link.Disconnected, link.Scanning, link.Connecting, link.Connected, link.Failed}

// Metrics holds the bridge's Prometheus collectors.
// It also implements Sink so readings and plans can be fanned out to it.
type Metrics struct {
	LinkState     *prometheus.GaugeVec
	Frames        *prometheus.CounterVec
	Sends         *prometheus.CounterVec
	Readings      prometheus.Counter
	Humidity      prometheus.Gauge
	Light         prometheus.Gauge
	PumpOn        prometheus.Gauge
	WateringDays  prometheus.Gauge
	AdvisoryCalls *prometheus.CounterVec
}

// NewMetrics creates the collectors and registers them with reg
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		LinkState: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "link_state",
			Help:      "1 for the current connection state, 0 otherwise",
		}, []string{"state"}),
		Frames: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "frames_total",
			Help:      "Decoded inbound frames by kind",
		}, []string{"kind"}),
		Sends: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "commands_sent_total",
			Help:      "Outbound commands by name",
		}, []string{"command"}),
		Readings: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "readings_total",
			Help:      "Sensor readings received",
		}),
		Humidity: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "soil_humidity",
			Help:      "Last reported soil humidity (raw ADC)",
		}),
		Light: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "light",
			Help:      "Last reported light level (raw ADC)",
		}),
		PumpOn: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "pump_on",
			Help:      "1 while the pump is running",
		}),
		WateringDays: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "planned_watering_days",
			Help:      "Watering days in the current plan",
		}),
		AdvisoryCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "advisory_requests_total",
			Help:      "Advisory requests by outcome",
		}, []string{"outcome"}),
	}

	reg.MustRegister(
		m.LinkState,
		m.Frames,
		m.Sends,
		m.Readings,
		m.Humidity,
		m.Light,
		m.PumpOn,
		m.WateringDays,
		m.AdvisoryCalls,
	)
	m.ObserveState(link.Disconnected)
	return m
}

// ObserveState marks s as the current link state
func (m *Metrics) ObserveState(s link.State) {
	for _, st := range allStates {
		v := 0.0
		if st == s {
			v = 1
		}
		m.LinkState.WithLabelValues(st.String()).Set(v)
	}
}

func (m *Metrics) ObserveFrame(f irrlink.Frame) {
	m.Frames.WithLabelValues(f.Kind().String()).Inc()
}

func (m *Metrics) ObserveSend(cmds ...irrlink.Command) {
	for _, c := range cmds {
		m.Sends.WithLabelValues(irrlink.FormatCommandName(c)).Inc()
	}
}

// ObserveAdvisory counts one advisory request; err nil counts as "ok"
func (m *Metrics) ObserveAdvisory(err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.AdvisoryCalls.WithLabelValues(outcome).Inc()
}

func (m *Metrics) PublishReading(_ context.Context, _ time.Time, r irrlink.SensorReading) error {
	m.Readings.Inc()
	m.Humidity.Set(float64(r.Humidity))
	m.Light.Set(float64(r.Light))
	if r.PumpOn {
		m.PumpOn.Set(1)
	} else {
		m.PumpOn.Set(0)
	}
	return nil
}

func (m *Metrics) PublishPlan(_ context.Context, _ time.Time, plan []irrigation.DayDecision) error {
	m.WateringDays.Set(float64(len(irrigation.WateringDays(plan))))
	return nil
}
