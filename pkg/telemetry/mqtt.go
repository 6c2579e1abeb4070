// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package telemetry

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/Thermoquad/irrigator/pkg/irrigation"
	"github.com/Thermoquad/irrigator/pkg/irrlink"
	"github.com/Thermoquad/irrigator/pkg/logger"
	"github.com/cenkalti/backoff/v4"
	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"
)

const (
	mqttConnectAttempts   = 5
	mqttDisconnectQuiesce = 250
)

// MQTTOptions configures DialMQTT
type MQTTOptions struct {
	Broker      string
	Username    string
	Password    string
	TopicPrefix string
	Logger      *logger.Logger
}

// MQTTSink publishes JSON documents to <prefix>/reading and <prefix>/plan
type MQTTSink struct {
	client mqtt.Client
	prefix string
	log    *logger.Logger
}

// DialMQTT connects to the broker, retrying with exponential backoff
func DialMQTT(ctx context.Context, opts MQTTOptions) (*MQTTSink, error) {
	log := logger.OrNop(opts.Logger)

	co := mqtt.NewClientOptions()
	co.AddBroker(opts.Broker)
	co.SetUsername(opts.Username)
	co.SetPassword(opts.Password)
	co.SetClientID("irrigator-" + uuid.NewString())
	co.SetCleanSession(true)
	co.SetAutoReconnect(true)

	bo := backoff.NewExponentialBackOff()
	bo.MaxElapsedTime = 10 * time.Second

	var client mqtt.Client
	err := backoff.Retry(func() error {
		client = mqtt.NewClient(co)
		token := client.Connect()
		if err := waitToken(ctx, token); err != nil {
			log.Warnw("mqtt_connect_failed", "broker", opts.Broker, "err", err)
			if ctx.Err() != nil {
				return backoff.Permanent(err)
			}
			return err
		}
		return nil
	}, backoff.WithContext(backoff.WithMaxRetries(bo, mqttConnectAttempts-1), ctx))
	if err != nil {
		return nil, fmt.Errorf("connect mqtt broker %s: %w", opts.Broker, err)
	}

	log.Infow("mqtt_connected", "broker", opts.Broker)
	return NewMQTTSink(client, opts.TopicPrefix, log), nil
}

// NewMQTTSink wraps an already connected client
func NewMQTTSink(client mqtt.Client, prefix string, log *logger.Logger) *MQTTSink {
	return &MQTTSink{client: client, prefix: prefix, log: logger.OrNop(log)}
}

func (s *MQTTSink) PublishReading(ctx context.Context, at time.Time, r irrlink.SensorReading) error {
	return s.publish(ctx, "reading", readingMessage{Time: at, SensorReading: r})
}

func (s *MQTTSink) PublishPlan(ctx context.Context, at time.Time, plan []irrigation.DayDecision) error {
	return s.publish(ctx, "plan", planMessage{
		Time:         at,
		WateringDays: irrigation.WateringDays(plan),
		Days:         plan,
	})
}

// Close disconnects from the broker
func (s *MQTTSink) Close() {
	if s.client.IsConnected() {
		s.client.Disconnect(mqttDisconnectQuiesce)
		s.log.Infow("mqtt_disconnected")
	}
}

func (s *MQTTSink) publish(ctx context.Context, suffix string, v any) error {
	payload, err := json.Marshal(v)
	if err != nil {
		return err
	}
	topic := s.prefix + "/" + suffix
	if err := waitToken(ctx, s.client.Publish(topic, 0, false, payload)); err != nil {
		return fmt.Errorf("publish %s: %w", topic, err)
	}
	return nil
}

func waitToken(ctx context.Context, token mqtt.Token) error {
	select {
	case <-token.Done():
		return token.Error()
	case <-ctx.Done():
		return ctx.Err()
	}
}
