// Motorscope - Industrial Motor Monitoring and Digital Twin Dashboard
// Copyright 2026 The Motorscope Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/motorlab/motorscope

// Package ingest consumes motor telemetry from the MQTT broker,
// persists it, runs anomaly detection against the digital twin and
// publishes dashboard updates on the in-process bus.
package ingest

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/motorlab/motorscope/internal/bus"
	"github.com/motorlab/motorscope/internal/config"
	"github.com/motorlab/motorscope/internal/dashboard"
	"github.com/motorlab/motorscope/internal/database"
	"github.com/motorlab/motorscope/internal/detection"
	"github.com/motorlab/motorscope/internal/logging"
	"github.com/motorlab/motorscope/internal/metrics"
)

// Consumer subscribes to the motor's MQTT topics and drives the ingest
// pipeline. One consumer per process.
type Consumer struct {
	cfg       config.MQTTConfig
	detectCfg config.DetectionConfig

	store     *database.Store
	engine    *detection.Engine
	dashboard *dashboard.Service
	bus       *bus.Bus

	// breaker protects the store from write storms while the database
	// is unhealthy; queries for dashboard assembly are not gated.
	breaker *gobreaker.CircuitBreaker[any]

	client mqtt.Client

	connected   atomic.Bool
	lastMessage atomic.Int64
}

// NewConsumer wires the ingest pipeline.
func NewConsumer(cfg config.MQTTConfig, detectCfg config.DetectionConfig, store *database.Store, engine *detection.Engine, dash *dashboard.Service, b *bus.Bus) *Consumer {
	settings := gobreaker.Settings{
		Name:    "ingest-store",
		Timeout: 30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			metrics.BreakerState.Set(float64(to))
			logging.Warn().
				Str("breaker", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("circuit breaker state changed")
		},
	}

	return &Consumer{
		cfg:       cfg,
		detectCfg: detectCfg,
		store:     store,
		engine:    engine,
		dashboard: dash,
		bus:       b,
		breaker:   gobreaker.NewCircuitBreaker[any](settings),
	}
}

// Serve connects to the broker, subscribes to all motor topics and
// blocks until the context is canceled. Reconnection is handled by the
// client; subscriptions are re-established on every connect.
func (c *Consumer) Serve(ctx context.Context) error {
	opts := mqtt.NewClientOptions().
		AddBroker(fmt.Sprintf("tcp://%s", c.cfg.BrokerAddr())).
		SetClientID(c.cfg.ClientID).
		SetUsername(c.cfg.Username).
		SetPassword(c.cfg.Password).
		SetConnectTimeout(c.cfg.ConnectTimeout).
		SetAutoReconnect(true).
		SetMaxReconnectInterval(c.cfg.ReconnectWait).
		SetOrderMatters(true).
		SetOnConnectHandler(c.onConnect).
		SetConnectionLostHandler(func(_ mqtt.Client, err error) {
			c.connected.Store(false)
			metrics.MQTTConnected.Set(0)
			logging.Error().Err(err).Msg("mqtt connection lost")
		})

	c.client = mqtt.NewClient(opts)

	token := c.client.Connect()
	if !token.WaitTimeout(c.cfg.ConnectTimeout) {
		return fmt.Errorf("connecting to mqtt broker %s: timeout", c.cfg.BrokerAddr())
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("connecting to mqtt broker %s: %w", c.cfg.BrokerAddr(), err)
	}

	<-ctx.Done()

	c.client.Disconnect(250)
	c.connected.Store(false)
	metrics.MQTTConnected.Set(0)
	logging.Info().Str("component", "mqtt-consumer").Msg("mqtt consumer stopped")
	return ctx.Err()
}

func (c *Consumer) onConnect(client mqtt.Client) {
	c.connected.Store(true)
	metrics.MQTTConnected.Set(1)
	logging.Info().
		Str("broker", c.cfg.BrokerAddr()).
		Str("client_id", c.cfg.ClientID).
		Msg("connected to mqtt broker")

	for _, topic := range c.cfg.SubscribedTopics() {
		token := client.Subscribe(topic, c.cfg.QoS, c.onMessage)
		if token.WaitTimeout(c.cfg.ConnectTimeout) && token.Error() != nil {
			logging.Error().Err(token.Error()).Str("topic", topic).Msg("mqtt subscription failed")
			continue
		}
		logging.Debug().Str("topic", topic).Msg("subscribed to mqtt topic")
	}
}

func (c *Consumer) onMessage(_ mqtt.Client, msg mqtt.Message) {
	c.lastMessage.Store(time.Now().UnixNano())

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	c.handleMessage(ctx, msg.Topic(), msg.Payload())
}

// String names the consumer for supervisor logs.
func (c *Consumer) String() string { return "mqtt-consumer" }

// Connected reports whether the broker connection is up.
func (c *Consumer) Connected() bool {
	return c.connected.Load()
}

// LastMessageAt returns the arrival time of the most recent MQTT
// message, or the zero time if nothing has arrived yet.
func (c *Consumer) LastMessageAt() time.Time {
	ns := c.lastMessage.Load()
	if ns == 0 {
		return time.Time{}
	}
	return time.Unix(0, ns)
}

// insertGated runs a store write through the circuit breaker.
func (c *Consumer) insertGated(fn func() error) error {
	_, err := c.breaker.Execute(func() (any, error) {
		return nil, fn()
	})
	return err
}
