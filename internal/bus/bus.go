// Motorscope - Industrial Motor Monitoring and Digital Twin Dashboard
// Copyright 2026 The Motorscope Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/motorlab/motorscope

// Package bus is the in-process message bus between the MQTT ingest
// pipeline and the WebSocket hub, built on Watermill's GoChannel
// pub/sub. Ingest publishes typed payloads; the hub fans them out to
// connected dashboard clients.
package bus

import (
	"context"
	"fmt"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/goccy/go-json"
)

// Topics carried on the bus.
const (
	// TopicDashboardUpdate carries full panel snapshots with anomaly
	// status, published once per processed MQTT message.
	TopicDashboardUpdate = "dashboard.update"

	// TopicPlotPoint carries incremental live-plot points.
	TopicPlotPoint = "plot.point"
)

// Bus wraps a GoChannel pub/sub with JSON payload encoding.
type Bus struct {
	pubsub *gochannel.GoChannel
}

// New returns a bus. Slow subscribers buffer up to bufferSize messages;
// beyond that, publishing blocks until the subscriber catches up, so
// subscribers must drain promptly.
func New(bufferSize int64, logger watermill.LoggerAdapter) *Bus {
	if logger == nil {
		logger = watermill.NopLogger{}
	}
	return &Bus{
		pubsub: gochannel.NewGoChannel(gochannel.Config{
			OutputChannelBuffer: bufferSize,
		}, logger),
	}
}

// Publish marshals the payload and publishes it on the topic.
func (b *Bus) Publish(topic string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshaling %s payload: %w", topic, err)
	}
	msg := message.NewMessage(watermill.NewUUID(), data)
	if err := b.pubsub.Publish(topic, msg); err != nil {
		return fmt.Errorf("publishing to %s: %w", topic, err)
	}
	return nil
}

// Subscribe returns a channel of messages for the topic. The channel
// closes when the context is canceled or the bus shuts down. Consumers
// must Ack or Nack every message.
func (b *Bus) Subscribe(ctx context.Context, topic string) (<-chan *message.Message, error) {
	return b.pubsub.Subscribe(ctx, topic)
}

// Close shuts the bus down and closes all subscriber channels.
func (b *Bus) Close() error {
	return b.pubsub.Close()
}
