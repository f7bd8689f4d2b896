// Motorscope - Industrial Motor Monitoring and Digital Twin Dashboard
// Copyright 2026 The Motorscope Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/motorlab/motorscope

package websocket

import (
	"context"
	"fmt"

	"github.com/goccy/go-json"

	"github.com/motorlab/motorscope/internal/bus"
	"github.com/motorlab/motorscope/internal/logging"
)

// BusSubscriber forwards ingest bus messages to the hub: panel snapshots
// to every client, plot points to clients in live mode.
type BusSubscriber struct {
	bus *bus.Bus
	hub *Hub
}

// NewBusSubscriber returns a subscriber bridging the bus to the hub.
func NewBusSubscriber(b *bus.Bus, hub *Hub) *BusSubscriber {
	return &BusSubscriber{bus: b, hub: hub}
}

// Run consumes both bus topics until the context is canceled. Designed
// for suture supervision.
func (s *BusSubscriber) Run(ctx context.Context) error {
	dashboardMsgs, err := s.bus.Subscribe(ctx, bus.TopicDashboardUpdate)
	if err != nil {
		return fmt.Errorf("subscribing to %s: %w", bus.TopicDashboardUpdate, err)
	}
	plotMsgs, err := s.bus.Subscribe(ctx, bus.TopicPlotPoint)
	if err != nil {
		return fmt.Errorf("subscribing to %s: %w", bus.TopicPlotPoint, err)
	}

	logging.Info().Str("component", "websocket-bus-subscriber").Msg("forwarding bus messages to hub")

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case msg, ok := <-dashboardMsgs:
			if !ok {
				return ctx.Err()
			}
			s.hub.BroadcastDashboardUpdate(json.RawMessage(msg.Payload))
			msg.Ack()

		case msg, ok := <-plotMsgs:
			if !ok {
				return ctx.Err()
			}
			s.hub.BroadcastPlotPoint(json.RawMessage(msg.Payload))
			msg.Ack()
		}
	}
}
