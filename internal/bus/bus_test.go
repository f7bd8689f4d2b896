// Motorscope - Industrial Motor Monitoring and Digital Twin Dashboard
// Copyright 2026 The Motorscope Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/motorlab/motorscope

package bus

import (
	"context"
	"testing"
	"time"

	"github.com/goccy/go-json"
)

func TestPublishSubscribeRoundTrip(t *testing.T) {
	b := New(16, nil)
	t.Cleanup(func() { _ = b.Close() })

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	msgs, err := b.Subscribe(ctx, TopicDashboardUpdate)
	if err != nil {
		t.Fatalf("Subscribe: %v", err)
	}

	payload := map[string]any{"type": "dashboard_update", "retract_count": 3}
	if err := b.Publish(TopicDashboardUpdate, payload); err != nil {
		t.Fatalf("Publish: %v", err)
	}

	select {
	case msg := <-msgs:
		var got map[string]any
		if err := json.Unmarshal(msg.Payload, &got); err != nil {
			t.Fatalf("unmarshaling payload: %v", err)
		}
		if got["type"] != "dashboard_update" {
			t.Errorf("payload type = %v, want dashboard_update", got["type"])
		}
		if got["retract_count"] != float64(3) {
			t.Errorf("retract_count = %v, want 3", got["retract_count"])
		}
		msg.Ack()
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for message")
	}
}

func TestTopicsAreIsolated(t *testing.T) {
	b := New(16, nil)
	t.Cleanup(func() { _ = b.Close() })

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	plotMsgs, err := b.Subscribe(ctx, TopicPlotPoint)
	if err != nil {
		t.Fatalf("Subscribe: %v", err)
	}

	if err := b.Publish(TopicDashboardUpdate, map[string]string{"type": "dashboard_update"}); err != nil {
		t.Fatalf("Publish: %v", err)
	}

	select {
	case msg := <-plotMsgs:
		t.Fatalf("plot subscriber received dashboard message: %s", msg.Payload)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestPublishRejectsUnmarshalablePayload(t *testing.T) {
	b := New(1, nil)
	t.Cleanup(func() { _ = b.Close() })

	if err := b.Publish(TopicPlotPoint, make(chan int)); err == nil {
		t.Fatal("Publish with channel payload returned nil error")
	}
}

func TestSubscribeChannelClosesOnCancel(t *testing.T) {
	b := New(1, nil)
	t.Cleanup(func() { _ = b.Close() })

	ctx, cancel := context.WithCancel(context.Background())
	msgs, err := b.Subscribe(ctx, TopicPlotPoint)
	if err != nil {
		t.Fatalf("Subscribe: %v", err)
	}
	cancel()

	select {
	case _, ok := <-msgs:
		if ok {
			t.Fatal("received message after cancel, want closed channel")
		}
	case <-time.After(time.Second):
		t.Fatal("channel not closed after context cancel")
	}
}
