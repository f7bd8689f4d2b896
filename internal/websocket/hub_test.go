// Motorscope - Industrial Motor Monitoring and Digital Twin Dashboard
// Copyright 2026 The Motorscope Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/motorlab/motorscope

package websocket

import (
	"context"
	"testing"
	"time"
)

func TestHubRegisterUnregister(t *testing.T) {
	hub := NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- hub.RunWithContext(ctx) }()

	client := &Client{id: clientIDCounter.Add(1), hub: hub, send: make(chan Message, 1)}
	hub.Register <- client

	waitFor(t, func() bool { return hub.GetClientCount() == 1 })

	hub.Unregister <- client
	waitFor(t, func() bool { return hub.GetClientCount() == 0 })

	// Channel is closed on unregister.
	select {
	case _, ok := <-client.send:
		if ok {
			t.Error("send channel received a message, want closed")
		}
	case <-time.After(time.Second):
		t.Error("send channel not closed after unregister")
	}

	cancel()
	select {
	case err := <-done:
		if err != context.Canceled {
			t.Errorf("RunWithContext returned %v, want context.Canceled", err)
		}
	case <-time.After(time.Second):
		t.Fatal("hub did not stop after cancel")
	}
}

func TestBroadcastReachesAllClients(t *testing.T) {
	hub := NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = hub.RunWithContext(ctx) }()

	a := &Client{id: clientIDCounter.Add(1), hub: hub, send: make(chan Message, 4)}
	b := &Client{id: clientIDCounter.Add(1), hub: hub, send: make(chan Message, 4)}
	hub.Register <- a
	hub.Register <- b
	waitFor(t, func() bool { return hub.GetClientCount() == 2 })

	hub.BroadcastDashboardUpdate(map[string]int{"retract_count": 2})

	for _, client := range []*Client{a, b} {
		select {
		case msg := <-client.send:
			if msg.Type != MessageTypeDashboardUpdate {
				t.Errorf("client %d got type %q, want dashboard_update", client.id, msg.Type)
			}
		case <-time.After(time.Second):
			t.Fatalf("client %d did not receive broadcast", client.id)
		}
	}
}

func TestPlotPointSkipsNonLiveClients(t *testing.T) {
	hub := NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = hub.RunWithContext(ctx) }()

	liveClient := &Client{id: clientIDCounter.Add(1), hub: hub, send: make(chan Message, 4)}
	liveClient.liveMode.Store(true)
	staticClient := &Client{id: clientIDCounter.Add(1), hub: hub, send: make(chan Message, 4)}

	hub.Register <- liveClient
	hub.Register <- staticClient
	waitFor(t, func() bool { return hub.GetClientCount() == 2 })

	hub.BroadcastPlotPoint(map[string]string{"x": "2026-08-01T12:00:00Z"})

	select {
	case msg := <-liveClient.send:
		if msg.Type != MessageTypePlotDataPoint {
			t.Errorf("live client got type %q, want plot_data_point", msg.Type)
		}
	case <-time.After(time.Second):
		t.Fatal("live client did not receive plot point")
	}

	select {
	case msg := <-staticClient.send:
		t.Errorf("static client received %q, want nothing", msg.Type)
	case <-time.After(100 * time.Millisecond):
	}

	// The static client stays registered; skipping is not dropping.
	if hub.GetClientCount() != 2 {
		t.Errorf("client count = %d, want 2", hub.GetClientCount())
	}
}

func TestSlowClientIsDropped(t *testing.T) {
	hub := NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = hub.RunWithContext(ctx) }()

	// Unbuffered send channel with no reader: the first broadcast
	// cannot be delivered.
	slow := &Client{id: clientIDCounter.Add(1), hub: hub, send: make(chan Message)}
	hub.Register <- slow
	waitFor(t, func() bool { return hub.GetClientCount() == 1 })

	hub.BroadcastDashboardUpdate(map[string]string{})
	waitFor(t, func() bool { return hub.GetClientCount() == 0 })
}

func TestShutdownClosesClients(t *testing.T) {
	hub := NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- hub.RunWithContext(ctx) }()

	client := &Client{id: clientIDCounter.Add(1), hub: hub, send: make(chan Message, 1)}
	hub.Register <- client
	waitFor(t, func() bool { return hub.GetClientCount() == 1 })

	cancel()
	<-done

	select {
	case _, ok := <-client.send:
		if ok {
			t.Error("send channel received a message, want closed")
		}
	default:
		t.Error("send channel not closed after shutdown")
	}
	if hub.GetClientCount() != 0 {
		t.Errorf("client count after shutdown = %d, want 0", hub.GetClientCount())
	}
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met within deadline")
}
