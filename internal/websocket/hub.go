// Motorscope - Industrial Motor Monitoring and Digital Twin Dashboard
// Copyright 2026 The Motorscope Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/motorlab/motorscope

// Package websocket pushes dashboard updates to connected browsers. The
// hub fans out panel snapshots to every client and incremental plot
// points to clients in live mode; each client can request historical
// chart ranges over the same connection.
package websocket

import (
	"context"
	"sort"
	"sync"

	"github.com/motorlab/motorscope/internal/logging"
	"github.com/motorlab/motorscope/internal/metrics"
)

// Message types exchanged with dashboard clients.
const (
	MessageTypeDashboardUpdate = "dashboard_update"
	MessageTypePlotDataUpdate  = "plot_data_update"
	MessageTypePlotDataPoint   = "plot_data_point"
	MessageTypeRequestPlotData = "request_plot_data"
	MessageTypeRequestInitial  = "request_initial_data"
	MessageTypePing            = "ping"
	MessageTypePong            = "pong"
)

// Plot type markers sent with plot_data_update frames so the frontend
// knows how the window was chosen.
const (
	PlotTypeInitialLive     = "initial_live_10_min"
	PlotTypeHistoricalRange = "historical_range"
)

// Message is one WebSocket frame. Optional fields are populated per
// message type; plot_data_update carries the window boundaries and the
// client's live-mode state.
type Message struct {
	Type           string  `json:"type"`
	PlotType       string  `json:"plot_type,omitempty"`
	Data           any     `json:"data,omitempty"`
	StartTime      *string `json:"start_time,omitempty"`
	EndTime        *string `json:"end_time,omitempty"`
	LiveModeActive *bool   `json:"live_mode_active,omitempty"`

	// liveOnly restricts delivery to clients in live mode. Never
	// serialized.
	liveOnly bool
}

// Hub maintains the set of active clients and broadcasts messages to
// them.
type Hub struct {
	clients    map[*Client]bool
	broadcast  chan Message
	Register   chan *Client
	Unregister chan *Client
	mu         sync.RWMutex
}

// NewHub creates a new Hub.
func NewHub() *Hub {
	return &Hub{
		broadcast:  make(chan Message, 256),
		Register:   make(chan *Client),
		Unregister: make(chan *Client),
		clients:    make(map[*Client]bool),
	}
}

// RunWithContext runs the hub until the context is canceled, then closes
// all clients and returns ctx.Err(). Designed for suture supervision.
//
// Channels are drained in priority order (shutdown, lifecycle,
// broadcast) so client state is consistent before messages are
// processed; Go's select picks randomly when several channels are ready.
func (h *Hub) RunWithContext(ctx context.Context) error {
	for {
		// Priority 1: shutdown.
		select {
		case <-ctx.Done():
			h.shutdown()
			return ctx.Err()
		default:
		}

		// Priority 2: client lifecycle (non-blocking check).
		select {
		case client := <-h.Register:
			h.addClient(client)
			continue
		case client := <-h.Unregister:
			h.removeClient(client)
			continue
		default:
		}

		// Priority 3: broadcast, or wait for any event.
		select {
		case <-ctx.Done():
			h.shutdown()
			return ctx.Err()
		case client := <-h.Register:
			h.addClient(client)
		case client := <-h.Unregister:
			h.removeClient(client)
		case message := <-h.broadcast:
			h.broadcastToClients(message)
		}
	}
}

func (h *Hub) addClient(client *Client) {
	h.mu.Lock()
	h.clients[client] = true
	total := len(h.clients)
	h.mu.Unlock()

	metrics.WebSocketClients.Set(float64(total))
	logging.Info().Int("total_clients", total).Msg("websocket client connected")
}

func (h *Hub) removeClient(client *Client) {
	h.mu.Lock()
	if _, ok := h.clients[client]; ok {
		delete(h.clients, client)
		close(client.send)
	}
	total := len(h.clients)
	h.mu.Unlock()

	metrics.WebSocketClients.Set(float64(total))
	logging.Info().Int("total_clients", total).Msg("websocket client disconnected")
}

// broadcastToClients sends a message to all connected clients, in client
// ID order so delivery is reproducible. Clients whose send buffer is
// full are dropped; live-only messages skip clients not in live mode.
func (h *Hub) broadcastToClients(message Message) {
	h.mu.Lock()
	defer h.mu.Unlock()

	clients := make([]*Client, 0, len(h.clients))
	for client := range h.clients {
		clients = append(clients, client)
	}
	sort.Slice(clients, func(i, j int) bool {
		return clients[i].id < clients[j].id
	})

	var toRemove []*Client
	for _, client := range clients {
		if message.liveOnly && !client.LiveMode() {
			continue
		}
		select {
		case client.send <- message:
		default:
			metrics.BroadcastDroppedTotal.Inc()
			toRemove = append(toRemove, client)
		}
	}

	for _, client := range toRemove {
		close(client.send)
		delete(h.clients, client)
	}
	if len(toRemove) > 0 {
		metrics.WebSocketClients.Set(float64(len(h.clients)))
	}
}

func (h *Hub) shutdown() {
	h.mu.Lock()
	clients := make([]*Client, 0, len(h.clients))
	for client := range h.clients {
		clients = append(clients, client)
	}
	sort.Slice(clients, func(i, j int) bool {
		return clients[i].id < clients[j].id
	})
	for _, client := range clients {
		close(client.send)
		delete(h.clients, client)
	}
	h.mu.Unlock()

	metrics.WebSocketClients.Set(0)
	logging.Info().
		Str("component", "websocket-hub").
		Int("clients_closed", len(clients)).
		Msg("websocket hub stopped")
}

// BroadcastDashboardUpdate sends a panel snapshot to all clients.
// Non-blocking: the message is dropped if the broadcast queue is full.
func (h *Hub) BroadcastDashboardUpdate(data any) {
	message := Message{
		Type: MessageTypeDashboardUpdate,
		Data: data,
	}

	select {
	case h.broadcast <- message:
	default:
		metrics.BroadcastDroppedTotal.Inc()
		logging.Warn().Msg("broadcast channel full, dropping dashboard update")
	}
}

// BroadcastPlotPoint sends an incremental plot point to clients in live
// mode. Non-blocking.
func (h *Hub) BroadcastPlotPoint(data any) {
	message := Message{
		Type:     MessageTypePlotDataPoint,
		Data:     data,
		liveOnly: true,
	}

	select {
	case h.broadcast <- message:
	default:
		metrics.BroadcastDroppedTotal.Inc()
		logging.Warn().Msg("broadcast channel full, dropping plot point")
	}
}

// GetClientCount returns the number of connected clients.
func (h *Hub) GetClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
