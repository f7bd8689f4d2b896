// Motorscope - Industrial Motor Monitoring and Digital Twin Dashboard
// Copyright 2026 The Motorscope Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/motorlab/motorscope

package websocket

import (
	"net/http"

	"github.com/gorilla/websocket"

	"github.com/motorlab/motorscope/internal/logging"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Host checks are enforced by the router middleware; the dashboard
	// is same-origin in the shipped deployment.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Handler upgrades HTTP requests to WebSocket connections and attaches
// them to the hub.
type Handler struct {
	hub      *Hub
	provider DataProvider
}

// NewHandler returns a connection handler for the hub.
func NewHandler(hub *Hub, provider DataProvider) *Handler {
	return &Handler{hub: hub, provider: provider}
}

// ServeHTTP upgrades the connection and starts the client pumps.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logging.Error().Err(err).Msg("websocket upgrade failed")
		return
	}

	client := NewClient(h.hub, conn, h.provider)
	client.Start()
}
