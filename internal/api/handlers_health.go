// Motorscope - Industrial Motor Monitoring and Digital Twin Dashboard
// Copyright 2026 The Motorscope Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/motorlab/motorscope

package api

import (
	"net/http"
	"time"

	"github.com/motorlab/motorscope/internal/models"
)

// Health returns overall service health: database connectivity, broker
// connectivity, the timestamp of the most recent MQTT message and
// uptime. Status is "degraded" when either dependency is down.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	dbConnected := h.store != nil && h.store.Ping(r.Context()) == nil
	brokerConnected := h.broker != nil && h.broker.Connected()

	status := "healthy"
	if !dbConnected || !brokerConnected {
		status = "degraded"
	}

	var lastMessagePtr *time.Time
	if h.broker != nil {
		if last := h.broker.LastMessageAt(); !last.IsZero() {
			lastMessagePtr = &last
		}
	}

	respondSuccess(w, http.StatusOK, models.HealthStatus{
		Status:            status,
		Version:           Version,
		DatabaseConnected: dbConnected,
		BrokerConnected:   brokerConnected,
		LastMessageAt:     lastMessagePtr,
		Uptime:            time.Since(h.startTime).Seconds(),
	})
}

// HealthLive is the liveness probe: 200 whenever the process runs,
// regardless of dependencies.
func (h *Handler) HealthLive(w http.ResponseWriter, _ *http.Request) {
	respondSuccess(w, http.StatusOK, map[string]string{"status": "alive"})
}

// HealthReady is the readiness probe: 200 only when the database is
// reachable. Broker state does not gate readiness since the REST API
// can serve stored data without it.
func (h *Handler) HealthReady(w http.ResponseWriter, r *http.Request) {
	if h.store == nil || h.store.Ping(r.Context()) != nil {
		respondError(w, http.StatusServiceUnavailable, errCodeServiceUnavail,
			"Database not reachable", nil)
		return
	}
	respondSuccess(w, http.StatusOK, map[string]string{"status": "ready"})
}
