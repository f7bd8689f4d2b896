// Motorscope - Industrial Motor Monitoring and Digital Twin Dashboard
// Copyright 2026 The Motorscope Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/motorlab/motorscope

package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/motorlab/motorscope/internal/auth"
	"github.com/motorlab/motorscope/internal/config"
	"github.com/motorlab/motorscope/internal/dashboard"
	"github.com/motorlab/motorscope/internal/database"
)

// Version is the reported service version. Overridden at build time
// via -ldflags.
var Version = "dev"

// BrokerStatus reports the state of the MQTT ingest pipeline for
// health checks.
type BrokerStatus interface {
	Connected() bool
	LastMessageAt() time.Time
}

// Handler holds the dependencies of all REST endpoints.
//
// Handler methods are split across files:
//   - handlers_health.go: health and readiness probes
//   - handlers_auth.go: login
//   - handlers_dashboard.go: dashboard state and plot data
//   - handlers_motor.go: motor metadata
//   - handlers_logs.go: malfunction log management
//   - handlers_runs.go: reference-run management
type Handler struct {
	store     *database.Store
	dashboard *dashboard.Service
	broker    BrokerStatus
	authMW    *auth.Middleware
	cfg       *config.Config
	startTime time.Time
}

// NewHandler creates the API handler. broker may be nil when the
// ingest pipeline runs out of process.
func NewHandler(store *database.Store, dash *dashboard.Service, broker BrokerStatus, authMW *auth.Middleware, cfg *config.Config) *Handler {
	return &Handler{
		store:     store,
		dashboard: dash,
		broker:    broker,
		authMW:    authMW,
		cfg:       cfg,
		startTime: time.Now(),
	}
}

// idParam extracts the {id} URL parameter as int64.
func idParam(r *http.Request) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
}
