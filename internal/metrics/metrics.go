// Motorscope - Industrial Motor Monitoring and Digital Twin Dashboard
// Copyright 2026 The Motorscope Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/motorlab/motorscope

// Package metrics defines the Prometheus instrumentation for Motorscope.
// All collectors are registered with the default registry via promauto
// and exposed on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// MQTTMessagesTotal counts messages received from the broker by
	// topic kind (live, twin, malfunction, raw, feature, prediction).
	MQTTMessagesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "motorscope_mqtt_messages_total",
		Help: "Total MQTT messages received, by topic kind",
	}, []string{"kind"})

	// MQTTDecodeErrorsTotal counts payloads that failed to decode.
	MQTTDecodeErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "motorscope_mqtt_decode_errors_total",
		Help: "Total MQTT payloads that failed to decode, by topic kind",
	}, []string{"kind"})

	// MQTTConnected reports broker connectivity (1 connected, 0 not).
	MQTTConnected = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "motorscope_mqtt_connected",
		Help: "Whether the MQTT broker connection is up",
	})

	// AnomalyTransitionsTotal counts per-metric anomaly state changes.
	// Direction is "entered" or "cleared".
	AnomalyTransitionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "motorscope_anomaly_transitions_total",
		Help: "Total anomaly state transitions, by metric and direction",
	}, []string{"metric", "direction"})

	// MalfunctionLogsTotal counts malfunction log entries by severity.
	MalfunctionLogsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "motorscope_malfunction_logs_total",
		Help: "Total malfunction log entries recorded, by severity",
	}, []string{"severity"})

	// WebSocketClients tracks currently connected dashboard clients.
	WebSocketClients = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "motorscope_websocket_clients",
		Help: "Number of connected WebSocket dashboard clients",
	})

	// BroadcastDroppedTotal counts broadcasts dropped because a client
	// send buffer was full.
	BroadcastDroppedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "motorscope_broadcast_dropped_total",
		Help: "Total broadcast messages dropped due to slow clients",
	})

	// DBOperationsTotal counts store operations by kind and outcome.
	DBOperationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "motorscope_db_operations_total",
		Help: "Total database operations, by operation and status",
	}, []string{"operation", "status"})

	// DBOperationDuration observes store operation latency.
	DBOperationDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "motorscope_db_operation_duration_seconds",
		Help:    "Database operation latency in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation"})

	// BreakerState reports the ingest write circuit breaker state
	// (0 closed, 1 half-open, 2 open).
	BreakerState = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "motorscope_ingest_breaker_state",
		Help: "Ingest write circuit breaker state (0 closed, 1 half-open, 2 open)",
	})

	// HTTPRequestsTotal counts API requests by method, route and code.
	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "motorscope_http_requests_total",
		Help: "Total HTTP requests, by method, route and status code",
	}, []string{"method", "route", "code"})

	// HTTPRequestDuration observes API request latency.
	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "motorscope_http_request_duration_seconds",
		Help:    "HTTP request latency in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route"})

	// AuthFailuresTotal counts failed authentication attempts.
	AuthFailuresTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "motorscope_auth_failures_total",
		Help: "Total failed authentication attempts, by reason",
	}, []string{"reason"})
)
