// Motorscope - Industrial Motor Monitoring and Digital Twin Dashboard
// Copyright 2026 The Motorscope Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/motorlab/motorscope

package models

import "time"

// APIResponse is the standard envelope for all API responses.
//
// Success:
//
//	{"status": "success", "data": {...}, "metadata": {"timestamp": "..."}}
//
// Error:
//
//	{"status": "error", "error": {"code": "NOT_FOUND", "message": "..."}, ...}
type APIResponse struct {
	Status   string      `json:"status"`
	Data     interface{} `json:"data"`
	Metadata Metadata    `json:"metadata"`
	Error    *APIError   `json:"error,omitempty"`
}

// Metadata contains response metadata.
type Metadata struct {
	Timestamp time.Time `json:"timestamp"`
}

// APIError represents a structured error response.
//
// Common codes: VALIDATION_ERROR, NOT_FOUND, DATABASE_ERROR,
// AUTHENTICATION_ERROR, METHOD_NOT_ALLOWED, SERVICE_UNAVAILABLE.
type APIError struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
}

// HealthStatus reports service health for the health endpoint.
type HealthStatus struct {
	Status            string    `json:"status"`
	Version           string    `json:"version"`
	DatabaseConnected bool      `json:"database_connected"`
	BrokerConnected   bool      `json:"broker_connected"`
	LastMessageAt     *time.Time `json:"last_message_at,omitempty"`
	Uptime            float64   `json:"uptime_seconds"`
}
