// Motorscope - Industrial Motor Monitoring and Digital Twin Dashboard
// Copyright 2026 The Motorscope Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/motorlab/motorscope

// Package api exposes the REST surface of Motorscope: health probes,
// authentication, dashboard state, plot data, motor metadata, the
// malfunction log and reference-run management. Every response uses
// the models.APIResponse envelope.
package api

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"github.com/motorlab/motorscope/internal/logging"
	"github.com/motorlab/motorscope/internal/models"
)

// Error codes used in API error responses.
const (
	errCodeBadRequest       = "BAD_REQUEST"
	errCodeUnauthorized     = "UNAUTHORIZED"
	errCodeNotFound         = "NOT_FOUND"
	errCodeValidation       = "VALIDATION_ERROR"
	errCodeDatabase         = "DATABASE_ERROR"
	errCodeTooManyRequests  = "TOO_MANY_REQUESTS"
	errCodeServiceUnavail   = "SERVICE_UNAVAILABLE"
	errCodeMethodNotAllowed = "METHOD_NOT_ALLOWED"
)

// sanitizeLogValue strips control characters so request-derived values
// cannot forge log lines.
func sanitizeLogValue(s string) string {
	var result strings.Builder
	result.Grow(len(s))
	for _, r := range s {
		if r < 0x20 || r == 0x7F {
			result.WriteString(fmt.Sprintf("\\x%02x", r))
		} else {
			result.WriteRune(r)
		}
	}
	return result.String()
}

// respondJSON sends a JSON response with proper headers.
func respondJSON(w http.ResponseWriter, status int, response *models.APIResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-cache")

	data, err := json.Marshal(response)
	if err != nil {
		logging.Error().Err(err).Msg("failed to marshal JSON response")
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	w.Header().Set("ETag", generateETag(data))

	w.WriteHeader(status)
	if _, err := w.Write(data); err != nil {
		logging.Error().Err(err).Msg("failed to write JSON response")
	}
}

// generateETag creates a weak ETag from data using FNV-1a.
func generateETag(data []byte) string {
	hash := uint32(2166136261)
	for _, b := range data {
		hash ^= uint32(b)
		hash *= 16777619
	}
	return strconv.FormatUint(uint64(hash), 16)
}

func respondSuccess(w http.ResponseWriter, status int, data interface{}) {
	respondJSON(w, status, &models.APIResponse{
		Status: "success",
		Data:   data,
		Metadata: models.Metadata{
			Timestamp: time.Now().UTC(),
		},
	})
}

func respondError(w http.ResponseWriter, status int, code, message string, err error) {
	if err != nil {
		logging.Error().
			Str("code", code).
			Str("error", sanitizeLogValue(err.Error())).
			Msg("api error")
	}

	respondJSON(w, status, &models.APIResponse{
		Status: "error",
		Metadata: models.Metadata{
			Timestamp: time.Now().UTC(),
		},
		Error: &models.APIError{
			Code:    code,
			Message: message,
		},
	})
}
