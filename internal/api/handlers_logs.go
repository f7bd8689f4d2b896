// Motorscope - Industrial Motor Monitoring and Digital Twin Dashboard
// Copyright 2026 The Motorscope Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/motorlab/motorscope

package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/motorlab/motorscope/internal/database"
	"github.com/motorlab/motorscope/internal/models"
)

const (
	defaultLogLimit = 100
	maxLogLimit     = 500
)

// Logs returns malfunction log entries, newest first. Unacknowledged
// entries only by default; ?all=true includes acknowledged ones.
// ?limit caps the result (default 100, max 500).
func (h *Handler) Logs(w http.ResponseWriter, r *http.Request) {
	limit := defaultLogLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			respondError(w, http.StatusBadRequest, errCodeValidation,
				"limit must be a positive integer", nil)
			return
		}
		if n > maxLogLimit {
			n = maxLogLimit
		}
		limit = n
	}

	var (
		logs []models.MalfunctionLog
		err  error
	)
	if r.URL.Query().Get("all") == "true" {
		logs, err = h.store.RecentMalfunctions(r.Context(), limit)
	} else {
		logs, err = h.store.UnacknowledgedMalfunctions(r.Context(), limit)
	}
	if err != nil {
		respondError(w, http.StatusInternalServerError, errCodeDatabase,
			"Failed to query malfunction logs", err)
		return
	}
	respondSuccess(w, http.StatusOK, emptyToSlice(logs))
}

// AcknowledgeLog marks a malfunction log entry as acknowledged.
func (h *Handler) AcknowledgeLog(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, errCodeValidation,
			"id must be an integer", nil)
		return
	}

	err = h.store.AcknowledgeMalfunction(r.Context(), id)
	if errors.Is(err, database.ErrNotFound) {
		respondError(w, http.StatusNotFound, errCodeNotFound,
			"Malfunction log entry not found", nil)
		return
	}
	if err != nil {
		respondError(w, http.StatusInternalServerError, errCodeDatabase,
			"Failed to acknowledge log entry", err)
		return
	}
	respondSuccess(w, http.StatusOK, map[string]int64{"id": id})
}

// DeleteLog removes a malfunction log entry.
func (h *Handler) DeleteLog(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, errCodeValidation,
			"id must be an integer", nil)
		return
	}

	err = h.store.DeleteMalfunction(r.Context(), id)
	if errors.Is(err, database.ErrNotFound) {
		respondError(w, http.StatusNotFound, errCodeNotFound,
			"Malfunction log entry not found", nil)
		return
	}
	if err != nil {
		respondError(w, http.StatusInternalServerError, errCodeDatabase,
			"Failed to delete log entry", err)
		return
	}
	respondSuccess(w, http.StatusOK, map[string]int64{"id": id})
}

// emptyToSlice keeps empty lists as [] instead of null in JSON.
func emptyToSlice(logs []models.MalfunctionLog) []models.MalfunctionLog {
	if logs == nil {
		return []models.MalfunctionLog{}
	}
	return logs
}
