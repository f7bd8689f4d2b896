// Motorscope - Industrial Motor Monitoring and Digital Twin Dashboard
// Copyright 2026 The Motorscope Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/motorlab/motorscope

package api

import (
	"net/http"
	"time"

	"github.com/motorlab/motorscope/internal/dashboard"
)

// Dashboard returns the complete dashboard snapshot: motor info, the
// freshest live metrics, the twin reference panel, cycle counts,
// anomaly status and recent malfunction logs.
func (h *Handler) Dashboard(w http.ResponseWriter, r *http.Request) {
	data, err := h.dashboard.Data(r.Context(), time.Now().UTC())
	if err != nil {
		respondError(w, http.StatusInternalServerError, errCodeDatabase,
			"Failed to assemble dashboard data", err)
		return
	}
	respondSuccess(w, http.StatusOK, data)
}

// Plot returns chart series for live and twin streams. Query
// parameters start and end are RFC3339; without start the window is
// the last ten minutes, without end it is open-ended.
func (h *Handler) Plot(w http.ResponseWriter, r *http.Request) {
	now := time.Now().UTC()
	start := now.Add(-dashboard.DefaultWindow)
	var end *time.Time

	if raw := r.URL.Query().Get("start"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			respondError(w, http.StatusBadRequest, errCodeValidation,
				"start must be RFC3339", err)
			return
		}
		start = t
	}
	if raw := r.URL.Query().Get("end"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			respondError(w, http.StatusBadRequest, errCodeValidation,
				"end must be RFC3339", err)
			return
		}
		if t.Before(start) {
			respondError(w, http.StatusBadRequest, errCodeValidation,
				"end must not be before start", nil)
			return
		}
		end = &t
	}

	data, err := h.dashboard.PlotRange(r.Context(), start, end)
	if err != nil {
		respondError(w, http.StatusInternalServerError, errCodeDatabase,
			"Failed to query plot data", err)
		return
	}
	respondSuccess(w, http.StatusOK, data)
}
