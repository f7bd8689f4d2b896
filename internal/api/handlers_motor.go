// Motorscope - Industrial Motor Monitoring and Digital Twin Dashboard
// Copyright 2026 The Motorscope Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/motorlab/motorscope

package api

import (
	"errors"
	"net/http"

	"github.com/goccy/go-json"

	"github.com/motorlab/motorscope/internal/database"
	"github.com/motorlab/motorscope/internal/models"
)

// Motor returns the stored motor metadata.
func (h *Handler) Motor(w http.ResponseWriter, r *http.Request) {
	info, err := h.store.GetMotorInfo(r.Context())
	if errors.Is(err, database.ErrNotFound) {
		respondError(w, http.StatusNotFound, errCodeNotFound,
			"No motor information stored", nil)
		return
	}
	if err != nil {
		respondError(w, http.StatusInternalServerError, errCodeDatabase,
			"Failed to load motor information", err)
		return
	}
	respondSuccess(w, http.StatusOK, info)
}

// UpdateMotor creates or replaces the motor metadata. Cycle counters
// are preserved unless the request sets them explicitly.
func (h *Handler) UpdateMotor(w http.ResponseWriter, r *http.Request) {
	var info models.MotorInfo
	if err := json.NewDecoder(r.Body).Decode(&info); err != nil {
		respondError(w, http.StatusBadRequest, errCodeBadRequest,
			"Invalid request body", err)
		return
	}
	if info.Name == "" {
		respondError(w, http.StatusBadRequest, errCodeValidation,
			"Motor name is required", nil)
		return
	}

	if info.Cycles == 0 {
		if existing, err := h.store.GetMotorInfo(r.Context()); err == nil {
			info.Cycles = existing.Cycles
		}
	}

	if err := h.store.UpsertMotorInfo(r.Context(), &info); err != nil {
		respondError(w, http.StatusInternalServerError, errCodeDatabase,
			"Failed to store motor information", err)
		return
	}
	respondSuccess(w, http.StatusOK, &info)
}
