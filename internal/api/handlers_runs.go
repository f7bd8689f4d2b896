// Motorscope - Industrial Motor Monitoring and Digital Twin Dashboard
// Copyright 2026 The Motorscope Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/motorlab/motorscope

package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/goccy/go-json"

	"github.com/motorlab/motorscope/internal/database"
	"github.com/motorlab/motorscope/internal/models"
	"github.com/motorlab/motorscope/internal/twin"
)

// ReferenceRuns lists all reference runs, newest first. Pass
// valid=true to restrict to runs included in expected-value
// computation.
func (h *Handler) ReferenceRuns(w http.ResponseWriter, r *http.Request) {
	var (
		runs []models.ReferenceRun
		err  error
	)
	if r.URL.Query().Get("valid") == "true" {
		runs, err = h.store.ValidReferenceRuns(r.Context())
	} else {
		runs, err = h.store.ListReferenceRuns(r.Context())
	}
	if err != nil {
		respondError(w, http.StatusInternalServerError, errCodeDatabase,
			"Failed to query reference runs", err)
		return
	}
	if runs == nil {
		runs = []models.ReferenceRun{}
	}
	respondSuccess(w, http.StatusOK, runs)
}

// CreateReferenceRun stores a new reference run. Timestamp defaults to
// now; runs are valid unless the request says otherwise.
func (h *Handler) CreateReferenceRun(w http.ResponseWriter, r *http.Request) {
	var run models.ReferenceRun
	if err := json.NewDecoder(r.Body).Decode(&run); err != nil {
		respondError(w, http.StatusBadRequest, errCodeBadRequest,
			"Invalid request body", err)
		return
	}
	if run.Name == "" {
		respondError(w, http.StatusBadRequest, errCodeValidation,
			"Reference run name is required", nil)
		return
	}
	if run.Timestamp.IsZero() {
		run.Timestamp = time.Now().UTC()
	}

	if err := h.store.InsertReferenceRun(r.Context(), &run); err != nil {
		respondError(w, http.StatusInternalServerError, errCodeDatabase,
			"Failed to store reference run", err)
		return
	}
	respondSuccess(w, http.StatusCreated, &run)
}

// ExpectedValues returns the per-metric means over all valid
// reference runs, the baseline the digital twin is compared against.
func (h *Handler) ExpectedValues(w http.ResponseWriter, r *http.Request) {
	values, err := twin.ComputeExpectedValues(r.Context(), h.store, time.Now().UTC())
	if errors.Is(err, twin.ErrNoValidRuns) {
		respondError(w, http.StatusNotFound, errCodeNotFound,
			"No valid reference runs recorded", nil)
		return
	}
	if err != nil {
		respondError(w, http.StatusInternalServerError, errCodeDatabase,
			"Failed to compute expected values", err)
		return
	}
	respondSuccess(w, http.StatusOK, values)
}

type validityRequest struct {
	IsValid bool `json:"is_valid"`
}

// SetReferenceRunValidity includes or excludes a run from
// expected-value computation.
func (h *Handler) SetReferenceRunValidity(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, errCodeValidation,
			"id must be an integer", nil)
		return
	}

	var req validityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, errCodeBadRequest,
			"Invalid request body", err)
		return
	}

	err = h.store.SetReferenceRunValidity(r.Context(), id, req.IsValid)
	if errors.Is(err, database.ErrNotFound) {
		respondError(w, http.StatusNotFound, errCodeNotFound,
			"Reference run not found", nil)
		return
	}
	if err != nil {
		respondError(w, http.StatusInternalServerError, errCodeDatabase,
			"Failed to update reference run", err)
		return
	}
	respondSuccess(w, http.StatusOK, map[string]interface{}{"id": id, "is_valid": req.IsValid})
}

// DeleteReferenceRun removes a reference run.
func (h *Handler) DeleteReferenceRun(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, errCodeValidation,
			"id must be an integer", nil)
		return
	}

	err = h.store.DeleteReferenceRun(r.Context(), id)
	if errors.Is(err, database.ErrNotFound) {
		respondError(w, http.StatusNotFound, errCodeNotFound,
			"Reference run not found", nil)
		return
	}
	if err != nil {
		respondError(w, http.StatusInternalServerError, errCodeDatabase,
			"Failed to delete reference run", err)
		return
	}
	respondSuccess(w, http.StatusOK, map[string]int64{"id": id})
}
