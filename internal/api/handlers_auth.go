// Motorscope - Industrial Motor Monitoring and Digital Twin Dashboard
// Copyright 2026 The Motorscope Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/motorlab/motorscope

package api

import (
	"net/http"

	"github.com/goccy/go-json"

	"github.com/motorlab/motorscope/internal/auth"
	"github.com/motorlab/motorscope/internal/config"
	"github.com/motorlab/motorscope/internal/logging"
	"github.com/motorlab/motorscope/internal/metrics"
)

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token     string `json:"token"`
	TokenType string `json:"token_type"`
	ExpiresIn int64  `json:"expires_in"`
}

// Login exchanges admin credentials for a JWT. Only available in jwt
// auth mode with configured credentials; the token is also set as a
// cookie so browser WebSocket upgrades can authenticate.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	if h.authMW.Mode() != config.AuthModeJWT || h.authMW.JWT() == nil || h.authMW.Basic() == nil {
		respondError(w, http.StatusNotFound, errCodeNotFound,
			"Login not available in this authentication mode", nil)
		return
	}

	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, errCodeBadRequest,
			"Invalid request body", err)
		return
	}
	if req.Username == "" || req.Password == "" {
		respondError(w, http.StatusBadRequest, errCodeValidation,
			"Username and password are required", nil)
		return
	}

	if !h.authMW.Basic().ValidateUsernamePassword(req.Username, req.Password) {
		metrics.AuthFailuresTotal.WithLabelValues("login").Inc()
		logging.Ctx(r.Context()).Warn().
			Str("username", sanitizeLogValue(req.Username)).
			Str("remote", r.RemoteAddr).
			Msg("login failed")
		respondError(w, http.StatusUnauthorized, errCodeUnauthorized,
			"Invalid username or password", nil)
		return
	}

	token, err := h.authMW.JWT().GenerateToken(req.Username, "admin")
	if err != nil {
		respondError(w, http.StatusInternalServerError, errCodeServiceUnavail,
			"Failed to generate token", err)
		return
	}

	timeout := h.cfg.Security.SessionTimeout
	http.SetCookie(w, &http.Cookie{
		Name:     auth.SessionCookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(timeout.Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteStrictMode,
	})

	respondSuccess(w, http.StatusOK, loginResponse{
		Token:     token,
		TokenType: "Bearer",
		ExpiresIn: int64(timeout.Seconds()),
	})
}
