// Motorscope - Industrial Motor Monitoring and Digital Twin Dashboard
// Copyright 2026 The Motorscope Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/motorlab/motorscope

package auth

import (
	"context"
	"net"
	"net/http"
	"strings"

	"github.com/motorlab/motorscope/internal/config"
	"github.com/motorlab/motorscope/internal/logging"
	"github.com/motorlab/motorscope/internal/metrics"
)

type contextKey string

const (
	usernameKey contextKey = "auth_username"
	roleKey     contextKey = "auth_role"
)

// SessionCookieName carries the JWT for browser clients that cannot
// set an Authorization header on WebSocket upgrades.
const SessionCookieName = "motorscope_session"

// Middleware authenticates requests according to the configured mode.
// Mode "none" passes everything through unchanged.
type Middleware struct {
	mode  string
	jwt   *JWTManager
	basic *BasicAuthManager
}

// NewMiddleware builds the authenticator for the configured mode.
func NewMiddleware(cfg *config.SecurityConfig) (*Middleware, error) {
	m := &Middleware{mode: cfg.AuthMode}
	switch cfg.AuthMode {
	case config.AuthModeNone:
	case config.AuthModeJWT:
		jm, err := NewJWTManager(cfg)
		if err != nil {
			return nil, err
		}
		m.jwt = jm
		// Login credentials are optional in jwt mode; without them the
		// login endpoint is disabled and tokens must be minted out of
		// band.
		if cfg.AdminUsername != "" && cfg.AdminPassword != "" {
			bm, err := NewBasicAuthManager(cfg.AdminUsername, cfg.AdminPassword)
			if err != nil {
				return nil, err
			}
			m.basic = bm
		}
	case config.AuthModeBasic:
		bm, err := NewBasicAuthManager(cfg.AdminUsername, cfg.AdminPassword)
		if err != nil {
			return nil, err
		}
		m.basic = bm
	}
	return m, nil
}

// Mode returns the configured authentication mode.
func (m *Middleware) Mode() string { return m.mode }

// JWT exposes the token manager for the login handler. Nil unless the
// mode is "jwt".
func (m *Middleware) JWT() *JWTManager { return m.jwt }

// Basic exposes the credential manager. Nil unless the mode is "basic".
func (m *Middleware) Basic() *BasicAuthManager { return m.basic }

// Authenticate wraps next and rejects unauthenticated requests with
// 401. The resolved username is stored in the request context.
func (m *Middleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch m.mode {
		case config.AuthModeNone:
			next.ServeHTTP(w, r)
			return
		case config.AuthModeJWT:
			m.authenticateJWT(next, w, r)
			return
		case config.AuthModeBasic:
			m.authenticateBasic(next, w, r)
			return
		default:
			reject(w, r, "unknown_mode")
		}
	})
}

func (m *Middleware) authenticateJWT(next http.Handler, w http.ResponseWriter, r *http.Request) {
	token := bearerToken(r)
	if token == "" {
		if cookie, err := r.Cookie(SessionCookieName); err == nil {
			token = cookie.Value
		}
	}
	if token == "" {
		reject(w, r, "missing_token")
		return
	}

	claims, err := m.jwt.ValidateToken(token)
	if err != nil {
		reject(w, r, "invalid_token")
		return
	}

	ctx := context.WithValue(r.Context(), usernameKey, claims.Username)
	ctx = context.WithValue(ctx, roleKey, claims.Role)
	next.ServeHTTP(w, r.WithContext(ctx))
}

func (m *Middleware) authenticateBasic(next http.Handler, w http.ResponseWriter, r *http.Request) {
	username, err := m.basic.ValidateCredentials(r.Header.Get("Authorization"))
	if err != nil {
		w.Header().Set("WWW-Authenticate", `Basic realm="motorscope"`)
		reject(w, r, "invalid_credentials")
		return
	}
	ctx := context.WithValue(r.Context(), usernameKey, username)
	next.ServeHTTP(w, r.WithContext(ctx))
}

func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if strings.HasPrefix(header, "Bearer ") {
		return strings.TrimPrefix(header, "Bearer ")
	}
	return ""
}

func reject(w http.ResponseWriter, r *http.Request, reason string) {
	metrics.AuthFailuresTotal.WithLabelValues(reason).Inc()
	logging.Ctx(r.Context()).Debug().
		Str("reason", reason).
		Str("remote", r.RemoteAddr).
		Msg("authentication failed")
	http.Error(w, "Unauthorized", http.StatusUnauthorized)
}

// UsernameFromContext returns the authenticated username, if any.
func UsernameFromContext(ctx context.Context) (string, bool) {
	username, ok := ctx.Value(usernameKey).(string)
	return username, ok
}

// ClientKey derives a rate-limit key from the remote address, dropping
// the ephemeral port.
func ClientKey(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
