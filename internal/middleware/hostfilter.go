// Motorscope - Industrial Motor Monitoring and Digital Twin Dashboard
// Copyright 2026 The Motorscope Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/motorlab/motorscope

package middleware

import (
	"net"
	"net/http"
	"strings"

	"github.com/motorlab/motorscope/internal/logging"
)

// HostFilter rejects requests whose Host header is not in the allowed
// list. An empty list or a "*" entry allows every host. Entries are
// compared without ports, case-insensitively.
func HostFilter(allowedHosts []string) func(http.Handler) http.Handler {
	allowed := make(map[string]bool, len(allowedHosts))
	allowAll := len(allowedHosts) == 0
	for _, h := range allowedHosts {
		h = strings.ToLower(strings.TrimSpace(h))
		if h == "*" {
			allowAll = true
		}
		if h != "" {
			allowed[h] = true
		}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if allowAll {
				next.ServeHTTP(w, r)
				return
			}

			host := strings.ToLower(r.Host)
			if h, _, err := net.SplitHostPort(r.Host); err == nil {
				host = strings.ToLower(h)
			}
			if !allowed[host] {
				logging.Ctx(r.Context()).Warn().
					Str("host", r.Host).
					Msg("request rejected by host filter")
				http.Error(w, "Bad Request", http.StatusBadRequest)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
