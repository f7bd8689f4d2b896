// Motorscope - Industrial Motor Monitoring and Digital Twin Dashboard
// Copyright 2026 The Motorscope Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/motorlab/motorscope

package middleware

import (
	"net/http"
	"time"

	"github.com/motorlab/motorscope/internal/auth"
)

// RateLimit returns middleware enforcing requests-per-window per
// client IP. Over-limit requests get 429 with a Retry-After hint.
func RateLimit(requests int, window time.Duration) func(http.Handler) http.Handler {
	limiter := auth.NewRateLimiter(requests, window)
	retryAfter := "1"
	if secs := int(window.Seconds()); secs > 1 {
		retryAfter = "5"
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !limiter.Allow(auth.ClientKey(r)) {
				w.Header().Set("Retry-After", retryAfter)
				http.Error(w, "Too Many Requests", http.StatusTooManyRequests)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
