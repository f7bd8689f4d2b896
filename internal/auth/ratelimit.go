// Motorscope - Industrial Motor Monitoring and Digital Twin Dashboard
// Copyright 2026 The Motorscope Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/motorlab/motorscope

package auth

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// RateLimiter enforces a per-client token bucket, keyed by remote
// address. Idle entries are evicted after staleAfter.
type RateLimiter struct {
	mu         sync.Mutex
	clients    map[string]*clientLimiter
	limit      rate.Limit
	burst      int
	staleAfter time.Duration
}

type clientLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// NewRateLimiter allows requests per window for each client, with a
// burst equal to the request count.
func NewRateLimiter(requests int, window time.Duration) *RateLimiter {
	if requests <= 0 {
		requests = 1
	}
	if window <= 0 {
		window = time.Minute
	}
	return &RateLimiter{
		clients:    make(map[string]*clientLimiter),
		limit:      rate.Limit(float64(requests) / window.Seconds()),
		burst:      requests,
		staleAfter: 10 * window,
	}
}

// Allow reports whether the client identified by key may proceed.
func (rl *RateLimiter) Allow(key string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	cl, ok := rl.clients[key]
	if !ok {
		cl = &clientLimiter{limiter: rate.NewLimiter(rl.limit, rl.burst)}
		rl.clients[key] = cl
	}
	cl.lastSeen = now

	if len(rl.clients) > 1000 {
		rl.evictStale(now)
	}
	return cl.limiter.Allow()
}

func (rl *RateLimiter) evictStale(now time.Time) {
	for key, cl := range rl.clients {
		if now.Sub(cl.lastSeen) > rl.staleAfter {
			delete(rl.clients, key)
		}
	}
}
