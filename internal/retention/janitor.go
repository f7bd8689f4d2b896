// Motorscope - Industrial Motor Monitoring and Digital Twin Dashboard
// Copyright 2026 The Motorscope Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/motorlab/motorscope

// Package retention prunes aged telemetry readings on a schedule.
// Malfunction logs and reference runs are kept indefinitely; only the
// high-volume live and twin readings are subject to retention.
package retention

import (
	"context"
	"time"

	"github.com/motorlab/motorscope/internal/logging"
)

// Pruner matches the store method the janitor drives.
type Pruner interface {
	PruneReadings(ctx context.Context, cutoff time.Time) (int64, error)
}

// Janitor deletes readings older than MaxAge every Interval.
type Janitor struct {
	store    Pruner
	maxAge   time.Duration
	interval time.Duration
}

// NewJanitor creates the janitor. maxAge <= 0 disables pruning; Run
// then blocks until the context is canceled without touching the
// store.
func NewJanitor(store Pruner, maxAge, interval time.Duration) *Janitor {
	if interval <= 0 {
		interval = time.Hour
	}
	return &Janitor{store: store, maxAge: maxAge, interval: interval}
}

// Run prunes once at startup, then on every tick, until the context is
// canceled. Prune failures are logged and retried on the next tick.
func (j *Janitor) Run(ctx context.Context) error {
	if j.maxAge <= 0 {
		logging.Info().Msg("reading retention disabled")
		<-ctx.Done()
		return ctx.Err()
	}

	logging.Info().
		Dur("max_age", j.maxAge).
		Dur("interval", j.interval).
		Msg("reading retention active")

	j.prune(ctx)

	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			j.prune(ctx)
		}
	}
}

func (j *Janitor) prune(ctx context.Context) {
	cutoff := time.Now().UTC().Add(-j.maxAge)
	pruned, err := j.store.PruneReadings(ctx, cutoff)
	if err != nil {
		logging.Error().Err(err).Msg("pruning readings failed")
		return
	}
	if pruned > 0 {
		logging.Info().
			Int64("pruned", pruned).
			Time("cutoff", cutoff).
			Msg("pruned aged readings")
	}
}
