// Motorscope - Industrial Motor Monitoring and Digital Twin Dashboard
// Copyright 2026 The Motorscope Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/motorlab/motorscope

// Package twin derives setpoints and run boundaries for the digital twin:
// per-metric expected values averaged over valid reference runs, and the
// time window of the most recent motor run reconstructed from the
// malfunction log.
package twin

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/motorlab/motorscope/internal/database"
	"github.com/motorlab/motorscope/internal/models"
)

// Run markers written by the motor controller as INFO log entries.
// Matching is case-insensitive substring search.
var (
	RunStartMarkers = []string{"motor retracting", "motor extending"}
	RunEndMarker    = "end position reached"

	// RetractMarker and ExtendMarker drive the dashboard cycle counters.
	RetractMarker = "motor retracting"
	ExtendMarker  = "motor extending"
)

// ErrNoValidRuns is returned when expected values are requested but no
// valid reference run has been recorded.
var ErrNoValidRuns = errors.New("no valid reference runs recorded")

// Store is the subset of the database used by this package.
type Store interface {
	ValidReferenceRuns(ctx context.Context) ([]models.ReferenceRun, error)
	LatestInfoContainingAny(ctx context.Context, substrs []string) (*models.MalfunctionLog, error)
	FirstInfoContainingSince(ctx context.Context, substr string, since time.Time) (*models.MalfunctionLog, error)
	CountInfoContaining(ctx context.Context, substr string) (int, error)
}

// ExpectedValues is the per-metric mean over all valid reference runs.
// A nil metric means no valid run reported it.
type ExpectedValues struct {
	RunCount  int                 `json:"run_count"`
	Metrics   map[string]*float64 `json:"metrics"`
	Generated time.Time           `json:"generated"`
}

// ComputeExpectedValues averages each metric over the valid reference
// runs, skipping unreported values per run. ErrNoValidRuns when there
// is nothing to average.
func ComputeExpectedValues(ctx context.Context, store Store, now time.Time) (*ExpectedValues, error) {
	runs, err := store.ValidReferenceRuns(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading valid reference runs: %w", err)
	}
	if len(runs) == 0 {
		return nil, ErrNoValidRuns
	}

	expected := &ExpectedValues{
		RunCount:  len(runs),
		Metrics:   make(map[string]*float64, len(models.MetricNames)),
		Generated: now,
	}

	for _, name := range models.MetricNames {
		var sum float64
		var n int
		for i := range runs {
			if v := runs[i].Metric(name); v != nil {
				sum += *v
				n++
			}
		}
		if n > 0 {
			mean := sum / float64(n)
			expected.Metrics[name] = &mean
		} else {
			expected.Metrics[name] = nil
		}
	}

	return expected, nil
}

// ActiveRunWindow reconstructs the time window of the most recent motor
// run. Start is the newest retract/extend marker; End is the first
// end-position marker at or after Start, nil while the motor is still
// moving. Both are nil when no run has been recorded.
func ActiveRunWindow(ctx context.Context, store Store) (models.TimeWindow, error) {
	var window models.TimeWindow

	start, err := store.LatestInfoContainingAny(ctx, RunStartMarkers)
	if errors.Is(err, database.ErrNotFound) {
		return window, nil
	}
	if err != nil {
		return window, fmt.Errorf("finding run start marker: %w", err)
	}
	window.Start = &start.Timestamp

	end, err := store.FirstInfoContainingSince(ctx, RunEndMarker, start.Timestamp)
	if errors.Is(err, database.ErrNotFound) {
		return window, nil
	}
	if err != nil {
		return window, fmt.Errorf("finding run end marker: %w", err)
	}
	window.End = &end.Timestamp

	return window, nil
}

// CycleCounts returns how many retract and extend runs the log records.
func CycleCounts(ctx context.Context, store Store) (retracted, extended int, err error) {
	retracted, err = store.CountInfoContaining(ctx, RetractMarker)
	if err != nil {
		return 0, 0, fmt.Errorf("counting retract markers: %w", err)
	}
	extended, err = store.CountInfoContaining(ctx, ExtendMarker)
	if err != nil {
		return 0, 0, fmt.Errorf("counting extend markers: %w", err)
	}
	return retracted, extended, nil
}
