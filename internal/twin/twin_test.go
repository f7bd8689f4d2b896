// Motorscope - Industrial Motor Monitoring and Digital Twin Dashboard
// Copyright 2026 The Motorscope Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/motorlab/motorscope

package twin

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/motorlab/motorscope/internal/config"
	"github.com/motorlab/motorscope/internal/database"
	"github.com/motorlab/motorscope/internal/models"
)

func newTestStore(t *testing.T) *database.Store {
	t.Helper()
	store, err := database.Open(context.Background(), config.DatabaseConfig{
		Driver: "sqlite",
		DSN:    ":memory:",
	})
	if err != nil {
		t.Fatalf("opening test store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func f(v float64) *float64 { return &v }

func TestComputeExpectedValues(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

	runs := []models.ReferenceRun{
		{Name: "run 1", Timestamp: base, IsValid: true, Current: f(2.0), RPM: f(1400)},
		{Name: "run 2", Timestamp: base.Add(time.Hour), IsValid: true, Current: f(4.0), RPM: f(1600), Voltage: f(230)},
		{Name: "bad run", Timestamp: base.Add(2 * time.Hour), IsValid: false, Current: f(99)},
	}
	for i := range runs {
		if err := store.InsertReferenceRun(ctx, &runs[i]); err != nil {
			t.Fatalf("InsertReferenceRun: %v", err)
		}
	}

	expected, err := ComputeExpectedValues(ctx, store, base.Add(3*time.Hour))
	if err != nil {
		t.Fatalf("ComputeExpectedValues: %v", err)
	}
	if expected.RunCount != 2 {
		t.Errorf("RunCount = %d, want 2 (invalid run excluded)", expected.RunCount)
	}
	if v := expected.Metrics["current"]; v == nil || *v != 3.0 {
		t.Errorf("current mean = %v, want 3.0", v)
	}
	if v := expected.Metrics["rpm"]; v == nil || *v != 1500 {
		t.Errorf("rpm mean = %v, want 1500", v)
	}
	// Voltage reported by only one run: mean over the reporting runs.
	if v := expected.Metrics["voltage"]; v == nil || *v != 230 {
		t.Errorf("voltage mean = %v, want 230", v)
	}
	if v := expected.Metrics["torque"]; v != nil {
		t.Errorf("torque mean = %v, want nil (never reported)", v)
	}
}

func TestComputeExpectedValuesNoValidRuns(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	expected, err := ComputeExpectedValues(ctx, store, time.Now())
	if !errors.Is(err, ErrNoValidRuns) {
		t.Fatalf("ComputeExpectedValues on empty store = (%v, %v), want ErrNoValidRuns", expected, err)
	}

	// An invalidated run must not count either.
	run := models.ReferenceRun{Name: "invalidated", Timestamp: time.Now(), IsValid: false}
	if err := store.InsertReferenceRun(ctx, &run); err != nil {
		t.Fatalf("InsertReferenceRun: %v", err)
	}
	if _, err := ComputeExpectedValues(ctx, store, time.Now()); !errors.Is(err, ErrNoValidRuns) {
		t.Fatalf("ComputeExpectedValues with only invalid runs = %v, want ErrNoValidRuns", err)
	}
}

func TestActiveRunWindow(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

	insert := func(offset time.Duration, desc string) {
		t.Helper()
		err := store.InsertMalfunction(ctx, &models.MalfunctionLog{
			Timestamp:   base.Add(offset),
			Severity:    models.SeverityInfo,
			Description: desc,
		})
		if err != nil {
			t.Fatalf("InsertMalfunction(%q): %v", desc, err)
		}
	}

	// No markers at all: empty window.
	window, err := ActiveRunWindow(ctx, store)
	if err != nil {
		t.Fatalf("ActiveRunWindow: %v", err)
	}
	if window.Start != nil || window.End != nil {
		t.Errorf("window on empty log = %+v, want both nil", window)
	}

	// Completed run followed by a new start without end: still running.
	insert(0, "Motor extending")
	insert(10*time.Second, "End position reached")
	insert(20*time.Second, "Motor retracting")

	window, err = ActiveRunWindow(ctx, store)
	if err != nil {
		t.Fatalf("ActiveRunWindow: %v", err)
	}
	if window.Start == nil || !window.Start.Equal(base.Add(20*time.Second)) {
		t.Errorf("window start = %v, want %s", window.Start, base.Add(20*time.Second))
	}
	if window.End != nil {
		t.Errorf("window end = %v, want nil while running", window.End)
	}

	// End marker closes the window.
	insert(35*time.Second, "End position reached")
	window, err = ActiveRunWindow(ctx, store)
	if err != nil {
		t.Fatalf("ActiveRunWindow: %v", err)
	}
	if window.End == nil || !window.End.Equal(base.Add(35*time.Second)) {
		t.Errorf("window end = %v, want %s", window.End, base.Add(35*time.Second))
	}
}

func TestCycleCounts(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

	descs := []string{"Motor retracting", "Motor extending", "Motor extending", "End position reached"}
	for i, desc := range descs {
		err := store.InsertMalfunction(ctx, &models.MalfunctionLog{
			Timestamp:   base.Add(time.Duration(i) * time.Second),
			Severity:    models.SeverityInfo,
			Description: desc,
		})
		if err != nil {
			t.Fatalf("InsertMalfunction: %v", err)
		}
	}

	retracted, extended, err := CycleCounts(ctx, store)
	if err != nil {
		t.Fatalf("CycleCounts: %v", err)
	}
	if retracted != 1 || extended != 2 {
		t.Errorf("CycleCounts = (%d, %d), want (1, 2)", retracted, extended)
	}
}
