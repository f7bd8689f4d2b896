// Motorscope - Industrial Motor Monitoring and Digital Twin Dashboard
// Copyright 2026 The Motorscope Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/motorlab/motorscope

package dashboard

import (
	"context"
	"testing"
	"time"

	"github.com/motorlab/motorscope/internal/config"
	"github.com/motorlab/motorscope/internal/database"
	"github.com/motorlab/motorscope/internal/models"
)

func newTestService(t *testing.T) (*Service, *database.Store) {
	t.Helper()
	store, err := database.Open(context.Background(), config.DatabaseConfig{
		Driver: "sqlite",
		DSN:    ":memory:",
	})
	if err != nil {
		t.Fatalf("opening test store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return NewService(store, 10*time.Second), store
}

func f(v float64) *float64 { return &v }

func TestDataEmptyStore(t *testing.T) {
	svc, _ := newTestService(t)

	data, err := svc.Data(context.Background(), time.Now())
	if err != nil {
		t.Fatalf("Data: %v", err)
	}
	if data.MotorInfo == nil || data.MotorInfo.Name != "Unknown motor" {
		t.Errorf("MotorInfo = %+v, want unknown-motor placeholder", data.MotorInfo)
	}
	if data.AnomalyStatus.Detected {
		t.Error("AnomalyStatus.Detected = true on empty store")
	}
	for name, mv := range data.LiveMetrics {
		if mv.Value != nil {
			t.Errorf("live metric %s = %v, want nil", name, *mv.Value)
		}
		if mv.Unit != models.MetricUnits[name] {
			t.Errorf("live metric %s unit = %q, want %q", name, mv.Unit, models.MetricUnits[name])
		}
	}
}

func TestDataFreshAndStaleReadings(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()
	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

	err := store.InsertReading(ctx, &models.Reading{
		Stream:    models.StreamLive,
		Timestamp: now.Add(-5 * time.Second),
		Current:   f(2.5),
	})
	if err != nil {
		t.Fatalf("InsertReading: %v", err)
	}

	data, err := svc.Data(ctx, now)
	if err != nil {
		t.Fatalf("Data: %v", err)
	}
	if v := data.LiveMetrics["current"].Value; v == nil || *v != 2.5 {
		t.Errorf("fresh live current = %v, want 2.5", v)
	}

	// The same reading viewed 30 seconds later is stale and reported
	// unavailable.
	data, err = svc.Data(ctx, now.Add(30*time.Second))
	if err != nil {
		t.Fatalf("Data (stale): %v", err)
	}
	if v := data.LiveMetrics["current"].Value; v != nil {
		t.Errorf("stale live current = %v, want nil", *v)
	}
}

func TestDataTwinPanelUsesLatestValidReferenceRun(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()
	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

	runs := []models.ReferenceRun{
		{Name: "older", Timestamp: base, IsValid: true, RPM: f(1400)},
		{Name: "newest", Timestamp: base.Add(time.Hour), IsValid: true, RPM: f(1520)},
		{Name: "invalid newest", Timestamp: base.Add(2 * time.Hour), IsValid: false, RPM: f(9999)},
	}
	for i := range runs {
		if err := store.InsertReferenceRun(ctx, &runs[i]); err != nil {
			t.Fatalf("InsertReferenceRun: %v", err)
		}
	}

	data, err := svc.Data(ctx, base.Add(3*time.Hour))
	if err != nil {
		t.Fatalf("Data: %v", err)
	}
	if v := data.TwinMetrics["rpm"].Value; v == nil || *v != 1520 {
		t.Errorf("twin rpm = %v, want 1520 from newest valid run", v)
	}
}

func TestDataCycleCountsAndLogs(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()
	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

	descs := []string{
		"Motor extending",
		"End position reached",
		"Motor retracting",
		"End position reached",
		"Motor extending",
		"End position reached",
		"Overtemperature warning",
	}
	for i, desc := range descs {
		severity := models.SeverityInfo
		if desc == "Overtemperature warning" {
			severity = models.SeverityWarning
		}
		err := store.InsertMalfunction(ctx, &models.MalfunctionLog{
			Timestamp:   base.Add(time.Duration(i) * time.Second),
			Severity:    severity,
			Description: desc,
		})
		if err != nil {
			t.Fatalf("InsertMalfunction: %v", err)
		}
	}

	data, err := svc.Data(ctx, base.Add(time.Minute))
	if err != nil {
		t.Fatalf("Data: %v", err)
	}
	if data.RetractCount != 1 {
		t.Errorf("RetractCount = %d, want 1", data.RetractCount)
	}
	if data.ExtendCount != 2 {
		t.Errorf("ExtendCount = %d, want 2", data.ExtendCount)
	}
	if len(data.MalfunctionLogs) != 5 {
		t.Fatalf("MalfunctionLogs count = %d, want 5", len(data.MalfunctionLogs))
	}
	if data.MalfunctionLogs[0].Description != "Overtemperature warning" {
		t.Errorf("newest log = %q, want the warning", data.MalfunctionLogs[0].Description)
	}
}

func TestPlotRange(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()
	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

	for i := 0; i < 3; i++ {
		ts := base.Add(time.Duration(i) * time.Second)
		live := &models.Reading{Stream: models.StreamLive, Timestamp: ts, Current: f(2.0 + float64(i)), Torque: f(5)}
		twinR := &models.Reading{Stream: models.StreamTwin, Timestamp: ts, Current: f(2.0)}
		if err := store.InsertReading(ctx, live); err != nil {
			t.Fatalf("InsertReading live: %v", err)
		}
		if err := store.InsertReading(ctx, twinR); err != nil {
			t.Fatalf("InsertReading twin: %v", err)
		}
	}

	end := base.Add(time.Minute)
	data, err := svc.PlotRange(ctx, base, &end)
	if err != nil {
		t.Fatalf("PlotRange: %v", err)
	}
	if got := len(data.Live["current"]); got != 3 {
		t.Errorf("live current points = %d, want 3", got)
	}
	if got := len(data.Twin["current"]); got != 3 {
		t.Errorf("twin current points = %d, want 3", got)
	}
	// Torque is a panel metric, not a chart metric.
	if _, ok := data.Live["torque"]; ok {
		t.Error("plot data contains torque series")
	}
	// Voltage was never reported: present but empty.
	if got := len(data.Live["voltage"]); got != 0 {
		t.Errorf("live voltage points = %d, want 0", got)
	}
	if data.Live["current"][0].Y != 2.0 || data.Live["current"][2].Y != 4.0 {
		t.Errorf("live current series out of order: %+v", data.Live["current"])
	}
}

func TestLatestPoint(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()
	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

	update, err := svc.LatestPoint(ctx)
	if err != nil {
		t.Fatalf("LatestPoint on empty store: %v", err)
	}
	if update.HasData() {
		t.Error("HasData() = true on empty store")
	}

	err = store.InsertReading(ctx, &models.Reading{
		Stream:    models.StreamLive,
		Timestamp: base,
		Current:   f(3.3),
		Vibration: f(0.02),
	})
	if err != nil {
		t.Fatalf("InsertReading: %v", err)
	}

	update, err = svc.LatestPoint(ctx)
	if err != nil {
		t.Fatalf("LatestPoint: %v", err)
	}
	if !update.HasData() {
		t.Fatal("HasData() = false after insertion")
	}
	pt, ok := update.Live["current"]
	if !ok {
		t.Fatal("live current point missing")
	}
	if pt.Y != 3.3 {
		t.Errorf("live current point y = %g, want 3.3", pt.Y)
	}
	if pt.X != base.Format(time.RFC3339) {
		t.Errorf("live current point x = %q, want %q", pt.X, base.Format(time.RFC3339))
	}
	if len(update.Twin) != 0 {
		t.Errorf("twin points = %d, want 0", len(update.Twin))
	}
}
