// Motorscope - Industrial Motor Monitoring and Digital Twin Dashboard
// Copyright 2026 The Motorscope Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/motorlab/motorscope

package detection

import (
	"strings"
	"testing"
	"time"

	"github.com/motorlab/motorscope/internal/models"
)

func f(v float64) *float64 { return &v }

func reading(stream models.Stream, current float64) *models.Reading {
	return &models.Reading{
		Stream:    stream,
		Timestamp: time.Now(),
		Current:   f(current),
	}
}

func TestEvaluateNormal(t *testing.T) {
	e := NewEngine(80.0)
	res := e.Evaluate(reading(models.StreamLive, 2.0), reading(models.StreamTwin, 2.1), time.Now())

	if res.Detected {
		t.Error("Detected = true for near-identical readings")
	}
	if res.Message != "Motor running normally." {
		t.Errorf("Message = %q, want normal message", res.Message)
	}
	if len(res.NewLogs) != 0 {
		t.Errorf("NewLogs = %d entries, want 0", len(res.NewLogs))
	}
}

func TestEvaluateMissingData(t *testing.T) {
	e := NewEngine(80.0)

	for _, tt := range []struct {
		name       string
		live, twin *models.Reading
	}{
		{"no live", nil, reading(models.StreamTwin, 1)},
		{"no twin", reading(models.StreamLive, 1), nil},
		{"neither", nil, nil},
	} {
		t.Run(tt.name, func(t *testing.T) {
			res := e.Evaluate(tt.live, tt.twin, time.Now())
			if !res.Detected {
				t.Error("Detected = false with missing data")
			}
			if res.Message != "Insufficient data for anomaly detection." {
				t.Errorf("Message = %q", res.Message)
			}
		})
	}
}

func TestEvaluateEdgeTriggeredLogs(t *testing.T) {
	e := NewEngine(80.0)
	now := time.Now()
	twin := reading(models.StreamTwin, 1.0)

	// Enter deviation: 150% off.
	res := e.Evaluate(reading(models.StreamLive, 2.5), twin, now)
	if !res.Detected {
		t.Fatal("Detected = false for 150% deviation")
	}
	if len(res.NewLogs) != 1 {
		t.Fatalf("NewLogs on entry = %d, want 1", len(res.NewLogs))
	}
	entry := res.NewLogs[0]
	if entry.Severity != models.SeverityWarning {
		t.Errorf("entry severity = %s, want WARNING", entry.Severity)
	}
	if !strings.Contains(entry.Description, "Current deviation > 80.0%") {
		t.Errorf("entry description = %q", entry.Description)
	}

	// Still deviating: no new log.
	res = e.Evaluate(reading(models.StreamLive, 2.6), twin, now)
	if !res.Detected {
		t.Error("Detected = false while still deviating")
	}
	if len(res.NewLogs) != 0 {
		t.Errorf("NewLogs while persisting = %d, want 0", len(res.NewLogs))
	}

	// Recover: one INFO log.
	res = e.Evaluate(reading(models.StreamLive, 1.05), twin, now)
	if res.Detected {
		t.Error("Detected = true after recovery")
	}
	if len(res.NewLogs) != 1 {
		t.Fatalf("NewLogs on recovery = %d, want 1", len(res.NewLogs))
	}
	if res.NewLogs[0].Severity != models.SeverityInfo {
		t.Errorf("recovery severity = %s, want INFO", res.NewLogs[0].Severity)
	}
	if !strings.Contains(res.NewLogs[0].Description, "resolved") {
		t.Errorf("recovery description = %q", res.NewLogs[0].Description)
	}

	// Recovered and stable: no further logs.
	res = e.Evaluate(reading(models.StreamLive, 1.0), twin, now)
	if len(res.NewLogs) != 0 {
		t.Errorf("NewLogs when stable = %d, want 0", len(res.NewLogs))
	}
}

func TestEvaluateTwinZeroSpecialCase(t *testing.T) {
	e := NewEngine(80.0)

	res := e.Evaluate(reading(models.StreamLive, 0.5), reading(models.StreamTwin, 0), time.Now())
	if !res.Detected {
		t.Fatal("Detected = false when twin is 0 and live is not")
	}
	if !strings.Contains(res.Message, "twin is 0") {
		t.Errorf("Message = %q, want twin-zero warning", res.Message)
	}

	// Both zero is not a deviation.
	e2 := NewEngine(80.0)
	res = e2.Evaluate(reading(models.StreamLive, 0), reading(models.StreamTwin, 0), time.Now())
	if res.Detected {
		t.Error("Detected = true when both live and twin are 0")
	}
}

func TestEvaluateNilMetricSkipped(t *testing.T) {
	e := NewEngine(80.0)

	live := &models.Reading{Stream: models.StreamLive, Timestamp: time.Now(), Voltage: f(230)}
	twin := &models.Reading{Stream: models.StreamTwin, Timestamp: time.Now(), Current: f(2.0)}

	res := e.Evaluate(live, twin, time.Now())
	if res.Detected {
		t.Error("Detected = true although no metric is present on both streams")
	}
}

func TestDeviatingMetrics(t *testing.T) {
	e := NewEngine(10.0)
	live := &models.Reading{
		Stream:    models.StreamLive,
		Timestamp: time.Now(),
		Current:   f(5.0),
		RPM:       f(1500),
	}
	twin := &models.Reading{
		Stream:    models.StreamTwin,
		Timestamp: time.Now(),
		Current:   f(1.0),
		RPM:       f(1510),
	}

	e.Evaluate(live, twin, time.Now())
	got := e.DeviatingMetrics()
	if len(got) != 1 || got[0] != "current" {
		t.Errorf("DeviatingMetrics() = %v, want [current]", got)
	}
}

func TestOverrideCritical(t *testing.T) {
	res := Result{Message: "Motor running normally."}
	res.OverrideCritical("Overcurrent shutdown")

	if !res.Detected {
		t.Error("Detected = false after critical override")
	}
	if res.Message != "CRITICAL FAULT: Overcurrent shutdown" {
		t.Errorf("Message = %q", res.Message)
	}
}
