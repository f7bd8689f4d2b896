// Motorscope - Industrial Motor Monitoring and Digital Twin Dashboard
// Copyright 2026 The Motorscope Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/motorlab/motorscope

// Package detection compares live telemetry against the digital twin and
// flags metrics whose deviation exceeds the configured threshold. State
// transitions are edge triggered: a malfunction log entry is produced
// when a metric enters or leaves the deviating state, not on every
// sample.
package detection

import (
	"fmt"
	"math"
	"strings"
	"sync"
	"time"

	"github.com/motorlab/motorscope/internal/metrics"
	"github.com/motorlab/motorscope/internal/models"
)

// ComparedMetrics are the Reading metrics subject to live/twin deviation
// comparison. run_time is excluded because it is monotonic and diverges
// trivially.
var ComparedMetrics = []string{"current", "voltage", "rpm", "vibration", "temp", "torque"}

const (
	msgNormal           = "Motor running normally."
	msgInsufficientData = "Insufficient data for anomaly detection."
	criticalPrefix      = "CRITICAL FAULT: "
)

// Result is the outcome of one evaluation cycle.
type Result struct {
	Detected bool
	Message  string

	// NewLogs are the malfunction log entries produced by state
	// transitions during this evaluation. The caller persists them.
	NewLogs []models.MalfunctionLog
}

// OverrideCritical replaces the result message with a recent ERROR log
// description. Critical faults always win over deviation warnings.
func (r *Result) OverrideCritical(description string) {
	r.Detected = true
	r.Message = criticalPrefix + description
}

// Engine holds the per-metric deviation state between evaluations.
// Safe for use from a single ingest goroutine; the mutex guards reads
// from the API side.
type Engine struct {
	thresholdPercent float64

	mu        sync.Mutex
	deviating map[string]bool
}

// NewEngine returns an engine with all metrics in the non-deviating
// state.
func NewEngine(thresholdPercent float64) *Engine {
	deviating := make(map[string]bool, len(ComparedMetrics))
	for _, name := range ComparedMetrics {
		deviating[name] = false
	}
	return &Engine{
		thresholdPercent: thresholdPercent,
		deviating:        deviating,
	}
}

// Evaluate compares the latest live and twin samples. Either may be nil,
// in which case detection cannot run and the result says so. Timestamps
// of produced log entries are set to now.
func (e *Engine) Evaluate(live, twin *models.Reading, now time.Time) Result {
	e.mu.Lock()
	defer e.mu.Unlock()

	result := Result{Message: msgNormal}

	if live == nil || twin == nil {
		result.Detected = true
		result.Message = msgInsufficientData
		return result
	}

	for _, name := range ComparedMetrics {
		liveVal := live.Metric(name)
		twinVal := twin.Metric(name)

		deviating := false
		if liveVal != nil && twinVal != nil {
			switch {
			case *twinVal != 0:
				deviation := math.Abs((*liveVal-*twinVal) / *twinVal) * 100
				if deviation > e.thresholdPercent {
					deviating = true
					result.Detected = true
					result.Message = fmt.Sprintf("WARNING: %s deviation detected.", title(name))
				}
			case *liveVal != 0:
				// Twin predicts zero but the motor reports a value.
				deviating = true
				result.Detected = true
				result.Message = fmt.Sprintf("WARNING: %s deviation: twin is 0, live is %.2f.", title(name), *liveVal)
			}
		}

		switch {
		case deviating && !e.deviating[name]:
			result.NewLogs = append(result.NewLogs, models.MalfunctionLog{
				Timestamp: now,
				Severity:  models.SeverityWarning,
				Description: fmt.Sprintf("%s deviation > %.1f%% detected (live: %.2f, twin: %.2f)",
					title(name), e.thresholdPercent, deref(liveVal), deref(twinVal)),
				MotorState: "unknown",
			})
			e.deviating[name] = true
			metrics.AnomalyTransitionsTotal.WithLabelValues(name, "entered").Inc()

		case !deviating && e.deviating[name]:
			result.NewLogs = append(result.NewLogs, models.MalfunctionLog{
				Timestamp:   now,
				Severity:    models.SeverityInfo,
				Description: fmt.Sprintf("%s deviation resolved. Motor running normally again.", title(name)),
				MotorState:  "normal",
			})
			e.deviating[name] = false
			metrics.AnomalyTransitionsTotal.WithLabelValues(name, "cleared").Inc()
		}
	}

	return result
}

// DeviatingMetrics returns the metrics currently in the deviating state,
// in ComparedMetrics order.
func (e *Engine) DeviatingMetrics() []string {
	e.mu.Lock()
	defer e.mu.Unlock()

	var names []string
	for _, name := range ComparedMetrics {
		if e.deviating[name] {
			names = append(names, name)
		}
	}
	return names
}

func title(name string) string {
	if name == "rpm" {
		return "RPM"
	}
	return strings.ToUpper(name[:1]) + name[1:]
}

func deref(v *float64) float64 {
	if v == nil {
		return 0
	}
	return *v
}
