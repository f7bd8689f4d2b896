// Motorscope - Industrial Motor Monitoring and Digital Twin Dashboard
// Copyright 2026 The Motorscope Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/motorlab/motorscope

package models

import "time"

// MetricValue pairs a metric value with its display unit. A nil value means
// the metric is unavailable (never reported, or stale per the freshness
// threshold) and renders as "-" on the dashboard.
type MetricValue struct {
	Value *float64 `json:"value"`
	Unit  string   `json:"unit"`
}

// AnomalyStatus summarizes the current anomaly state of the motor.
type AnomalyStatus struct {
	Detected bool   `json:"detected"`
	Message  string `json:"message"`
}

// DashboardData is the full payload for a dashboard panel update.
type DashboardData struct {
	MotorInfo       *MotorInfo             `json:"motor_info"`
	LiveMetrics     map[string]MetricValue `json:"live_metrics"`
	TwinMetrics     map[string]MetricValue `json:"twin_metrics"`
	RetractCount    int                    `json:"retract_count"`
	ExtendCount     int                    `json:"extend_count"`
	AnomalyStatus   AnomalyStatus          `json:"anomaly_status"`
	MalfunctionLogs []MalfunctionLog       `json:"malfunction_logs"`
}

// PlotPoint is one point of a chart series, keyed for Chart.js style
// consumers: x is an RFC3339 timestamp, y the metric value.
type PlotPoint struct {
	X string  `json:"x"`
	Y float64 `json:"y"`
}

// PlotSeries maps metric names to their point series.
type PlotSeries map[string][]PlotPoint

// PlotData carries live and twin chart series for a time window.
type PlotData struct {
	Live PlotSeries `json:"live"`
	Twin PlotSeries `json:"twin"`
}

// PlotMetrics lists the metrics rendered on dashboard charts.
// Torque and run time appear in panels only, matching the chart layout.
var PlotMetrics = []string{"current", "voltage", "rpm", "vibration", "temp"}

// PlotPointUpdate is an incremental live-plot update: the newest point per
// stream, keyed by metric. Empty maps mean no data for that stream yet.
type PlotPointUpdate struct {
	Live map[string]PlotPoint `json:"live"`
	Twin map[string]PlotPoint `json:"twin"`
}

// HasData reports whether the update carries at least one point.
func (u *PlotPointUpdate) HasData() bool {
	return len(u.Live) > 0 || len(u.Twin) > 0
}

// TimeWindow is a half-open observation window. A nil Start means no
// window was found; a nil End means the window is still open (the motor
// run has not finished).
type TimeWindow struct {
	Start *time.Time `json:"start,omitempty"`
	End   *time.Time `json:"end,omitempty"`
}
