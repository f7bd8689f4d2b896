// Motorscope - Industrial Motor Monitoring and Digital Twin Dashboard
// Copyright 2026 The Motorscope Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/motorlab/motorscope

// Package models defines the domain types shared across Motorscope:
// motor metadata, telemetry readings, reference runs, the malfunction log,
// and the API response envelope.
package models

import (
	"time"

	"github.com/uptrace/bun"
)

// Stream identifies which telemetry stream a reading belongs to.
type Stream string

const (
	// StreamLive is telemetry measured on the physical motor.
	StreamLive Stream = "live"

	// StreamTwin is telemetry predicted by the digital twin model.
	StreamTwin Stream = "twin"
)

// Severity classifies malfunction log entries.
type Severity string

const (
	SeverityInfo    Severity = "INFO"
	SeverityWarning Severity = "WARNING"
	SeverityError   Severity = "ERROR"
)

// MotorInfo holds static information about the monitored motor.
// There is a single motor per deployment; the store keeps at most one row.
type MotorInfo struct {
	bun.BaseModel `bun:"table:motor_info" json:"-"`

	ID                int64      `bun:"id,pk,autoincrement" json:"id"`
	Name              string     `bun:"name,notnull" json:"name"`
	Model             string     `bun:"model" json:"model"`
	Description       string     `bun:"description" json:"description"`
	Identification    string     `bun:"identification,unique,notnull" json:"identification"`
	Location          string     `bun:"location" json:"location"`
	CommissioningDate *time.Time `bun:"commissioning_date,nullzero" json:"commissioning_date,omitempty"`
	Cycles            int64      `bun:"cycles,notnull,default:0" json:"cycles"`
	OperatingMode     string     `bun:"operating_mode" json:"operating_mode"`
}

// Reading is a single telemetry sample from either the live motor or its
// digital twin. All metric fields are pointers: a nil metric was not reported
// in the source message and must not be plotted or compared.
type Reading struct {
	bun.BaseModel `bun:"table:readings" json:"-"`

	ID        int64     `bun:"id,pk,autoincrement" json:"id"`
	Stream    Stream    `bun:"stream,notnull" json:"stream"`
	Timestamp time.Time `bun:"timestamp,notnull" json:"timestamp"`
	Current   *float64  `bun:"current" json:"current,omitempty"`
	Voltage   *float64  `bun:"voltage" json:"voltage,omitempty"`
	RPM       *float64  `bun:"rpm" json:"rpm,omitempty"`
	Vibration *float64  `bun:"vibration" json:"vibration,omitempty"`
	Temp      *float64  `bun:"temp" json:"temp,omitempty"`
	Torque    *float64  `bun:"torque" json:"torque,omitempty"`
	RunTime   *float64  `bun:"run_time" json:"run_time,omitempty"`
}

// Metric returns the named metric value, or nil when it was not reported.
// Valid names are the MetricNames entries.
func (r *Reading) Metric(name string) *float64 {
	switch name {
	case "current":
		return r.Current
	case "voltage":
		return r.Voltage
	case "rpm":
		return r.RPM
	case "vibration":
		return r.Vibration
	case "temp":
		return r.Temp
	case "torque":
		return r.Torque
	case "run_time":
		return r.RunTime
	default:
		return nil
	}
}

// MetricNames lists the metric fields of a Reading in a stable order.
// run_time is monotonic and excluded from deviation comparison; see
// detection.ComparedMetrics for the anomaly subset.
var MetricNames = []string{"current", "voltage", "rpm", "vibration", "temp", "torque", "run_time"}

// MetricUnits maps metric names to their display units.
var MetricUnits = map[string]string{
	"current":   "A",
	"voltage":   "V",
	"rpm":       "rpm",
	"vibration": "mm/s",
	"temp":      "°C",
	"torque":    "Nm",
	"run_time":  "h",
}

// ReferenceRun is a named, validated telemetry snapshot used as a setpoint.
// The per-metric means over all valid runs form the twin's expected values.
type ReferenceRun struct {
	bun.BaseModel `bun:"table:reference_runs" json:"-"`

	ID        int64     `bun:"id,pk,autoincrement" json:"id"`
	Name      string    `bun:"name,notnull" json:"name"`
	Timestamp time.Time `bun:"timestamp,notnull" json:"timestamp"`
	IsValid   bool      `bun:"is_valid,notnull,default:true" json:"is_valid"`
	Current   *float64  `bun:"current" json:"current,omitempty"`
	Voltage   *float64  `bun:"voltage" json:"voltage,omitempty"`
	RPM       *float64  `bun:"rpm" json:"rpm,omitempty"`
	Vibration *float64  `bun:"vibration" json:"vibration,omitempty"`
	Temp      *float64  `bun:"temp" json:"temp,omitempty"`
	Torque    *float64  `bun:"torque" json:"torque,omitempty"`
	RunTime   *float64  `bun:"run_time" json:"run_time,omitempty"`
}

// Metric returns the named metric value of the reference run, or nil.
func (r *ReferenceRun) Metric(name string) *float64 {
	switch name {
	case "current":
		return r.Current
	case "voltage":
		return r.Voltage
	case "rpm":
		return r.RPM
	case "vibration":
		return r.Vibration
	case "temp":
		return r.Temp
	case "torque":
		return r.Torque
	case "run_time":
		return r.RunTime
	default:
		return nil
	}
}

// MalfunctionLog is one entry in the motor's malfunction/event log.
// INFO entries double as run markers: "motor retracting", "motor extending"
// and "end position reached" descriptions delimit motor runs.
type MalfunctionLog struct {
	bun.BaseModel `bun:"table:malfunction_logs" json:"-"`

	ID                  int64     `bun:"id,pk,autoincrement" json:"id"`
	Timestamp           time.Time `bun:"timestamp,notnull" json:"timestamp"`
	Severity            Severity  `bun:"severity,notnull" json:"severity"`
	Description         string    `bun:"description,notnull" json:"description"`
	MotorState          string    `bun:"motor_state" json:"motor_state"`
	EmergencyStopActive bool      `bun:"emergency_stop_active,notnull,default:false" json:"emergency_stop_active"`
	Acknowledged        bool      `bun:"acknowledged,notnull,default:false" json:"acknowledged"`
}
