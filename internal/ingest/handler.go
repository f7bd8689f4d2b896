// Motorscope - Industrial Motor Monitoring and Digital Twin Dashboard
// Copyright 2026 The Motorscope Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/motorlab/motorscope

package ingest

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"github.com/motorlab/motorscope/internal/bus"
	"github.com/motorlab/motorscope/internal/database"
	"github.com/motorlab/motorscope/internal/logging"
	"github.com/motorlab/motorscope/internal/metrics"
	"github.com/motorlab/motorscope/internal/models"
	"github.com/motorlab/motorscope/internal/twin"
)

// telemetryPayload is the JSON body published on the live and twin
// topics. Absent metrics stay nil and are stored as NULL.
type telemetryPayload struct {
	Current   *float64 `json:"current"`
	Voltage   *float64 `json:"voltage"`
	RPM       *float64 `json:"rpm"`
	Vibration *float64 `json:"vibration"`
	Temp      *float64 `json:"temp"`
	Torque    *float64 `json:"torque"`
	RunTime   *float64 `json:"run_time"`
}

// malfunctionPayload is the JSON body published on the malfunction
// topics. The severity of the topic wins when message_type is absent.
type malfunctionPayload struct {
	MessageType         string `json:"message_type"`
	Description         string `json:"description"`
	MotorState          string `json:"motor_state"`
	EmergencyStopActive bool   `json:"emergency_stop_active"`
}

// handleMessage dispatches one MQTT message by topic, then refreshes
// the dashboard: every message ends with an anomaly evaluation and a
// dashboard update on the bus.
func (c *Consumer) handleMessage(ctx context.Context, topic string, payload []byte) {
	kind := c.topicKind(topic)
	metrics.MQTTMessagesTotal.WithLabelValues(kind).Inc()

	switch topic {
	case c.cfg.TopicLive:
		c.handleTelemetry(ctx, kind, payload, models.StreamLive)
	case c.cfg.TopicTwin:
		c.handleTelemetry(ctx, kind, payload, models.StreamTwin)
	case c.cfg.TopicMalfunctionInfo:
		c.handleMalfunction(ctx, payload, models.SeverityInfo)
	case c.cfg.TopicMalfunctionWarning:
		c.handleMalfunction(ctx, payload, models.SeverityWarning)
	case c.cfg.TopicMalfunctionError:
		c.handleMalfunction(ctx, payload, models.SeverityError)
	case c.cfg.TopicRawTemperature, c.cfg.TopicRawCurrent, c.cfg.TopicRawTorque,
		c.cfg.TopicFeatureTemperature, c.cfg.TopicFeatureCurrent, c.cfg.TopicFeatureTorque,
		c.cfg.TopicPredictionTemperature, c.cfg.TopicPredictionCurrent, c.cfg.TopicPredictionTorque:
		// Edge pipeline topics are acknowledged but not persisted yet.
		logging.Debug().Str("topic", topic).Int("bytes", len(payload)).Msg("edge pipeline message received")
	default:
		logging.Info().Str("topic", topic).Msg("message on unrecognized topic")
		return
	}

	c.processAndNotify(ctx)
}

// topicKind buckets topics for metrics labels.
func (c *Consumer) topicKind(topic string) string {
	switch topic {
	case c.cfg.TopicLive:
		return "live"
	case c.cfg.TopicTwin:
		return "twin"
	case c.cfg.TopicMalfunctionInfo, c.cfg.TopicMalfunctionWarning, c.cfg.TopicMalfunctionError:
		return "malfunction"
	case c.cfg.TopicRawTemperature, c.cfg.TopicRawCurrent, c.cfg.TopicRawTorque:
		return "raw"
	case c.cfg.TopicFeatureTemperature, c.cfg.TopicFeatureCurrent, c.cfg.TopicFeatureTorque:
		return "feature"
	case c.cfg.TopicPredictionTemperature, c.cfg.TopicPredictionCurrent, c.cfg.TopicPredictionTorque:
		return "prediction"
	default:
		return "unknown"
	}
}

func (c *Consumer) handleTelemetry(ctx context.Context, kind string, payload []byte, stream models.Stream) {
	var body telemetryPayload
	if err := json.Unmarshal(payload, &body); err != nil {
		metrics.MQTTDecodeErrorsTotal.WithLabelValues(kind).Inc()
		logging.Error().Err(err).Str("stream", string(stream)).Msg("failed to decode telemetry payload")
		return
	}

	reading := &models.Reading{
		Stream:    stream,
		Timestamp: time.Now().UTC(),
		Current:   body.Current,
		Voltage:   body.Voltage,
		RPM:       body.RPM,
		Vibration: body.Vibration,
		Temp:      body.Temp,
		Torque:    body.Torque,
		RunTime:   body.RunTime,
	}

	if err := c.insertGated(func() error { return c.store.InsertReading(ctx, reading) }); err != nil {
		logging.Error().Err(err).Str("stream", string(stream)).Msg("failed to persist reading")
		return
	}

	c.publishPlotPoint(ctx)
}

func (c *Consumer) handleMalfunction(ctx context.Context, payload []byte, severity models.Severity) {
	var body malfunctionPayload
	if err := json.Unmarshal(payload, &body); err != nil {
		metrics.MQTTDecodeErrorsTotal.WithLabelValues("malfunction").Inc()
		logging.Error().Err(err).Msg("failed to decode malfunction payload")
		return
	}

	if body.MessageType != "" {
		severity = models.Severity(strings.ToUpper(body.MessageType))
	}
	motorState := body.MotorState
	if motorState == "" {
		motorState = "unknown"
	}

	entry := &models.MalfunctionLog{
		Timestamp:           time.Now().UTC(),
		Severity:            severity,
		Description:         body.Description,
		MotorState:          motorState,
		EmergencyStopActive: body.EmergencyStopActive,
	}

	if err := c.insertGated(func() error { return c.store.InsertMalfunction(ctx, entry) }); err != nil {
		logging.Error().Err(err).Msg("failed to persist malfunction log")
		return
	}
	metrics.MalfunctionLogsTotal.WithLabelValues(string(severity)).Inc()

	// A completed run bumps the motor's cycle counter.
	if severity == models.SeverityInfo && strings.Contains(strings.ToLower(body.Description), twin.RunEndMarker) {
		if err := c.store.IncrementMotorCycles(ctx); err != nil && !errors.Is(err, database.ErrNotFound) {
			logging.Error().Err(err).Msg("failed to increment motor cycles")
		}
	}

	logging.Info().
		Str("severity", string(severity)).
		Str("description", body.Description).
		Msg("malfunction log recorded")
}

// publishPlotPoint puts the newest sample pair on the bus for clients in
// live mode.
func (c *Consumer) publishPlotPoint(ctx context.Context) {
	point, err := c.dashboard.LatestPoint(ctx)
	if err != nil {
		logging.Error().Err(err).Msg("failed to load latest plot point")
		return
	}
	if !point.HasData() {
		return
	}
	if err := c.bus.Publish(bus.TopicPlotPoint, point); err != nil {
		logging.Error().Err(err).Msg("failed to publish plot point")
	}
}

// processAndNotify runs anomaly detection on the latest sample pair,
// persists any state-transition logs and publishes a full dashboard
// snapshot on the bus.
func (c *Consumer) processAndNotify(ctx context.Context) {
	now := time.Now().UTC()

	live, err := c.store.LatestReading(ctx, models.StreamLive)
	if err != nil && !errors.Is(err, database.ErrNotFound) {
		logging.Error().Err(err).Msg("failed to load latest live reading")
		return
	}
	twinReading, err := c.store.LatestReading(ctx, models.StreamTwin)
	if err != nil && !errors.Is(err, database.ErrNotFound) {
		logging.Error().Err(err).Msg("failed to load latest twin reading")
		return
	}

	result := c.engine.Evaluate(live, twinReading, now)

	for i := range result.NewLogs {
		entry := result.NewLogs[i]
		if err := c.insertGated(func() error { return c.store.InsertMalfunction(ctx, &entry) }); err != nil {
			logging.Error().Err(err).Msg("failed to persist anomaly transition log")
		} else {
			metrics.MalfunctionLogsTotal.WithLabelValues(string(entry.Severity)).Inc()
		}
	}

	// Recent ERROR logs override deviation warnings on the dashboard.
	errorLogs, err := c.store.RecentErrorsSince(ctx, now.Add(-c.detectCfg.ErrorLookback))
	if err != nil {
		logging.Error().Err(err).Msg("failed to load recent error logs")
	} else if len(errorLogs) > 0 {
		result.OverrideCritical(errorLogs[0].Description)
	}

	data, err := c.dashboard.Data(ctx, now)
	if err != nil {
		logging.Error().Err(err).Msg("failed to assemble dashboard data")
		return
	}
	data.AnomalyStatus = models.AnomalyStatus{
		Detected: result.Detected,
		Message:  result.Message,
	}

	if err := c.bus.Publish(bus.TopicDashboardUpdate, data); err != nil {
		logging.Error().Err(err).Msg("failed to publish dashboard update")
	}
}
