// Motorscope - Industrial Motor Monitoring and Digital Twin Dashboard
// Copyright 2026 The Motorscope Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/motorlab/motorscope

// Package dashboard assembles the data served to the web dashboard: the
// combined panel snapshot, chart series for a time window, and
// incremental live-plot points.
package dashboard

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/motorlab/motorscope/internal/database"
	"github.com/motorlab/motorscope/internal/models"
	"github.com/motorlab/motorscope/internal/twin"
)

// DefaultWindow is the chart lookback used when a client does not
// request a specific range.
const DefaultWindow = 10 * time.Minute

// logDisplayLimit caps the malfunction entries embedded in a panel
// snapshot. The full log is available through the REST API.
const logDisplayLimit = 5

// Store is the subset of the database used by this package.
type Store interface {
	LatestReading(ctx context.Context, stream models.Stream) (*models.Reading, error)
	ReadingsInRange(ctx context.Context, stream models.Stream, start time.Time, end *time.Time) ([]models.Reading, error)
	RecentMalfunctions(ctx context.Context, limit int) ([]models.MalfunctionLog, error)
	GetMotorInfo(ctx context.Context) (*models.MotorInfo, error)
	ValidReferenceRuns(ctx context.Context) ([]models.ReferenceRun, error)
	CountInfoContaining(ctx context.Context, substr string) (int, error)
	LatestInfoContainingAny(ctx context.Context, substrs []string) (*models.MalfunctionLog, error)
	FirstInfoContainingSince(ctx context.Context, substr string, since time.Time) (*models.MalfunctionLog, error)
}

// Service builds dashboard payloads from the store.
type Service struct {
	store     Store
	freshness time.Duration
}

// NewService returns a dashboard service. Live metrics older than the
// freshness duration are reported as unavailable.
func NewService(store Store, freshness time.Duration) *Service {
	return &Service{store: store, freshness: freshness}
}

// Data builds the combined panel snapshot: motor metadata, latest live
// metrics, twin setpoints from the newest valid reference run, cycle
// counters and the most recent log entries. The anomaly status is a
// placeholder; live status arrives over the WebSocket with each ingest
// cycle.
func (s *Service) Data(ctx context.Context, now time.Time) (*models.DashboardData, error) {
	data := &models.DashboardData{
		LiveMetrics: emptyMetrics(),
		TwinMetrics: emptyMetrics(),
		AnomalyStatus: models.AnomalyStatus{
			Detected: false,
			Message:  "Waiting for status update...",
		},
	}

	info, err := s.store.GetMotorInfo(ctx)
	switch {
	case errors.Is(err, database.ErrNotFound):
		data.MotorInfo = &models.MotorInfo{
			Name:        "Unknown motor",
			Description: "No motor information found.",
		}
	case err != nil:
		return nil, fmt.Errorf("loading motor info: %w", err)
	default:
		data.MotorInfo = info
	}

	live, err := s.store.LatestReading(ctx, models.StreamLive)
	if err != nil && !errors.Is(err, database.ErrNotFound) {
		return nil, fmt.Errorf("loading latest live reading: %w", err)
	}
	if live != nil && now.Sub(live.Timestamp) <= s.freshness {
		fillMetrics(data.LiveMetrics, live.Metric)
	}

	// The twin panel shows setpoints from the newest valid reference
	// run; twin readings feed the charts instead.
	runs, err := s.store.ValidReferenceRuns(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading reference runs: %w", err)
	}
	if len(runs) > 0 {
		fillMetrics(data.TwinMetrics, runs[0].Metric)
	}

	retracted, err := s.store.CountInfoContaining(ctx, twin.RetractMarker)
	if err != nil {
		return nil, fmt.Errorf("counting retract markers: %w", err)
	}
	extended, err := s.store.CountInfoContaining(ctx, twin.ExtendMarker)
	if err != nil {
		return nil, fmt.Errorf("counting extend markers: %w", err)
	}
	data.RetractCount = retracted
	data.ExtendCount = extended

	logs, err := s.store.RecentMalfunctions(ctx, logDisplayLimit)
	if err != nil {
		return nil, fmt.Errorf("loading recent malfunctions: %w", err)
	}
	data.MalfunctionLogs = logs

	return data, nil
}

// PlotRange returns chart series for both streams between start and end.
// A nil end means up to now. Points are ordered by timestamp; metrics a
// sample did not report are skipped.
func (s *Service) PlotRange(ctx context.Context, start time.Time, end *time.Time) (*models.PlotData, error) {
	data := &models.PlotData{
		Live: emptySeries(),
		Twin: emptySeries(),
	}

	for stream, series := range map[models.Stream]models.PlotSeries{
		models.StreamLive: data.Live,
		models.StreamTwin: data.Twin,
	} {
		readings, err := s.store.ReadingsInRange(ctx, stream, start, end)
		if err != nil {
			return nil, fmt.Errorf("loading %s readings: %w", stream, err)
		}
		for i := range readings {
			appendPoints(series, &readings[i])
		}
	}

	return data, nil
}

// LatestPoint returns the newest sample of each stream as an incremental
// plot update. Streams without data contribute an empty map.
func (s *Service) LatestPoint(ctx context.Context) (*models.PlotPointUpdate, error) {
	update := &models.PlotPointUpdate{
		Live: make(map[string]models.PlotPoint),
		Twin: make(map[string]models.PlotPoint),
	}

	for stream, points := range map[models.Stream]map[string]models.PlotPoint{
		models.StreamLive: update.Live,
		models.StreamTwin: update.Twin,
	} {
		r, err := s.store.LatestReading(ctx, stream)
		if errors.Is(err, database.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("loading latest %s reading: %w", stream, err)
		}
		ts := r.Timestamp.Format(time.RFC3339)
		for _, name := range models.PlotMetrics {
			if v := r.Metric(name); v != nil {
				points[name] = models.PlotPoint{X: ts, Y: *v}
			}
		}
	}

	return update, nil
}

// ActiveRunWindow returns the time window of the most recent motor run
// reconstructed from the malfunction log.
func (s *Service) ActiveRunWindow(ctx context.Context) (models.TimeWindow, error) {
	return twin.ActiveRunWindow(ctx, s.store)
}

func emptyMetrics() map[string]models.MetricValue {
	m := make(map[string]models.MetricValue, len(models.MetricNames))
	for _, name := range models.MetricNames {
		m[name] = models.MetricValue{Unit: models.MetricUnits[name]}
	}
	return m
}

func fillMetrics(m map[string]models.MetricValue, metric func(string) *float64) {
	for _, name := range models.MetricNames {
		m[name] = models.MetricValue{
			Value: metric(name),
			Unit:  models.MetricUnits[name],
		}
	}
}

func emptySeries() models.PlotSeries {
	series := make(models.PlotSeries, len(models.PlotMetrics))
	for _, name := range models.PlotMetrics {
		series[name] = []models.PlotPoint{}
	}
	return series
}

func appendPoints(series models.PlotSeries, r *models.Reading) {
	ts := r.Timestamp.Format(time.RFC3339)
	for _, name := range models.PlotMetrics {
		if v := r.Metric(name); v != nil {
			series[name] = append(series[name], models.PlotPoint{X: ts, Y: *v})
		}
	}
}
