// Motorscope - Industrial Motor Monitoring and Digital Twin Dashboard
// Copyright 2026 The Motorscope Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/motorlab/motorscope

package database

import (
	"context"
	"time"

	"github.com/motorlab/motorscope/internal/models"
)

// InsertReading persists one telemetry sample.
func (s *Store) InsertReading(ctx context.Context, r *models.Reading) (err error) {
	defer func(start time.Time) { observe("insert_reading", start, err) }(time.Now())

	_, err = s.db.NewInsert().Model(r).Exec(ctx)
	return err
}

// LatestReading returns the most recent sample of a stream, or
// ErrNotFound when the stream has no data yet.
func (s *Store) LatestReading(ctx context.Context, stream models.Stream) (_ *models.Reading, err error) {
	defer func(start time.Time) { observe("latest_reading", start, err) }(time.Now())

	r := new(models.Reading)
	err = s.db.NewSelect().Model(r).
		Where("stream = ?", stream).
		Order("timestamp DESC").
		Limit(1).
		Scan(ctx)
	if err != nil {
		return nil, mapErr(err)
	}
	return r, nil
}

// ReadingsInRange returns a stream's samples with start <= timestamp,
// ordered by timestamp ascending. A nil end means up to now.
func (s *Store) ReadingsInRange(ctx context.Context, stream models.Stream, start time.Time, end *time.Time) (_ []models.Reading, err error) {
	defer func(t time.Time) { observe("readings_in_range", t, err) }(time.Now())

	q := s.db.NewSelect().Model((*models.Reading)(nil)).
		Where("stream = ?", stream).
		Where("timestamp >= ?", start)
	if end != nil {
		q = q.Where("timestamp <= ?", *end)
	}

	var readings []models.Reading
	if err = q.Order("timestamp ASC").Scan(ctx, &readings); err != nil {
		return nil, err
	}
	return readings, nil
}

// PruneReadings deletes samples older than the cutoff and returns how
// many rows were removed. Long-running deployments on small disks call
// this periodically.
func (s *Store) PruneReadings(ctx context.Context, cutoff time.Time) (_ int64, err error) {
	defer func(start time.Time) { observe("prune_readings", start, err) }(time.Now())

	res, err := s.db.NewDelete().Model((*models.Reading)(nil)).
		Where("timestamp < ?", cutoff).
		Exec(ctx)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
