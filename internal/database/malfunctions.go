// Motorscope - Industrial Motor Monitoring and Digital Twin Dashboard
// Copyright 2026 The Motorscope Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/motorlab/motorscope

package database

import (
	"context"
	"strings"
	"time"

	"github.com/uptrace/bun"

	"github.com/motorlab/motorscope/internal/models"
)

// InsertMalfunction persists one malfunction log entry.
func (s *Store) InsertMalfunction(ctx context.Context, entry *models.MalfunctionLog) (err error) {
	defer func(start time.Time) { observe("insert_malfunction", start, err) }(time.Now())

	_, err = s.db.NewInsert().Model(entry).Exec(ctx)
	return err
}

// RecentMalfunctions returns the newest entries, newest first.
func (s *Store) RecentMalfunctions(ctx context.Context, limit int) (_ []models.MalfunctionLog, err error) {
	defer func(start time.Time) { observe("recent_malfunctions", start, err) }(time.Now())

	var logs []models.MalfunctionLog
	err = s.db.NewSelect().Model(&logs).
		Order("timestamp DESC").
		Limit(limit).
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return logs, nil
}

// UnacknowledgedMalfunctions returns up to limit entries not yet
// acknowledged, newest first.
func (s *Store) UnacknowledgedMalfunctions(ctx context.Context, limit int) (_ []models.MalfunctionLog, err error) {
	defer func(start time.Time) { observe("unacknowledged_malfunctions", start, err) }(time.Now())

	var logs []models.MalfunctionLog
	err = s.db.NewSelect().Model(&logs).
		Where("acknowledged = ?", false).
		Order("timestamp DESC").
		Limit(limit).
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return logs, nil
}

// AcknowledgeMalfunction marks one entry as acknowledged. ErrNotFound
// when the id does not exist.
func (s *Store) AcknowledgeMalfunction(ctx context.Context, id int64) (err error) {
	defer func(start time.Time) { observe("acknowledge_malfunction", start, err) }(time.Now())

	res, err := s.db.NewUpdate().Model((*models.MalfunctionLog)(nil)).
		Set("acknowledged = ?", true).
		Where("id = ?", id).
		Exec(ctx)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteMalfunction removes one entry. ErrNotFound when the id does not
// exist.
func (s *Store) DeleteMalfunction(ctx context.Context, id int64) (err error) {
	defer func(start time.Time) { observe("delete_malfunction", start, err) }(time.Now())

	res, err := s.db.NewDelete().Model((*models.MalfunctionLog)(nil)).
		Where("id = ?", id).
		Exec(ctx)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// CountInfoContaining counts INFO entries whose description contains the
// substring, case-insensitively. Used for the retract/extend cycle
// counters on the dashboard.
func (s *Store) CountInfoContaining(ctx context.Context, substr string) (_ int, err error) {
	defer func(start time.Time) { observe("count_info_containing", start, err) }(time.Now())

	return s.db.NewSelect().Model((*models.MalfunctionLog)(nil)).
		Where("severity = ?", models.SeverityInfo).
		Where("lower(description) LIKE ?", "%"+strings.ToLower(substr)+"%").
		Count(ctx)
}

// LatestInfoContainingAny returns the newest INFO entry whose description
// contains any of the substrings, or ErrNotFound. This anchors the start
// of the active run window.
func (s *Store) LatestInfoContainingAny(ctx context.Context, substrs []string) (_ *models.MalfunctionLog, err error) {
	defer func(start time.Time) { observe("latest_info_containing", start, err) }(time.Now())

	q := s.db.NewSelect().Model((*models.MalfunctionLog)(nil)).
		Where("severity = ?", models.SeverityInfo)
	q = q.WhereGroup(" AND ", func(q *bun.SelectQuery) *bun.SelectQuery {
		for _, sub := range substrs {
			q = q.WhereOr("lower(description) LIKE ?", "%"+strings.ToLower(sub)+"%")
		}
		return q
	})

	entry := new(models.MalfunctionLog)
	err = q.Order("timestamp DESC").Limit(1).Scan(ctx, entry)
	if err != nil {
		return nil, mapErr(err)
	}
	return entry, nil
}

// FirstInfoContainingSince returns the oldest INFO entry at or after the
// given time whose description contains the substring, or ErrNotFound.
// This anchors the end of the active run window.
func (s *Store) FirstInfoContainingSince(ctx context.Context, substr string, since time.Time) (_ *models.MalfunctionLog, err error) {
	defer func(start time.Time) { observe("first_info_containing", start, err) }(time.Now())

	entry := new(models.MalfunctionLog)
	err = s.db.NewSelect().Model(entry).
		Where("severity = ?", models.SeverityInfo).
		Where("lower(description) LIKE ?", "%"+strings.ToLower(substr)+"%").
		Where("timestamp >= ?", since).
		Order("timestamp ASC").
		Limit(1).
		Scan(ctx)
	if err != nil {
		return nil, mapErr(err)
	}
	return entry, nil
}

// RecentErrorsSince returns ERROR entries at or after the given time,
// newest first. The anomaly status message surfaces these over generic
// deviation warnings.
func (s *Store) RecentErrorsSince(ctx context.Context, since time.Time) (_ []models.MalfunctionLog, err error) {
	defer func(start time.Time) { observe("recent_errors_since", start, err) }(time.Now())

	var logs []models.MalfunctionLog
	err = s.db.NewSelect().Model(&logs).
		Where("severity = ?", models.SeverityError).
		Where("timestamp >= ?", since).
		Order("timestamp DESC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return logs, nil
}
