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

// InsertReferenceRun persists one reference run.
func (s *Store) InsertReferenceRun(ctx context.Context, run *models.ReferenceRun) (err error) {
	defer func(start time.Time) { observe("insert_reference_run", start, err) }(time.Now())

	_, err = s.db.NewInsert().Model(run).Exec(ctx)
	return err
}

// ListReferenceRuns returns all reference runs, newest first.
func (s *Store) ListReferenceRuns(ctx context.Context) (_ []models.ReferenceRun, err error) {
	defer func(start time.Time) { observe("list_reference_runs", start, err) }(time.Now())

	var runs []models.ReferenceRun
	err = s.db.NewSelect().Model(&runs).
		Order("timestamp DESC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return runs, nil
}

// ValidReferenceRuns returns only the runs marked valid. The twin's
// expected values are the per-metric means over this set.
func (s *Store) ValidReferenceRuns(ctx context.Context) (_ []models.ReferenceRun, err error) {
	defer func(start time.Time) { observe("valid_reference_runs", start, err) }(time.Now())

	var runs []models.ReferenceRun
	err = s.db.NewSelect().Model(&runs).
		Where("is_valid = ?", true).
		Order("timestamp DESC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return runs, nil
}

// SetReferenceRunValidity marks a run valid or invalid. ErrNotFound when
// the id does not exist.
func (s *Store) SetReferenceRunValidity(ctx context.Context, id int64, valid bool) (err error) {
	defer func(start time.Time) { observe("set_reference_run_validity", start, err) }(time.Now())

	res, err := s.db.NewUpdate().Model((*models.ReferenceRun)(nil)).
		Set("is_valid = ?", valid).
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

// DeleteReferenceRun removes one run. ErrNotFound when the id does not
// exist.
func (s *Store) DeleteReferenceRun(ctx context.Context, id int64) (err error) {
	defer func(start time.Time) { observe("delete_reference_run", start, err) }(time.Now())

	res, err := s.db.NewDelete().Model((*models.ReferenceRun)(nil)).
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
