// Motorscope - Industrial Motor Monitoring and Digital Twin Dashboard
// Copyright 2026 The Motorscope Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/motorlab/motorscope

package database

import (
	"context"
	"errors"
	"time"

	"github.com/motorlab/motorscope/internal/models"
)

// GetMotorInfo returns the motor metadata row, or ErrNotFound when the
// deployment has not been provisioned yet.
func (s *Store) GetMotorInfo(ctx context.Context) (_ *models.MotorInfo, err error) {
	defer func(start time.Time) { observe("get_motor_info", start, err) }(time.Now())

	info := new(models.MotorInfo)
	err = s.db.NewSelect().Model(info).
		Order("id ASC").
		Limit(1).
		Scan(ctx)
	if err != nil {
		return nil, mapErr(err)
	}
	return info, nil
}

// UpsertMotorInfo creates or replaces the single motor metadata row.
func (s *Store) UpsertMotorInfo(ctx context.Context, info *models.MotorInfo) (err error) {
	defer func(start time.Time) { observe("upsert_motor_info", start, err) }(time.Now())

	existing, err := s.GetMotorInfo(ctx)
	switch {
	case errors.Is(err, ErrNotFound):
		_, err = s.db.NewInsert().Model(info).Exec(ctx)
		return err
	case err != nil:
		return err
	}

	info.ID = existing.ID
	_, err = s.db.NewUpdate().Model(info).WherePK().Exec(ctx)
	return err
}

// IncrementMotorCycles adds one completed cycle to the motor metadata.
// A cycle is counted when a run reaches its end position.
func (s *Store) IncrementMotorCycles(ctx context.Context) (err error) {
	defer func(start time.Time) { observe("increment_motor_cycles", start, err) }(time.Now())

	res, err := s.db.NewUpdate().Model((*models.MotorInfo)(nil)).
		Set("cycles = cycles + 1").
		Where("1 = 1").
		Exec(ctx)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}
