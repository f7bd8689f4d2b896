// Motorscope - Industrial Motor Monitoring and Digital Twin Dashboard
// Copyright 2026 The Motorscope Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/motorlab/motorscope

// Package database is the relational store for Motorscope. It persists
// telemetry readings, reference runs, the malfunction log and motor
// metadata through Bun, on SQLite (default, pure Go) or PostgreSQL.
package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	_ "modernc.org/sqlite"

	"github.com/motorlab/motorscope/internal/config"
	"github.com/motorlab/motorscope/internal/metrics"
	"github.com/motorlab/motorscope/internal/models"
)

// ErrNotFound is returned when a requested row does not exist.
var ErrNotFound = errors.New("not found")

// Store wraps the Bun database handle and exposes typed queries for the
// Motorscope domain.
type Store struct {
	db *bun.DB
}

// Open connects to the configured database, verifies the connection and
// creates missing tables.
func Open(ctx context.Context, cfg config.DatabaseConfig) (*Store, error) {
	var db *bun.DB

	switch cfg.Driver {
	case "sqlite":
		sqldb, err := sql.Open("sqlite", cfg.DSN)
		if err != nil {
			return nil, fmt.Errorf("opening sqlite database: %w", err)
		}
		// In-memory SQLite loses its schema when the last connection
		// closes, so pin the pool to a single connection.
		if strings.Contains(cfg.DSN, ":memory:") {
			sqldb.SetMaxOpenConns(1)
		}
		db = bun.NewDB(sqldb, sqlitedialect.New())

	case "postgres":
		sqldb, err := sql.Open("pgx", cfg.DSN)
		if err != nil {
			return nil, fmt.Errorf("opening postgres database: %w", err)
		}
		db = bun.NewDB(sqldb, pgdialect.New())

	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}

	s := &Store{db: db}

	if err := s.Ping(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}
	if err := s.createSchema(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	return s, nil
}

func (s *Store) createSchema(ctx context.Context) error {
	tables := []any{
		(*models.MotorInfo)(nil),
		(*models.Reading)(nil),
		(*models.ReferenceRun)(nil),
		(*models.MalfunctionLog)(nil),
	}
	for _, table := range tables {
		if _, err := s.db.NewCreateTable().Model(table).IfNotExists().Exec(ctx); err != nil {
			return err
		}
	}
	return nil
}

// Ping verifies database connectivity.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close releases the underlying connection pool.
func (s *Store) Close() error {
	return s.db.Close()
}

// observe records metrics for a store operation. Callers defer it with
// the operation start time and the outgoing error.
func observe(operation string, start time.Time, err error) {
	status := "ok"
	if err != nil && !errors.Is(err, ErrNotFound) {
		status = "error"
	}
	metrics.DBOperationsTotal.WithLabelValues(operation, status).Inc()
	metrics.DBOperationDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
}

// mapErr converts driver sentinel errors to package sentinels.
func mapErr(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	return err
}
