// Motorscope - Industrial Motor Monitoring and Digital Twin Dashboard
// Copyright 2026 The Motorscope Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/motorlab/motorscope

package api

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/motorlab/motorscope/internal/config"
	"github.com/motorlab/motorscope/internal/logging"
)

const shutdownTimeout = 10 * time.Second

// Server runs the HTTP listener and shuts it down when the context is
// canceled. It implements the supervisor service contract.
type Server struct {
	srv  *http.Server
	addr string
}

// NewServer creates the HTTP server around the given handler.
func NewServer(cfg config.ServerConfig, handler http.Handler) *Server {
	addr := net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port))
	return &Server{
		addr: addr,
		srv: &http.Server{
			Addr:              addr,
			Handler:           handler,
			ReadHeaderTimeout: cfg.Timeout,
			ReadTimeout:       cfg.Timeout,
			// No WriteTimeout: WebSocket connections are long-lived.
			IdleTimeout: 120 * time.Second,
		},
	}
}

// Serve blocks until the listener fails or the context is canceled.
func (s *Server) Serve(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		logging.Info().Str("addr", s.addr).Msg("http server listening")
		errCh <- s.srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := s.srv.Shutdown(shutdownCtx); err != nil {
			logging.Error().Err(err).Msg("http server shutdown failed")
			_ = s.srv.Close()
		}
		logging.Info().Msg("http server stopped")
		return ctx.Err()
	}
}

func (s *Server) String() string { return "http-server" }
