// Motorscope - Industrial Motor Monitoring and Digital Twin Dashboard
// Copyright 2026 The Motorscope Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/motorlab/motorscope

package supervisor

import (
	"context"
)

// ContextHub matches *websocket.Hub's RunWithContext method without
// importing the websocket package.
type ContextHub interface {
	RunWithContext(ctx context.Context) error
}

// HubService wraps the WebSocket hub as a supervised service.
type HubService struct {
	hub ContextHub
}

// NewHubService creates the hub wrapper.
func NewHubService(hub ContextHub) *HubService {
	return &HubService{hub: hub}
}

// Serve implements suture.Service.
func (s *HubService) Serve(ctx context.Context) error {
	return s.hub.RunWithContext(ctx)
}

func (s *HubService) String() string { return "websocket-hub" }

// Runner matches components exposing Run(ctx), such as the bus
// subscriber that feeds the hub.
type Runner interface {
	Run(ctx context.Context) error
}

// RunnerService adapts a Runner to suture.Service under a fixed name.
type RunnerService struct {
	runner Runner
	name   string
}

// NewRunnerService creates the wrapper.
func NewRunnerService(runner Runner, name string) *RunnerService {
	return &RunnerService{runner: runner, name: name}
}

// Serve implements suture.Service.
func (s *RunnerService) Serve(ctx context.Context) error {
	return s.runner.Run(ctx)
}

func (s *RunnerService) String() string { return s.name }
