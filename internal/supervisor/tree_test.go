// Motorscope - Industrial Motor Monitoring and Digital Twin Dashboard
// Copyright 2026 The Motorscope Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/motorlab/motorscope

package supervisor

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/motorlab/motorscope/internal/logging"
)

type blockingService struct {
	started atomic.Int32
}

func (s *blockingService) Serve(ctx context.Context) error {
	s.started.Add(1)
	<-ctx.Done()
	return ctx.Err()
}

func (s *blockingService) String() string { return "blocking-service" }

func TestTreeStartsAndStopsServices(t *testing.T) {
	tree := NewTree(logging.NewSlogLogger(), DefaultTreeConfig())

	ingestSvc := &blockingService{}
	messagingSvc := &blockingService{}
	apiSvc := &blockingService{}
	tree.AddIngestService(ingestSvc)
	tree.AddMessagingService(messagingSvc)
	tree.AddAPIService(apiSvc)

	ctx, cancel := context.WithCancel(context.Background())
	errCh := tree.ServeBackground(ctx)

	deadline := time.After(2 * time.Second)
	for ingestSvc.started.Load() == 0 || messagingSvc.started.Load() == 0 || apiSvc.started.Load() == 0 {
		select {
		case <-deadline:
			t.Fatal("services did not start in time")
		case <-time.After(10 * time.Millisecond):
		}
	}

	cancel()
	select {
	case <-errCh:
	case <-time.After(2 * time.Second):
		t.Fatal("tree did not stop after cancel")
	}
}

func TestTreeRestartsCrashedService(t *testing.T) {
	cfg := DefaultTreeConfig()
	cfg.FailureBackoff = 10 * time.Millisecond
	tree := NewTree(logging.NewSlogLogger(), cfg)

	var starts atomic.Int32
	crasher := &crashingService{starts: &starts}
	tree.AddMessagingService(crasher)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	errCh := tree.ServeBackground(ctx)

	deadline := time.After(2 * time.Second)
	for starts.Load() < 2 {
		select {
		case <-deadline:
			t.Fatalf("service restarted %d times, want >= 2", starts.Load())
		case <-time.After(10 * time.Millisecond):
		}
	}

	cancel()
	<-errCh
}

type crashingService struct {
	starts *atomic.Int32
}

func (s *crashingService) Serve(ctx context.Context) error {
	if s.starts.Add(1) <= 2 {
		return context.DeadlineExceeded
	}
	<-ctx.Done()
	return ctx.Err()
}

func (s *crashingService) String() string { return "crashing-service" }

func TestRunnerServiceDelegates(t *testing.T) {
	var ran atomic.Bool
	svc := NewRunnerService(runnerFunc(func(ctx context.Context) error {
		ran.Store(true)
		<-ctx.Done()
		return ctx.Err()
	}), "test-runner")

	if svc.String() != "test-runner" {
		t.Errorf("String() = %q, want test-runner", svc.String())
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- svc.Serve(ctx) }()

	deadline := time.After(time.Second)
	for !ran.Load() {
		select {
		case <-deadline:
			t.Fatal("runner did not start")
		case <-time.After(5 * time.Millisecond):
		}
	}
	cancel()
	if err := <-done; err != context.Canceled {
		t.Errorf("Serve returned %v, want context.Canceled", err)
	}
}

type runnerFunc func(ctx context.Context) error

func (f runnerFunc) Run(ctx context.Context) error { return f(ctx) }
