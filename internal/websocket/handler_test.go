// Motorscope - Industrial Motor Monitoring and Digital Twin Dashboard
// Copyright 2026 The Motorscope Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/motorlab/motorscope

package websocket

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/motorlab/motorscope/internal/models"
)

// fakeProvider returns canned dashboard data for protocol tests.
type fakeProvider struct {
	plotCalls chan plotCall
}

type plotCall struct {
	start time.Time
	end   *time.Time
}

func newFakeProvider() *fakeProvider {
	return &fakeProvider{plotCalls: make(chan plotCall, 8)}
}

func (p *fakeProvider) Data(ctx context.Context, now time.Time) (*models.DashboardData, error) {
	return &models.DashboardData{
		MotorInfo:     &models.MotorInfo{Name: "Test motor"},
		AnomalyStatus: models.AnomalyStatus{Message: "Waiting for status update..."},
	}, nil
}

func (p *fakeProvider) PlotRange(ctx context.Context, start time.Time, end *time.Time) (*models.PlotData, error) {
	p.plotCalls <- plotCall{start: start, end: end}
	return &models.PlotData{
		Live: models.PlotSeries{"current": {{X: start.Format(time.RFC3339), Y: 1.0}}},
		Twin: models.PlotSeries{},
	}, nil
}

func (p *fakeProvider) LatestPoint(ctx context.Context) (*models.PlotPointUpdate, error) {
	return &models.PlotPointUpdate{}, nil
}

func (p *fakeProvider) ActiveRunWindow(ctx context.Context) (models.TimeWindow, error) {
	return models.TimeWindow{}, nil
}

func dialTestServer(t *testing.T) (*websocket.Conn, *fakeProvider) {
	t.Helper()

	hub := NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	go func() { _ = hub.RunWithContext(ctx) }()
	t.Cleanup(cancel)

	provider := newFakeProvider()
	srv := httptest.NewServer(NewHandler(hub, provider))
	t.Cleanup(srv.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dialing test server: %v", err)
	}
	if resp.Body != nil {
		_ = resp.Body.Close()
	}
	t.Cleanup(func() { _ = conn.Close() })

	return conn, provider
}

func readFrame(t *testing.T, conn *websocket.Conn) map[string]any {
	t.Helper()
	if err := conn.SetReadDeadline(time.Now().Add(2 * time.Second)); err != nil {
		t.Fatalf("setting read deadline: %v", err)
	}
	var frame map[string]any
	if err := conn.ReadJSON(&frame); err != nil {
		t.Fatalf("reading frame: %v", err)
	}
	return frame
}

func TestConnectSendsInitialFrames(t *testing.T) {
	conn, _ := dialTestServer(t)

	first := readFrame(t, conn)
	if first["type"] != MessageTypeDashboardUpdate {
		t.Errorf("first frame type = %v, want dashboard_update", first["type"])
	}

	second := readFrame(t, conn)
	if second["type"] != MessageTypePlotDataUpdate {
		t.Fatalf("second frame type = %v, want plot_data_update", second["type"])
	}
	if second["plot_type"] != PlotTypeInitialLive {
		t.Errorf("plot_type = %v, want %s", second["plot_type"], PlotTypeInitialLive)
	}
	if second["live_mode_active"] != true {
		t.Errorf("live_mode_active = %v, want true", second["live_mode_active"])
	}
	if second["start_time"] == nil || second["end_time"] == nil {
		t.Error("initial plot frame missing window boundaries")
	}
}

func TestRequestHistoricalRangeDisablesLiveMode(t *testing.T) {
	conn, provider := dialTestServer(t)

	// Drain the two initial frames.
	readFrame(t, conn)
	readFrame(t, conn)
	<-provider.plotCalls

	start := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	end := start.Add(time.Hour)
	err := conn.WriteJSON(map[string]string{
		"type":       MessageTypeRequestPlotData,
		"start_time": start.Format(time.RFC3339),
		"end_time":   end.Format(time.RFC3339),
	})
	if err != nil {
		t.Fatalf("writing request: %v", err)
	}

	frame := readFrame(t, conn)
	if frame["type"] != MessageTypePlotDataUpdate {
		t.Fatalf("frame type = %v, want plot_data_update", frame["type"])
	}
	if frame["plot_type"] != PlotTypeHistoricalRange {
		t.Errorf("plot_type = %v, want %s", frame["plot_type"], PlotTypeHistoricalRange)
	}
	if frame["live_mode_active"] != false {
		t.Errorf("live_mode_active = %v, want false", frame["live_mode_active"])
	}

	call := <-provider.plotCalls
	if !call.start.Equal(start) {
		t.Errorf("plot range start = %s, want %s", call.start, start)
	}
	if call.end == nil || !call.end.Equal(end) {
		t.Errorf("plot range end = %v, want %s", call.end, end)
	}
}

func TestRequestLiveEndKeepsLiveMode(t *testing.T) {
	conn, provider := dialTestServer(t)
	readFrame(t, conn)
	readFrame(t, conn)
	<-provider.plotCalls

	err := conn.WriteJSON(map[string]string{
		"type":     MessageTypeRequestPlotData,
		"end_time": "live",
	})
	if err != nil {
		t.Fatalf("writing request: %v", err)
	}

	frame := readFrame(t, conn)
	if frame["live_mode_active"] != true {
		t.Errorf("live_mode_active = %v, want true", frame["live_mode_active"])
	}

	call := <-provider.plotCalls
	if call.end == nil {
		t.Fatal("live request should resolve end to now, got nil")
	}
}

func TestRequestInitialDataResetsWindow(t *testing.T) {
	conn, provider := dialTestServer(t)
	readFrame(t, conn)
	readFrame(t, conn)
	<-provider.plotCalls

	if err := conn.WriteJSON(map[string]string{"type": MessageTypeRequestInitial}); err != nil {
		t.Fatalf("writing request: %v", err)
	}

	frame := readFrame(t, conn)
	if frame["plot_type"] != PlotTypeInitialLive {
		t.Errorf("plot_type = %v, want %s", frame["plot_type"], PlotTypeInitialLive)
	}

	call := <-provider.plotCalls
	window := call.end.Sub(call.start)
	if window < 9*time.Minute || window > 11*time.Minute {
		t.Errorf("initial window = %s, want about 10 minutes", window)
	}
}

func TestPingPong(t *testing.T) {
	conn, _ := dialTestServer(t)
	readFrame(t, conn)
	readFrame(t, conn)

	if err := conn.WriteJSON(map[string]string{"type": MessageTypePing}); err != nil {
		t.Fatalf("writing ping: %v", err)
	}
	frame := readFrame(t, conn)
	if frame["type"] != MessageTypePong {
		t.Errorf("frame type = %v, want pong", frame["type"])
	}
}
