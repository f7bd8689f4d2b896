// Motorscope - Industrial Motor Monitoring and Digital Twin Dashboard
// Copyright 2026 The Motorscope Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/motorlab/motorscope

package websocket

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/motorlab/motorscope/internal/logging"
	"github.com/motorlab/motorscope/internal/models"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 64 * 1024

	// queryTimeout bounds store access triggered by client requests.
	queryTimeout = 10 * time.Second

	// defaultPlotWindow is the chart lookback when no range is
	// requested and no active run is found.
	defaultPlotWindow = 10 * time.Minute
)

// DataProvider supplies the data a client can request over the socket.
// Implemented by the dashboard service.
type DataProvider interface {
	Data(ctx context.Context, now time.Time) (*models.DashboardData, error)
	PlotRange(ctx context.Context, start time.Time, end *time.Time) (*models.PlotData, error)
	LatestPoint(ctx context.Context) (*models.PlotPointUpdate, error)
	ActiveRunWindow(ctx context.Context) (models.TimeWindow, error)
}

// clientIDCounter generates unique, monotonically increasing client IDs
// so broadcast order is stable.
var clientIDCounter atomic.Uint64

// clientRequest is an inbound frame from the browser. EndTime is an
// RFC3339 timestamp or the keyword "live".
type clientRequest struct {
	Type      string `json:"type"`
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
}

// Client is a middleman between one websocket connection and the hub.
type Client struct {
	id       uint64
	hub      *Hub
	conn     *websocket.Conn
	send     chan Message
	provider DataProvider

	// liveMode controls whether incremental plot points are delivered.
	liveMode atomic.Bool
}

// NewClient creates a client for an upgraded connection.
func NewClient(hub *Hub, conn *websocket.Conn, provider DataProvider) *Client {
	return &Client{
		id:       clientIDCounter.Add(1),
		hub:      hub,
		conn:     conn,
		send:     make(chan Message, 256),
		provider: provider,
	}
}

// ID returns the client's unique identifier.
func (c *Client) ID() uint64 {
	return c.id
}

// LiveMode reports whether the client receives incremental plot points.
func (c *Client) LiveMode() bool {
	return c.liveMode.Load()
}

// Start registers the client, begins the pumps and sends the initial
// dashboard snapshot plus a live ten-minute chart window.
func (c *Client) Start() {
	c.hub.Register <- c
	go c.writePump()
	go c.readPump()

	c.sendInitialData()
}

func (c *Client) sendInitialData() {
	ctx, cancel := context.WithTimeout(context.Background(), queryTimeout)
	defer cancel()

	data, err := c.provider.Data(ctx, time.Now())
	if err != nil {
		logging.Error().Err(err).Msg("failed to load initial dashboard data")
	} else {
		c.trySend(Message{Type: MessageTypeDashboardUpdate, Data: data})
	}

	c.liveMode.Store(true)
	c.sendPlotWindow(ctx, nil, nil, PlotTypeInitialLive)
}

// readPump pumps messages from the websocket connection to the hub.
func (c *Client) readPump() {
	defer func() {
		c.hub.Unregister <- c
		_ = c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	if err := c.conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		logging.Error().Err(err).Msg("failed to set read deadline")
		return
	}
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		var req clientRequest
		if err := c.conn.ReadJSON(&req); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logging.Error().Err(err).Msg("unexpected websocket close error")
			}
			break
		}
		c.handleRequest(req)
	}

	c.liveMode.Store(false)
}

func (c *Client) handleRequest(req clientRequest) {
	ctx, cancel := context.WithTimeout(context.Background(), queryTimeout)
	defer cancel()

	switch req.Type {
	case MessageTypeRequestPlotData:
		var start, end *time.Time
		if req.StartTime != "" {
			t, err := time.Parse(time.RFC3339, req.StartTime)
			if err != nil {
				logging.Warn().Str("start_time", req.StartTime).Msg("ignoring unparsable plot range start")
				return
			}
			start = &t
		}

		switch {
		case req.EndTime == "live":
			c.liveMode.Store(true)
		case req.EndTime != "":
			t, err := time.Parse(time.RFC3339, req.EndTime)
			if err != nil {
				logging.Warn().Str("end_time", req.EndTime).Msg("ignoring unparsable plot range end")
				return
			}
			end = &t
			c.liveMode.Store(false)
		default:
			c.liveMode.Store(false)
		}

		c.sendPlotWindow(ctx, start, end, PlotTypeHistoricalRange)

	case MessageTypeRequestInitial:
		c.liveMode.Store(true)
		c.sendPlotWindow(ctx, nil, nil, PlotTypeInitialLive)

	case MessageTypePing:
		c.trySend(Message{Type: MessageTypePong})

	default:
		logging.Warn().Str("message_type", req.Type).Msg("unknown websocket request type")
	}
}

// sendPlotWindow resolves the requested window and sends a
// plot_data_update frame. With no explicit bounds, live mode uses the
// last ten minutes ending now; otherwise the active run window is used,
// falling back to the last ten minutes.
func (c *Client) sendPlotWindow(ctx context.Context, start, end *time.Time, plotType string) {
	now := time.Now()

	if plotType == PlotTypeInitialLive || (end == nil && c.LiveMode()) {
		if start == nil {
			t := now.Add(-defaultPlotWindow)
			start = &t
		}
		end = &now
		c.liveMode.Store(true)
	} else if start == nil && end == nil {
		window, err := c.provider.ActiveRunWindow(ctx)
		if err != nil {
			logging.Error().Err(err).Msg("failed to resolve active run window")
		}
		start, end = window.Start, window.End
		if start == nil {
			t := now.Add(-defaultPlotWindow)
			start, end = &t, &now
		} else if end == nil {
			end = &now
		}
		c.liveMode.Store(false)
	}

	if start == nil {
		base := now
		if end != nil {
			base = *end
		}
		t := base.Add(-defaultPlotWindow)
		start = &t
	}

	data, err := c.provider.PlotRange(ctx, *start, end)
	if err != nil {
		logging.Error().Err(err).Msg("failed to load plot data")
		return
	}

	startStr := start.Format(time.RFC3339)
	var endStr *string
	if end != nil {
		s := end.Format(time.RFC3339)
		endStr = &s
	}
	live := c.LiveMode()

	c.trySend(Message{
		Type:           MessageTypePlotDataUpdate,
		PlotType:       plotType,
		Data:           data,
		StartTime:      &startStr,
		EndTime:        endStr,
		LiveModeActive: &live,
	})
}

func (c *Client) trySend(msg Message) {
	select {
	case c.send <- msg:
	default:
	}
}

// writePump pumps messages from the hub to the websocket connection.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				logging.Error().Err(err).Msg("failed to set write deadline")
				return
			}
			if !ok {
				// The hub closed the channel.
				if err := c.conn.WriteMessage(websocket.CloseMessage, []byte{}); err != nil {
					logging.Error().Err(err).Msg("failed to write close message")
				}
				return
			}
			if err := c.conn.WriteJSON(message); err != nil {
				logging.Error().Err(err).Msg("failed to write JSON message")
				return
			}

		case <-ticker.C:
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				logging.Error().Err(err).Msg("failed to set write deadline for ping")
				return
			}
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
