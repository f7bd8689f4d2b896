// Motorscope - Industrial Motor Monitoring and Digital Twin Dashboard
// Copyright 2026 The Motorscope Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/motorlab/motorscope

// Package main implements the Motorscope telemetry simulator.
//
// The simulator publishes randomized live and twin readings to the
// MQTT broker so the dashboard can be exercised without motor
// hardware. It occasionally injects deviations on one metric of the
// live stream, emits a WARNING malfunction when it does, and can
// replay a retract/extend run cycle to drive the cycle counters.
//
//	simulator --broker-host localhost --interval 500ms
//	simulator --anomaly-chance 20 --run-cycle 30s
package main

import (
	"context"
	"fmt"
	"math/rand"
	"os"
	"os/signal"
	"syscall"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/goccy/go-json"
	"github.com/peterbourgon/ff/v4"
	"github.com/peterbourgon/ff/v4/ffhelp"

	"github.com/motorlab/motorscope/internal/logging"
)

const (
	topicLive    = "iot/motor/live"
	topicTwin    = "iot/motor/twin"
	topicWarning = "iot/motor/malfunction/warning"
	topicInfo    = "iot/motor/malfunction/info"
)

type telemetry struct {
	Timestamp     string  `json:"timestamp"`
	Current       float64 `json:"current"`
	Voltage       float64 `json:"voltage"`
	RPM           float64 `json:"rpm"`
	Vibration     float64 `json:"vibration"`
	Temp          float64 `json:"temp"`
	Torque        float64 `json:"torque"`
	RunTime       float64 `json:"run_time"`
	Malfunction   bool    `json:"malfunction,omitempty"`
	MotorState    string  `json:"motor_state,omitempty"`
	EmergencyStop bool    `json:"emergency_stop,omitempty"`
}

type malfunction struct {
	Timestamp           string `json:"timestamp"`
	MessageType         string `json:"message_type"`
	Description         string `json:"description"`
	MotorState          string `json:"motor_state"`
	EmergencyStopActive bool   `json:"emergency_stop_active"`
}

type options struct {
	brokerHost    string
	brokerPort    int
	clientID      string
	interval      time.Duration
	count         int
	anomalyChance int
	runCycle      time.Duration
}

func main() {
	fs := ff.NewFlagSet("simulator")
	var opts options
	fs.StringVar(&opts.brokerHost, 'b', "broker-host", "localhost", "MQTT broker host")
	fs.IntVar(&opts.brokerPort, 'p', "broker-port", 1883, "MQTT broker port")
	fs.StringVar(&opts.clientID, 'c', "client-id", "motorscope-simulator", "MQTT client id")
	fs.DurationVar(&opts.interval, 'i', "interval", 500*time.Millisecond, "publish interval")
	fs.IntVar(&opts.count, 'n', "count", 0, "number of readings to publish (0 = run until interrupted)")
	fs.IntVar(&opts.anomalyChance, 'a', "anomaly-chance", 5, "percent chance per reading of a live deviation")
	fs.DurationVar(&opts.runCycle, 'r', "run-cycle", 0, "interval between simulated run cycles (0 = disabled)")

	if err := ff.Parse(fs, os.Args[1:], ff.WithEnvVarPrefix("MOTORSCOPE_SIM")); err != nil {
		fmt.Fprintln(os.Stderr, ffhelp.Flags(fs))
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, opts); err != nil {
		logging.Fatal().Err(err).Msg("simulator failed")
	}
}

func run(ctx context.Context, opts options) error {
	addr := fmt.Sprintf("tcp://%s:%d", opts.brokerHost, opts.brokerPort)
	client := mqtt.NewClient(mqtt.NewClientOptions().
		AddBroker(addr).
		SetClientID(opts.clientID).
		SetAutoReconnect(true).
		SetConnectTimeout(10 * time.Second))

	token := client.Connect()
	if !token.WaitTimeout(10 * time.Second) {
		return fmt.Errorf("connecting to %s: timeout", addr)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("connecting to %s: %w", addr, err)
	}
	defer client.Disconnect(250)

	logging.Info().
		Str("broker", addr).
		Dur("interval", opts.interval).
		Int("anomaly_chance", opts.anomalyChance).
		Msg("simulator publishing")

	gen := newGenerator(opts.anomalyChance)

	ticker := time.NewTicker(opts.interval)
	defer ticker.Stop()

	var cycleTicker <-chan time.Time
	if opts.runCycle > 0 {
		t := time.NewTicker(opts.runCycle)
		defer t.Stop()
		cycleTicker = t.C
	}

	published := 0
	for {
		select {
		case <-ctx.Done():
			logging.Info().Int("published", published).Msg("simulator stopped")
			return nil
		case <-cycleTicker:
			gen.publishRunCycle(client)
		case <-ticker.C:
			live := gen.liveReading()
			twin := gen.twinReading(live)

			publishJSON(client, topicLive, live)
			publishJSON(client, topicTwin, twin)
			if live.Malfunction {
				publishJSON(client, topicWarning, malfunction{
					Timestamp:           live.Timestamp,
					MessageType:         "WARNING",
					Description:         "Deviation between twin and live motor values.",
					MotorState:          live.MotorState,
					EmergencyStopActive: live.EmergencyStop,
				})
			}

			published++
			if opts.count > 0 && published >= opts.count {
				logging.Info().Int("published", published).Msg("simulator finished")
				return nil
			}
		}
	}
}

type generator struct {
	rng           *rand.Rand
	anomalyChance int
	extending     bool
}

func newGenerator(anomalyChance int) *generator {
	return &generator{
		rng:           rand.New(rand.NewSource(time.Now().UnixNano())),
		anomalyChance: anomalyChance,
	}
}

func (g *generator) uniform(lo, hi float64) float64 {
	return lo + g.rng.Float64()*(hi-lo)
}

func (g *generator) noisy(lo, hi, sigma float64) float64 {
	return round2(g.uniform(lo, hi) + g.rng.NormFloat64()*sigma)
}

func round2(v float64) float64 {
	return float64(int(v*100+0.5)) / 100
}

// liveReading produces one live sample, occasionally spiking a single
// metric to trigger deviation detection downstream.
func (g *generator) liveReading() telemetry {
	t := telemetry{
		Timestamp:  time.Now().UTC().Format(time.RFC3339Nano),
		Current:    g.noisy(10, 25, 0.5),
		Voltage:    g.noisy(220, 240, 1.0),
		RPM:        g.noisy(1400, 1500, 5.0),
		Vibration:  g.noisy(0.5, 5, 0.2),
		Temp:       g.noisy(30, 60, 1.0),
		Torque:     g.noisy(50, 80, 2.0),
		RunTime:    g.noisy(100, 5000, 10.0),
		MotorState: "normal",
	}

	if g.rng.Intn(100) < g.anomalyChance {
		switch g.rng.Intn(5) {
		case 0:
			t.Current += g.uniform(8, 15)
		case 1:
			t.Vibration += g.uniform(5, 15)
		case 2:
			t.Temp += g.uniform(15, 30)
		case 3:
			t.RPM += g.uniform(100, 300)
		case 4:
			t.Torque += g.uniform(20, 40)
		}
		t.Malfunction = true
		t.MotorState = "warning"
		if g.rng.Intn(10) == 0 {
			t.EmergencyStop = true
			t.MotorState = "emergency_stop"
		}
	}
	return t
}

// twinReading produces the behavioral-model sample. Twin values track
// live spikes loosely so deviations stay plausible rather than
// unbounded.
func (g *generator) twinReading(live telemetry) telemetry {
	t := telemetry{
		Timestamp: time.Now().UTC().Format(time.RFC3339Nano),
		Current:   g.noisy(15, 20, 0.2),
		Voltage:   g.noisy(225, 235, 0.5),
		RPM:       g.noisy(1440, 1460, 2.0),
		Vibration: g.noisy(1, 3, 0.1),
		Temp:      g.noisy(40, 55, 0.5),
		Torque:    g.noisy(60, 75, 1.0),
		RunTime:   g.noisy(100, 5000, 5.0),
	}
	if live.Current > 30 {
		t.Current = g.noisy(18, 22, 0.2)
	}
	if live.Vibration > 10 {
		t.Vibration = g.noisy(3, 6, 0.1)
	}
	if live.Temp > 70 {
		t.Temp = g.noisy(50, 70, 0.5)
	}
	return t
}

// publishRunCycle emits the INFO markers the cycle counters key on,
// alternating between retract and extend runs.
func (g *generator) publishRunCycle(client mqtt.Client) {
	direction := "Motor retracting"
	if g.extending {
		direction = "Motor extending"
	}
	g.extending = !g.extending

	now := time.Now().UTC()
	publishJSON(client, topicInfo, malfunction{
		Timestamp:   now.Format(time.RFC3339Nano),
		MessageType: "INFO",
		Description: direction,
		MotorState:  "normal",
	})
	publishJSON(client, topicInfo, malfunction{
		Timestamp:   now.Add(time.Second).Format(time.RFC3339Nano),
		MessageType: "INFO",
		Description: "End position reached",
		MotorState:  "normal",
	})
}

func publishJSON(client mqtt.Client, topic string, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		logging.Error().Err(err).Str("topic", topic).Msg("marshal failed")
		return
	}
	token := client.Publish(topic, 1, false, data)
	if token.WaitTimeout(5*time.Second) && token.Error() != nil {
		logging.Error().Err(token.Error()).Str("topic", topic).Msg("publish failed")
	}
}
