// Motorscope - Industrial Motor Monitoring and Digital Twin Dashboard
// Copyright 2026 The Motorscope Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/motorlab/motorscope

// Package config loads Motorscope configuration with Koanf v2 from layered
// sources: built-in defaults, an optional YAML file, and environment
// variables (highest priority).
package config

import "time"

// Config is the root configuration for the Motorscope server.
type Config struct {
	Server    ServerConfig    `koanf:"server"`
	Database  DatabaseConfig  `koanf:"database"`
	MQTT      MQTTConfig      `koanf:"mqtt"`
	Detection DetectionConfig `koanf:"detection"`
	Security  SecurityConfig  `koanf:"security"`
	Logging   LoggingConfig   `koanf:"logging"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host    string        `koanf:"host"`
	Port    int           `koanf:"port"`
	Timeout time.Duration `koanf:"timeout"`

	// AllowedHosts restricts accepted Host headers. Empty = allow all.
	// Requests with a non-matching Host header are rejected with 400,
	// mirroring the original deployment's allowed-hosts check.
	AllowedHosts []string `koanf:"allowed_hosts"`
}

// DatabaseConfig holds relational store settings.
// Driver sqlite (pure-Go, default, fits single-board deployments) or
// postgres (the original deployment topology).
type DatabaseConfig struct {
	Driver string `koanf:"driver"`
	DSN    string `koanf:"dsn"`

	// ReadingRetention is how long telemetry readings are kept before
	// the janitor prunes them. Zero disables pruning. Malfunction logs
	// and reference runs are never pruned.
	ReadingRetention time.Duration `koanf:"reading_retention"`

	// PruneInterval is how often the janitor runs.
	PruneInterval time.Duration `koanf:"prune_interval"`
}

// MQTTConfig holds broker connection and topic settings.
type MQTTConfig struct {
	BrokerHost     string        `koanf:"broker_host"`
	BrokerPort     int           `koanf:"broker_port"`
	ClientID       string        `koanf:"client_id"`
	Username       string        `koanf:"username"`
	Password       string        `koanf:"password"`
	QoS            byte          `koanf:"qos"`
	ConnectTimeout time.Duration `koanf:"connect_timeout"`
	ReconnectWait  time.Duration `koanf:"reconnect_wait"`

	TopicLive               string `koanf:"topic_live"`
	TopicTwin               string `koanf:"topic_twin"`
	TopicMalfunctionInfo    string `koanf:"topic_malfunction_info"`
	TopicMalfunctionWarning string `koanf:"topic_malfunction_warning"`
	TopicMalfunctionError   string `koanf:"topic_malfunction_error"`

	TopicRawTemperature string `koanf:"topic_raw_temperature"`
	TopicRawCurrent     string `koanf:"topic_raw_current"`
	TopicRawTorque      string `koanf:"topic_raw_torque"`

	TopicFeatureTemperature string `koanf:"topic_feature_temperature"`
	TopicFeatureCurrent     string `koanf:"topic_feature_current"`
	TopicFeatureTorque      string `koanf:"topic_feature_torque"`

	TopicPredictionTemperature string `koanf:"topic_prediction_temperature"`
	TopicPredictionCurrent     string `koanf:"topic_prediction_current"`
	TopicPredictionTorque      string `koanf:"topic_prediction_torque"`
}

// DetectionConfig holds anomaly detection settings.
type DetectionConfig struct {
	// DeviationThresholdPercent is the live/twin deviation that flags a
	// metric as anomalous.
	DeviationThresholdPercent float64 `koanf:"deviation_threshold_percent"`

	// FreshnessThreshold is the maximum age of a live reading before its
	// metrics are reported as unavailable on the dashboard.
	FreshnessThreshold time.Duration `koanf:"freshness_threshold"`

	// ErrorLookback is how far back ERROR logs override the anomaly
	// status message.
	ErrorLookback time.Duration `koanf:"error_lookback"`
}

// Authentication modes.
const (
	AuthModeJWT   = "jwt"
	AuthModeBasic = "basic"
	AuthModeNone  = "none"
)

// SecurityConfig holds authentication settings.
type SecurityConfig struct {
	// AuthMode is jwt, basic, or none.
	AuthMode       string        `koanf:"auth_mode"`
	JWTSecret      string        `koanf:"jwt_secret"`
	SessionTimeout time.Duration `koanf:"session_timeout"`
	AdminUsername  string        `koanf:"admin_username"`
	AdminPassword  string        `koanf:"admin_password"`

	// LoginRateLimit is login attempts per minute per client.
	LoginRateLimit int `koanf:"login_rate_limit"`

	// RateLimitReqs is API requests per window per client.
	RateLimitReqs   int           `koanf:"rate_limit_reqs"`
	RateLimitWindow time.Duration `koanf:"rate_limit_window"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	Caller bool   `koanf:"caller"`
}

// BrokerAddr returns the MQTT broker address in host:port form.
func (c *MQTTConfig) BrokerAddr() string {
	return netJoin(c.BrokerHost, c.BrokerPort)
}

// SubscribedTopics returns every topic the ingest service subscribes to,
// in a stable order.
func (c *MQTTConfig) SubscribedTopics() []string {
	return []string{
		c.TopicLive,
		c.TopicTwin,
		c.TopicMalfunctionInfo,
		c.TopicMalfunctionWarning,
		c.TopicMalfunctionError,
		c.TopicRawTemperature,
		c.TopicRawCurrent,
		c.TopicRawTorque,
		c.TopicFeatureTemperature,
		c.TopicFeatureCurrent,
		c.TopicFeatureTorque,
		c.TopicPredictionTemperature,
		c.TopicPredictionCurrent,
		c.TopicPredictionTorque,
	}
}
