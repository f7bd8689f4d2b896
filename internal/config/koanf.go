// Motorscope - Industrial Motor Monitoring and Digital Twin Dashboard
// Copyright 2026 The Motorscope Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/motorlab/motorscope

package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
	"github.com/rs/zerolog/log"
)

const envPrefix = "MOTORSCOPE_"

// Load builds the configuration from three layers, each overriding the
// previous: built-in defaults, an optional YAML file, and MOTORSCOPE_*
// environment variables.
func Load() (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaults(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("loading defaults: %w", err)
	}

	if path := findConfigFile(); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("loading config file %s: %w", path, err)
		}
		log.Info().Str("path", path).Msg("Loaded configuration file")
	}

	if err := k.Load(env.Provider(envPrefix, ".", envTransform), nil); err != nil {
		return nil, fmt.Errorf("loading environment: %w", err)
	}

	if err := normalizeSlicePaths(k); err != nil {
		return nil, fmt.Errorf("normalizing list values: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// Default returns a copy of the built-in configuration, useful for
// tests and tooling that bypass Load.
func Default() *Config {
	cfg := defaults()
	return &cfg
}

// defaults returns the built-in configuration. Topic names follow the
// iot/motor hierarchy used by the controller firmware.
func defaults() Config {
	return Config{
		Server: ServerConfig{
			Host:    "0.0.0.0",
			Port:    8000,
			Timeout: 30 * time.Second,
		},
		Database: DatabaseConfig{
			Driver:           "sqlite",
			DSN:              "motorscope.db",
			ReadingRetention: 30 * 24 * time.Hour,
			PruneInterval:    time.Hour,
		},
		MQTT: MQTTConfig{
			BrokerHost:     "localhost",
			BrokerPort:     1883,
			ClientID:       "motorscope-server",
			QoS:            1,
			ConnectTimeout: 10 * time.Second,
			ReconnectWait:  5 * time.Second,

			TopicLive:               "iot/motor/live",
			TopicTwin:               "iot/motor/twin",
			TopicMalfunctionInfo:    "iot/motor/malfunction/info",
			TopicMalfunctionWarning: "iot/motor/malfunction/warning",
			TopicMalfunctionError:   "iot/motor/malfunction/error",

			TopicRawTemperature: "raw/temperature",
			TopicRawCurrent:     "raw/current",
			TopicRawTorque:      "raw/torque",

			TopicFeatureTemperature: "feature/temperature",
			TopicFeatureCurrent:     "feature/current",
			TopicFeatureTorque:      "feature/torque",

			TopicPredictionTemperature: "prediction/temperature",
			TopicPredictionCurrent:     "prediction/current",
			TopicPredictionTorque:      "prediction/torque",
		},
		Detection: DetectionConfig{
			DeviationThresholdPercent: 80.0,
			FreshnessThreshold:        10 * time.Second,
			ErrorLookback:             5 * time.Minute,
		},
		Security: SecurityConfig{
			AuthMode:        "none",
			SessionTimeout:  24 * time.Hour,
			AdminUsername:   "admin",
			LoginRateLimit:  5,
			RateLimitReqs:   100,
			RateLimitWindow: time.Minute,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// findConfigFile returns the first config file that exists, or "".
// MOTORSCOPE_CONFIG_PATH wins over the search locations.
func findConfigFile() string {
	if path := os.Getenv("MOTORSCOPE_CONFIG_PATH"); path != "" {
		return path
	}
	for _, path := range []string{
		"config.yaml",
		"config.yml",
		"/etc/motorscope/config.yaml",
	} {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// slicePaths are config paths whose values are lists. Environment
// variables deliver them as a single comma-separated string, so they
// are split before unmarshaling.
var slicePaths = []string{
	"server.allowed_hosts",
}

// normalizeSlicePaths splits comma-separated string values at the known
// slice paths. YAML files already produce real lists; those pass
// through untouched.
func normalizeSlicePaths(k *koanf.Koanf) error {
	for _, path := range slicePaths {
		raw, ok := k.Get(path).(string)
		if !ok || raw == "" {
			continue
		}
		parts := strings.Split(raw, ",")
		hosts := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				hosts = append(hosts, p)
			}
		}
		if err := k.Set(path, hosts); err != nil {
			return fmt.Errorf("setting %s: %w", path, err)
		}
	}
	return nil
}

// envTransform maps MOTORSCOPE_SERVER_PORT to server.port and so on.
// Only the first underscore becomes a separator so keys like
// mqtt.topic_live survive intact.
func envTransform(s string) string {
	s = strings.ToLower(strings.TrimPrefix(s, envPrefix))
	return strings.Replace(s, "_", ".", 1)
}

// Validate checks the configuration for values that would fail at
// runtime. It is called by Load but exported for tests and for callers
// that build a Config by hand.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be between 1 and 65535, got %d", c.Server.Port)
	}
	if c.Server.Timeout <= 0 {
		return fmt.Errorf("server.timeout must be positive, got %s", c.Server.Timeout)
	}

	switch c.Database.Driver {
	case "sqlite", "postgres":
	default:
		return fmt.Errorf("database.driver must be sqlite or postgres, got %q", c.Database.Driver)
	}
	if c.Database.DSN == "" {
		return fmt.Errorf("database.dsn must not be empty")
	}
	if c.Database.ReadingRetention > 0 && c.Database.PruneInterval <= 0 {
		return fmt.Errorf("database.prune_interval must be positive when reading_retention is set, got %s",
			c.Database.PruneInterval)
	}

	if c.MQTT.BrokerHost == "" {
		return fmt.Errorf("mqtt.broker_host must not be empty")
	}
	if c.MQTT.BrokerPort < 1 || c.MQTT.BrokerPort > 65535 {
		return fmt.Errorf("mqtt.broker_port must be between 1 and 65535, got %d", c.MQTT.BrokerPort)
	}
	if c.MQTT.QoS > 2 {
		return fmt.Errorf("mqtt.qos must be 0, 1, or 2, got %d", c.MQTT.QoS)
	}
	for _, topic := range c.MQTT.SubscribedTopics() {
		if topic == "" {
			return fmt.Errorf("mqtt topic names must not be empty")
		}
	}

	if c.Detection.DeviationThresholdPercent <= 0 {
		return fmt.Errorf("detection.deviation_threshold_percent must be positive, got %g",
			c.Detection.DeviationThresholdPercent)
	}
	if c.Detection.FreshnessThreshold <= 0 {
		return fmt.Errorf("detection.freshness_threshold must be positive, got %s",
			c.Detection.FreshnessThreshold)
	}
	if c.Detection.ErrorLookback <= 0 {
		return fmt.Errorf("detection.error_lookback must be positive, got %s",
			c.Detection.ErrorLookback)
	}

	switch c.Security.AuthMode {
	case "none":
	case "jwt":
		if len(c.Security.JWTSecret) < 32 {
			return fmt.Errorf("security.jwt_secret must be at least 32 characters when auth_mode is jwt")
		}
	case "basic":
		if c.Security.AdminPassword == "" {
			return fmt.Errorf("security.admin_password must be set when auth_mode is basic")
		}
	default:
		return fmt.Errorf("security.auth_mode must be jwt, basic, or none, got %q", c.Security.AuthMode)
	}
	if c.Security.AuthMode != "none" && c.Security.SessionTimeout <= 0 {
		return fmt.Errorf("security.session_timeout must be positive, got %s", c.Security.SessionTimeout)
	}

	switch c.Logging.Level {
	case "trace", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level must be one of trace, debug, info, warn, error, got %q", c.Logging.Level)
	}
	switch c.Logging.Format {
	case "json", "console":
	default:
		return fmt.Errorf("logging.format must be json or console, got %q", c.Logging.Format)
	}

	return nil
}

func netJoin(host string, port int) string {
	return fmt.Sprintf("%s:%d", host, port)
}
