// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package config

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/relabs-tech/ahrs_emulator/internal/protocol"
	"github.com/relabs-tech/ahrs_emulator/internal/serialport"
)

// Checksum modes for the 3DM-GX4-25 response trailer.
const (
	ChecksumFixed    = "fixed"
	ChecksumFletcher = "fletcher"
)

// Config holds all application configuration values.
type Config struct {
	// Serial
	SerialPort          string
	SerialBackend       string
	SerialBaudRate      int
	SerialDataBits      int
	SerialStopBits      int
	SerialParity        string
	SerialReadTimeoutMs int

	// Sessions
	HandoffPollIntervalMs int
	InitialModel          protocol.ModelID // 0 = none
	GX4Checksum           string

	// MQTT (empty broker disables telemetry)
	MQTTBroker   string
	MQTTClientID string
	TopicPose    string
	TopicStatus  string

	// Web Server (0 disables)
	WebServerPort int

	LogDebug bool
}

// Defaults returns a Config with every optional key set.
func Defaults() *Config {
	return &Config{
		SerialBackend:         serialport.BackendJacobsa,
		SerialBaudRate:        serialport.DefaultBaudRate,
		SerialDataBits:        8,
		SerialStopBits:        1,
		SerialParity:          "N",
		SerialReadTimeoutMs:   int(serialport.DefaultReadTimeout / time.Millisecond),
		HandoffPollIntervalMs: 100,
		GX4Checksum:           ChecksumFixed,
		MQTTClientID:          "ahrs-emulator",
		TopicPose:             "ahrs/pose",
		TopicStatus:           "ahrs/status",
	}
}

// Package-level singleton. InitGlobal sets it once, Get reads it under the
// read lock.
var (
	globalConfig *Config
	configOnce   sync.Once
	configMu     sync.RWMutex
)

// Load reads the configuration file and returns a Config struct.
func Load(configPath string) (*Config, error) {
	file, err := os.Open(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer file.Close()

	cfg := Defaults()
	scanner := bufio.NewScanner(file)
	lineNum := 0

	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())

		// Skip empty lines and comments
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		// Parse KEY=VALUE
		parts := strings.SplitN(line, "=", 2)
		if len(parts) != 2 {
			return nil, fmt.Errorf("invalid config line %d: %q", lineNum, line)
		}

		key := strings.TrimSpace(parts[0])
		value := strings.TrimSpace(parts[1])

		if err := cfg.setValue(key, value); err != nil {
			return nil, fmt.Errorf("config line %d: %w", lineNum, err)
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// setValue sets a config value based on the key.
func (c *Config) setValue(key, value string) error {
	switch key {
	// Serial
	case "SERIAL_PORT":
		c.SerialPort = value
	case "SERIAL_BACKEND":
		if _, err := serialport.Backend(value); err != nil {
			return err
		}
		c.SerialBackend = value
	case "SERIAL_BAUD_RATE":
		rate, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid SERIAL_BAUD_RATE %q: %w", value, err)
		}
		if rate <= 0 {
			return fmt.Errorf("SERIAL_BAUD_RATE must be positive, got %d", rate)
		}
		c.SerialBaudRate = rate
	case "SERIAL_DATA_BITS":
		bits, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid SERIAL_DATA_BITS %q: %w", value, err)
		}
		if bits < 5 || bits > 8 {
			return fmt.Errorf("SERIAL_DATA_BITS must be 5-8, got %d", bits)
		}
		c.SerialDataBits = bits
	case "SERIAL_STOP_BITS":
		bits, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid SERIAL_STOP_BITS %q: %w", value, err)
		}
		if bits != 1 && bits != 2 {
			return fmt.Errorf("SERIAL_STOP_BITS must be 1 or 2, got %d", bits)
		}
		c.SerialStopBits = bits
	case "SERIAL_PARITY":
		c.SerialParity = value
	case "SERIAL_READ_TIMEOUT_MS":
		ms, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid SERIAL_READ_TIMEOUT_MS %q: %w", value, err)
		}
		if ms <= 0 || ms > serialport.MaxReadTimeoutMs {
			return fmt.Errorf("SERIAL_READ_TIMEOUT_MS must be 1-%d, got %d", serialport.MaxReadTimeoutMs, ms)
		}
		c.SerialReadTimeoutMs = ms

	// Sessions
	case "HANDOFF_POLL_INTERVAL_MS":
		ms, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid HANDOFF_POLL_INTERVAL_MS %q: %w", value, err)
		}
		if ms <= 0 {
			return fmt.Errorf("HANDOFF_POLL_INTERVAL_MS must be positive, got %d", ms)
		}
		c.HandoffPollIntervalMs = ms
	case "INITIAL_MODEL":
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid INITIAL_MODEL %q: %w", value, err)
		}
		if n == 0 {
			c.InitialModel = 0
			return nil
		}
		id, err := protocol.ParseModelID(n)
		if err != nil {
			return fmt.Errorf("INITIAL_MODEL: %w", err)
		}
		c.InitialModel = id
	case "GX4_CHECKSUM":
		mode := strings.ToLower(value)
		if mode != ChecksumFixed && mode != ChecksumFletcher {
			return fmt.Errorf("GX4_CHECKSUM must be %q or %q, got %q", ChecksumFixed, ChecksumFletcher, value)
		}
		c.GX4Checksum = mode

	// MQTT
	case "MQTT_BROKER":
		c.MQTTBroker = value
	case "MQTT_CLIENT_ID":
		c.MQTTClientID = value
	case "TOPIC_POSE":
		c.TopicPose = value
	case "TOPIC_STATUS":
		c.TopicStatus = value

	// Web Server
	case "WEB_SERVER_PORT":
		port, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid WEB_SERVER_PORT %q: %w", value, err)
		}
		if port < 0 || port > 65535 {
			return fmt.Errorf("WEB_SERVER_PORT must be 0-65535, got %d", port)
		}
		c.WebServerPort = port

	case "LOG_DEBUG":
		debug, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("invalid LOG_DEBUG %q: %w", value, err)
		}
		c.LogDebug = debug

	default:
		return fmt.Errorf("unknown config key: %q", key)
	}

	return nil
}

// validate checks that all required fields are set and consistent.
func (c *Config) validate() error {
	if c.SerialPort == "" {
		return fmt.Errorf("SERIAL_PORT is required")
	}
	if _, err := c.SerialOptions().Normalize(); err != nil {
		return err
	}
	if c.MQTTBroker != "" && (c.TopicPose == "" || c.TopicStatus == "") {
		return fmt.Errorf("TOPIC_POSE and TOPIC_STATUS are required when MQTT_BROKER is set")
	}
	if c.TopicPose != "" && c.TopicPose == c.TopicStatus {
		return fmt.Errorf("TOPIC_POSE and TOPIC_STATUS must differ, both are %q", c.TopicPose)
	}
	return nil
}

// SerialOptions converts the serial keys into port options.
func (c *Config) SerialOptions() serialport.Options {
	return serialport.Options{
		BaudRate:    c.SerialBaudRate,
		DataBits:    c.SerialDataBits,
		StopBits:    c.SerialStopBits,
		Parity:      c.SerialParity,
		ReadTimeout: c.ReadTimeout(),
	}
}

// ReadTimeout is SERIAL_READ_TIMEOUT_MS as a duration.
func (c *Config) ReadTimeout() time.Duration {
	return time.Duration(c.SerialReadTimeoutMs) * time.Millisecond
}

// HandoffPollInterval is HANDOFF_POLL_INTERVAL_MS as a duration.
func (c *Config) HandoffPollInterval() time.Duration {
	return time.Duration(c.HandoffPollIntervalMs) * time.Millisecond
}

// CodecOptions returns the protocol options selected by the config.
func (c *Config) CodecOptions() []protocol.CodecOption {
	if c.GX4Checksum == ChecksumFletcher {
		return []protocol.CodecOption{protocol.WithComputedChecksum()}
	}
	return nil
}

// InitGlobal initializes the global configuration from file.
// Only the first call loads; later calls return nil.
func InitGlobal(configPath string) error {
	var err error
	configOnce.Do(func() {
		configMu.Lock()
		defer configMu.Unlock()
		globalConfig, err = Load(configPath)
	})
	return err
}

// Get returns the global configuration instance.
// InitGlobal must be called first, or this will return nil.
func Get() *Config {
	configMu.RLock()
	defer configMu.RUnlock()
	return globalConfig
}
