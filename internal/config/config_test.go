// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/relabs-tech/ahrs_emulator/internal/protocol"
	"github.com/relabs-tech/ahrs_emulator/internal/serialport"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "ahrs_emulator_config.txt")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadMinimalUsesDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, "# emulator\nSERIAL_PORT=/dev/ttyUSB0\n"))
	require.NoError(t, err)

	want := Defaults()
	want.SerialPort = "/dev/ttyUSB0"
	assert.Equal(t, want, cfg)

	assert.Equal(t, 100*time.Millisecond, cfg.ReadTimeout())
	assert.Equal(t, 100*time.Millisecond, cfg.HandoffPollInterval())
	assert.Nil(t, cfg.CodecOptions())
	assert.Equal(t, "115200 8N1", mustNormalize(t, cfg.SerialOptions()).String())
}

func TestLoadAllKeys(t *testing.T) {
	cfg, err := Load(writeConfig(t, `
SERIAL_PORT = COM3
SERIAL_BACKEND = bugst
SERIAL_BAUD_RATE = 38400
SERIAL_DATA_BITS = 7
SERIAL_STOP_BITS = 2
SERIAL_PARITY = E
SERIAL_READ_TIMEOUT_MS = 250
HANDOFF_POLL_INTERVAL_MS = 20
INITIAL_MODEL = 2
GX4_CHECKSUM = Fletcher
MQTT_BROKER = tcp://localhost:1883
MQTT_CLIENT_ID = bench-1
TOPIC_POSE = bench/pose
TOPIC_STATUS = bench/status
WEB_SERVER_PORT = 8080
LOG_DEBUG = true
`))
	require.NoError(t, err)

	assert.Equal(t, "COM3", cfg.SerialPort)
	assert.Equal(t, serialport.BackendBugst, cfg.SerialBackend)
	assert.Equal(t, protocol.ModelGX4_25, cfg.InitialModel)
	assert.Equal(t, ChecksumFletcher, cfg.GX4Checksum)
	assert.Len(t, cfg.CodecOptions(), 1)
	assert.Equal(t, 250*time.Millisecond, cfg.ReadTimeout())
	assert.Equal(t, 20*time.Millisecond, cfg.HandoffPollInterval())
	assert.Equal(t, "tcp://localhost:1883", cfg.MQTTBroker)
	assert.Equal(t, "bench-1", cfg.MQTTClientID)
	assert.Equal(t, "bench/pose", cfg.TopicPose)
	assert.Equal(t, "bench/status", cfg.TopicStatus)
	assert.Equal(t, 8080, cfg.WebServerPort)
	assert.True(t, cfg.LogDebug)
	assert.Equal(t, "38400 7E2", mustNormalize(t, cfg.SerialOptions()).String())
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    string
	}{
		{"missing port", "SERIAL_BAUD_RATE=9600\n", "SERIAL_PORT is required"},
		{"unknown key", "SERIAL_PORT=x\nIMU_LEFT_SPI_DEVICE=/dev/spidev0.0\n", "unknown config key"},
		{"no equals", "SERIAL_PORT\n", "invalid config line 1"},
		{"bad backend", "SERIAL_PORT=x\nSERIAL_BACKEND=rxtx\n", "unknown serial backend"},
		{"bad baud", "SERIAL_PORT=x\nSERIAL_BAUD_RATE=fast\n", "invalid SERIAL_BAUD_RATE"},
		{"data bits", "SERIAL_PORT=x\nSERIAL_DATA_BITS=9\n", "SERIAL_DATA_BITS must be 5-8"},
		{"stop bits", "SERIAL_PORT=x\nSERIAL_STOP_BITS=3\n", "SERIAL_STOP_BITS must be 1 or 2"},
		{"parity", "SERIAL_PORT=x\nSERIAL_PARITY=M\n", "unsupported parity"},
		{"timeout", "SERIAL_PORT=x\nSERIAL_READ_TIMEOUT_MS=0\n", "SERIAL_READ_TIMEOUT_MS must be 1-25500"},
		{"timeout above termios range", "SERIAL_PORT=x\nSERIAL_READ_TIMEOUT_MS=25501\n", "SERIAL_READ_TIMEOUT_MS must be 1-25500"},
		{"model", "SERIAL_PORT=x\nINITIAL_MODEL=7\n", "INITIAL_MODEL"},
		{"checksum", "SERIAL_PORT=x\nGX4_CHECKSUM=crc\n", "GX4_CHECKSUM must be"},
		{"web port", "SERIAL_PORT=x\nWEB_SERVER_PORT=70000\n", "WEB_SERVER_PORT must be 0-65535"},
		{"debug", "SERIAL_PORT=x\nLOG_DEBUG=maybe\n", "invalid LOG_DEBUG"},
		{"topics", "SERIAL_PORT=x\nMQTT_BROKER=tcp://b:1883\nTOPIC_POSE=\n", "TOPIC_POSE and TOPIC_STATUS"},
		{"same topic", "SERIAL_PORT=x\nTOPIC_POSE=ahrs\nTOPIC_STATUS=ahrs\n", "TOPIC_POSE and TOPIC_STATUS must differ"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.content))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestLoadLongestReadTimeout(t *testing.T) {
	cfg, err := Load(writeConfig(t, "SERIAL_PORT=x\nSERIAL_READ_TIMEOUT_MS=25500\n"))
	require.NoError(t, err)
	assert.Equal(t, 25500*time.Millisecond, cfg.ReadTimeout())
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.txt"))
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestInitialModelZeroMeansNone(t *testing.T) {
	cfg, err := Load(writeConfig(t, "SERIAL_PORT=x\nINITIAL_MODEL=0\n"))
	require.NoError(t, err)
	assert.Equal(t, protocol.ModelID(0), cfg.InitialModel)
}

func TestInitGlobal(t *testing.T) {
	path := writeConfig(t, "SERIAL_PORT=/dev/ttyACM0\n")
	require.NoError(t, InitGlobal(path))
	require.NotNil(t, Get())
	assert.Equal(t, "/dev/ttyACM0", Get().SerialPort)

	// later calls keep the first configuration
	require.NoError(t, InitGlobal(writeConfig(t, "SERIAL_PORT=/dev/ttyS1\n")))
	assert.Equal(t, "/dev/ttyACM0", Get().SerialPort)
}

func mustNormalize(t *testing.T, opts serialport.Options) serialport.Options {
	t.Helper()
	n, err := opts.Normalize()
	require.NoError(t, err)
	return n
}
