// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/relabs-tech/ahrs_emulator/internal/protocol"
)

func TestConsoleCommands(t *testing.T) {
	emu, _, _ := newTestEmulator(t, 0)
	out := &bytes.Buffer{}
	c := NewConsole(emu, nil, out, func() ([]string, error) {
		return []string{"/dev/ttyUSB0", "/dev/ttyUSB1"}, nil
	})

	assert.False(t, c.Execute("1"))
	assert.Contains(t, out.String(), "connect the serial port first")

	out.Reset()
	c.Execute("c")
	c.Execute("1")
	c.Execute("s")
	assert.Contains(t, out.String(), "port /dev/ttyTEST: connected")
	assert.Regexp(t, `\[1\] 3DM-GX2\s+ON`, out.String())
	assert.Regexp(t, `\[3\] 3DM-GX3-35\s+off \(no response frame\)`, out.String())

	out.Reset()
	c.Execute("1")
	assert.Contains(t, out.String(), "3DM-GX2 stopped")
	_, ok := emu.Active()
	assert.False(t, ok)

	out.Reset()
	c.Execute("0")
	assert.Contains(t, out.String(), "no active model")

	out.Reset()
	c.Execute("9")
	c.Execute("x")
	assert.Contains(t, out.String(), "unknown model 9")
	assert.Contains(t, out.String(), `unknown command "x"`)

	out.Reset()
	c.Execute("p")
	assert.Equal(t, "  /dev/ttyUSB0\n  /dev/ttyUSB1\n", out.String())

	c.Execute("d")
	assert.False(t, emu.Connected())
	assert.True(t, c.Execute("q"))
}

func TestConsoleListPortsError(t *testing.T) {
	emu, _, _ := newTestEmulator(t, 0)
	out := &bytes.Buffer{}
	c := NewConsole(emu, nil, out, func() ([]string, error) { return nil, errors.New("no permission") })
	c.Execute("p")
	assert.Contains(t, out.String(), "list ports failed: no permission")

	out.Reset()
	NewConsole(emu, nil, out, func() ([]string, error) { return nil, nil }).Execute("p")
	assert.Contains(t, out.String(), "no serial ports found")
}

func TestConsoleRunUntilQuit(t *testing.T) {
	emu, _, _ := newTestEmulator(t, 0)
	out := &bytes.Buffer{}
	c := NewConsole(emu, strings.NewReader("c\n2\nq\n1\n"), out, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	quit, err := c.Run(ctx)
	require.NoError(t, err)
	assert.True(t, quit)

	id, ok := emu.Active()
	assert.True(t, ok)
	assert.Equal(t, protocol.ModelGX4_25, id)
	assert.Contains(t, out.String(), "commands:")
}

func TestConsoleRunEndOfInput(t *testing.T) {
	emu, _, _ := newTestEmulator(t, 0)
	c := NewConsole(emu, strings.NewReader("c\n"), io.Discard, nil)
	quit, err := c.Run(context.Background())
	require.NoError(t, err)
	assert.False(t, quit)
	assert.True(t, emu.Connected())
}

func TestConsoleRunStopsOnCancel(t *testing.T) {
	emu, _, _ := newTestEmulator(t, 0)
	r, w := io.Pipe()
	defer w.Close()
	c := NewConsole(emu, r, io.Discard, nil)

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() {
		_, err := c.Run(ctx)
		errCh <- err
	}()

	cancel()
	select {
	case err := <-errCh:
		assert.NoError(t, err)
	case <-time.After(waitLimit):
		t.Fatal("console did not stop on cancel")
	}
}

func TestRunConsoleEndOfInput(t *testing.T) {
	tests := []struct {
		name       string
		input      string
		webEnabled bool
		wantCancel bool
	}{
		{"closed stdin keeps web control alive", "", true, false},
		{"closed stdin without web server stops", "", false, true},
		{"quit stops even with web server", "s\nq\n", true, true},
		{"quit stops without web server", "q\n", false, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			emu, _, _ := newTestEmulator(t, 0)
			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()

			c := NewConsole(emu, strings.NewReader(tt.input), io.Discard, nil)
			require.NoError(t, runConsole(ctx, c, cancel, tt.webEnabled))

			if tt.wantCancel {
				assert.ErrorIs(t, ctx.Err(), context.Canceled)
				return
			}
			select {
			case <-ctx.Done():
				t.Fatal("end of console input cancelled the shared context")
			case <-time.After(100 * time.Millisecond):
			}
		})
	}
}
