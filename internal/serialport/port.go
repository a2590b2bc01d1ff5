// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package serialport is the byte-stream boundary of the emulator: the port
// interface the sessions talk to, the real serial backends behind it and an
// in-memory port for tests.
package serialport

import (
	"errors"
	"io"
	"time"
)

var (
	ErrPortUnavailable = errors.New("serial port unavailable")
	ErrUnknownBackend  = errors.New("unknown serial backend")
	ErrPortClosed      = errors.New("serial port closed")
)

// Port is the minimal duplex stream the emulator needs.
type Port interface {
	io.ReadWriter
	io.Closer
}

// TimeoutPort is a Port whose reads give up after a timeout, returning
// (0, nil). Sessions rely on this to notice cancellation.
type TimeoutPort interface {
	Port
	SetReadTimeout(timeout time.Duration) error
}

// Opener opens the serial device at path.
type Opener func(path string, opts Options) (Port, error)
