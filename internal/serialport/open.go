// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package serialport

import (
	"errors"
	"fmt"
	"io"
	"sort"
	"time"

	jserial "github.com/jacobsa/go-serial/serial"
	bserial "go.bug.st/serial"
)

const (
	BackendJacobsa = "jacobsa"
	BackendBugst   = "bugst"
)

// Backend returns the opener registered under name.
func Backend(name string) (Opener, error) {
	switch name {
	case "", BackendJacobsa:
		return OpenJacobsa, nil
	case BackendBugst:
		return OpenBugst, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, name)
	}
}

// OpenJacobsa opens path with github.com/jacobsa/go-serial. The port is put
// in timed-read mode (VMIN=0, VTIME=timeout), so the read timeout is fixed at
// open time and has a resolution of 100ms.
func OpenJacobsa(path string, opts Options) (Port, error) {
	opts, err := opts.Normalize()
	if err != nil {
		return nil, err
	}

	serialOpts := jserial.OpenOptions{
		PortName:              path,
		BaudRate:              uint(opts.BaudRate),
		DataBits:              uint(opts.DataBits),
		StopBits:              uint(opts.StopBits),
		MinimumReadSize:       0,
		InterCharacterTimeout: deciseconds(opts.ReadTimeout),
	}
	switch opts.Parity {
	case "E":
		serialOpts.ParityMode = jserial.PARITY_EVEN
	case "O":
		serialOpts.ParityMode = jserial.PARITY_ODD
	default:
		serialOpts.ParityMode = jserial.PARITY_NONE
	}

	rwc, err := jserial.Open(serialOpts)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrPortUnavailable, path, err)
	}
	return &timedPort{rwc: rwc}, nil
}

// deciseconds rounds d up to the 100ms steps termios VTIME understands and
// returns it in milliseconds, clamped to MaxReadTimeoutMs.
func deciseconds(d time.Duration) uint {
	ms := uint((d + time.Millisecond - 1) / time.Millisecond)
	if ms < 100 {
		return 100
	}
	if ms >= MaxReadTimeoutMs {
		return MaxReadTimeoutMs
	}
	return (ms + 99) / 100 * 100
}

// timedPort adapts a VTIME-timed tty. When the timer expires read(2)
// returns zero bytes, which os.File reports as io.EOF; for a tty that only
// means nothing arrived.
type timedPort struct {
	rwc io.ReadWriteCloser
}

func (p *timedPort) Read(b []byte) (int, error) {
	n, err := p.rwc.Read(b)
	if n == 0 && errors.Is(err, io.EOF) {
		return 0, nil
	}
	return n, err
}

func (p *timedPort) Write(b []byte) (int, error) { return p.rwc.Write(b) }

func (p *timedPort) Close() error { return p.rwc.Close() }

// OpenBugst opens path with go.bug.st/serial. The returned port supports
// SetReadTimeout.
func OpenBugst(path string, opts Options) (Port, error) {
	opts, err := opts.Normalize()
	if err != nil {
		return nil, err
	}

	mode := &bserial.Mode{
		BaudRate: opts.BaudRate,
		DataBits: opts.DataBits,
		StopBits: bserial.OneStopBit,
	}
	if opts.StopBits == 2 {
		mode.StopBits = bserial.TwoStopBits
	}
	switch opts.Parity {
	case "E":
		mode.Parity = bserial.EvenParity
	case "O":
		mode.Parity = bserial.OddParity
	default:
		mode.Parity = bserial.NoParity
	}

	port, err := bserial.Open(path, mode)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrPortUnavailable, path, err)
	}
	if err := port.SetReadTimeout(opts.ReadTimeout); err != nil {
		port.Close()
		return nil, fmt.Errorf("%w: %s: set read timeout: %v", ErrPortUnavailable, path, err)
	}
	return port, nil
}

// ListPorts returns the serial devices present on this machine, sorted.
func ListPorts() ([]string, error) {
	ports, err := bserial.GetPortsList()
	if err != nil {
		return nil, fmt.Errorf("list serial ports: %w", err)
	}
	sort.Strings(ports)
	return ports, nil
}
