// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package serialport

import (
	"fmt"
	"strings"
	"time"
)

const (
	DefaultBaudRate    = 115200
	DefaultReadTimeout = 100 * time.Millisecond

	// MaxReadTimeoutMs is the longest timeout termios VTIME can express
	// (255 deciseconds).
	MaxReadTimeoutMs = 25500
)

// Options describes the line settings used when opening a real port. The
// emulated devices all run 115200 8N1.
type Options struct {
	BaudRate    int
	DataBits    int
	StopBits    int
	Parity      string
	ReadTimeout time.Duration
}

// Normalize validates the options and applies defaults for any unset values.
func (o Options) Normalize() (Options, error) {
	opts := o

	if opts.BaudRate <= 0 {
		opts.BaudRate = DefaultBaudRate
	}

	if opts.DataBits == 0 {
		opts.DataBits = 8
	}
	if opts.DataBits < 5 || opts.DataBits > 8 {
		return opts, fmt.Errorf("invalid data bits %d: must be between 5 and 8", opts.DataBits)
	}

	if opts.StopBits == 0 {
		opts.StopBits = 1
	}
	if opts.StopBits != 1 && opts.StopBits != 2 {
		return opts, fmt.Errorf("invalid stop bits %d: supported values are 1 or 2", opts.StopBits)
	}

	parity := strings.TrimSpace(strings.ToUpper(opts.Parity))
	switch parity {
	case "", "N", "NONE":
		parity = "N"
	case "E", "EVEN":
		parity = "E"
	case "O", "ODD":
		parity = "O"
	default:
		return opts, fmt.Errorf("unsupported parity %q: expected N, E, or O", opts.Parity)
	}
	opts.Parity = parity

	if opts.ReadTimeout < 0 {
		return opts, fmt.Errorf("invalid read timeout %v", opts.ReadTimeout)
	}
	if opts.ReadTimeout == 0 {
		opts.ReadTimeout = DefaultReadTimeout
	}

	return opts, nil
}

// Equal reports whether two Options describe the same serial configuration.
func (o Options) Equal(other Options) bool {
	a, errA := o.Normalize()
	b, errB := other.Normalize()
	if errA != nil || errB != nil {
		return false
	}
	return a == b
}

func (o Options) String() string {
	return fmt.Sprintf("%d %d%s%d", o.BaudRate, o.DataBits, o.Parity, o.StopBits)
}
