// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/relabs-tech/ahrs_emulator/internal/log"
	"github.com/relabs-tech/ahrs_emulator/internal/protocol"
	"github.com/relabs-tech/ahrs_emulator/internal/serialport"
	"github.com/relabs-tech/ahrs_emulator/internal/session"
	"github.com/relabs-tech/ahrs_emulator/internal/status"
)

var ErrNotConnected = errors.New("serial port not connected")

// EmulatorConfig holds what the emulator needs to open the port and run
// sessions on it.
type EmulatorConfig struct {
	Path         string
	Serial       serialport.Options
	Session      session.Options
	InitialModel protocol.ModelID // activated after every connect, 0 = none
}

// Indicator is the on/off state of one model, as shown to the operator.
type Indicator struct {
	ID        protocol.ModelID `json:"id"`
	Name      string           `json:"name"`
	Supported bool             `json:"supported"`
	Active    bool             `json:"active"`
}

// Emulator owns the serial port lifecycle and the session supervisor that
// runs on it.
type Emulator struct {
	mu     sync.Mutex // serializes connect, disconnect and selection
	open   serialport.Opener
	cfg    EmulatorConfig
	status status.Sink

	port serialport.Port
	sup  atomic.Pointer[session.Supervisor]
}

// NewEmulator creates a disconnected emulator.
func NewEmulator(open serialport.Opener, cfg EmulatorConfig, sink status.Sink) *Emulator {
	if sink == nil {
		sink = status.Discard
	}
	return &Emulator{
		open:   open,
		cfg:    cfg,
		status: sink,
	}
}

// Connect opens the serial port. It is a no-op when already connected.
func (e *Emulator) Connect() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.port != nil {
		log.Debugf("serial port %s already open", e.cfg.Path)
		return nil
	}

	port, err := e.open(e.cfg.Path, e.cfg.Serial)
	if err != nil {
		e.status.LogLine(fmt.Sprintf("Could not open serial port %s: %v", e.cfg.Path, err))
		return err
	}

	e.port = port
	e.sup.Store(session.NewSupervisor(port, e.status, e.cfg.Session))
	e.status.LogLine("Serial port opened ...")

	if e.cfg.InitialModel != 0 {
		if _, err := e.sup.Load().Activate(e.cfg.InitialModel); err != nil {
			log.Warnf("initial model %d: %v", e.cfg.InitialModel, err)
		}
	}
	return nil
}

// Disconnect stops any running session and closes the port. It is a no-op
// when not connected.
func (e *Emulator) Disconnect() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.port == nil {
		return nil
	}

	e.sup.Load().Close()
	e.sup.Store(nil)

	err := e.port.Close()
	e.port = nil
	e.status.LogLine("Closed serial port ...")
	if err != nil {
		return fmt.Errorf("close serial port: %w", err)
	}
	return nil
}

// Select activates model id, or stops it when it is the running model.
// Selection while disconnected is ignored and returns ErrNotConnected.
func (e *Emulator) Select(id protocol.ModelID) (started bool, err error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	sup := e.sup.Load()
	if sup == nil {
		log.Infof("ignoring selection of model %d: %v", id, ErrNotConnected)
		return false, ErrNotConnected
	}
	return sup.Activate(id)
}

// Deactivate stops the running session. It reports whether one was running.
func (e *Emulator) Deactivate() bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	sup := e.sup.Load()
	if sup == nil {
		return false
	}
	return sup.Deactivate()
}

// Connected reports whether the port is open.
func (e *Emulator) Connected() bool {
	return e.sup.Load() != nil
}

// Active reports the model of the running session.
func (e *Emulator) Active() (protocol.ModelID, bool) {
	sup := e.sup.Load()
	if sup == nil {
		return 0, false
	}
	return sup.Active()
}

// PortPath is the configured serial device.
func (e *Emulator) PortPath() string {
	return e.cfg.Path
}

// Indicators lists every model with its active flag. At most one is active.
func (e *Emulator) Indicators() []Indicator {
	active, ok := e.Active()

	models := protocol.Models()
	out := make([]Indicator, 0, len(models))
	for _, d := range models {
		out = append(out, Indicator{
			ID:        d.ID,
			Name:      d.Name,
			Supported: d.Supported(),
			Active:    ok && d.ID == active,
		})
	}
	return out
}

// Close disconnects.
func (e *Emulator) Close() error {
	return e.Disconnect()
}
