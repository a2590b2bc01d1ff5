// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package session

import (
	"io"
	"sync"
	"sync/atomic"
	"time"

	"github.com/relabs-tech/ahrs_emulator/internal/log"
	"github.com/relabs-tech/ahrs_emulator/internal/protocol"
	"github.com/relabs-tech/ahrs_emulator/internal/serialport"
	"github.com/relabs-tech/ahrs_emulator/internal/status"
)

const (
	DefaultHandoffPollInterval = 100 * time.Millisecond

	// ticks between "still waiting" warnings during a hand-off
	handoffWarnTicks = 50
)

// Options configures a Supervisor.
type Options struct {
	// ReadTimeout is applied to ports that support it. It bounds how long a
	// session takes to notice a stop request.
	ReadTimeout time.Duration
	// HandoffPollInterval is how often a hand-off rechecks the old session.
	HandoffPollInterval time.Duration
	CodecOptions        []protocol.CodecOption
	OnResponse          ResponseFunc
}

// Supervisor keeps at most one session running on a port. Control calls
// are serialized; a new session never starts before the previous one has
// confirmed it stopped.
type Supervisor struct {
	mu     sync.Mutex
	port   io.ReadWriter
	opts   Options
	status status.Sink
	closed bool

	current atomic.Pointer[Handle]
}

// NewSupervisor creates a supervisor for port.
func NewSupervisor(port io.ReadWriter, sink status.Sink, opts Options) *Supervisor {
	if opts.HandoffPollInterval <= 0 {
		opts.HandoffPollInterval = DefaultHandoffPollInterval
	}
	if sink == nil {
		sink = status.Discard
	}

	if tp, ok := port.(serialport.TimeoutPort); ok && opts.ReadTimeout > 0 {
		if err := tp.SetReadTimeout(opts.ReadTimeout); err != nil {
			log.Warnf("could not set serial read timeout to %v: %v", opts.ReadTimeout, err)
		}
	}

	return &Supervisor{
		port:   port,
		opts:   opts,
		status: sink,
	}
}

// Activate selects model id. When id is already the running model the
// session is stopped and nothing replaces it, so selecting a model twice
// toggles it off. Otherwise any running session is stopped and waited for
// and a new one is launched. started reports whether a session was launched.
func (s *Supervisor) Activate(id protocol.ModelID) (started bool, err error) {
	codec, err := protocol.NewCodec(id, s.opts.CodecOptions...)
	if err != nil {
		return false, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return false, ErrSupervisorClosed
	}

	if cur := s.running(); cur != nil {
		s.stopAndWait(cur)
		if cur.Model() == id {
			return false, nil
		}
	}

	h := newHandle(id)
	ctrl := NewController(s.port, codec, s.status, s.opts.OnResponse)

	s.status.LogLine("Initializing " + codec.Descriptor().Name)
	s.current.Store(h)
	go ctrl.Run(h)

	return true, nil
}

// Deactivate stops the running session, if any, and waits for it. It
// reports whether there was one.
func (s *Supervisor) Deactivate() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	cur := s.running()
	if cur == nil {
		return false
	}
	s.stopAndWait(cur)
	return true
}

// Close deactivates and refuses further activations.
func (s *Supervisor) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if cur := s.running(); cur != nil {
		s.stopAndWait(cur)
	}
	s.closed = true
}

// Active reports the model of the running session. A session that is being
// stopped or that ended on a port error is not active.
func (s *Supervisor) Active() (protocol.ModelID, bool) {
	h := s.current.Load()
	if h == nil || h.StopRequested() || h.Stopped() {
		return 0, false
	}
	return h.Model(), true
}

// Current returns the most recently launched session handle, or nil.
func (s *Supervisor) Current() *Handle {
	return s.current.Load()
}

// running returns the current handle if its loop has not exited.
func (s *Supervisor) running() *Handle {
	h := s.current.Load()
	if h == nil || h.Stopped() {
		return nil
	}
	return h
}

// stopAndWait requests a stop and blocks until the session confirms it.
func (s *Supervisor) stopAndWait(h *Handle) {
	h.RequestStop()

	ticker := time.NewTicker(s.opts.HandoffPollInterval)
	defer ticker.Stop()

	ticks := 0
	for !h.Stopped() {
		select {
		case <-h.Done():
		case <-ticker.C:
			ticks++
			if ticks%handoffWarnTicks == 0 {
				log.Warnw("still waiting for session to stop",
					"session", h.ID(), "model", h.Model().Name(), "waited", time.Duration(ticks)*s.opts.HandoffPollInterval)
			}
		}
	}
}
