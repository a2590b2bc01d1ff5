// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package session

import (
	"sync"
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/relabs-tech/ahrs_emulator/internal/protocol"
)

// Handle is the shared state of one emulation session. The supervisor is
// the only writer of the stop request and the controller the only writer of
// the stopped confirmation.
type Handle struct {
	id    string
	model protocol.ModelID

	stopRequested atomic.Bool
	stopped       atomic.Bool

	done     chan struct{}
	doneOnce sync.Once
}

func newHandle(model protocol.ModelID) *Handle {
	return &Handle{
		id:    uuid.NewString(),
		model: model,
		done:  make(chan struct{}),
	}
}

// ID is a unique session id, used in logs and telemetry.
func (h *Handle) ID() string { return h.id }

// Model is the emulated model of this session.
func (h *Handle) Model() protocol.ModelID { return h.model }

// RequestStop asks the session to finish after its current read.
func (h *Handle) RequestStop() { h.stopRequested.Store(true) }

// StopRequested reports whether RequestStop has been called.
func (h *Handle) StopRequested() bool { return h.stopRequested.Load() }

// ConfirmStopped records that the session loop has exited. It is idempotent.
func (h *Handle) ConfirmStopped() {
	h.doneOnce.Do(func() {
		h.stopped.Store(true)
		close(h.done)
	})
}

// Stopped reports whether the session loop has exited.
func (h *Handle) Stopped() bool { return h.stopped.Load() }

// Done is closed once the session loop has exited.
func (h *Handle) Done() <-chan struct{} { return h.done }
