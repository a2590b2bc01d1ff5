// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package session runs the emulation: a Controller answers requests for one
// model and a Supervisor makes sure only one Controller owns the port.
package session

import (
	"errors"
	"fmt"
	"io"

	"github.com/relabs-tech/ahrs_emulator/internal/log"
	"github.com/relabs-tech/ahrs_emulator/internal/orientation"
	"github.com/relabs-tech/ahrs_emulator/internal/protocol"
	"github.com/relabs-tech/ahrs_emulator/internal/status"
)

// readBufferSize matches the UART buffer the devices are polled with.
const readBufferSize = 30

// Response describes one answered request.
type Response struct {
	Session string
	Model   protocol.ModelID
	Step    int
	Sample  orientation.Sample
	Frame   []byte
}

// ResponseFunc observes answered requests. It runs on the session goroutine
// and must not block.
type ResponseFunc func(Response)

// Controller owns the read / detect / respond loop of one session.
type Controller struct {
	port    io.ReadWriter
	codec   protocol.Codec
	gen     *orientation.Generator
	status  status.Sink
	observe ResponseFunc
}

// NewController prepares a session loop for the codec's model. The step
// counter starts at the model's initial step.
func NewController(port io.ReadWriter, codec protocol.Codec, sink status.Sink, observe ResponseFunc) *Controller {
	d := codec.Descriptor()
	if sink == nil {
		sink = status.Discard
	}
	return &Controller{
		port:    port,
		codec:   codec,
		gen:     orientation.NewGenerator(d.InitialStep, d.Amplitudes),
		status:  sink,
		observe: observe,
	}
}

// Run polls the port until h has a stop request or the port fails. Errors
// end the session and are reported as status lines; nothing is returned.
func (c *Controller) Run(h *Handle) {
	name := c.codec.Descriptor().Name
	defer func() {
		c.status.LogLine(fmt.Sprintf("Exiting %s serial communications thread ...", name))
		h.ConfirmStopped()
	}()

	buf := make([]byte, readBufferSize)
	for !h.StopRequested() {
		n, err := c.port.Read(buf)
		if n > 0 {
			if werr := c.respond(h, buf[:n]); werr != nil {
				c.status.LogLine(fmt.Sprintf("Serial error in module %s: %v", name, werr))
				return
			}
		}
		if err != nil {
			c.status.LogLine(fmt.Sprintf("Serial error in module %s: %v", name, err))
			return
		}
	}
}

// respond answers every request completed by p.
func (c *Controller) respond(h *Handle, p []byte) error {
	for _, req := range c.codec.Detect(p) {
		sample := c.gen.Next()

		frame, err := c.codec.Encode(req, sample)
		if errors.Is(err, protocol.ErrUnsupportedModel) {
			c.status.LogLine(fmt.Sprintf("Request ignored: %v", err))
			continue
		}
		if err != nil {
			return fmt.Errorf("encode: %w", err)
		}

		n, err := c.port.Write(frame)
		if err != nil {
			return fmt.Errorf("write: %w", err)
		}
		if n != len(frame) {
			return fmt.Errorf("write: %w (%d of %d bytes)", io.ErrShortWrite, n, len(frame))
		}

		step := c.gen.Step()
		c.gen.Advance()
		log.Debugw("answered request", "session", h.ID(), "model", h.Model(), "step", step)

		if c.observe != nil {
			c.observe(Response{
				Session: h.ID(),
				Model:   h.Model(),
				Step:    step,
				Sample:  sample,
				Frame:   frame,
			})
		}
	}
	return nil
}
