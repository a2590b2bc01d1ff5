// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package status carries the human-readable event lines of the emulator
// (connect, activate, terminate, errors) to every interested reader.
package status

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/relabs-tech/ahrs_emulator/internal/log"
)

// Sink receives one status line at a time, in the order events happened.
type Sink interface {
	LogLine(text string)
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(text string)

func (f SinkFunc) LogLine(text string) { f(text) }

// Discard drops every line.
var Discard Sink = SinkFunc(func(string) {})

// Line is a status line as seen by subscribers.
type Line struct {
	Seq  uint64    `json:"seq"`
	Time time.Time `json:"time"`
	Text string    `json:"text"`
}

const subscriberBuffer = 64

// Hub fans status lines out to the zap logger, to attached sinks and to
// channel subscribers, and keeps the most recent lines for late joiners.
type Hub struct {
	mu          sync.Mutex
	seq         uint64
	history     []Line
	historySize int
	subscribers map[string]chan Line
	sinks       []Sink
	closed      bool
}

// NewHub creates a hub that remembers up to historySize lines.
func NewHub(historySize int) *Hub {
	if historySize < 0 {
		historySize = 0
	}
	return &Hub{
		historySize: historySize,
		subscribers: make(map[string]chan Line),
	}
}

// AddSink attaches another sink that receives every future line.
func (h *Hub) AddSink(s Sink) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.sinks = append(h.sinks, s)
}

// LogLine records text and delivers it. The hub lock is held for the whole
// delivery so every reader sees lines in the same order.
func (h *Hub) LogLine(text string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.seq++
	line := Line{Seq: h.seq, Time: time.Now(), Text: text}

	log.Infow(text, "seq", line.Seq)

	if h.historySize > 0 {
		h.history = append(h.history, line)
		if len(h.history) > h.historySize {
			h.history = h.history[len(h.history)-h.historySize:]
		}
	}

	for _, s := range h.sinks {
		s.LogLine(text)
	}

	for _, ch := range h.subscribers {
		select {
		case ch <- line:
		default:
			// slow subscriber, drop rather than stall the session loop
		}
	}
}

// Subscribe registers a channel for future lines and returns the current
// history alongside it, so nothing falls between the two.
func (h *Hub) Subscribe() (string, <-chan Line, []Line) {
	id := uuid.NewString()
	ch := make(chan Line, subscriberBuffer)

	h.mu.Lock()
	defer h.mu.Unlock()

	backlog := make([]Line, len(h.history))
	copy(backlog, h.history)

	if h.closed {
		close(ch)
		return id, ch, backlog
	}
	h.subscribers[id] = ch
	return id, ch, backlog
}

// Unsubscribe closes and removes a subscriber channel.
func (h *Hub) Unsubscribe(id string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if ch, ok := h.subscribers[id]; ok {
		close(ch)
		delete(h.subscribers, id)
	}
}

// History returns a copy of the remembered lines, oldest first.
func (h *Hub) History() []Line {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]Line, len(h.history))
	copy(out, h.history)
	return out
}

// Close closes every subscriber channel. Lines logged afterwards still reach
// the logger and sinks.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	h.closed = true
	for id, ch := range h.subscribers {
		close(ch)
		delete(h.subscribers, id)
	}
}
