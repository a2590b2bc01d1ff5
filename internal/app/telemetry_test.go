// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/relabs-tech/ahrs_emulator/internal/orientation"
	"github.com/relabs-tech/ahrs_emulator/internal/protocol"
	"github.com/relabs-tech/ahrs_emulator/internal/session"
	"github.com/relabs-tech/ahrs_emulator/internal/status"
)

type fakeToken struct{ err error }

func (t *fakeToken) Wait() bool                     { return true }
func (t *fakeToken) WaitTimeout(time.Duration) bool { return true }
func (t *fakeToken) Error() error                   { return t.err }
func (t *fakeToken) Done() <-chan struct{} {
	ch := make(chan struct{})
	close(ch)
	return ch
}

type published struct {
	topic   string
	payload []byte
}

type fakePublisher struct {
	mu    sync.Mutex
	msgs  []published
	block chan struct{} // when set, Publish waits for it to close
	err   error
}

func (p *fakePublisher) Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token {
	if p.block != nil {
		<-p.block
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.msgs = append(p.msgs, published{topic: topic, payload: payload.([]byte)})
	return &fakeToken{err: p.err}
}

func (p *fakePublisher) messages() []published {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]published, len(p.msgs))
	copy(out, p.msgs)
	return out
}

func TestTelemetryPublishesPose(t *testing.T) {
	pub := &fakePublisher{}
	tel := NewTelemetry(pub, "ahrs/pose", "ahrs/status")

	sample := orientation.Generate(20, orientation.Amplitudes{Roll: 50, Pitch: 50, Heading: 50})
	tel.ObserveResponse(session.Response{
		Session: "abc",
		Model:   protocol.ModelGX4_25,
		Step:    20,
		Sample:  sample,
	})
	tel.Close()

	msgs := pub.messages()
	require.Len(t, msgs, 1)
	assert.Equal(t, "ahrs/pose", msgs[0].topic)

	var got PoseMessage
	require.NoError(t, json.Unmarshal(msgs[0].payload, &got))
	assert.Equal(t, PoseMessage{
		Session:   "abc",
		Model:     2,
		ModelName: "3DM-GX4-25",
		Step:      20,
		Roll:      sample.Roll,
		Pitch:     sample.Pitch,
		Heading:   sample.Heading,
	}, got)
}

func TestTelemetryPublishesStatusFromHub(t *testing.T) {
	pub := &fakePublisher{}
	tel := NewTelemetry(pub, "ahrs/pose", "ahrs/status")
	hub := status.NewHub(0)
	hub.AddSink(tel)

	hub.LogLine("Serial port opened ...")
	hub.LogLine("Initializing 3DM-GX2")
	tel.Close()

	msgs := pub.messages()
	require.Len(t, msgs, 2)
	for i, want := range []string{"Serial port opened ...", "Initializing 3DM-GX2"} {
		assert.Equal(t, "ahrs/status", msgs[i].topic)
		var got StatusMessage
		require.NoError(t, json.Unmarshal(msgs[i].payload, &got))
		assert.Equal(t, want, got.Text)
	}
}

func TestTelemetryNeverBlocksCaller(t *testing.T) {
	pub := &fakePublisher{block: make(chan struct{})}
	tel := NewTelemetry(pub, "ahrs/pose", "ahrs/status")

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < telemetryQueueSize+50; i++ {
			tel.LogLine("line")
		}
	}()

	select {
	case <-done:
	case <-time.After(waitLimit):
		t.Fatal("LogLine blocked on a stalled broker")
	}
	assert.NotZero(t, tel.Dropped())

	close(pub.block)
	tel.Close()
	assert.LessOrEqual(t, len(pub.messages()), telemetryQueueSize+1)
}

func TestTelemetryPublishErrorsAreNotFatal(t *testing.T) {
	pub := &fakePublisher{err: errors.New("not connected")}
	tel := NewTelemetry(pub, "ahrs/pose", "ahrs/status")
	tel.LogLine("one")
	tel.LogLine("two")
	tel.Close()
	assert.Len(t, pub.messages(), 2)

	// after close lines are dropped quietly
	tel.LogLine("three")
	tel.Close()
	assert.Len(t, pub.messages(), 2)
}
