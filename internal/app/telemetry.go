// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"encoding/json"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/relabs-tech/ahrs_emulator/internal/log"
	"github.com/relabs-tech/ahrs_emulator/internal/session"
)

const (
	telemetryQueueSize    = 256
	publishTimeout        = 2 * time.Second
	mqttDisconnectQuiesce = 250 // ms
)

// PoseMessage is published for every answered request.
type PoseMessage struct {
	Session   string  `json:"session"`
	Model     int     `json:"model"`
	ModelName string  `json:"model_name"`
	Step      int     `json:"step"`
	Roll      float32 `json:"roll"`
	Pitch     float32 `json:"pitch"`
	Heading   float32 `json:"heading"`
}

// StatusMessage carries one status line.
type StatusMessage struct {
	Time time.Time `json:"time"`
	Text string    `json:"text"`
}

// Publisher is the part of mqtt.Client telemetry uses.
type Publisher interface {
	Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token
}

type outgoing struct {
	topic   string
	payload []byte
}

// Telemetry publishes poses and status lines to MQTT from its own goroutine,
// so a slow broker never holds up a session loop.
type Telemetry struct {
	pub         Publisher
	topicPose   string
	topicStatus string

	mu     sync.Mutex
	closed bool
	queue  chan outgoing
	done   chan struct{}

	dropped atomic.Uint64
}

// NewTelemetry starts the publishing goroutine.
func NewTelemetry(pub Publisher, topicPose, topicStatus string) *Telemetry {
	t := &Telemetry{
		pub:         pub,
		topicPose:   topicPose,
		topicStatus: topicStatus,
		queue:       make(chan outgoing, telemetryQueueSize),
		done:        make(chan struct{}),
	}
	go t.run()
	return t
}

// ObserveResponse is a session.ResponseFunc.
func (t *Telemetry) ObserveResponse(r session.Response) {
	msg := PoseMessage{
		Session:   r.Session,
		Model:     int(r.Model),
		ModelName: r.Model.Name(),
		Step:      r.Step,
		Roll:      r.Sample.Roll,
		Pitch:     r.Sample.Pitch,
		Heading:   r.Sample.Heading,
	}
	t.enqueue(t.topicPose, msg)
}

// LogLine implements status.Sink.
func (t *Telemetry) LogLine(text string) {
	t.enqueue(t.topicStatus, StatusMessage{Time: time.Now(), Text: text})
}

// Dropped reports how many messages were discarded because the queue was
// full.
func (t *Telemetry) Dropped() uint64 {
	return t.dropped.Load()
}

// Close publishes what is queued and stops the goroutine.
func (t *Telemetry) Close() {
	t.mu.Lock()
	if !t.closed {
		t.closed = true
		close(t.queue)
	}
	t.mu.Unlock()
	<-t.done
}

func (t *Telemetry) enqueue(topic string, v interface{}) {
	payload, err := json.Marshal(v)
	if err != nil {
		log.Errorf("telemetry: json marshal error: %v", err)
		return
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return
	}
	select {
	case t.queue <- outgoing{topic: topic, payload: payload}:
	default:
		if n := t.dropped.Add(1); n == 1 || n%100 == 0 {
			log.Warnf("telemetry: queue full, %d messages dropped", n)
		}
	}
}

func (t *Telemetry) run() {
	defer close(t.done)
	for msg := range t.queue {
		token := t.pub.Publish(msg.topic, 0, false, msg.payload)
		if !token.WaitTimeout(publishTimeout) {
			log.Warnf("telemetry: publish to %s timed out", msg.topic)
			continue
		}
		if err := token.Error(); err != nil {
			log.Warnf("telemetry: publish to %s: %v", msg.topic, err)
		}
	}
}

// ConnectMQTT connects a client to broker.
func ConnectMQTT(broker, clientID string) (mqtt.Client, error) {
	opts := mqtt.NewClientOptions().
		AddBroker(broker).
		SetClientID(clientID).
		SetAutoReconnect(true).
		SetConnectTimeout(5 * time.Second)

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return nil, fmt.Errorf("mqtt connect %s: %w", broker, token.Error())
	}
	log.Infof("connected to MQTT broker at %s", broker)
	return client, nil
}
