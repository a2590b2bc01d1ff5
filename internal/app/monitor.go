// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/relabs-tech/ahrs_emulator/internal/config"
	"github.com/relabs-tech/ahrs_emulator/internal/log"
)

// RunMonitor prints the poses and status lines a running emulator publishes
// until ctx is cancelled.
func RunMonitor(ctx context.Context, cfg *config.Config, out io.Writer) error {
	if cfg.MQTTBroker == "" {
		return fmt.Errorf("monitor: MQTT_BROKER is not set")
	}

	client, err := ConnectMQTT(cfg.MQTTBroker, cfg.MQTTClientID+"-monitor")
	if err != nil {
		return err
	}
	defer client.Disconnect(mqttDisconnectQuiesce)

	subs := map[string]mqtt.MessageHandler{
		cfg.TopicPose:   poseHandler(out),
		cfg.TopicStatus: statusHandler(out),
	}
	for topic, handler := range subs {
		token := client.Subscribe(topic, 0, handler)
		token.Wait()
		if token.Error() != nil {
			return fmt.Errorf("monitor: subscribe %s: %w", topic, token.Error())
		}
		log.Infof("monitor: subscribed to %s", topic)
	}

	<-ctx.Done()
	log.Infof("monitor: shutting down")
	return nil
}

func poseHandler(out io.Writer) mqtt.MessageHandler {
	return func(_ mqtt.Client, msg mqtt.Message) {
		var p PoseMessage
		if err := json.Unmarshal(msg.Payload(), &p); err != nil {
			log.Warnf("monitor: pose unmarshal error: %v", err)
			return
		}
		fmt.Fprintf(out,
			"[POSE] %-14s step=%5d  ROLL=%8.5f  PITCH=%8.5f  HEADING=%8.5f\n",
			p.ModelName, p.Step, p.Roll, p.Pitch, p.Heading,
		)
	}
}

func statusHandler(out io.Writer) mqtt.MessageHandler {
	return func(_ mqtt.Client, msg mqtt.Message) {
		var s StatusMessage
		if err := json.Unmarshal(msg.Payload(), &s); err != nil {
			log.Warnf("monitor: status unmarshal error: %v", err)
			return
		}
		fmt.Fprintf(out, "[STAT] %s %s\n", s.Time.Format("15:04:05.000"), s.Text)
	}
}
