// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"context"
	"fmt"
	"os"

	"golang.org/x/sync/errgroup"

	"github.com/relabs-tech/ahrs_emulator/internal/config"
	"github.com/relabs-tech/ahrs_emulator/internal/log"
	"github.com/relabs-tech/ahrs_emulator/internal/serialport"
	"github.com/relabs-tech/ahrs_emulator/internal/session"
	"github.com/relabs-tech/ahrs_emulator/internal/status"
)

const statusHistorySize = 200

// RunEmulator wires the emulator from cfg and runs the console and the web
// server until quit or ctx is cancelled.
func RunEmulator(ctx context.Context, cfg *config.Config) error {
	open, err := serialport.Backend(cfg.SerialBackend)
	if err != nil {
		return err
	}

	hub := status.NewHub(statusHistorySize)
	defer hub.Close()

	sessOpts := session.Options{
		ReadTimeout:         cfg.ReadTimeout(),
		HandoffPollInterval: cfg.HandoffPollInterval(),
		CodecOptions:        cfg.CodecOptions(),
	}

	if cfg.MQTTBroker != "" {
		client, err := ConnectMQTT(cfg.MQTTBroker, cfg.MQTTClientID)
		if err != nil {
			log.Warnf("telemetry disabled: %v", err)
		} else {
			tel := NewTelemetry(client, cfg.TopicPose, cfg.TopicStatus)
			hub.AddSink(tel)
			sessOpts.OnResponse = tel.ObserveResponse
			defer client.Disconnect(mqttDisconnectQuiesce)
			defer tel.Close()
		}
	}

	emu := NewEmulator(open, EmulatorConfig{
		Path:         cfg.SerialPort,
		Serial:       cfg.SerialOptions(),
		Session:      sessOpts,
		InitialModel: cfg.InitialModel,
	}, hub)
	defer func() {
		if err := emu.Close(); err != nil {
			log.Warnf("closing emulator: %v", err)
		}
	}()

	if cfg.InitialModel != 0 {
		if err := emu.Connect(); err != nil {
			log.Warnf("initial connect failed: %v", err)
		}
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	g, gctx := errgroup.WithContext(ctx)

	console := NewConsole(emu, os.Stdin, os.Stdout, serialport.ListPorts)
	webEnabled := cfg.WebServerPort > 0
	g.Go(func() error {
		return runConsole(gctx, console, cancel, webEnabled)
	})

	if webEnabled {
		web := NewWebServer(emu, hub)
		addr := fmt.Sprintf(":%d", cfg.WebServerPort)
		g.Go(func() error {
			return RunWebServer(gctx, addr, web.Router())
		})
	}

	return g.Wait()
}

// runConsole runs c and decides whether its end stops the process. q always
// does. End of input (stdin closed, as under systemd or nohup) only does when
// the console is the sole control surface.
func runConsole(ctx context.Context, c *Console, cancel context.CancelFunc, webEnabled bool) error {
	quit, err := c.Run(ctx)
	if err != nil {
		return fmt.Errorf("console: %w", err)
	}
	if quit || !webEnabled {
		cancel()
		return nil
	}
	log.Infof("console input closed, control continues over the web server")
	return nil
}
