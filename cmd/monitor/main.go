// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/relabs-tech/ahrs_emulator/internal/app"
	"github.com/relabs-tech/ahrs_emulator/internal/config"
	applog "github.com/relabs-tech/ahrs_emulator/internal/log"
)

func main() {
	configPath := flag.String("config", "./ahrs_emulator_config.txt", "path to configuration file")
	flag.Parse()

	log.Println("starting AHRS emulator monitor (MQTT subscriber)")

	if err := config.InitGlobal(*configPath); err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	cfg := config.Get()

	if err := applog.Init(cfg.LogDebug); err != nil {
		log.Fatalf("failed to initialize logger: %v", err)
	}
	defer applog.Sync()

	// Wait for Ctrl+C
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := app.RunMonitor(ctx, cfg, os.Stdout); err != nil {
		applog.Fatalf("fatal: %v", err)
	}
}
