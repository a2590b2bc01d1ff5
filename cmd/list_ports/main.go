// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package main

import (
	"fmt"
	"log"

	"github.com/relabs-tech/ahrs_emulator/internal/serialport"
)

func main() {
	ports, err := serialport.ListPorts()
	if err != nil {
		log.Fatalf("fatal: %v", err)
	}
	if len(ports) == 0 {
		fmt.Println("no serial ports found")
		return
	}
	for _, p := range ports {
		fmt.Println(p)
	}
}
