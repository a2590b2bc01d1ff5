// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/relabs-tech/ahrs_emulator/internal/protocol"
)

const consoleHelp = `commands:
  c      connect serial port
  d      disconnect serial port
  1-4    select model (again to stop it)
  0      deactivate
  s      show status
  p      list serial ports
  q      quit`

// Console is the keyboard control of the emulator.
type Console struct {
	emu       *Emulator
	in        io.Reader
	out       io.Writer
	listPorts func() ([]string, error)
}

func NewConsole(emu *Emulator, in io.Reader, out io.Writer, listPorts func() ([]string, error)) *Console {
	return &Console{emu: emu, in: in, out: out, listPorts: listPorts}
}

// Run reads commands until q, end of input or ctx is cancelled. quit is true
// only when the operator typed q.
func (c *Console) Run(ctx context.Context) (quit bool, err error) {
	lines := make(chan string)
	readErr := make(chan error, 1)
	go func() {
		scanner := bufio.NewScanner(c.in)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
		readErr <- scanner.Err()
	}()

	fmt.Fprintln(c.out, consoleHelp)
	for {
		select {
		case <-ctx.Done():
			return false, nil
		case err := <-readErr:
			return false, err
		case line := <-lines:
			if c.Execute(strings.TrimSpace(line)) {
				return true, nil
			}
		}
	}
}

// Execute runs one command and reports whether it was quit.
func (c *Console) Execute(cmd string) (quit bool) {
	switch cmd {
	case "":
	case "q":
		return true
	case "c":
		if err := c.emu.Connect(); err != nil {
			fmt.Fprintf(c.out, "connect failed: %v\n", err)
		}
	case "d":
		if err := c.emu.Disconnect(); err != nil {
			fmt.Fprintf(c.out, "disconnect failed: %v\n", err)
		}
	case "0":
		if !c.emu.Deactivate() {
			fmt.Fprintln(c.out, "no active model")
		}
	case "s":
		c.printStatus()
	case "p":
		c.printPorts()
	case "h", "?":
		fmt.Fprintln(c.out, consoleHelp)
	default:
		n, err := strconv.Atoi(cmd)
		if err != nil {
			fmt.Fprintf(c.out, "unknown command %q\n", cmd)
			return false
		}
		c.selectModel(n)
	}
	return false
}

func (c *Console) selectModel(n int) {
	id, err := protocol.ParseModelID(n)
	if err != nil {
		fmt.Fprintf(c.out, "unknown model %d\n", n)
		return
	}
	started, err := c.emu.Select(id)
	switch {
	case errors.Is(err, ErrNotConnected):
		fmt.Fprintln(c.out, "connect the serial port first")
	case err != nil:
		fmt.Fprintf(c.out, "select failed: %v\n", err)
	case !started:
		fmt.Fprintf(c.out, "%s stopped\n", id.Name())
	}
}

func (c *Console) printStatus() {
	state := "disconnected"
	if c.emu.Connected() {
		state = "connected"
	}
	fmt.Fprintf(c.out, "port %s: %s\n", c.emu.PortPath(), state)
	for _, ind := range c.emu.Indicators() {
		mark := "off"
		if ind.Active {
			mark = "ON"
		}
		note := ""
		if !ind.Supported {
			note = " (no response frame)"
		}
		fmt.Fprintf(c.out, "  [%d] %-16s %s%s\n", ind.ID, ind.Name, mark, note)
	}
}

func (c *Console) printPorts() {
	if c.listPorts == nil {
		return
	}
	ports, err := c.listPorts()
	if err != nil {
		fmt.Fprintf(c.out, "list ports failed: %v\n", err)
		return
	}
	if len(ports) == 0 {
		fmt.Fprintln(c.out, "no serial ports found")
		return
	}
	for _, p := range ports {
		fmt.Fprintln(c.out, "  "+p)
	}
}
