// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package orientation

// Generator is a stepped sinusoidal source. The step only moves forward when
// Advance is called, so a request that could not be answered does not consume
// a step.
type Generator struct {
	step int
	amps Amplitudes
}

// NewGenerator creates a generator starting at the given step.
func NewGenerator(initialStep int, amps Amplitudes) *Generator {
	return &Generator{step: initialStep, amps: amps}
}

// Next returns the sample for the current step.
func (g *Generator) Next() Sample {
	return Generate(g.step, g.amps)
}

// Advance moves to the next step.
func (g *Generator) Advance() {
	g.step++
}

// Step reports the current step.
func (g *Generator) Step() int {
	return g.step
}
