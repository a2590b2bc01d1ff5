// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package orientation

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGenerateStepZeroIsLevel(t *testing.T) {
	s := Generate(0, Amplitudes{Roll: 20, Pitch: 10, Heading: 50})
	assert.Equal(t, Sample{}, s)
}

func TestGenerateMatchesFormula(t *testing.T) {
	amps := Amplitudes{Roll: 20, Pitch: 10, Heading: 50}
	step := 37

	s := Generate(step, amps)

	wantRoll := float32(20) * float32(math.Sin(float64(step)/50.0)) * float32(math.Pi) / 180.0
	wantPitch := float32(10) * float32(math.Sin(float64(step)/40.0)) * float32(math.Pi) / 180.0
	wantHeading := float32(50) * float32(math.Sin(float64(step)/30.0)) * float32(math.Pi) / 180.0

	assert.Equal(t, wantRoll, s.Roll)
	assert.Equal(t, wantPitch, s.Pitch)
	assert.Equal(t, wantHeading, s.Heading)
}

func TestGenerateIsDeterministic(t *testing.T) {
	amps := Amplitudes{Roll: 50, Pitch: 50, Heading: 50}
	for step := 0; step < 500; step += 7 {
		a := Generate(step, amps)
		b := Generate(step, amps)
		assert.Equal(t, math.Float32bits(a.Roll), math.Float32bits(b.Roll))
		assert.Equal(t, math.Float32bits(a.Pitch), math.Float32bits(b.Pitch))
		assert.Equal(t, math.Float32bits(a.Heading), math.Float32bits(b.Heading))
	}
}

func TestGenerateIsBounded(t *testing.T) {
	amps := Amplitudes{Roll: 20, Pitch: 10, Heading: 50}
	// small tolerance for the float32 rounding of sin*amp*pi/180
	const eps = 1e-6
	for step := 0; step < 2000; step++ {
		s := Generate(step, amps)
		assert.LessOrEqual(t, math.Abs(float64(s.Roll)), float64(MaxRadians(amps.Roll))+eps)
		assert.LessOrEqual(t, math.Abs(float64(s.Pitch)), float64(MaxRadians(amps.Pitch))+eps)
		assert.LessOrEqual(t, math.Abs(float64(s.Heading)), float64(MaxRadians(amps.Heading))+eps)
	}
}

func TestAxesHaveDifferentPeriods(t *testing.T) {
	s := Generate(100, Amplitudes{Roll: 1, Pitch: 1, Heading: 1})
	assert.NotEqual(t, s.Roll, s.Pitch)
	assert.NotEqual(t, s.Pitch, s.Heading)
}

func TestGeneratorAdvance(t *testing.T) {
	amps := Amplitudes{Roll: 50, Pitch: 50, Heading: 50}
	g := NewGenerator(20, amps)

	assert.Equal(t, 20, g.Step())
	assert.Equal(t, Generate(20, amps), g.Next())

	// Next alone does not consume a step
	assert.Equal(t, Generate(20, amps), g.Next())

	g.Advance()
	assert.Equal(t, 21, g.Step())
	assert.Equal(t, Generate(21, amps), g.Next())
}

func TestDegreesToRadians(t *testing.T) {
	assert.InDelta(t, math.Pi, float64(DegreesToRadians(180)), 1e-6)
	assert.InDelta(t, -math.Pi/2, float64(DegreesToRadians(-90)), 1e-6)
}
