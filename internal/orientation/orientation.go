// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package orientation

import (
	"math"
)

// Per-axis divisors applied to the step counter.
const (
	rollDivisor    = 50.0
	pitchDivisor   = 40.0
	headingDivisor = 30.0
)

// Sample is one synthetic orientation reading, in radians. Single precision
// matches the wire format.
type Sample struct {
	Roll    float32 `json:"roll"`
	Pitch   float32 `json:"pitch"`
	Heading float32 `json:"heading"`
}

// Amplitudes holds the peak value, in degrees, of each generated axis.
type Amplitudes struct {
	Roll    float32
	Pitch   float32
	Heading float32
}

// Generate computes the sample for the given step:
//
//	roll    = ampRoll    * sin(step/50) * pi/180
//	pitch   = ampPitch   * sin(step/40) * pi/180
//	heading = ampHeading * sin(step/30) * pi/180
//
// The result depends only on its arguments.
func Generate(step int, amps Amplitudes) Sample {
	return Sample{
		Roll:    axis(step, rollDivisor, amps.Roll),
		Pitch:   axis(step, pitchDivisor, amps.Pitch),
		Heading: axis(step, headingDivisor, amps.Heading),
	}
}

func axis(step int, divisor float64, amp float32) float32 {
	deg := amp * float32(math.Sin(float64(step)/divisor))
	return DegreesToRadians(deg)
}

// DegreesToRadians converts a single precision angle.
func DegreesToRadians(deg float32) float32 {
	return deg * float32(math.Pi) / 180.0
}

// MaxRadians returns the largest magnitude an axis with amplitude amp can
// reach.
func MaxRadians(amp float32) float32 {
	return DegreesToRadians(float32(math.Abs(float64(amp))))
}
