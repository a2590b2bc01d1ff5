// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package protocol

import (
	"encoding/binary"
	"math"

	"github.com/relabs-tech/ahrs_emulator/internal/orientation"
)

const (
	gx2EulerCommand = 0xCE
	gx2FrameLength  = 19
)

// The 3DM-GX2 reply ends with six bytes (timer and checksum on the real
// unit) that the emulator fills with a fixed pattern.
var gx2Trailer = [6]byte{0x01, 0x02, 0x03, 0x04, 0x05, 0x06}

type gx2Codec struct {
	desc Descriptor
}

func (c *gx2Codec) Descriptor() Descriptor { return c.desc }

func (c *gx2Codec) Detect(p []byte) []Request {
	return detectSingleByte(p, gx2EulerCommand)
}

// Encode lays out [cmd][roll][pitch][heading][01..06], floats big-endian.
func (c *gx2Codec) Encode(req Request, s orientation.Sample) ([]byte, error) {
	frame := make([]byte, gx2FrameLength)
	frame[0] = req.Command
	binary.BigEndian.PutUint32(frame[1:5], math.Float32bits(s.Roll))
	binary.BigEndian.PutUint32(frame[5:9], math.Float32bits(s.Pitch))
	binary.BigEndian.PutUint32(frame[9:13], math.Float32bits(s.Heading))
	copy(frame[13:], gx2Trailer[:])
	return frame, nil
}

// DecodeGX2 extracts the command byte and sample from a 3DM-GX2 reply.
func DecodeGX2(frame []byte) (byte, orientation.Sample, error) {
	if len(frame) != gx2FrameLength {
		return 0, orientation.Sample{}, &FrameLengthError{Want: gx2FrameLength, Got: len(frame)}
	}
	return frame[0], decodeEuler(frame[1:13]), nil
}

func decodeEuler(p []byte) orientation.Sample {
	return orientation.Sample{
		Roll:    math.Float32frombits(binary.BigEndian.Uint32(p[0:4])),
		Pitch:   math.Float32frombits(binary.BigEndian.Uint32(p[4:8])),
		Heading: math.Float32frombits(binary.BigEndian.Uint32(p[8:12])),
	}
}
