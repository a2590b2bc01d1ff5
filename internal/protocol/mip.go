// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package protocol

import (
	"encoding/binary"
	"math"

	"github.com/relabs-tech/ahrs_emulator/internal/orientation"
)

// MIP packet constants for the 3DM-GX4 family.
//
//	|75 65| sync
//	|80|    IMU data set descriptor
//	|0E|    payload length (all fields)
//	|0E|    field length (the only field)
//	|0C|    field descriptor: Euler angles
//	roll, pitch, heading as big-endian float32
//	|60 65| checksum placeholder
const (
	mipSyncLead          = 0x75
	mipSyncLag           = 0x65
	mipDescriptorIMUData = 0x80
	mipFieldEuler        = 0x0C
	mipEulerFieldLength  = 14
	mipPayloadLength     = mipEulerFieldLength
	mipFrameLength       = 20

	mipPlaceholderMSB = 0x60
	mipPlaceholderLSB = 0x65
)

// mipCodec keeps a two slot buffer that request bytes are shifted into one
// at a time. After every second byte the pair is compared with the sync
// signature and the slot counter goes back to zero, match or not.
type mipCodec struct {
	desc             Descriptor
	computedChecksum bool

	sync  [2]byte
	slots int
}

func (c *mipCodec) Descriptor() Descriptor { return c.desc }

func (c *mipCodec) Detect(p []byte) []Request {
	var reqs []Request
	for _, b := range p {
		c.sync[c.slots] = b
		c.slots++
		if c.slots < len(c.sync) {
			continue
		}
		c.slots = 0
		if c.sync[0] == mipSyncLead && c.sync[1] == mipSyncLag {
			reqs = append(reqs, Request{Command: c.sync[1]})
		}
	}
	return reqs
}

func (c *mipCodec) Encode(_ Request, s orientation.Sample) ([]byte, error) {
	frame := make([]byte, mipFrameLength)
	frame[0] = mipSyncLead
	frame[1] = mipSyncLag
	frame[2] = mipDescriptorIMUData
	frame[3] = mipPayloadLength
	frame[4] = mipEulerFieldLength
	frame[5] = mipFieldEuler
	binary.BigEndian.PutUint32(frame[6:10], math.Float32bits(s.Roll))
	binary.BigEndian.PutUint32(frame[10:14], math.Float32bits(s.Pitch))
	binary.BigEndian.PutUint32(frame[14:18], math.Float32bits(s.Heading))

	if c.computedChecksum {
		frame[18], frame[19] = Fletcher16(frame[:18])
	} else {
		frame[18], frame[19] = mipPlaceholderMSB, mipPlaceholderLSB
	}
	return frame, nil
}

// DecodeMIP extracts the sample from a 3DM-GX4 Euler reply. The checksum is
// not verified since the default frames carry a placeholder.
func DecodeMIP(frame []byte) (orientation.Sample, error) {
	if len(frame) != mipFrameLength {
		return orientation.Sample{}, &FrameLengthError{Want: mipFrameLength, Got: len(frame)}
	}
	if frame[0] != mipSyncLead || frame[1] != mipSyncLag {
		return orientation.Sample{}, ErrBadSync
	}
	return decodeEuler(frame[6:18]), nil
}

// Fletcher16 returns the two byte MIP checksum of p: a running byte sum and
// a running sum of sums, both modulo 256.
func Fletcher16(p []byte) (msb, lsb byte) {
	for _, b := range p {
		msb += b
		lsb += msb
	}
	return msb, lsb
}
