// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package protocol

import (
	"github.com/relabs-tech/ahrs_emulator/internal/orientation"
)

// Request is one recognized host data request.
type Request struct {
	// Command is the last signature byte received. Models that echo the
	// command put it at the front of the reply.
	Command byte
}

// Codec recognizes requests for one model and frames its replies. A Codec
// may keep detection state between calls and is owned by a single session.
type Codec interface {
	Descriptor() Descriptor
	// Detect inspects the bytes returned by one read and returns the
	// requests they complete, in order.
	Detect(p []byte) []Request
	// Encode builds the reply to req carrying s. Models without a frame
	// implementation return ErrUnsupportedModel and no bytes.
	Encode(req Request, s orientation.Sample) ([]byte, error)
}

// CodecOption tunes a codec at construction time.
type CodecOption func(*codecOptions)

type codecOptions struct {
	computedChecksum bool
}

// WithComputedChecksum makes the MIP codec emit a Fletcher checksum instead
// of the fixed placeholder bytes.
func WithComputedChecksum() CodecOption {
	return func(o *codecOptions) {
		o.computedChecksum = true
	}
}

// NewCodec returns a fresh codec for id.
func NewCodec(id ModelID, opts ...CodecOption) (Codec, error) {
	d, err := Lookup(id)
	if err != nil {
		return nil, err
	}

	var o codecOptions
	for _, opt := range opts {
		opt(&o)
	}

	switch d.Layout {
	case LayoutSingleByte:
		return &gx2Codec{desc: d}, nil
	case LayoutMIP:
		return &mipCodec{desc: d, computedChecksum: o.computedChecksum}, nil
	default:
		return &unsupportedCodec{desc: d}, nil
	}
}

// detectSingleByte matches a read that consists of exactly the signature
// byte.
func detectSingleByte(p []byte, signature byte) []Request {
	if len(p) != 1 || p[0] != signature {
		return nil
	}
	return []Request{{Command: p[0]}}
}
