// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package protocol

import (
	"fmt"

	"github.com/relabs-tech/ahrs_emulator/internal/orientation"
)

// unsupportedCodec serves models whose request byte is known but whose reply
// layout has not been implemented.
type unsupportedCodec struct {
	desc Descriptor
}

func (c *unsupportedCodec) Descriptor() Descriptor { return c.desc }

func (c *unsupportedCodec) Detect(p []byte) []Request {
	return detectSingleByte(p, c.desc.Signature[0])
}

func (c *unsupportedCodec) Encode(Request, orientation.Sample) ([]byte, error) {
	return nil, fmt.Errorf("%s: %w", c.desc.Name, ErrUnsupportedModel)
}
