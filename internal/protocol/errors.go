// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package protocol

import (
	"errors"
	"fmt"
)

var (
	ErrUnsupportedModel = errors.New("response frame not implemented for this model")
	ErrUnknownModel     = errors.New("unknown AHRS model")
	ErrBadSync          = errors.New("missing MIP sync bytes")
)

// FrameLengthError is returned when decoding a reply of the wrong size.
type FrameLengthError struct {
	Want int
	Got  int
}

func (e *FrameLengthError) Error() string {
	return fmt.Sprintf("frame length %d, want %d", e.Got, e.Want)
}
