// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package protocol holds the wire formats of the emulated AHRS models: how a
// host request is recognized and how the orientation reply is framed.
package protocol

import (
	"fmt"

	"github.com/relabs-tech/ahrs_emulator/internal/orientation"
)

// ModelID identifies an emulated device. The numbering matches the order the
// models are offered to the operator.
type ModelID int

const (
	ModelGX2       ModelID = 1 // 3DM-GX2
	ModelGX4_25    ModelID = 2 // 3DM-GX4-25
	ModelGX3_35    ModelID = 3 // 3DM-GX3-35
	ModelGX3_25OEM ModelID = 4 // 3DM-GX3-25-OEM
)

// Layout names the response frame format of a model.
type Layout int

const (
	LayoutUnsupported Layout = iota
	LayoutSingleByte         // 19 byte echoed-command frame
	LayoutMIP                // 20 byte sync-prefixed descriptor frame
)

func (l Layout) String() string {
	switch l {
	case LayoutSingleByte:
		return "single-byte"
	case LayoutMIP:
		return "mip"
	default:
		return "unsupported"
	}
}

// Descriptor is the static description of one emulated model.
type Descriptor struct {
	ID          ModelID
	Name        string
	Signature   []byte // request bytes, in order
	Layout      Layout
	FrameLength int // 0 when the layout is unsupported
	Amplitudes  orientation.Amplitudes
	InitialStep int
}

// Supported reports whether the model has a response frame implementation.
func (d Descriptor) Supported() bool {
	return d.Layout != LayoutUnsupported
}

func (d Descriptor) String() string {
	return fmt.Sprintf("%d (%s)", d.ID, d.Name)
}

var descriptors = []Descriptor{
	{
		ID:          ModelGX2,
		Name:        "3DM-GX2",
		Signature:   []byte{gx2EulerCommand},
		Layout:      LayoutSingleByte,
		FrameLength: gx2FrameLength,
		Amplitudes:  orientation.Amplitudes{Roll: 20, Pitch: 10, Heading: 50},
		InitialStep: 0,
	},
	{
		ID:          ModelGX4_25,
		Name:        "3DM-GX4-25",
		Signature:   []byte{mipSyncLead, mipSyncLag},
		Layout:      LayoutMIP,
		FrameLength: mipFrameLength,
		Amplitudes:  orientation.Amplitudes{Roll: 50, Pitch: 50, Heading: 50},
		InitialStep: 20,
	},
	{
		ID:          ModelGX3_35,
		Name:        "3DM-GX3-35",
		Signature:   []byte{gx2EulerCommand},
		Layout:      LayoutUnsupported,
		Amplitudes:  orientation.Amplitudes{Roll: 20, Pitch: 10, Heading: 50},
		InitialStep: 0,
	},
	{
		ID:          ModelGX3_25OEM,
		Name:        "3DM-GX3-25-OEM",
		Signature:   []byte{gx2EulerCommand},
		Layout:      LayoutUnsupported,
		Amplitudes:  orientation.Amplitudes{Roll: 20, Pitch: 10, Heading: 50},
		InitialStep: 0,
	},
}

// Lookup returns the descriptor for id.
func Lookup(id ModelID) (Descriptor, error) {
	for _, d := range descriptors {
		if d.ID == id {
			return d, nil
		}
	}
	return Descriptor{}, fmt.Errorf("%w: %d", ErrUnknownModel, id)
}

// Models returns every known descriptor in selection order.
func Models() []Descriptor {
	out := make([]Descriptor, len(descriptors))
	copy(out, descriptors)
	return out
}

// Name returns the human name of id, or "unknown".
func (id ModelID) Name() string {
	d, err := Lookup(id)
	if err != nil {
		return "unknown"
	}
	return d.Name
}

// ParseModelID converts a selection number into a ModelID.
func ParseModelID(n int) (ModelID, error) {
	id := ModelID(n)
	if _, err := Lookup(id); err != nil {
		return 0, err
	}
	return id, nil
}
