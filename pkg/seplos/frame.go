// SPDX-License-Identifier: MIT
// Copyright (c) 2025 DpunktS

package seplos

import "time"

// Frame represents a CRC-validated bus frame
type Frame struct {
	data      []byte
	timestamp time.Time
}

// NewFrame creates a frame from validated bytes. The slice must hold a
// complete frame including header and trailing CRC; the frame takes
// ownership of it.
func NewFrame(data []byte) *Frame {
	return &Frame{
		data:      data,
		timestamp: time.Now(),
	}
}

// Address returns the frame's device address byte (0x01-0x10)
func (f *Frame) Address() byte {
	return f.data[0]
}

// Function returns the frame's function byte
func (f *Frame) Function() byte {
	return f.data[1]
}

// Subtype returns the frame's subtype byte, which selects the decoder
func (f *Frame) Subtype() byte {
	return f.data[2]
}

// Data returns the full frame bytes including header and CRC
func (f *Frame) Data() []byte {
	return f.data
}

// Payload returns the frame bytes between header and CRC
func (f *Frame) Payload() []byte {
	return f.data[3 : len(f.data)-2]
}

// Timestamp returns the frame's decode timestamp
func (f *Frame) Timestamp() time.Time {
	return f.timestamp
}

// DeviceIndex returns the zero-based pack index (address - 1), in [0, 15]
func (f *Frame) DeviceIndex() int {
	return int(f.data[0]) - 1
}

// IsMaster reports whether the frame came from the bus master (device
// index 0). Master frames drive the link-alive signal: the master always
// transmits, so its silence means the tap is dead.
func (f *Frame) IsMaster() bool {
	return f.DeviceIndex() == 0
}
