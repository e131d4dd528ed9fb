// SPDX-License-Identifier: MIT
// Copyright (c) 2025 DpunktS

package seplos

// ValidFrame reports whether a structurally complete candidate frame carries
// a correct trailing CRC. The byte at length-1 holds the high-order CRC byte,
// the byte at length-2 the low-order byte; the CRC covers everything before
// them.
func ValidFrame(data []byte) bool {
	if len(data) < minHeaderBytes {
		return false
	}
	received := uint16(data[len(data)-1])<<8 | uint16(data[len(data)-2])
	return CalculateCRC(data[:len(data)-2]) == received
}
