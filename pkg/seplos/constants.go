// SPDX-License-Identifier: MIT
// Copyright (c) 2025 DpunktS

// Package seplos implements a passive decoder for the Seplos V3 BMS bus
// protocol: a Modbus-RTU-like framing over a shared RS-485 line where one
// device acts as bus master and up to sixteen packs answer with periodic
// telemetry frames. The package synchronizes on a raw byte stream, validates
// candidate frames with the Modbus CRC-16, and decodes three frame kinds
// into unit-tagged metrics. It never transmits.
package seplos

// Bus Addressing
const (
	AddressMin = 0x01
	AddressMax = 0x10

	MaxPacks           = 16
	CellsPerPack       = 16
	TempSensorsPerPack = 4
)

// Frame Header Bytes
//
// A frame starts with <address> <function> <subtype>. Only three
// (function, subtype) pairs exist on the bus.
const (
	FuncTelemetry = 0x04 // carries PACK_TELEMETRY and CELL_DETAIL
	FuncStatus    = 0x01 // carries ALARM_STATUS

	SubtypePackTelemetry = 0x24
	SubtypeCellDetail    = 0x34
	SubtypeAlarmStatus   = 0x12
)

// Total Frame Lengths (header + payload + 2-byte CRC)
const (
	FrameLenPackTelemetry = 41
	FrameLenCellDetail    = 57
	FrameLenAlarmStatus   = 23
)

// minHeaderBytes is the minimum buffered byte count before the synchronizer
// attempts header validation.
const minHeaderBytes = 5

// Modbus CRC-16 Configuration
const (
	crcPolynomial = 0xA001
	crcInitial    = 0xFFFF
)

// kelvinOffset converts the bus's deci-Kelvin temperature encoding:
// Celsius = raw/10 - 273.15.
const kelvinOffset = 273.15

// frameLength returns the expected total frame length for a
// (function, subtype) pair, or 0 if the pair is not decodable. A zero length
// makes the synchronizer discard its whole buffer instead of accumulating
// bytes for a frame it could never decode.
func frameLength(function, subtype byte) int {
	switch {
	case function == FuncTelemetry && subtype == SubtypePackTelemetry:
		return FrameLenPackTelemetry
	case function == FuncTelemetry && subtype == SubtypeCellDetail:
		return FrameLenCellDetail
	case function == FuncStatus && subtype == SubtypeAlarmStatus:
		return FrameLenAlarmStatus
	}
	return 0
}

// validHeader reports whether the three bytes form a known frame header.
func validHeader(address, function, subtype byte) bool {
	if address < AddressMin || address > AddressMax {
		return false
	}
	return frameLength(function, subtype) != 0
}
