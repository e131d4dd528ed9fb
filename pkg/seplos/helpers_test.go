// SPDX-License-Identifier: MIT
// Copyright (c) 2025 DpunktS

package seplos

import (
	"encoding/binary"
	"testing"
)

// appendCRC appends the trailing CRC bytes (low byte first, then high byte)
func appendCRC(data []byte) []byte {
	crc := CalculateCRC(data)
	return append(data, byte(crc&0xFF), byte(crc>>8))
}

// buildFrame constructs a complete, CRC-valid frame of the given total
// length. set fills payload bytes before the CRC is computed.
func buildFrame(address, function, subtype byte, length int, set func(data []byte)) []byte {
	data := make([]byte, length-2)
	data[0] = address
	data[1] = function
	data[2] = subtype
	if set != nil {
		set(data)
	}
	return appendCRC(data)
}

// buildTelemetryFrame builds a CRC-valid PACK_TELEMETRY frame
func buildTelemetryFrame(address byte, set func(data []byte)) []byte {
	return buildFrame(address, FuncTelemetry, SubtypePackTelemetry, FrameLenPackTelemetry, set)
}

// buildCellDetailFrame builds a CRC-valid CELL_DETAIL frame
func buildCellDetailFrame(address byte, set func(data []byte)) []byte {
	return buildFrame(address, FuncTelemetry, SubtypeCellDetail, FrameLenCellDetail, set)
}

// buildStatusFrame builds a CRC-valid ALARM_STATUS frame
func buildStatusFrame(address byte, set func(data []byte)) []byte {
	return buildFrame(address, FuncStatus, SubtypeAlarmStatus, FrameLenAlarmStatus, set)
}

// putU16 writes a big-endian 16-bit field at a fixed offset
func putU16(data []byte, offset int, v uint16) {
	binary.BigEndian.PutUint16(data[offset:], v)
}

// decodeBytes validates and decodes raw frame bytes in one step
func decodeBytes(t *testing.T, raw []byte) []Metric {
	t.Helper()
	if !ValidFrame(raw) {
		t.Fatalf("test frame failed CRC validation")
	}
	return Decode(NewFrame(raw))
}

// metricByName finds a metric in a batch or fails the test
func metricByName(t *testing.T, metrics []Metric, name string) Metric {
	t.Helper()
	for _, m := range metrics {
		if m.Name == name {
			return m
		}
	}
	t.Fatalf("metric %q not found in batch of %d", name, len(metrics))
	return Metric{}
}
