// SPDX-License-Identifier: MIT
// Copyright (c) 2025 DpunktS

package seplos

import (
	"encoding/binary"
	"fmt"
	"strings"
)

// Decode maps a validated frame onto its metric set, dispatching on the
// subtype byte. Decoding is pure and stateless: the same frame bytes always
// yield the same metrics, and the frame is not retained. An unrecognized
// subtype (unreachable behind the synchronizer's header filter) yields nil.
func Decode(f *Frame) []Metric {
	switch f.Subtype() {
	case SubtypePackTelemetry:
		return decodePackTelemetry(f)
	case SubtypeCellDetail:
		return decodeCellDetail(f)
	case SubtypeAlarmStatus:
		return decodeAlarmStatus(f)
	}
	return nil
}

// u16 reads the big-endian 16-bit field at a fixed byte offset
func u16(data []byte, offset int) uint16 {
	return binary.BigEndian.Uint16(data[offset:])
}

// i16 reads a signed big-endian 16-bit field (pack current flows both ways)
func i16(data []byte, offset int) int16 {
	return int16(binary.BigEndian.Uint16(data[offset:]))
}

// deciKelvin converts the bus temperature encoding to Celsius
func deciKelvin(raw uint16) float64 {
	return float64(raw)/10 - kelvinOffset
}

// decodePackTelemetry extracts the 0x24 pack summary: sequential big-endian
// 16-bit fields with protocol-constant offsets and scale factors.
func decodePackTelemetry(f *Frame) []Metric {
	data := f.Data()
	dev := f.DeviceIndex()

	return []Metric{
		number(dev, "packVoltage", float64(u16(data, 3))/100, "V", RoleVoltage),
		number(dev, "current", float64(i16(data, 5))/100, "A", RoleCurrent),
		number(dev, "remainingCapacity", float64(u16(data, 7))/100, "Ah", RoleCapacity),
		number(dev, "totalCapacity", float64(u16(data, 9))/100, "Ah", RoleCapacity),
		number(dev, "totalDischargeCapacity", float64(u16(data, 11))*10, "Ah", RoleCapacity),
		number(dev, "soc", float64(u16(data, 13))/10, "%", RolePercentage),
		number(dev, "soh", float64(u16(data, 15))/10, "%", RolePercentage),
		number(dev, "cycleCount", float64(u16(data, 17)), "cycles", RoleCount),
		number(dev, "averageCellVoltage", float64(u16(data, 19))/1000, "V", RoleVoltage),
		number(dev, "averageCellTemp", deciKelvin(u16(data, 21)), "°C", RoleTemperature),
		number(dev, "maxCellVoltage", float64(u16(data, 23))/1000, "V", RoleVoltage),
		number(dev, "minCellVoltage", float64(u16(data, 25))/1000, "V", RoleVoltage),
		number(dev, "maxCellTemp", deciKelvin(u16(data, 27)), "°C", RoleTemperature),
		number(dev, "minCellTemp", deciKelvin(u16(data, 29)), "°C", RoleTemperature),
		number(dev, "maxDischargeCurrent", float64(u16(data, 33)), "A", RoleCurrent),
		number(dev, "maxChargeCurrent", float64(u16(data, 35)), "A", RoleCurrent),
	}
}

// decodeCellDetail extracts the 0x34 per-cell readings: sixteen cell
// voltages, four cell temperature sensors, and the case and power-stage
// temperatures at their fixed later offsets.
func decodeCellDetail(f *Frame) []Metric {
	data := f.Data()
	dev := f.DeviceIndex()

	metrics := make([]Metric, 0, CellsPerPack+TempSensorsPerPack+2)
	for i := 0; i < CellsPerPack; i++ {
		metrics = append(metrics, number(dev,
			fmt.Sprintf("cellVoltage%02d", i+1),
			float64(u16(data, 3+2*i))/1000, "V", RoleVoltage))
	}
	for i := 0; i < TempSensorsPerPack; i++ {
		metrics = append(metrics, number(dev,
			fmt.Sprintf("cellTemp%d", i+1),
			deciKelvin(u16(data, 35+2*i)), "°C", RoleTemperature))
	}
	metrics = append(metrics,
		number(dev, "caseTemp", deciKelvin(u16(data, 51)), "°C", RoleTemperature),
		number(dev, "powerTemp", deciKelvin(u16(data, 53)), "°C", RoleTemperature),
	)
	return metrics
}

// decodeAlarmStatus extracts the 0x12 bitfield block: per-cell alarm
// bitmaps, the balancing bitmap, the system status byte, six event bytes
// sorted into alarm and protection buckets, and the FET status byte. All
// outputs are text metrics.
func decodeAlarmStatus(f *Frame) []Metric {
	data := f.Data()
	dev := f.DeviceIndex()

	lowV := cellBitmap(data[3], data[4])
	highV := cellBitmap(data[5], data[6])
	lowT := sensorBitmap(data[7])
	highT := sensorBitmap(data[8])
	balancing := cellBitmap(data[9], data[10])

	var alarms, protections []string
	for i, table := range eventTables {
		a, p := matchEvents(data[12+i], table)
		alarms = append(alarms, a...)
		protections = append(protections, p...)
	}

	return []Metric{
		text(dev, "cellVoltageAlarm",
			fmt.Sprintf("Low: %s|High: %s", joinIndices(lowV), joinIndices(highV))),
		text(dev, "cellTempAlarm",
			fmt.Sprintf("Low: %s|High: %s", joinIndices(lowT), joinIndices(highT))),
		text(dev, "activeBalancing", joinIndices(balancing)),
		text(dev, "systemStatus", strings.Join(matchLabels(data[11], systemStatusLabels), ", ")),
		text(dev, "alarms", strings.Join(alarms, ", ")),
		text(dev, "protections", strings.Join(protections, ", ")),
		text(dev, "fetStatus", strings.Join(matchLabels(data[18], fetStatusLabels), ", ")),
	}
}
