// SPDX-License-Identifier: MIT
// Copyright (c) 2025 DpunktS

package seplos

import (
	"fmt"
	"strings"
)

// bucket sorts a matched event label into one of the two status outputs
type bucket int

const (
	bucketAlarm bucket = iota
	bucketProtection
)

// bitLabel maps one bit of a status byte to its vendor-documented label
type bitLabel struct {
	mask  byte
	label string
}

// eventLabel is a bitLabel that additionally carries its output bucket
type eventLabel struct {
	mask   byte
	label  string
	bucket bucket
}

// System status byte (ALARM_STATUS offset 11)
var systemStatusLabels = []bitLabel{
	{0x01, "Discharging"},
	{0x02, "Charging"},
	{0x04, "Floating Charge"},
	{0x08, "Full Charge"},
	{0x10, "Standby"},
	{0x20, "Turned Off"},
}

// FET/heating status byte (ALARM_STATUS offset 18)
var fetStatusLabels = []bitLabel{
	{0x01, "Discharge FET On"},
	{0x02, "Charge FET On"},
	{0x04, "Current Limiting FET On"},
	{0x08, "Heating On"},
}

// Voltage events (ALARM_STATUS offset 12)
var voltageEventLabels = []eventLabel{
	{0x01, "Cell High Voltage Alarm", bucketAlarm},
	{0x02, "Cell Overvoltage Protection", bucketProtection},
	{0x04, "Cell Low Voltage Alarm", bucketAlarm},
	{0x08, "Cell Undervoltage Protection", bucketProtection},
	{0x10, "Pack High Voltage Alarm", bucketAlarm},
	{0x20, "Pack Overvoltage Protection", bucketProtection},
	{0x40, "Pack Low Voltage Alarm", bucketAlarm},
	{0x80, "Pack Undervoltage Protection", bucketProtection},
}

// Cell temperature events (ALARM_STATUS offset 13)
var temperatureEventLabels = []eventLabel{
	{0x01, "Charge High Temperature Alarm", bucketAlarm},
	{0x02, "Charge Over Temperature Protection", bucketProtection},
	{0x04, "Charge Low Temperature Alarm", bucketAlarm},
	{0x08, "Charge Under Temperature Protection", bucketProtection},
	{0x10, "Discharge High Temperature Alarm", bucketAlarm},
	{0x20, "Discharge Over Temperature Protection", bucketProtection},
	{0x40, "Discharge Low Temperature Alarm", bucketAlarm},
	{0x80, "Discharge Under Temperature Protection", bucketProtection},
}

// Environment and power-stage temperature events (ALARM_STATUS offset 14)
var environmentEventLabels = []eventLabel{
	{0x01, "Environment High Temperature Alarm", bucketAlarm},
	{0x02, "Environment Over Temperature Protection", bucketProtection},
	{0x04, "Environment Low Temperature Alarm", bucketAlarm},
	{0x08, "Environment Under Temperature Protection", bucketProtection},
	{0x10, "Power High Temperature Alarm", bucketAlarm},
	{0x20, "Power Over Temperature Protection", bucketProtection},
	{0x40, "Cell Low Temperature Heating", bucketAlarm},
}

// Current events (ALARM_STATUS offset 15)
var currentEventLabels = []eventLabel{
	{0x01, "Charge Current Alarm", bucketAlarm},
	{0x02, "Charge Overcurrent Protection", bucketProtection},
	{0x04, "Discharge Current Alarm", bucketAlarm},
	{0x08, "Discharge Overcurrent Protection", bucketProtection},
	{0x10, "Transient Overcurrent Protection", bucketProtection},
	{0x20, "Output Short Circuit Protection", bucketProtection},
}

// Secondary current latch events (ALARM_STATUS offset 16). These lock out
// until the BMS is power-cycled.
var latchEventLabels = []eventLabel{
	{0x01, "Charge Secondary Overcurrent Protection", bucketProtection},
	{0x02, "Charge Secondary Overcurrent Lockout", bucketProtection},
	{0x04, "Discharge Secondary Overcurrent Protection", bucketProtection},
	{0x08, "Discharge Secondary Overcurrent Lockout", bucketProtection},
	{0x10, "Transient Overcurrent Lockout", bucketProtection},
	{0x20, "Output Short Circuit Lockout", bucketProtection},
}

// Residual capacity and hard fault events (ALARM_STATUS offset 17)
var capacityFaultEventLabels = []eventLabel{
	{0x01, "Residual Capacity Alarm", bucketAlarm},
	{0x02, "Residual Capacity Protection", bucketProtection},
	{0x04, "Voltage Sampling Fault", bucketProtection},
	{0x08, "Temperature Sampling Fault", bucketProtection},
	{0x10, "Charge FET Fault", bucketProtection},
	{0x20, "Discharge FET Fault", bucketProtection},
	{0x40, "Cell Fault", bucketProtection},
}

// eventTables lists the six ALARM_STATUS event bytes in wire order,
// starting at offset 12.
var eventTables = [][]eventLabel{
	voltageEventLabels,
	temperatureEventLabels,
	environmentEventLabels,
	currentEventLabels,
	latchEventLabels,
	capacityFaultEventLabels,
}

// cellBitmap returns the 1-based cell indices set in a 16-cell bitmap.
// The low byte covers cells 1-8, the high byte cells 9-16.
func cellBitmap(lo, hi byte) []int {
	cells := []int{}
	for i := 0; i < 8; i++ {
		if lo&(1<<i) != 0 {
			cells = append(cells, i+1)
		}
	}
	for i := 0; i < 8; i++ {
		if hi&(1<<i) != 0 {
			cells = append(cells, i+9)
		}
	}
	return cells
}

// sensorBitmap returns the 1-based sensor indices set in a one-byte bitmap.
// Only the four active temperature sensors are reported.
func sensorBitmap(b byte) []int {
	sensors := []int{}
	for i := 0; i < TempSensorsPerPack; i++ {
		if b&(1<<i) != 0 {
			sensors = append(sensors, i+1)
		}
	}
	return sensors
}

// joinIndices renders a bitmap index list for display ("1, 3"). An empty
// list renders as an empty string: no alarms is a valid state.
func joinIndices(indices []int) string {
	if len(indices) == 0 {
		return ""
	}
	parts := make([]string, len(indices))
	for i, idx := range indices {
		parts[i] = fmt.Sprintf("%d", idx)
	}
	return strings.Join(parts, ", ")
}

// matchLabels returns the labels of all set bits, in table order
func matchLabels(b byte, table []bitLabel) []string {
	labels := []string{}
	for _, entry := range table {
		if b&entry.mask != 0 {
			labels = append(labels, entry.label)
		}
	}
	return labels
}

// matchEvents splits the labels of all set bits into the alarm and
// protection buckets, in table order.
func matchEvents(b byte, table []eventLabel) (alarms, protections []string) {
	for _, entry := range table {
		if b&entry.mask == 0 {
			continue
		}
		if entry.bucket == bucketAlarm {
			alarms = append(alarms, entry.label)
		} else {
			protections = append(protections, entry.label)
		}
	}
	return alarms, protections
}
